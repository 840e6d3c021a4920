package preflight

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"

	"buildhooks/internal/artifacts"
)

// minFreeBytes leaves room to rewrite the settings file and keep logging.
const minFreeBytes = 16 << 20

func pass(name, format string, args ...any) Result {
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf(format, args...)}
}

func fail(name, path string, err error) Result {
	return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
}

// CheckDirectoryAccess requires path to be a writable directory with at least
// 16 MiB free.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail(name, path, errors.New("does not exist"))
	case err != nil:
		return fail(name, path, err)
	case !info.IsDir():
		return fail(name, path, errors.New("not a directory"))
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail(name, path, fmt.Errorf("insufficient permissions: %w", err))
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err == nil {
		if free := stat.Bavail * uint64(stat.Bsize); free < minFreeBytes {
			return fail(name, path, fmt.Errorf("only %d KiB free", free>>10))
		}
	}
	return pass(name, "%s (read/write ok)", path)
}

// CheckSettingsFile requires the webhook settings file to be absent or a JSON
// object of project id to URL list.
func CheckSettingsFile(name, path string) Result {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return pass(name, "%s (not created yet)", path)
	}
	if err != nil {
		return fail(name, path, err)
	}
	var projects map[string][]string
	if err := json.Unmarshal(data, &projects); err != nil {
		return fail(name, path, err)
	}
	return pass(name, "%s (%d projects)", path, len(projects))
}

// CheckS3Settings reports whether object-storage listing is enabled.
func CheckS3Settings(name, path string) Result {
	settings, err := artifacts.LoadS3Settings(path)
	if err != nil {
		return fail(name, path, err)
	}
	if settings == nil {
		return pass(name, "disabled")
	}
	return pass(name, "bucket %s", settings.ArtifactBucket)
}
