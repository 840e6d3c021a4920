package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"buildhooks/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	ConfigDir      string `toml:"config_dir"`
	LogDir         string `toml:"log_dir"`
	SettingsFile   string `toml:"settings_file"`
	S3SettingsFile string `toml:"s3_settings_file"`
}

// Server describes the build server whose builds are announced.
type Server struct {
	RootURL string `toml:"root_url"`
}

// Delivery contains outbound webhook settings.
type Delivery struct {
	RequestTimeout int    `toml:"request_timeout"`
	UserAgent      string `toml:"user_agent"`
}

// API contains the admin HTTP API settings.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for buildhooks.
//
// Configuration sections by subsystem:
//   - Paths: subscriber settings, S3 credentials, and log locations
//   - Server: build server root URL for synthesized links
//   - Delivery: webhook POST timeout and user agent
//   - API: admin/trigger HTTP API bind address and token
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Server   Server   `toml:"server"`
	Delivery Delivery `toml:"delivery"`
	API      API      `toml:"api"`
	Logging  Logging  `toml:"logging"`
}

// ErrConfigExists is returned by CreateSample when it would replace a file.
var ErrConfigExists = errors.New("config file already exists")

// DefaultConfigPath returns the per-user config location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/buildhooks/config.toml")
}

// Load reads the config at path, or the first existing default location when
// path is empty, then normalizes and validates it. A missing file yields the
// defaults; the bool reports whether a file was read. Unknown keys are errors
// so typos in section or key names do not silently fall back to defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	err = toml.NewDecoder(file).DisallowUnknownFields().Decode(cfg)
	var decodeErr *toml.DecodeError
	var strictErr *toml.StrictMissingError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &decodeErr):
		row, col := decodeErr.Position()
		return fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
	case errors.As(err, &strictErr):
		return fmt.Errorf("parse config %s: unknown keys:\n%s", path, strictErr.String())
	default:
		return fmt.Errorf("parse config %s: %w", path, err)
	}
}

// resolveConfigPath honours an explicit path even when it does not exist yet.
// Otherwise it tries the per-user file, then ./buildhooks.toml.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		return expanded, exists, err
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	localPath, err := filepath.Abs("buildhooks.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// EnsureDirectories creates the directories the server and CLI write into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.ConfigDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.SettingsFile),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequestTimeout returns the per-destination delivery timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.Delivery.RequestTimeout <= 0 {
		return time.Duration(defaultRequestTimeout) * time.Second
	}
	return time.Duration(c.Delivery.RequestTimeout) * time.Second
}

// LockPath returns the single-instance lock used by the API server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "buildhooks.lock")
}

// LogPath returns the log file written alongside console output.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "buildhooks.log")
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath applies the tilde and absolute-path rules used for config values.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// CreateSample writes the commented sample config to path. It refuses to
// replace an existing file unless overwrite is set.
func CreateSample(path string, overwrite bool) error {
	if !overwrite {
		exists, err := isFile(path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w at %s", ErrConfigExists, path)
		}
	}
	if err := fileutil.WriteAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
