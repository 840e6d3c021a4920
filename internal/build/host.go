package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// LocalArtifact is one top-level entry of a build's archived artifacts directory.
type LocalArtifact struct {
	Name  string
	IsDir bool
}

// Host is the collaborator surface the pipeline consumes from the build server.
// Either call may fail; the pipeline logs the failure and carries on without
// that piece of information.
type Host interface {
	ArtifactListing(ctx context.Context, facts Facts) ([]LocalArtifact, error)
	SCMPointer(ctx context.Context, facts Facts) (*SCM, error)
}

// DirectoryHost serves both lookups from Facts itself: the SCM pointer is taken
// as supplied and the listing is read from Facts.ArtifactsDir.
type DirectoryHost struct{}

// ArtifactListing lists the artifacts directory. A missing or unset directory
// yields an empty listing rather than an error.
func (DirectoryHost) ArtifactListing(ctx context.Context, facts Facts) ([]LocalArtifact, error) {
	dir := strings.TrimSpace(facts.ArtifactsDir)
	if dir == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat artifacts directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read artifacts directory: %w", err)
	}
	listing := make([]LocalArtifact, 0, len(entries))
	for _, entry := range entries {
		listing = append(listing, LocalArtifact{Name: entry.Name(), IsDir: entry.IsDir()})
	}
	return listing, nil
}

// SCMPointer returns the supplied pointer with its branch normalized.
func (DirectoryHost) SCMPointer(_ context.Context, facts Facts) (*SCM, error) {
	if facts.SCM == nil {
		return nil, nil
	}
	scm := *facts.SCM
	scm.Branch = NormalizeBranch(scm.Branch)
	return &scm, nil
}
