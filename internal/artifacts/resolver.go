package artifacts

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"buildhooks/internal/build"
	"buildhooks/internal/logging"
	"buildhooks/internal/metrics"
)

// Location kinds.
const (
	KindArchive     = "archive"
	KindObjectStore = "object-store"
)

// Reserved names never reported as artifacts: the build server's internal
// metadata directory and the build descriptor uploaded next to artifacts.
var reservedNames = map[string]struct{}{
	".teamcity":  {},
	"build.json": {},
}

// Locations maps artifact name to location kind to URL. A name is only
// present when it has at least one location.
type Locations map[string]map[string]string

func (l Locations) add(name, kind, url string) {
	kinds, ok := l[name]
	if !ok {
		kinds = make(map[string]string, 2)
		l[name] = kinds
	}
	kinds[kind] = url
}

// Names returns the artifact names in lexical order.
func (l Locations) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoteObject is one object found under a build's storage prefix.
type RemoteObject struct {
	Key string
	URL string
}

// RemoteLister enumerates previously uploaded objects under a key prefix.
type RemoteLister interface {
	List(ctx context.Context, prefix string) ([]RemoteObject, error)
}

// Resolver merges archived and remote artifact locations.
type Resolver struct {
	remote RemoteLister
	logger *slog.Logger
}

// NewResolver builds a resolver. remote may be nil when no object storage is configured.
func NewResolver(remote RemoteLister, logger *slog.Logger) *Resolver {
	return &Resolver{
		remote: remote,
		logger: logging.NewComponentLogger(logger, "artifacts"),
	}
}

// Resolve returns the merged artifact locations for a build.
func (r *Resolver) Resolve(ctx context.Context, facts build.Facts, local []build.LocalArtifact) Locations {
	locations := make(Locations)

	if strings.TrimSpace(facts.RootURL) != "" {
		for _, artifact := range local {
			if isReserved(artifact.Name) {
				continue
			}
			locations.add(artifact.Name, KindArchive, build.ArtifactDownloadURL(facts, artifact.Name))
		}
	}

	if r.remote == nil {
		return locations
	}

	prefix := build.RemotePrefix(facts) + "/"
	objects, err := r.remote.List(ctx, prefix)
	if err != nil {
		metrics.RemoteListingFailed()
		logging.ErrorWithContext(logging.WithContext(ctx, r.logger), "failed to list remote artifacts", "remote_listing_failed",
			logging.String(logging.FieldProjectID, facts.ProjectID),
			logging.String(logging.FieldBuildName, facts.FullName),
			logging.String(logging.FieldBuildNumber, facts.BuildNumber),
			logging.String("prefix", prefix),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check s3.json credentials and bucket"))
		return locations
	}

	for _, object := range objects {
		if object.Key == "" {
			continue
		}
		name := object.Key[strings.LastIndex(object.Key, "/")+1:]
		if isReserved(name) {
			continue
		}
		locations.add(name, KindObjectStore, object.URL)
	}
	return locations
}

func isReserved(name string) bool {
	if name == "" {
		return true
	}
	_, ok := reservedNames[name]
	return ok
}
