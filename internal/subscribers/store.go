package subscribers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"buildhooks/internal/fileutil"
	"buildhooks/internal/logging"
)

// ErrInvalidArgument is returned for blank project identifiers or URLs.
var ErrInvalidArgument = errors.New("invalid argument")

// Store is safe for concurrent use. Reads are served from memory; mutations
// are applied to memory only after the file rewrite succeeded.
type Store struct {
	path     string
	logger   *slog.Logger
	fileLock *flock.Flock

	mu       sync.RWMutex
	projects map[string][]string
}

// Open loads the settings file at path. A missing file starts empty; an
// unreadable or malformed file is logged and also starts empty. An empty
// path gives a memory-only store.
func Open(path string, logger *slog.Logger) *Store {
	s := &Store{
		path:     path,
		logger:   logging.NewComponentLogger(logger, "subscribers"),
		projects: make(map[string][]string),
	}
	if path == "" {
		return s
	}
	s.fileLock = flock.New(path + ".lock")

	projects, err := s.read()
	if err != nil {
		logging.ErrorWithContext(s.logger, "failed to load webhook settings", "subscribers_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or remove the settings file; starting with no subscribers"))
		return s
	}
	s.projects = projects
	s.logger.Debug("loaded webhook settings",
		logging.String("path", path),
		logging.Int("project_count", len(projects)))
	return s
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// URLsFor returns a copy of the project's URLs in insertion order. Unknown
// projects get an empty in-memory entry; nothing is written.
func (s *Store) URLsFor(projectID string) []string {
	s.mu.RLock()
	urls, ok := s.projects[projectID]
	if ok {
		out := slices.Clone(urls)
		s.mu.RUnlock()
		return nonNil(out)
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if urls, ok := s.projects[projectID]; ok {
		return nonNil(slices.Clone(urls))
	}
	s.projects[projectID] = []string{}
	return []string{}
}

// Projects returns the identifiers that have at least one URL, sorted.
func (s *Store) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.projects))
	for id, urls := range s.projects {
		if len(urls) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Add appends url to the project's set unless already present, then rewrites
// the settings file.
func (s *Store) Add(projectID, url string) error {
	projectID, url, err := validate(projectID, url)
	if err != nil {
		return err
	}
	if err := s.mutate(projectID, func(urls []string) []string {
		if slices.Contains(urls, url) {
			return urls
		}
		return append(urls, url)
	}); err != nil {
		return err
	}
	s.logger.Info("webhook subscriber added",
		logging.String(logging.FieldProjectID, projectID),
		logging.String(logging.FieldDestination, url))
	return nil
}

// Remove drops url from the project's set if present, then rewrites the
// settings file.
func (s *Store) Remove(projectID, url string) error {
	projectID, url, err := validate(projectID, url)
	if err != nil {
		return err
	}
	if err := s.mutate(projectID, func(urls []string) []string {
		return slices.DeleteFunc(urls, func(existing string) bool { return existing == url })
	}); err != nil {
		return err
	}
	s.logger.Info("webhook subscriber removed",
		logging.String(logging.FieldProjectID, projectID),
		logging.String(logging.FieldDestination, url))
	return nil
}

func validate(projectID, url string) (string, string, error) {
	projectID = strings.TrimSpace(projectID)
	url = strings.TrimSpace(url)
	if projectID == "" {
		return "", "", fmt.Errorf("%w: project id is empty", ErrInvalidArgument)
	}
	if url == "" {
		return "", "", fmt.Errorf("%w: webhook url is empty", ErrInvalidArgument)
	}
	return projectID, url, nil
}

// mutate applies fn to a copy of the project's URLs and commits the result
// once it is on disk. The file is re-read under the advisory lock so edits
// made by another process since Open are kept.
func (s *Store) mutate(projectID string, fn func([]string) []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.projects
	if s.fileLock != nil {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
		if err := s.fileLock.Lock(); err != nil {
			return fmt.Errorf("lock settings file: %w", err)
		}
		defer func() { _ = s.fileLock.Unlock() }()

		onDisk, err := s.read()
		if err != nil {
			logging.WarnWithContext(s.logger, "settings file unreadable; rewriting from memory", "subscribers_reload_failed",
				logging.String("path", s.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the next write replaces the damaged file"))
		} else {
			base = onDisk
		}
	}

	next := make(map[string][]string, len(base)+1)
	for id, urls := range base {
		next[id] = slices.Clone(urls)
	}
	next[projectID] = nonNil(fn(next[projectID]))

	if s.fileLock != nil {
		if err := s.write(next); err != nil {
			return err
		}
	}
	for id := range s.projects {
		if _, ok := next[id]; !ok {
			next[id] = []string{}
		}
	}
	s.projects = next
	return nil
}

func (s *Store) read() (map[string][]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string][]string), nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return make(map[string][]string), nil
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}

	projects := make(map[string][]string, len(raw))
	for id, urls := range raw {
		if strings.TrimSpace(id) == "" {
			continue
		}
		clean := make([]string, 0, len(urls))
		for _, url := range urls {
			if strings.TrimSpace(url) == "" || slices.Contains(clean, url) {
				continue
			}
			clean = append(clean, url)
		}
		projects[id] = clean
	}
	return projects, nil
}

// write persists every non-empty project; empty sets are omitted.
func (s *Store) write(projects map[string][]string) error {
	out := make(map[string][]string, len(projects))
	for id, urls := range projects {
		if len(urls) > 0 {
			out[id] = urls
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func nonNil(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
