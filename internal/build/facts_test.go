package build_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"buildhooks/internal/build"
)

func demoFacts() build.Facts {
	return build.Facts{
		ProjectID:   "Demo",
		FullName:    "Demo :: Build",
		BuildNumber: "7",
		Success:     true,
		RootURL:     "http://root/",
		BuildTypeID: "Demo_Build",
		BuildID:     90,
	}
}

func TestURLBuilders(t *testing.T) {
	facts := demoFacts()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"log", build.LogURL(facts), "http://root/viewLog.html?buildTypeId=Demo_Build&buildId=90"},
		{"artifacts tab", build.ArtifactsTabURL(facts), "http://root/viewLog.html?buildTypeId=Demo_Build&buildId=90&tab=artifacts"},
		{"download", build.ArtifactDownloadURL(facts, "app.jar"), "http://root/repository/download/Demo_Build/7/app.jar"},
		{"download escaped", build.ArtifactDownloadURL(facts, "my app.jar"), "http://root/repository/download/Demo_Build/7/my%20app.jar"},
		{"remote prefix", build.RemotePrefix(facts), "Demo::Build/7"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("got %q want %q", tc.got, tc.want)
			}
		})
	}
}

func TestFailureMessage(t *testing.T) {
	facts := demoFacts()
	facts.StatusText = "Tests failed: 3"
	if msg := facts.FailureMessage(); msg != "" {
		t.Fatalf("expected no failure message for successful build, got %q", msg)
	}
	facts.Success = false
	if msg := facts.FailureMessage(); msg != "Tests failed: 3" {
		t.Fatalf("expected verbatim status text, got %q", msg)
	}
	if facts.Label() != "Demo :: Build #7" {
		t.Fatalf("unexpected label %q", facts.Label())
	}
}

func TestNormalizeBranch(t *testing.T) {
	cases := map[string]string{
		"refs/heads/main":   "origin/main",
		"refs/heads/feat/x": "origin/feat/x",
		"main":              "main",
		" refs/tags/v1 ":    "refs/tags/v1",
	}
	for in, want := range cases {
		if got := build.NormalizeBranch(in); got != want {
			t.Fatalf("NormalizeBranch(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDirectoryHostListsArtifacts(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.jar"), []byte("jar"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, ".teamcity"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	facts := demoFacts()
	facts.ArtifactsDir = dir
	listing, err := build.DirectoryHost{}.ArtifactListing(context.Background(), facts)
	if err != nil {
		t.Fatalf("ArtifactListing returned error: %v", err)
	}
	if len(listing) != 2 {
		t.Fatalf("expected 2 entries, got %+v", listing)
	}
	byName := map[string]bool{}
	for _, entry := range listing {
		byName[entry.Name] = entry.IsDir
	}
	if isDir, ok := byName["app.jar"]; !ok || isDir {
		t.Fatalf("expected app.jar file entry, got %+v", listing)
	}
	if isDir, ok := byName[".teamcity"]; !ok || !isDir {
		t.Fatalf("expected .teamcity directory entry, got %+v", listing)
	}
}

func TestDirectoryHostMissingDirectoryIsEmpty(t *testing.T) {
	facts := demoFacts()
	facts.ArtifactsDir = filepath.Join(t.TempDir(), "missing")
	listing, err := build.DirectoryHost{}.ArtifactListing(context.Background(), facts)
	if err != nil {
		t.Fatalf("expected no error for missing directory, got %v", err)
	}
	if len(listing) != 0 {
		t.Fatalf("expected empty listing, got %+v", listing)
	}
}

func TestDirectoryHostSCMPointer(t *testing.T) {
	host := build.DirectoryHost{}
	facts := demoFacts()

	scm, err := host.SCMPointer(context.Background(), facts)
	if err != nil || scm != nil {
		t.Fatalf("expected nil pointer without SCM, got %+v (%v)", scm, err)
	}

	facts.SCM = &build.SCM{URL: "git@example.com:demo.git", Branch: "refs/heads/main", Revision: "abc123"}
	scm, err = host.SCMPointer(context.Background(), facts)
	if err != nil {
		t.Fatalf("SCMPointer returned error: %v", err)
	}
	if scm.Branch != "origin/main" || scm.Revision != "abc123" {
		t.Fatalf("unexpected pointer %+v", scm)
	}
	if facts.SCM.Branch != "refs/heads/main" {
		t.Fatal("expected caller facts to remain unmodified")
	}
}
