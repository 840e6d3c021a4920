package testsupport

import (
	"path/filepath"
	"testing"

	"buildhooks/internal/config"
)

// ConfigOption adjusts a test config before its directories are created.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns a config rooted in a fresh temp directory:
//
//	<base>/config/webhooks.json
//	<base>/config/s3.json
//	<base>/logs/
//
// Links point at http://build.example and the API binds an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ConfigDir = filepath.Join(base, "config")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SettingsFile = filepath.Join(cfg.Paths.ConfigDir, "webhooks.json")
	cfg.Paths.S3SettingsFile = filepath.Join(cfg.Paths.ConfigDir, "s3.json")
	cfg.Server.RootURL = "http://build.example"
	cfg.API.Bind = "127.0.0.1:0"
	cfg.Delivery.RequestTimeout = 5

	for _, opt := range opts {
		opt(t, &cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithRootURL overrides the build server root URL.
func WithRootURL(url string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) { cfg.Server.RootURL = url }
}

// WithAPIToken sets the admin API bearer token.
func WithAPIToken(token string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) { cfg.API.Token = token }
}

// WithS3Settings writes an s3.json next to the webhook settings.
func WithS3Settings(settings map[string]string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		WriteJSON(t, cfg.Paths.S3SettingsFile, settings)
	}
}

// BaseDir returns the temp directory a NewConfig config lives under.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ConfigDir)
}
