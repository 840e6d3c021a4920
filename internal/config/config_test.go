package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"buildhooks/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("BUILDHOOKS_SERVER_URL", "")
	t.Setenv("BUILDHOOKS_API_TOKEN", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantConfigDir := filepath.Join(tempHome, ".config", "buildhooks")
	if cfg.Paths.ConfigDir != wantConfigDir {
		t.Fatalf("unexpected config dir: got %q want %q", cfg.Paths.ConfigDir, wantConfigDir)
	}
	if cfg.Paths.SettingsFile != filepath.Join(wantConfigDir, "webhooks.json") {
		t.Fatalf("unexpected settings file: %q", cfg.Paths.SettingsFile)
	}
	if cfg.Paths.S3SettingsFile != filepath.Join(wantConfigDir, "s3.json") {
		t.Fatalf("unexpected s3 settings file: %q", cfg.Paths.S3SettingsFile)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "buildhooks", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.API.Bind != "127.0.0.1:7491" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Fatalf("unexpected request timeout: %s", cfg.RequestTimeout())
	}
	if cfg.Server.RootURL != "" {
		t.Fatalf("expected empty root url, got %q", cfg.Server.RootURL)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	t.Setenv("BUILDHOOKS_API_TOKEN", "")
	dir := t.TempDir()
	configDir := filepath.Join(dir, "etc")

	payload := map[string]any{
		"paths": map[string]any{
			"config_dir":       configDir,
			"log_dir":          filepath.Join(dir, "logs"),
			"s3_settings_file": filepath.Join(dir, "secrets", "s3.json"),
		},
		"server": map[string]any{
			"root_url": "http://ci.example.com/",
		},
		"delivery": map[string]any{
			"request_timeout": 3,
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "Debug",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "buildhooks.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Server.RootURL != "http://ci.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Server.RootURL)
	}
	if cfg.Paths.SettingsFile != filepath.Join(configDir, "webhooks.json") {
		t.Fatalf("expected settings anchored in config dir, got %q", cfg.Paths.SettingsFile)
	}
	if cfg.Paths.S3SettingsFile != filepath.Join(dir, "secrets", "s3.json") {
		t.Fatalf("expected absolute s3 settings path preserved, got %q", cfg.Paths.S3SettingsFile)
	}
	if cfg.RequestTimeout() != 3*time.Second {
		t.Fatalf("unexpected request timeout: %s", cfg.RequestTimeout())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected canonical logging values, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadUsesEnvironmentFallbacks(t *testing.T) {
	t.Setenv("BUILDHOOKS_SERVER_URL", "https://teamcity.internal")
	t.Setenv("BUILDHOOKS_API_TOKEN", " secret ")
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Server.RootURL != "https://teamcity.internal" {
		t.Fatalf("expected root url from env, got %q", cfg.Server.RootURL)
	}
	if cfg.API.Token != "secret" {
		t.Fatalf("expected trimmed token from env, got %q", cfg.API.Token)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "root url scheme",
			mutate: func(c *config.Config) { c.Server.RootURL = "ftp://ci" },
			want:   "server.root_url",
		},
		{
			name:   "root url host",
			mutate: func(c *config.Config) { c.Server.RootURL = "http://" },
			want:   "must include a host",
		},
		{
			name:   "timeout",
			mutate: func(c *config.Config) { c.Delivery.RequestTimeout = 900 },
			want:   "delivery.request_timeout",
		},
		{
			name:   "log format",
			mutate: func(c *config.Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
		{
			name:   "log level",
			mutate: func(c *config.Config) { c.Logging.Level = "trace" },
			want:   "logging.level",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("BUILDHOOKS_SERVER_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path, false); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Server.RootURL != "http://127.0.0.1:8111" {
		t.Fatalf("unexpected sample root url: %q", cfg.Server.RootURL)
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("# mine\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := config.CreateSample(path, false); !errors.Is(err, config.ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}
	if err := config.CreateSample(path, true); err != nil {
		t.Fatalf("CreateSample with overwrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "[delivery]") {
		t.Fatalf("expected sample content, got %q", data)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[delivery]\nrequest_timeot = 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "request_timeot") {
		t.Fatalf("expected unknown key error naming the key, got %v", err)
	}
}

func TestLoadReportsSyntaxPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nroot_url = \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "config.toml:2:") {
		t.Fatalf("expected position in parse error, got %v", err)
	}
}
