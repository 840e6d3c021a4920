package preflight

import (
	"path/filepath"

	"buildhooks/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Settings directory", filepath.Dir(cfg.Paths.SettingsFile)),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckSettingsFile("Webhook settings", cfg.Paths.SettingsFile),
		CheckS3Settings("Object storage settings", cfg.Paths.S3SettingsFile),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
