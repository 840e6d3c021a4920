package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"buildhooks/internal/config"
	"buildhooks/internal/logging"
	"buildhooks/internal/subscribers"
)

// skipConfigLoad marks commands that must run before any config exists.
const skipConfigLoad = "skipConfigLoad"

// commandContext loads the config once per invocation and hands out the
// loggers and stores subcommands share.
type commandContext struct {
	configPath *string

	once sync.Once
	cfg  *config.Config
	err  error
}

func newCommandContext(configPath *string) *commandContext {
	return &commandContext{configPath: configPath}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		c.cfg, c.err = loadConfig(strings.TrimSpace(*c.configPath))
	})
	return c.cfg, c.err
}

func loadConfig(path string) (*config.Config, error) {
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger sends console records to w and JSON records to the log file.
func (c *commandContext) logger(w io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Console:  w,
		FilePath: cfg.LogPath(),
	})
}

func (c *commandContext) openStore(logger *slog.Logger) (*subscribers.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return subscribers.Open(cfg.Paths.SettingsFile, logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}
