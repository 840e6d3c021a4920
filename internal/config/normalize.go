package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeDelivery()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ConfigDir) == "" {
		c.Paths.ConfigDir = defaultConfigDir
	}
	if c.Paths.ConfigDir, err = expandPath(strings.TrimSpace(c.Paths.ConfigDir)); err != nil {
		return fmt.Errorf("paths.config_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.SettingsFile, err = c.resolveConfigFile(c.Paths.SettingsFile, defaultSettingsFile); err != nil {
		return fmt.Errorf("paths.settings_file: %w", err)
	}
	if c.Paths.S3SettingsFile, err = c.resolveConfigFile(c.Paths.S3SettingsFile, defaultS3SettingsFile); err != nil {
		return fmt.Errorf("paths.s3_settings_file: %w", err)
	}
	return nil
}

// resolveConfigFile anchors bare file names in the config directory.
func (c *Config) resolveConfigFile(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	if !strings.HasPrefix(value, "~") && !filepath.IsAbs(value) {
		value = filepath.Join(c.Paths.ConfigDir, value)
	}
	return expandPath(value)
}

func (c *Config) normalizeServer() {
	if strings.TrimSpace(c.Server.RootURL) == "" {
		if value, ok := os.LookupEnv("BUILDHOOKS_SERVER_URL"); ok {
			c.Server.RootURL = value
		}
	}
	c.Server.RootURL = strings.TrimRight(strings.TrimSpace(c.Server.RootURL), "/")
}

func (c *Config) normalizeDelivery() {
	if c.Delivery.RequestTimeout <= 0 {
		c.Delivery.RequestTimeout = defaultRequestTimeout
	}
	c.Delivery.UserAgent = strings.TrimSpace(c.Delivery.UserAgent)
	if c.Delivery.UserAgent == "" {
		c.Delivery.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("BUILDHOOKS_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
