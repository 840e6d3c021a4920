package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.RootURL == "" {
		// Archive links are skipped without a root URL; remote links still resolve.
		return nil
	}
	parsed, err := url.Parse(c.Server.RootURL)
	if err != nil {
		return fmt.Errorf("server.root_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server.root_url must use http or https, got %q", c.Server.RootURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("server.root_url must include a host, got %q", c.Server.RootURL)
	}
	return nil
}

func (c *Config) validateDelivery() error {
	if c.Delivery.RequestTimeout > 300 {
		return errors.New("delivery.request_timeout must not exceed 300 seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
