package config

import (
	"errors"
	"fmt"

	"helixio/internal/metadata"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.AutoMatchThreshold < 0 || c.Matching.AutoMatchThreshold > 1 {
		return errors.New("matching.auto_match_threshold must be between 0 and 1")
	}
	if c.Matching.IssueThreshold < 0 || c.Matching.IssueThreshold > 1 {
		return errors.New("matching.issue_threshold must be between 0 and 1")
	}
	for _, name := range c.Matching.EnabledSources {
		if _, ok := metadata.ParseSource(name); !ok {
			return fmt.Errorf("matching.enabled_sources: unknown source %q", name)
		}
	}
	return nil
}

func (c *Config) validateSources() error {
	for _, source := range c.EnabledSources() {
		if source == metadata.SourceComicVine && c.ComicVine.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/helixio/config.toml"
			}
			return fmt.Errorf("comicvine.api_key is required when comicvine is enabled. Set COMICVINE_API_KEY or edit %s (create with 'helixio config init')", defaultPath)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
