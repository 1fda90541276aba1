package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateScore(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/worthit/config.toml"
		}
		return fmt.Errorf("backend.base_url is required. Edit %s (create with 'worthit config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend.base_url %q is not a valid URL", c.Backend.BaseURL)
	}
	if len(c.Backend.TranscriptLanguages) == 0 {
		return errors.New("backend.transcript_languages must list at least one language")
	}
	return nil
}

func (c *Config) validateScore() error {
	if c.Score.DepthWeight < 0 || c.Score.SentimentWeight < 0 {
		return errors.New("score weights must be non-negative")
	}
	total := c.Score.DepthWeight + c.Score.SentimentWeight
	if total <= 0 {
		return errors.New("score weights must sum to a positive value")
	}
	if c.Score.HighSignalThreshold < 0 || c.Score.HighSignalThreshold > 1 {
		return errors.New("score.high_signal_threshold must be between 0 and 1")
	}
	if c.Score.LowDepthThreshold < 0 || c.Score.LowDepthThreshold > 1 {
		return errors.New("score.low_depth_threshold must be between 0 and 1")
	}
	if c.Score.HighSignalBonus < 0 {
		return errors.New("score.high_signal_bonus must be non-negative")
	}
	if c.Score.LowDepthPenalty < 0 {
		return errors.New("score.low_depth_penalty must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
