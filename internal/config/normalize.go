package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBackend(); err != nil {
		return err
	}
	c.normalizeQuota()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() error {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	c.Backend.APIKey = strings.TrimSpace(c.Backend.APIKey)
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultBackendTimeout
	}
	if c.Backend.RetryMaxAttempts <= 0 {
		c.Backend.RetryMaxAttempts = defaultBackendRetryAttempts
	}
	if c.Backend.CommentLimit <= 0 {
		c.Backend.CommentLimit = defaultCommentLimit
	}

	normalized, err := normalizeLanguageTags(c.Backend.TranscriptLanguages)
	if err != nil {
		return fmt.Errorf("backend.transcript_languages: %w", err)
	}
	if len(normalized) == 0 {
		normalized = append([]string(nil), defaultTranscriptLanguages...)
	}
	c.Backend.TranscriptLanguages = normalized
	return nil
}

// normalizeLanguageTags canonicalizes BCP 47 tags ("EN-us" -> "en-US") and
// drops duplicates while preserving the caller's fallback order.
func normalizeLanguageTags(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		tag, err := language.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid language tag %q: %w", raw, err)
		}
		canonical := tag.String()
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out, nil
}

func (c *Config) normalizeQuota() {
	if c.Quota.DailyLimit <= 0 {
		c.Quota.DailyLimit = defaultDailyLimit
	}
	if strings.TrimSpace(c.Quota.OwnerScope) == "" {
		c.Quota.OwnerScope = defaultOwnerScope
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.LockTimeoutSeconds <= 0 {
		c.Pipeline.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
	if c.Pipeline.ReadingWordsPerMin <= 0 {
		c.Pipeline.ReadingWordsPerMin = defaultReadingWordsPerMin
	}
	if c.QA.RetryMaxAttempts <= 0 {
		c.QA.RetryMaxAttempts = defaultQARetryAttempts
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
