package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration shared by both host processes.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Backend contains connection settings for the transcript/comment/AI backend.
type Backend struct {
	BaseURL             string   `toml:"base_url"`
	APIKey              string   `toml:"api_key"`
	TimeoutSeconds      int      `toml:"timeout_seconds"`
	RetryMaxAttempts    int      `toml:"retry_max_attempts"`
	CommentLimit        int      `toml:"comment_limit"`
	TranscriptLanguages []string `toml:"transcript_languages"`
}

// Quota contains daily usage limits for non-subscribed users.
type Quota struct {
	DailyLimit int    `toml:"daily_limit"`
	OwnerScope string `toml:"owner_scope"`
}

// Score contains the tunable weights and edge-case nudges for the final score.
type Score struct {
	DepthWeight         float64 `toml:"depth_weight"`
	SentimentWeight     float64 `toml:"sentiment_weight"`
	HighSignalThreshold float64 `toml:"high_signal_threshold"`
	HighSignalBonus     int     `toml:"high_signal_bonus"`
	LowDepthThreshold   float64 `toml:"low_depth_threshold"`
	LowDepthPenalty     int     `toml:"low_depth_penalty"`
}

// Pipeline contains orchestration behavior toggles.
type Pipeline struct {
	RefreshOnCacheHit  bool `toml:"refresh_on_cache_hit"`
	EssentialsEnabled  bool `toml:"essentials_enabled"`
	LockTimeoutSeconds int  `toml:"lock_timeout_seconds"`
	ReadingWordsPerMin int  `toml:"reading_words_per_minute"`
}

// QA contains conversational follow-up settings.
type QA struct {
	RetryMaxAttempts int `toml:"retry_max_attempts"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the engine.
//
// Configuration sections by subsystem:
//   - Paths: shared state and log directories
//   - Backend: transcript/comment/AI backend connection and retry settings
//   - Quota: daily usage limit and owner scope
//   - Score: final-score weights and edge-case nudges
//   - Pipeline: orchestration toggles (background refresh, essentials pass)
//   - QA: conversational follow-up retry bounds
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Backend  Backend  `toml:"backend"`
	Quota    Quota    `toml:"quota"`
	Score    Score    `toml:"score"`
	Pipeline Pipeline `toml:"pipeline"`
	QA       QA       `toml:"qa"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/worthit/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("worthit.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories both processes rely on.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StateDBPath returns the location of the shared durable store.
func (c *Config) StateDBPath() string {
	return filepath.Join(c.Paths.StateDir, "state.db")
}

// LockDir returns the directory holding per-scope invocation lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
