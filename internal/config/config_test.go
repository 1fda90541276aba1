package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Quota.DailyLimit != 5 {
		t.Fatalf("expected default daily limit 5, got %d", cfg.Quota.DailyLimit)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
state_dir = "` + filepath.Join(dir, "state") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[backend]
base_url = "https://backend.example.com/"
transcript_languages = ["EN-us", "es", "en-US"]

[quota]
daily_limit = 3

[score]
high_signal_bonus = 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Backend.BaseURL != "https://backend.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Quota.DailyLimit != 3 {
		t.Fatalf("expected daily limit 3, got %d", cfg.Quota.DailyLimit)
	}
	if cfg.Score.HighSignalBonus != 2 {
		t.Fatalf("expected bonus override 2, got %d", cfg.Score.HighSignalBonus)
	}
}

func TestNormalizeLanguageTags(t *testing.T) {
	got, err := normalizeLanguageTags([]string{"EN-us", "es", "en-US", " ", "fr"})
	if err != nil {
		t.Fatalf("normalizeLanguageTags failed: %v", err)
	}
	want := []string{"en-US", "es", "fr"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestNormalizeLanguageTagsRejectsGarbage(t *testing.T) {
	if _, err := normalizeLanguageTags([]string{"not a language tag!!"}); err == nil {
		t.Fatal("expected error for invalid tag")
	}
}

func TestValidateRejectsBadBaseURL(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	cfg.Backend.BaseURL = "not-a-url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for bad base URL")
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for log format")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[quota]") {
		t.Fatal("sample config missing quota section")
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
