package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"worthit/internal/testsupport"
)

func writeTestConfig(t *testing.T, backendURL string, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q

[backend]
base_url = %q
api_key = "test"

[pipeline]
refresh_on_cache_hit = false
%s`,
		filepath.Join(dir, "state"), filepath.Join(dir, "logs"), backendURL, extra)

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestAnalyzeCommandRendersResult(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	cfgPath := writeTestConfig(t, fake.URL(), "")

	out, err := runCommand(t, "--config", cfgPath, "analyze", "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	for _, want := range []string{"93 / 100", "worth it", "Summary", "Takeaways"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeCommandRejectsBadReference(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	cfgPath := writeTestConfig(t, fake.URL(), "")

	_, err := runCommand(t, "--config", cfgPath, "analyze", "definitely not a video")
	if err == nil {
		t.Fatal("expected error for malformed reference")
	}
}

func TestQuotaCommandReflectsConsumption(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	cfgPath := writeTestConfig(t, fake.URL(), "")

	if out, err := runCommand(t, "--config", cfgPath, "analyze", "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	out, err := runCommand(t, "--config", cfgPath, "quota")
	if err != nil {
		t.Fatalf("quota: %v\n%s", err, out)
	}
	if !strings.Contains(out, "4 of 5") {
		t.Fatalf("expected 4 of 5 remaining:\n%s", out)
	}
}

func TestAnalyzeCommandDeniedShowsPaywall(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	cfgPath := writeTestConfig(t, fake.URL(), "\n[quota]\ndaily_limit = 1\n")

	if out, err := runCommand(t, "--config", cfgPath, "analyze", "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("first analyze: %v\n%s", err, out)
	}
	out, err := runCommand(t, "--config", cfgPath, "analyze", "AbCdEfGhIjK")
	if err == nil {
		t.Fatalf("expected quota denial:\n%s", out)
	}
	if !strings.Contains(out, "Daily free analyses used up") {
		t.Fatalf("expected paywall rendering:\n%s", out)
	}
}

func TestAskCommandAnswersAfterAnalysis(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	fake.Answers = []string{"it was a birdhouse"}
	cfgPath := writeTestConfig(t, fake.URL(), "")

	if out, err := runCommand(t, "--config", cfgPath, "analyze", "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	out, err := runCommand(t, "--config", cfgPath, "ask", "dQw4w9WgXcQ", "what", "was", "built?")
	if err != nil {
		t.Fatalf("ask: %v\n%s", err, out)
	}
	if !strings.Contains(out, "it was a birdhouse") {
		t.Fatalf("expected answer in output:\n%s", out)
	}
}

func TestAskCommandRequiresAnalysis(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	cfgPath := writeTestConfig(t, fake.URL(), "")

	_, err := runCommand(t, "--config", cfgPath, "ask", "dQw4w9WgXcQ", "anything?")
	if err == nil {
		t.Fatal("expected error without a prior analysis")
	}
}

func TestCacheRecentAndClear(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	cfgPath := writeTestConfig(t, fake.URL(), "")

	if out, err := runCommand(t, "--config", cfgPath, "analyze", "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	out, err := runCommand(t, "--config", cfgPath, "cache", "recent")
	if err != nil {
		t.Fatalf("cache recent: %v\n%s", err, out)
	}
	if !strings.Contains(out, "dQw4w9WgXcQ") {
		t.Fatalf("expected recent entry:\n%s", out)
	}

	if out, err = runCommand(t, "--config", cfgPath, "cache", "clear", "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("cache clear: %v\n%s", err, out)
	}
	// cleared, so asking again has no context
	if _, err := runCommand(t, "--config", cfgPath, "ask", "dQw4w9WgXcQ", "anything?"); err == nil {
		t.Fatal("expected cleared analysis to be gone")
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
