package preflight

import (
	"context"
	"log/slog"

	"worthit/internal/config"
	"worthit/internal/logging"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	results = append(results, CheckBackend(ctx, cfg.Backend.BaseURL))
	return results
}

// Healthy reports whether every check passed.
func Healthy(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// Log writes one line per check at a level matching its outcome.
func Log(logger *slog.Logger, results []Result) {
	for _, result := range results {
		attrs := []logging.Attr{
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		}
		if result.Passed {
			logger.Debug("preflight check passed", logging.Args(attrs...)...)
		} else {
			logger.Warn("preflight check failed", logging.Args(attrs...)...)
		}
	}
}
