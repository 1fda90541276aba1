package main

import (
	"fmt"
	"io"
	"log/slog"

	"worthit/internal/artifactcache"
	"worthit/internal/config"
	"worthit/internal/pipeline"
	"worthit/internal/quota"
	"worthit/internal/services/backend"
	"worthit/internal/state"
	"worthit/internal/timesaved"
)

type shareEngine struct {
	db   *state.DB
	orch *pipeline.Orchestrator
}

func newEngine(cfg *config.Config, logger *slog.Logger) (*shareEngine, error) {
	db, err := state.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	cache := artifactcache.New(db, logger)
	ledger := timesaved.NewLedger(db, logger)
	guard := quota.NewGuard(db, ledger, cfg.Quota.DailyLimit, logger)
	client := backend.NewClient(backend.Config{
		BaseURL:          cfg.Backend.BaseURL,
		APIKey:           cfg.Backend.APIKey,
		TimeoutSeconds:   cfg.Backend.TimeoutSeconds,
		RetryMaxAttempts: cfg.Backend.RetryMaxAttempts,
		CommentLimit:     cfg.Backend.CommentLimit,
	})
	orch := pipeline.New(cfg, client, cache, guard, ledger, logger)

	return &shareEngine{db: db, orch: orch}, nil
}

func (e *shareEngine) close() {
	e.orch.Close()
	_ = e.db.Close()
}

// printVerdict writes the compact one-line result the share sheet shows.
func printVerdict(w io.Writer, update *pipeline.Update) {
	switch update.State {
	case pipeline.StateReady:
		result := update.Result
		suffix := ""
		if update.Stale {
			suffix = " (cached)"
		}
		fmt.Fprintf(w, "WorthIt %d/100 %s, ~%d min saved%s\n",
			result.Score.FinalScore, verdict(result.Score.FinalScore), result.MinutesSaved, suffix)
	case pipeline.StateDenied:
		fmt.Fprintln(w, "WorthIt: daily free analyses used up; resets at midnight")
	case pipeline.StateInvalid:
		fmt.Fprintf(w, "WorthIt: not a recognizable video reference (%v)\n", update.Err)
	default:
		fmt.Fprintf(w, "WorthIt: analysis failed (%v)\n", update.Err)
	}
}

func verdict(score int) string {
	switch {
	case score >= 75:
		return "worth it"
	case score >= 50:
		return "borderline"
	default:
		return "skip it"
	}
}
