package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"worthit/internal/analysis"
	"worthit/internal/artifactcache"
	"worthit/internal/logging"
	"worthit/internal/services"
	"worthit/internal/videoid"
)

// updateBuffer is sized so one run can emit every state transition plus both
// result updates without the sender ever blocking on a slow reader.
const updateBuffer = 32

// Analyze starts one pipeline run and returns its updates channel. The
// channel is closed after a terminal update. Starting a new run supersedes
// any older in-flight run: the old run may finish computing but neither
// persists nor publishes.
func (o *Orchestrator) Analyze(ctx context.Context, ref string, opts Options) <-chan Update {
	o.mu.Lock()
	o.generation++
	gen := o.generation
	o.mu.Unlock()

	updates := make(chan Update, updateBuffer)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(updates)
		o.run(ctx, gen, ref, opts, updates)
	}()
	return updates
}

func (o *Orchestrator) run(ctx context.Context, gen uint64, ref string, opts Options, updates chan<- Update) {
	startedAt := o.now()
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := o.logger.With(logging.String(logging.FieldRequestID, requestID))

	o.publish(updates, gen, Update{State: StateValidating})
	id, err := videoid.Resolve(ref)
	if err != nil {
		logger.Warn("rejected content reference",
			logging.String("ref", ref),
			logging.Error(err),
			logging.String(logging.FieldEventType, "reference_invalid"),
		)
		o.publish(updates, gen, Update{State: StateInvalid, Err: err})
		return
	}
	ctx = services.WithVideoID(ctx, id.String())
	logger = logger.With(logging.String(logging.FieldVideoID, id.String()))
	logger.Info("analysis requested", logging.String(logging.FieldEventType, "analysis_start"))

	scope := o.cfg.Quota.OwnerScope
	o.publish(updates, gen, Update{State: StateQuotaCheck, VideoID: id})
	decision, err := o.guard.Check(ctx, scope, opts.Subscribed, opts.Complimentary)
	if err != nil {
		o.publish(updates, gen, Update{State: StatePartialFailure, VideoID: id,
			Err: services.Wrap(services.ErrTransient, "pipeline", "quota_check", "", err)})
		return
	}
	if !decision.Allowed {
		logger.Info("analysis denied by quota", logging.String(logging.FieldEventType, "quota_denied"))
		o.publish(updates, gen, Update{State: StateDenied, VideoID: id, Paywall: decision.Paywall})
		return
	}

	o.publish(updates, gen, Update{State: StateCacheLookup, VideoID: id})
	if cached, ok := o.cachedAnalysis(ctx, id, logger); ok {
		logger.Info("serving cached analysis", logging.String(logging.FieldEventType, "cache_hit"))
		o.publish(updates, gen, Update{State: StateCacheHit, VideoID: id})
		o.publish(updates, gen, Update{State: StateReady, VideoID: id, Result: cached, Stale: true})
		o.recordTimeSaved(ctx, logger, id, cached.MinutesSaved)
		if o.cfg.Pipeline.RefreshOnCacheHit {
			o.wg.Add(1)
			go func() {
				defer o.wg.Done()
				o.refresh(context.WithoutCancel(ctx), id, opts, logger)
			}()
		}
		return
	}

	// Fresh analysis costs one quota unit. The conditional consume may still
	// lose a race against the other process; that surfaces as a denial here.
	decision, err = o.guard.CheckAndConsume(ctx, scope, opts.Subscribed, opts.Complimentary)
	if err != nil {
		o.publish(updates, gen, Update{State: StatePartialFailure, VideoID: id,
			Err: services.Wrap(services.ErrTransient, "pipeline", "quota_consume", "", err)})
		return
	}
	if !decision.Allowed {
		logger.Info("analysis denied by quota", logging.String(logging.FieldEventType, "quota_denied"))
		o.publish(updates, gen, Update{State: StateDenied, VideoID: id, Paywall: decision.Paywall})
		return
	}

	result, err := o.compute(ctx, gen, id, opts, startedAt, logger, updates)
	if err != nil {
		logger.Warn("analysis failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "analysis_failed"),
		)
		o.publish(updates, gen, Update{State: StatePartialFailure, VideoID: id, Err: err})
		return
	}
	if o.superseded(gen) {
		logger.Debug("run superseded, result discarded",
			logging.String(logging.FieldEventType, "run_superseded"))
		return
	}

	o.publish(updates, gen, Update{State: StatePersisting, VideoID: id})
	o.persist(ctx, logger, result, startedAt)
	o.recordTimeSaved(ctx, logger, id, result.analysis.MinutesSaved)

	logger.Info("analysis ready",
		logging.Int("final_score", result.analysis.Score.FinalScore),
		logging.Duration("pipeline_duration", time.Since(startedAt)),
		logging.String(logging.FieldEventType, "analysis_ready"),
	)
	o.publish(updates, gen, Update{State: StateReady, VideoID: id, Result: result.analysis})
}

// refresh re-runs the fetch/summarize/merge phases after a cache hit. It
// never publishes; its only output is the conditional durable write, which
// the stamp from the refresh start time keeps from clobbering results of
// later-started runs.
func (o *Orchestrator) refresh(ctx context.Context, id videoid.ID, opts Options, logger *slog.Logger) {
	startedAt := o.now()
	logger = logger.With(logging.String(logging.FieldEventType, "background_refresh"))
	logger.Debug("background refresh started")

	result, err := o.compute(ctx, 0, id, opts, startedAt, logger, nil)
	if err != nil {
		logger.Debug("background refresh failed", logging.Error(err))
		return
	}
	o.persist(ctx, logger, result, startedAt)
	logger.Debug("background refresh completed",
		logging.Duration("refresh_duration", time.Since(startedAt)))
}

// cachedAnalysis loads and decodes the merged analysis artifact. Undecodable
// payloads are dropped so the fresh path can rebuild them.
func (o *Orchestrator) cachedAnalysis(ctx context.Context, id videoid.ID, logger *slog.Logger) (*analysis.ContentAnalysis, bool) {
	entry, err := o.cache.Get(ctx, id, artifactcache.KindContentAnalysis)
	if err != nil {
		if !errors.Is(err, artifactcache.ErrMiss) {
			logger.Warn("cache lookup failed", logging.Error(err))
		}
		return nil, false
	}
	var cached analysis.ContentAnalysis
	if err := json.Unmarshal(entry.Payload, &cached); err != nil {
		logger.Warn("dropping undecodable cached analysis",
			logging.Error(err),
			logging.String(logging.FieldArtifact, string(artifactcache.KindContentAnalysis)),
		)
		if delErr := o.cache.Delete(ctx, id, artifactcache.KindContentAnalysis); delErr != nil {
			logger.Warn("failed to drop cached analysis", logging.Error(delErr))
		}
		return nil, false
	}
	return &cached, true
}

func (o *Orchestrator) recordTimeSaved(ctx context.Context, logger *slog.Logger, id videoid.ID, minutes int) {
	if minutes <= 0 {
		return
	}
	if err := o.ledger.Record(ctx, o.cfg.Quota.OwnerScope, id, minutes); err != nil {
		logger.Warn("failed to record time saved", logging.Error(err))
	}
}

func (o *Orchestrator) languages(opts Options) []string {
	if len(opts.Languages) > 0 {
		return opts.Languages
	}
	return o.cfg.Backend.TranscriptLanguages
}
