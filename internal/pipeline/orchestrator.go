package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"worthit/internal/analysis"
	"worthit/internal/artifactcache"
	"worthit/internal/config"
	"worthit/internal/logging"
	"worthit/internal/quota"
	"worthit/internal/services/backend"
	"worthit/internal/timesaved"
	"worthit/internal/videoid"
)

// State identifies a position in the analysis state machine.
type State string

const (
	StateValidating      State = "validating"
	StateQuotaCheck      State = "quota_check"
	StateCacheLookup     State = "cache_lookup"
	StateCacheHit        State = "cache_hit"
	StateFetching        State = "fetching"
	StateSummarizing     State = "summarizing"
	StateEssentialsReady State = "essentials_ready"
	StateMerging         State = "merging"
	StateScoring         State = "scoring"
	StatePersisting      State = "persisting"
	StateReady           State = "ready"
	StatePartialFailure  State = "partial_failure"
	StateDenied          State = "denied"
	StateInvalid         State = "invalid"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateReady, StatePartialFailure, StateDenied, StateInvalid:
		return true
	}
	return false
}

// Update is one observation published to the caller. Exactly one update with
// a terminal state closes the run; StateEssentialsReady carries the early
// partial result and StateReady the full one.
type Update struct {
	State      State
	VideoID    videoid.ID
	Essentials *analysis.Essentials
	Result     *analysis.ContentAnalysis
	// Stale marks a Ready result served from cache while a refresh may still
	// be running.
	Stale   bool
	Paywall *quota.PaywallContext
	Err     error
}

// Options carries per-request entitlements and overrides.
type Options struct {
	Subscribed    bool
	Complimentary bool
	// Languages overrides the configured transcript language fallbacks.
	Languages []string
}

// Orchestrator owns the analysis pipeline. One instance per process; runs
// and background refreshes share it.
type Orchestrator struct {
	cfg     *config.Config
	backend *backend.Client
	cache   *artifactcache.Cache
	guard   *quota.Guard
	ledger  *timesaved.Ledger
	engine  *analysis.Engine
	logger  *slog.Logger
	now     func() time.Time

	mu         sync.Mutex
	generation uint64
	wg         sync.WaitGroup
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New constructs an orchestrator over the shared stores and backend client.
func New(cfg *config.Config, client *backend.Client, cache *artifactcache.Cache, guard *quota.Guard, ledger *timesaved.Ledger, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		backend: client,
		cache:   cache,
		guard:   guard,
		ledger:  ledger,
		engine:  analysis.NewEngine(analysis.TuningFromConfig(cfg.Score)),
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Close waits for in-flight runs and background refreshes to finish.
func (o *Orchestrator) Close() {
	o.wg.Wait()
}

func (o *Orchestrator) superseded(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return gen != o.generation
}

// publish delivers an update unless the run was superseded or runs headless
// (background refreshes pass a nil channel). The channel buffer covers every
// update one run can emit, so sends never block.
func (o *Orchestrator) publish(updates chan<- Update, gen uint64, update Update) {
	if updates == nil || o.superseded(gen) {
		return
	}
	updates <- update
}
