package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"worthit/internal/analysis"
	"worthit/internal/artifactcache"
	"worthit/internal/config"
	"worthit/internal/logging"
	"worthit/internal/quota"
	"worthit/internal/services"
	"worthit/internal/services/backend"
	"worthit/internal/testsupport"
	"worthit/internal/timesaved"
)

const (
	firstVideoID  = "dQw4w9WgXcQ"
	secondVideoID = "AbCdEfGhIjK"
)

type testHarness struct {
	orch   *Orchestrator
	cfg    *config.Config
	cache  *artifactcache.Cache
	guard  *quota.Guard
	ledger *timesaved.Ledger
}

func newHarness(t *testing.T, fake *testsupport.FakeBackend, opts ...testsupport.ConfigOption) *testHarness {
	t.Helper()
	cfgOpts := append([]testsupport.ConfigOption{testsupport.WithBackendURL(fake.URL())}, opts...)
	cfg := testsupport.NewConfig(t, cfgOpts...)
	db := testsupport.MustOpenState(t, cfg)
	logger := logging.NewNop()

	cache := artifactcache.New(db, logger)
	ledger := timesaved.NewLedger(db, logger)
	guard := quota.NewGuard(db, ledger, cfg.Quota.DailyLimit, logger)
	client := backend.NewClient(
		backend.Config{
			BaseURL:          cfg.Backend.BaseURL,
			RetryMaxAttempts: 2,
			CommentLimit:     cfg.Backend.CommentLimit,
		},
		backend.WithRetryBackoff(time.Millisecond, 5*time.Millisecond),
		backend.WithSleeper(func(time.Duration) {}),
	)

	orch := New(cfg, client, cache, guard, ledger, logger)
	t.Cleanup(orch.Close)
	return &testHarness{orch: orch, cfg: cfg, cache: cache, guard: guard, ledger: ledger}
}

func collect(t *testing.T, updates <-chan Update) []Update {
	t.Helper()
	var got []Update
	deadline := time.After(10 * time.Second)
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return got
			}
			got = append(got, update)
		case <-deadline:
			t.Fatalf("timed out waiting for updates, saw %v", states(got))
		}
	}
}

func states(updates []Update) []State {
	seen := make([]State, 0, len(updates))
	for _, update := range updates {
		seen = append(seen, update.State)
	}
	return seen
}

func requireStateOrder(t *testing.T, updates []Update, want ...State) {
	t.Helper()
	seen := states(updates)
	i := 0
	for _, state := range seen {
		if i < len(want) && state == want[i] {
			i++
		}
	}
	if i != len(want) {
		t.Fatalf("expected states %v in order, saw %v", want, seen)
	}
}

func finalUpdate(t *testing.T, updates []Update) Update {
	t.Helper()
	if len(updates) == 0 {
		t.Fatal("no updates published")
	}
	last := updates[len(updates)-1]
	if !last.State.Terminal() {
		t.Fatalf("last update %q is not terminal", last.State)
	}
	return last
}

func TestAnalyzeFreshPath(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	h := newHarness(t, fake, func(c *config.Config) { c.Pipeline.RefreshOnCacheHit = false })

	updates := collect(t, h.orch.Analyze(context.Background(), firstVideoID, Options{}))
	requireStateOrder(t, updates,
		StateValidating, StateQuotaCheck, StateCacheLookup, StateFetching,
		StateSummarizing, StateMerging, StateScoring, StatePersisting, StateReady)

	var essentialsAt, readyAt = -1, -1
	for i, update := range updates {
		switch update.State {
		case StateEssentialsReady:
			essentialsAt = i
			if update.Essentials == nil {
				t.Fatal("essentials update missing payload")
			}
			if update.Essentials.Score.BaseScore != 88 {
				t.Errorf("essentials base score: expected 88, got %d", update.Essentials.Score.BaseScore)
			}
		case StateReady:
			readyAt = i
		}
	}
	if essentialsAt == -1 || readyAt == -1 || essentialsAt > readyAt {
		t.Fatalf("expected essentials before ready, saw %v", states(updates))
	}

	final := finalUpdate(t, updates)
	result := final.Result
	if result == nil {
		t.Fatal("ready update missing result")
	}
	if result.Score.BaseScore != 88 || result.Score.FinalScore != 93 {
		t.Fatalf("expected 88/93, got %d/%d", result.Score.BaseScore, result.Score.FinalScore)
	}
	if result.Score.MissingCommentData {
		t.Fatal("comment data was present")
	}
	if result.LongSummary == "" || len(result.SuggestedQuestions) == 0 {
		t.Fatalf("incomplete result: %+v", result)
	}
	if len(result.Insights.Themes) != 1 {
		t.Fatalf("expected one validated theme, got %v", result.Insights.Themes)
	}
	if result.MinutesSaved < 1 {
		t.Fatalf("expected at least one minute saved, got %d", result.MinutesSaved)
	}

	if _, err := h.cache.Get(context.Background(), firstVideoID, artifactcache.KindContentAnalysis); err != nil {
		t.Fatalf("analysis artifact not persisted: %v", err)
	}
	decision, err := h.guard.Check(context.Background(), h.cfg.Quota.OwnerScope, false, false)
	if err != nil {
		t.Fatalf("quota check: %v", err)
	}
	if decision.Remaining != h.cfg.Quota.DailyLimit-1 {
		t.Fatalf("expected one quota unit consumed, remaining %d", decision.Remaining)
	}
	stats, err := h.ledger.Stats(context.Background(), h.cfg.Quota.OwnerScope)
	if err != nil {
		t.Fatalf("ledger stats: %v", err)
	}
	if stats.MinutesToday < 1 || stats.UniqueVideoCount != 1 {
		t.Fatalf("expected recorded time saved, got %+v", stats)
	}
}

func TestAnalyzeInvalidReference(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	h := newHarness(t, fake)

	updates := collect(t, h.orch.Analyze(context.Background(), "not a video!!!", Options{}))
	final := finalUpdate(t, updates)
	if final.State != StateInvalid {
		t.Fatalf("expected invalid terminal, got %q", final.State)
	}
	if !errors.Is(final.Err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", final.Err)
	}
	if fake.Calls("transcript") != 0 || fake.Calls("comments") != 0 {
		t.Fatal("malformed reference must not reach the backend")
	}
	decision, err := h.guard.Check(context.Background(), h.cfg.Quota.OwnerScope, false, false)
	if err != nil {
		t.Fatalf("quota check: %v", err)
	}
	if decision.Remaining != h.cfg.Quota.DailyLimit {
		t.Fatalf("malformed reference must not cost quota, remaining %d", decision.Remaining)
	}
}

func TestAnalyzeDeniedYieldsPaywall(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	h := newHarness(t, fake, testsupport.WithDailyLimit(0))

	updates := collect(t, h.orch.Analyze(context.Background(), firstVideoID, Options{}))
	final := finalUpdate(t, updates)
	if final.State != StateDenied {
		t.Fatalf("expected denied terminal, got %q", final.State)
	}
	if final.Paywall == nil {
		t.Fatal("denied update missing paywall context")
	}
	if !final.Paywall.QuotaResetAt.After(time.Now()) {
		t.Fatalf("quota reset should be in the future, got %v", final.Paywall.QuotaResetAt)
	}
	if fake.Calls("transcript") != 0 {
		t.Fatal("denied request must not reach the backend")
	}
}

func TestAnalyzeSubscriberBypassesQuota(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	h := newHarness(t, fake, testsupport.WithDailyLimit(0),
		func(c *config.Config) { c.Pipeline.RefreshOnCacheHit = false })

	updates := collect(t, h.orch.Analyze(context.Background(), firstVideoID, Options{Subscribed: true}))
	if final := finalUpdate(t, updates); final.State != StateReady {
		t.Fatalf("expected ready terminal, got %q", final.State)
	}
}

func TestAnalyzeCacheHitServesStaleWithoutConsuming(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	h := newHarness(t, fake, func(c *config.Config) { c.Pipeline.RefreshOnCacheHit = false })

	first := collect(t, h.orch.Analyze(context.Background(), firstVideoID, Options{}))
	if final := finalUpdate(t, first); final.State != StateReady {
		t.Fatalf("seed analysis failed: %q", final.State)
	}
	transcriptCalls := fake.Calls("transcript")

	second := collect(t, h.orch.Analyze(context.Background(), firstVideoID, Options{}))
	requireStateOrder(t, second, StateValidating, StateQuotaCheck, StateCacheLookup, StateCacheHit, StateReady)
	final := finalUpdate(t, second)
	if final.Result == nil || !final.Stale {
		t.Fatalf("expected stale cached result, got %+v", final)
	}
	if final.Result.Score.FinalScore != 93 {
		t.Fatalf("cached result mismatch: %d", final.Result.Score.FinalScore)
	}

	if fake.Calls("transcript") != transcriptCalls {
		t.Fatal("cache hit must not refetch")
	}
	decision, err := h.guard.Check(context.Background(), h.cfg.Quota.OwnerScope, false, false)
	if err != nil {
		t.Fatalf("quota check: %v", err)
	}
	if decision.Remaining != h.cfg.Quota.DailyLimit-1 {
		t.Fatalf("cache hit must not consume quota, remaining %d", decision.Remaining)
	}
}

func TestAnalyzeCacheHitSchedulesRefresh(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	h := newHarness(t, fake)

	first := collect(t, h.orch.Analyze(context.Background(), firstVideoID, Options{}))
	if final := finalUpdate(t, first); final.State != StateReady {
		t.Fatalf("seed analysis failed: %q", final.State)
	}

	second := collect(t, h.orch.Analyze(context.Background(), firstVideoID, Options{}))
	if final := finalUpdate(t, second); !final.Stale {
		t.Fatalf("expected stale cached result, got %+v", final)
	}
	h.orch.Close()

	if got := fake.Calls("transcript"); got != 2 {
		t.Fatalf("expected one refresh fetch after the seed, got %d transcript calls", got)
	}
	decision, err := h.guard.Check(context.Background(), h.cfg.Quota.OwnerScope, false, false)
	if err != nil {
		t.Fatalf("quota check: %v", err)
	}
	if decision.Remaining != h.cfg.Quota.DailyLimit-1 {
		t.Fatalf("refresh must not consume quota, remaining %d", decision.Remaining)
	}
}

func TestAnalyzeCommentFailureDegrades(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	fake.Failures["comments"] = 10
	h := newHarness(t, fake, func(c *config.Config) { c.Pipeline.RefreshOnCacheHit = false })

	updates := collect(t, h.orch.Analyze(context.Background(), firstVideoID, Options{}))
	final := finalUpdate(t, updates)
	if final.State != StateReady {
		t.Fatalf("expected degraded success, got %q (%v)", final.State, final.Err)
	}
	result := final.Result
	if !result.Score.MissingCommentData {
		t.Fatal("expected missing-comment flag")
	}
	// depth-only: round(100*0.9), no sentiment so no high-signal bonus
	if result.Score.FinalScore != 90 {
		t.Fatalf("expected depth-only score 90, got %d", result.Score.FinalScore)
	}
	if len(result.Insights.Themes) != 0 {
		t.Fatalf("expected no insights without comments, got %v", result.Insights.Themes)
	}
	if fake.Calls("classify_comments") != 0 {
		t.Fatal("classification must be skipped without comments")
	}
}

func TestAnalyzeTranscriptFailureIsPartial(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	fake.Failures["transcript"] = 10
	h := newHarness(t, fake)

	updates := collect(t, h.orch.Analyze(context.Background(), firstVideoID, Options{}))
	final := finalUpdate(t, updates)
	if final.State != StatePartialFailure {
		t.Fatalf("expected partial failure, got %q", final.State)
	}
	if !errors.Is(final.Err, services.ErrPartialFetch) {
		t.Fatalf("expected partial-fetch marker, got %v", final.Err)
	}
	if !services.Retryable(final.Err) {
		t.Fatalf("transient transcript failure should stay retryable: %v", final.Err)
	}
	if fake.Calls("summarize_transcript") != 0 {
		t.Fatal("summarization must not run without a transcript")
	}
}

func TestNewerRunSupersedesOlder(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	fake.Delays["summarize_transcript"] = 150 * time.Millisecond
	h := newHarness(t, fake, func(c *config.Config) { c.Pipeline.RefreshOnCacheHit = false })

	firstCh := h.orch.Analyze(context.Background(), firstVideoID, Options{})
	sawSummarizing := false
	var firstUpdates []Update
	for update := range firstCh {
		firstUpdates = append(firstUpdates, update)
		if update.State == StateSummarizing && !sawSummarizing {
			sawSummarizing = true
			second := collect(t, h.orch.Analyze(context.Background(), secondVideoID, Options{}))
			if final := finalUpdate(t, second); final.State != StateReady {
				t.Fatalf("second run failed: %q", final.State)
			}
		}
	}
	if !sawSummarizing {
		t.Fatalf("first run never reached summarizing, saw %v", states(firstUpdates))
	}
	for _, update := range firstUpdates {
		if update.State.Terminal() {
			t.Fatalf("superseded run must not publish a terminal update, saw %v", states(firstUpdates))
		}
	}

	if _, err := h.cache.Get(context.Background(), firstVideoID, artifactcache.KindContentAnalysis); !errors.Is(err, artifactcache.ErrMiss) {
		t.Fatalf("superseded run must not persist, got %v", err)
	}
	if _, err := h.cache.Get(context.Background(), secondVideoID, artifactcache.KindContentAnalysis); err != nil {
		t.Fatalf("winning run should persist: %v", err)
	}
}

func TestPersistPrefersLaterStartedRun(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	h := newHarness(t, fake)
	logger := logging.NewNop()

	build := func(summary string, analyzedAt time.Time) computed {
		return computed{
			analysis: &analysis.ContentAnalysis{
				VideoID:     firstVideoID,
				LongSummary: summary,
				Score:       analysis.Breakdown{FinalScore: 80},
				AnalyzedAt:  analyzedAt,
			},
			transcript: "words",
		}
	}
	newerStart := time.Now()
	olderStart := newerStart.Add(-time.Minute)

	h.orch.persist(context.Background(), logger, build("newer", newerStart), newerStart)
	// an earlier-started refresh finishing afterwards must lose
	h.orch.persist(context.Background(), logger, build("older", olderStart), olderStart)

	h.cache.ClearMemoryTier()
	entry, err := h.cache.Get(context.Background(), firstVideoID, artifactcache.KindContentAnalysis)
	if err != nil {
		t.Fatalf("cache get: %v", err)
	}
	var persisted analysis.ContentAnalysis
	if err := json.Unmarshal(entry.Payload, &persisted); err != nil {
		t.Fatalf("decode persisted analysis: %v", err)
	}
	if persisted.LongSummary != "newer" {
		t.Fatalf("later-started run must win, got %q", persisted.LongSummary)
	}
}

func TestRecentIndexTracksAnalyses(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	h := newHarness(t, fake, func(c *config.Config) { c.Pipeline.RefreshOnCacheHit = false })

	for _, id := range []string{firstVideoID, secondVideoID} {
		updates := collect(t, h.orch.Analyze(context.Background(), id, Options{}))
		if final := finalUpdate(t, updates); final.State != StateReady {
			t.Fatalf("analysis of %s failed: %q", id, final.State)
		}
	}

	recent, err := Recent(context.Background(), h.cache)
	if err != nil {
		t.Fatalf("recent index: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent entries, got %d", len(recent))
	}
	if recent[0].VideoID != secondVideoID || recent[1].VideoID != firstVideoID {
		t.Fatalf("expected newest first, got %+v", recent)
	}

	// a cache hit does not re-persist and leaves the index untouched
	updates := collect(t, h.orch.Analyze(context.Background(), firstVideoID, Options{}))
	if final := finalUpdate(t, updates); !final.Stale {
		t.Fatalf("expected cache hit, got %+v", final)
	}
	recent, err = Recent(context.Background(), h.cache)
	if err != nil {
		t.Fatalf("recent index: %v", err)
	}
	if len(recent) != 2 || recent[0].VideoID != secondVideoID {
		t.Fatalf("cache hit must not reorder the index, got %+v", recent)
	}
}
