package qa

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
	"worthit/internal/services"
	"worthit/internal/services/backend"
	"worthit/internal/testsupport"
	"worthit/internal/videoid"
)

const (
	analyzedVideoID = videoid.ID("dQw4w9WgXcQ")
	otherVideoID    = videoid.ID("AbCdEfGhIjK")
)

func newSession(t *testing.T, fake *testsupport.FakeBackend, mutate func(*config.Config)) (*Session, *artifactcache.Cache) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(fake.URL()))
	if mutate != nil {
		mutate(cfg)
	}
	db := testsupport.MustOpenState(t, cfg)
	logger := logging.NewNop()
	cache := artifactcache.New(db, logger)
	client := backend.NewClient(
		backend.Config{BaseURL: cfg.Backend.BaseURL, RetryMaxAttempts: 1},
		backend.WithSleeper(func(time.Duration) {}),
	)
	session := NewSession(cfg, client, cache, logger, WithSleeper(func(time.Duration) {}))
	return session, cache
}

func seedAnalysis(t *testing.T, cache *artifactcache.Cache, id videoid.ID) {
	t.Helper()
	payload, err := json.Marshal(analysis.ContentAnalysis{VideoID: id.String(), LongSummary: "seeded"})
	if err != nil {
		t.Fatalf("encode analysis: %v", err)
	}
	if _, err := cache.Put(context.Background(), id, artifactcache.KindContentAnalysis, payload, time.Now()); err != nil {
		t.Fatalf("seed analysis: %v", err)
	}
}

func TestAskRequiresCachedAnalysis(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	session, _ := newSession(t, fake, nil)

	_, err := session.Ask(context.Background(), analyzedVideoID, "was it worth it?")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if fake.Calls("answer_question") != 0 {
		t.Fatal("question must not reach the backend without an analysis")
	}
}

func TestAskChainsHistoryAndContinuation(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	fake.Answers = []string{"the birdhouse", "about ten minutes"}
	session, cache := newSession(t, fake, nil)
	seedAnalysis(t, cache, analyzedVideoID)

	first, err := session.Ask(context.Background(), analyzedVideoID, "what was built?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if first.Answer != "the birdhouse" {
		t.Fatalf("unexpected answer: %q", first.Answer)
	}
	if _, err := session.Ask(context.Background(), analyzedVideoID, "how long did it take?"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	// the second question carries the token returned by the first
	if got := fake.Continuation("answer_question"); got == "" {
		t.Fatal("expected continuation token forwarded on the second question")
	}

	history := session.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(history))
	}
	if history[0].Question != "what was built?" || history[1].Answer != "about ten minutes" {
		t.Fatalf("history out of order: %+v", history)
	}

	entry, err := cache.Get(context.Background(), analyzedVideoID, artifactcache.KindQAHistory)
	if err != nil {
		t.Fatalf("history artifact: %v", err)
	}
	var persisted []analysis.QAExchange
	if err := json.Unmarshal(entry.Payload, &persisted); err != nil {
		t.Fatalf("decode history artifact: %v", err)
	}
	if len(persisted) != 2 {
		t.Fatalf("expected persisted history of 2, got %d", len(persisted))
	}
}

func TestAskDifferentVideoResetsSession(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	session, cache := newSession(t, fake, nil)
	seedAnalysis(t, cache, analyzedVideoID)
	seedAnalysis(t, cache, otherVideoID)

	if _, err := session.Ask(context.Background(), analyzedVideoID, "first question"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if _, err := session.Ask(context.Background(), otherVideoID, "second question"); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if got := session.VideoID(); got != otherVideoID {
		t.Fatalf("expected session to follow the new video, got %s", got)
	}
	history := session.History()
	if len(history) != 1 || history[0].Question != "second question" {
		t.Fatalf("expected history reset on video switch, got %+v", history)
	}
	// the new conversation must not reuse the old token
	if got := fake.Continuation("answer_question"); got != "" {
		t.Fatalf("expected empty continuation after reset, got %q", got)
	}
}

func TestAskRetriesTransientFailures(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	fake.Failures["answer_question"] = 1
	session, cache := newSession(t, fake, func(c *config.Config) { c.QA.RetryMaxAttempts = 3 })
	seedAnalysis(t, cache, analyzedVideoID)

	exchange, err := session.Ask(context.Background(), analyzedVideoID, "still there?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if exchange.Answer == "" {
		t.Fatal("expected an answer after retry")
	}
	if got := fake.Calls("answer_question"); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestAskGivesUpAfterBoundedRetries(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	fake.Failures["answer_question"] = 10
	session, cache := newSession(t, fake, func(c *config.Config) { c.QA.RetryMaxAttempts = 2 })
	seedAnalysis(t, cache, analyzedVideoID)

	_, err := session.Ask(context.Background(), analyzedVideoID, "still there?")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := fake.Calls("answer_question"); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
	if len(session.History()) != 0 {
		t.Fatal("failed ask must not enter history")
	}
}

func TestResetClearsConversation(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	session, cache := newSession(t, fake, nil)
	seedAnalysis(t, cache, analyzedVideoID)

	if _, err := session.Ask(context.Background(), analyzedVideoID, "a question"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	session.Reset()
	if len(session.History()) != 0 {
		t.Fatal("expected empty history after reset")
	}
	if session.VideoID() != "" {
		t.Fatal("expected no current video after reset")
	}
}
