package qa

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"worthit/internal/analysis"
	"worthit/internal/artifactcache"
	"worthit/internal/config"
	"worthit/internal/logging"
	"worthit/internal/services"
	"worthit/internal/services/backend"
	"worthit/internal/videoid"
)

const retryBaseDelay = 250 * time.Millisecond

// Session holds the conversation state for one video at a time. Asking about
// a different video resets the session implicitly.
type Session struct {
	cfg     *config.Config
	backend *backend.Client
	cache   *artifactcache.Cache
	logger  *slog.Logger
	now     func() time.Time
	sleep   func(time.Duration)

	mu           sync.Mutex
	id           videoid.ID
	continuation string
	history      []analysis.QAExchange
}

// Option customizes the session.
type Option func(*Session)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleep func(time.Duration)) Option {
	return func(s *Session) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// NewSession constructs a QA session over the shared cache and backend.
func NewSession(cfg *config.Config, client *backend.Client, cache *artifactcache.Cache, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{
		cfg:     cfg,
		backend: client,
		cache:   cache,
		logger:  logging.NewComponentLogger(logger, "qa"),
		now:     time.Now,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers one question about an analyzed video. The analysis artifact
// must already be cached; without it there is no context worth asking about.
func (s *Session) Ask(ctx context.Context, id videoid.ID, question string) (analysis.QAExchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return analysis.QAExchange{}, services.Wrap(services.ErrValidation, "qa", "ask", "question required", nil)
	}

	if _, err := s.cache.Get(ctx, id, artifactcache.KindContentAnalysis); err != nil {
		if errors.Is(err, artifactcache.ErrMiss) {
			return analysis.QAExchange{}, services.Wrap(services.ErrNotFound, "qa", "ask",
				"no analysis for "+id.String()+"; analyze it first", nil)
		}
		return analysis.QAExchange{}, services.Wrap(services.ErrTransient, "qa", "ask", "", err)
	}

	s.mu.Lock()
	if s.id != id {
		s.resetLocked(id)
	}
	continuation := s.continuation
	s.mu.Unlock()

	answer, next, err := s.askWithRetry(ctx, id, question, continuation)
	if err != nil {
		return analysis.QAExchange{}, err
	}

	exchange := analysis.QAExchange{Question: question, Answer: answer, AskedAt: s.now()}
	s.mu.Lock()
	var history []analysis.QAExchange
	if s.id == id {
		s.continuation = next
		s.history = append(s.history, exchange)
		history = append([]analysis.QAExchange(nil), s.history...)
	}
	s.mu.Unlock()

	if history != nil {
		s.persistHistory(ctx, id, history)
	}
	return exchange, nil
}

// askWithRetry retries transient backend failures up to the configured bound
// with linear backoff. Non-retryable failures surface immediately.
func (s *Session) askWithRetry(ctx context.Context, id videoid.ID, question, continuation string) (string, string, error) {
	attempts := s.cfg.QA.RetryMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		answer, next, err := s.backend.Ask(ctx, id, question, continuation)
		if err == nil {
			return answer, next, nil
		}
		lastErr = err
		if !services.Retryable(err) || attempt == attempts {
			break
		}
		s.logger.Debug("retrying question",
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		s.sleep(time.Duration(attempt) * retryBaseDelay)
	}
	return "", "", lastErr
}

func (s *Session) persistHistory(ctx context.Context, id videoid.ID, history []analysis.QAExchange) {
	payload, err := json.Marshal(history)
	if err != nil {
		s.logger.Warn("failed to encode qa history", logging.Error(err))
		return
	}
	if _, err := s.cache.Put(ctx, id, artifactcache.KindQAHistory, payload, s.now()); err != nil {
		s.logger.Warn("failed to persist qa history",
			logging.Error(err),
			logging.String(logging.FieldVideoID, id.String()),
		)
	}
}

// History returns the exchanges of the current conversation, oldest first.
func (s *Session) History() []analysis.QAExchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]analysis.QAExchange(nil), s.history...)
}

// VideoID returns the video the session is currently about.
func (s *Session) VideoID() videoid.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Reset clears the conversation state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked("")
}

func (s *Session) resetLocked(id videoid.ID) {
	s.id = id
	s.continuation = ""
	s.history = nil
}
