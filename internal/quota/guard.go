package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"worthit/internal/logging"
	"worthit/internal/state"
	"worthit/internal/timesaved"
)

const dateKeyLayout = "2006-01-02"

// Decision is the outcome of a quota check or consumption attempt.
type Decision struct {
	Allowed   bool
	Remaining int
	// Paywall is populated on denial so the caller can render upgrade context.
	Paywall *PaywallContext
}

// Guard is the cross-process-safe daily usage counter. One instance per
// process; both processes share the durable record through the state database.
type Guard struct {
	db         *state.DB
	ledger     *timesaved.Ledger
	logger     *slog.Logger
	dailyLimit int

	mu  sync.Mutex
	now func() time.Time
}

// Option customizes the guard.
type Option func(*Guard)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGuard constructs a quota guard with the given daily limit.
func NewGuard(db *state.DB, ledger *timesaved.Ledger, dailyLimit int, logger *slog.Logger, opts ...Option) *Guard {
	g := &Guard{
		db:         db,
		ledger:     ledger,
		logger:     logging.NewComponentLogger(logger, "quota"),
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckAndConsume atomically consumes one unit of today's allowance. Callers
// with an active subscription or a complimentary grant are always allowed and
// the record is left untouched.
func (g *Guard) CheckAndConsume(ctx context.Context, scope string, subscribed, complimentary bool) (Decision, error) {
	if subscribed || complimentary {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return Decision{}, errors.New("quota: owner scope required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	dateKey := g.now().Format(dateKeyLayout)
	res, err := g.db.Handle().ExecContext(ctx,
		`INSERT INTO usage_records (owner_scope, date_key, consumed, bonus)
         VALUES (?, ?, 1, 0)
         ON CONFLICT (owner_scope, date_key) DO UPDATE SET
             consumed = consumed + 1
         WHERE usage_records.consumed < ? + usage_records.bonus`,
		scope, dateKey, g.dailyLimit,
	)
	if err != nil {
		return Decision{}, fmt.Errorf("consume quota: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Decision{}, fmt.Errorf("consume quota: rows affected: %w", err)
	}

	if affected == 0 {
		paywall, err := g.paywallContext(ctx, scope)
		if err != nil {
			return Decision{}, err
		}
		g.logger.Info("daily quota exhausted",
			logging.String(logging.FieldScope, scope),
			logging.Int("daily_limit", g.dailyLimit))
		return Decision{Allowed: false, Paywall: paywall}, nil
	}

	remaining, err := g.remaining(ctx, scope, dateKey)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}

// Check reports whether a consumption attempt would currently succeed without
// mutating the record. Cache hits use this so replays stay free.
func (g *Guard) Check(ctx context.Context, scope string, subscribed, complimentary bool) (Decision, error) {
	if subscribed || complimentary {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return Decision{}, errors.New("quota: owner scope required")
	}

	dateKey := g.now().Format(dateKeyLayout)
	remaining, err := g.remaining(ctx, scope, dateKey)
	if err != nil {
		return Decision{}, err
	}
	if remaining <= 0 {
		paywall, err := g.paywallContext(ctx, scope)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: false, Paywall: paywall}, nil
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}

// AddBonus grants extra credits on top of today's daily limit.
func (g *Guard) AddBonus(ctx context.Context, scope string, credits int) error {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return errors.New("quota: owner scope required")
	}
	if credits <= 0 {
		return errors.New("quota: bonus credits must be positive")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	dateKey := g.now().Format(dateKeyLayout)
	_, err := g.db.Handle().ExecContext(ctx,
		`INSERT INTO usage_records (owner_scope, date_key, consumed, bonus)
         VALUES (?, ?, 0, ?)
         ON CONFLICT (owner_scope, date_key) DO UPDATE SET
             bonus = bonus + excluded.bonus`,
		scope, dateKey, credits,
	)
	if err != nil {
		return fmt.Errorf("add bonus credits: %w", err)
	}
	g.logger.Info("granted bonus credits",
		logging.String(logging.FieldScope, scope),
		logging.Int("credits", credits))
	return nil
}

func (g *Guard) remaining(ctx context.Context, scope, dateKey string) (int, error) {
	var consumed, bonus int
	err := g.db.Handle().QueryRowContext(ctx,
		"SELECT consumed, bonus FROM usage_records WHERE owner_scope = ? AND date_key = ?",
		scope, dateKey,
	).Scan(&consumed, &bonus)
	if errors.Is(err, sql.ErrNoRows) {
		return g.dailyLimit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage record: %w", err)
	}

	remaining := g.dailyLimit + bonus - consumed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
