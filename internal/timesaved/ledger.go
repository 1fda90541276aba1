package timesaved

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"worthit/internal/logging"
	"worthit/internal/state"
	"worthit/internal/videoid"
)

const dateKeyLayout = "2006-01-02"

// Stats aggregates the ledger for paywall context display.
type Stats struct {
	MinutesToday     int
	MinutesWeek      int
	CurrentStreak    int
	UniqueVideoCount int
}

// Ledger records and aggregates time saved per owner scope.
type Ledger struct {
	db     *state.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes the ledger.
type Option func(*Ledger)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger constructs a ledger over the shared state database.
func NewLedger(db *state.DB, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		db:     db,
		logger: logging.NewComponentLogger(logger, "timesaved"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record accumulates minutes saved for a video on the current local day.
// Re-analyzing the same video on the same day keeps the larger estimate
// instead of double counting.
func (l *Ledger) Record(ctx context.Context, scope string, id videoid.ID, minutes int) error {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return fmt.Errorf("time saved: owner scope required")
	}
	if minutes < 1 {
		minutes = 1
	}
	dateKey := l.now().Format(dateKeyLayout)

	_, err := l.db.Handle().ExecContext(ctx,
		`INSERT INTO time_saved (owner_scope, date_key, video_id, minutes)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (owner_scope, date_key, video_id) DO UPDATE SET
             minutes = MAX(time_saved.minutes, excluded.minutes)`,
		scope, dateKey, id.String(), minutes,
	)
	if err != nil {
		return fmt.Errorf("record time saved: %w", err)
	}

	l.logger.Debug("recorded time saved",
		logging.String(logging.FieldScope, scope),
		logging.String(logging.FieldVideoID, id.String()),
		logging.Int("minutes", minutes))
	return nil
}

// Stats aggregates the ledger for the given scope.
func (l *Ledger) Stats(ctx context.Context, scope string) (Stats, error) {
	var stats Stats
	now := l.now()
	today := now.Format(dateKeyLayout)
	weekStart := now.AddDate(0, 0, -6).Format(dateKeyLayout)

	err := l.db.Handle().QueryRowContext(ctx,
		`SELECT
            COALESCE(SUM(CASE WHEN date_key = ? THEN minutes ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN date_key >= ? THEN minutes ELSE 0 END), 0),
            COUNT(DISTINCT video_id)
         FROM time_saved WHERE owner_scope = ?`,
		today, weekStart, scope,
	).Scan(&stats.MinutesToday, &stats.MinutesWeek, &stats.UniqueVideoCount)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate time saved: %w", err)
	}

	streak, err := l.streak(ctx, scope, now)
	if err != nil {
		return Stats{}, err
	}
	stats.CurrentStreak = streak
	return stats, nil
}

// streak counts consecutive active days ending today (or yesterday, so an
// unfinished day does not break an ongoing streak).
func (l *Ledger) streak(ctx context.Context, scope string, now time.Time) (int, error) {
	rows, err := l.db.Handle().QueryContext(ctx,
		"SELECT DISTINCT date_key FROM time_saved WHERE owner_scope = ? ORDER BY date_key DESC",
		scope,
	)
	if err != nil {
		return 0, fmt.Errorf("query active days: %w", err)
	}
	defer rows.Close()

	active := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return 0, fmt.Errorf("scan active day: %w", err)
		}
		active[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	day := now
	if _, ok := active[day.Format(dateKeyLayout)]; !ok {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := active[day.Format(dateKeyLayout)]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}
