package quota

import (
	"context"
	"time"
)

// PaywallContext is the ephemeral snapshot shown when the daily quota runs
// out. It is computed on demand and never persisted as its own record.
type PaywallContext struct {
	MinutesSavedToday int
	MinutesSavedWeek  int
	CurrentStreak     int
	UniqueVideoCount  int
	QuotaResetAt      time.Time
}

func (g *Guard) paywallContext(ctx context.Context, scope string) (*PaywallContext, error) {
	paywall := &PaywallContext{
		QuotaResetAt: nextLocalMidnight(g.now()),
	}
	if g.ledger != nil {
		stats, err := g.ledger.Stats(ctx, scope)
		if err != nil {
			return nil, err
		}
		paywall.MinutesSavedToday = stats.MinutesToday
		paywall.MinutesSavedWeek = stats.MinutesWeek
		paywall.CurrentStreak = stats.CurrentStreak
		paywall.UniqueVideoCount = stats.UniqueVideoCount
	}
	return paywall, nil
}

func nextLocalMidnight(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day+1, 0, 0, 0, 0, now.Location())
}
