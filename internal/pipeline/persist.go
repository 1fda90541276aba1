package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"worthit/internal/artifactcache"
	"worthit/internal/logging"
	"worthit/internal/videoid"
)

// recentIndexKey is the reserved artifact owner for the cross-video recent
// analyses index.
const recentIndexKey = videoid.ID("_recent")

const recentIndexLimit = 20

// RecentEntry is one row of the recent analyses index.
type RecentEntry struct {
	VideoID      string    `json:"videoId"`
	FinalScore   int       `json:"finalScore"`
	MinutesSaved int       `json:"minutesSaved"`
	AnalyzedAt   time.Time `json:"analyzedAt"`
}

// persist writes the merged analysis and its sub-artifacts. Every write is
// best-effort: failures are logged and the in-memory result still reaches the
// caller. The analysis artifacts are stamped with the run's start time so a
// slower, earlier-started run can never clobber a later one's result.
func (o *Orchestrator) persist(ctx context.Context, logger *slog.Logger, result computed, startedAt time.Time) {
	id := videoid.ID(result.analysis.VideoID)

	o.putJSON(ctx, logger, id, artifactcache.KindContentAnalysis, result.analysis, startedAt)
	o.putJSON(ctx, logger, id, artifactcache.KindCommentInsights, result.analysis.Insights, startedAt)
	o.put(ctx, logger, id, artifactcache.KindTranscript, []byte(result.transcript), startedAt)
	if len(result.comments) > 0 {
		o.putJSON(ctx, logger, id, artifactcache.KindRawComments, result.comments, startedAt)
	}
	o.updateRecentIndex(ctx, logger, result)
}

func (o *Orchestrator) putJSON(ctx context.Context, logger *slog.Logger, id videoid.ID, kind artifactcache.Kind, value any, writtenAt time.Time) {
	payload, err := json.Marshal(value)
	if err != nil {
		logger.Warn("failed to encode artifact",
			logging.Error(err),
			logging.String(logging.FieldArtifact, string(kind)),
		)
		return
	}
	o.put(ctx, logger, id, kind, payload, writtenAt)
}

func (o *Orchestrator) put(ctx context.Context, logger *slog.Logger, id videoid.ID, kind artifactcache.Kind, payload []byte, writtenAt time.Time) {
	applied, err := o.cache.Put(ctx, id, kind, payload, writtenAt)
	if err != nil {
		logger.Warn("failed to persist artifact",
			logging.Error(err),
			logging.String(logging.FieldArtifact, string(kind)),
		)
		return
	}
	if !applied {
		logger.Debug("skipped stale artifact write",
			logging.String(logging.FieldArtifact, string(kind)),
			logging.Time("written_at", writtenAt),
		)
	}
}

// updateRecentIndex prepends the finished analysis to the recent index,
// deduplicating by video ID and capping the list. The index is advisory
// display state, so it is stamped with the current time rather than the run
// start.
func (o *Orchestrator) updateRecentIndex(ctx context.Context, logger *slog.Logger, result computed) {
	recent, err := Recent(ctx, o.cache)
	if err != nil && !errors.Is(err, artifactcache.ErrMiss) {
		logger.Warn("failed to load recent index", logging.Error(err))
		return
	}

	entry := RecentEntry{
		VideoID:      result.analysis.VideoID,
		FinalScore:   result.analysis.Score.FinalScore,
		MinutesSaved: result.analysis.MinutesSaved,
		AnalyzedAt:   result.analysis.AnalyzedAt,
	}
	merged := make([]RecentEntry, 0, len(recent)+1)
	merged = append(merged, entry)
	for _, existing := range recent {
		if existing.VideoID == entry.VideoID {
			continue
		}
		merged = append(merged, existing)
		if len(merged) == recentIndexLimit {
			break
		}
	}
	o.putJSON(ctx, logger, recentIndexKey, artifactcache.KindRecentIndex, merged, o.now())
}

// Recent returns the recent analyses index, newest first. A missing index
// yields an empty list and artifactcache.ErrMiss.
func Recent(ctx context.Context, cache *artifactcache.Cache) ([]RecentEntry, error) {
	entry, err := cache.Get(ctx, recentIndexKey, artifactcache.KindRecentIndex)
	if err != nil {
		return nil, err
	}
	var recent []RecentEntry
	if err := json.Unmarshal(entry.Payload, &recent); err != nil {
		return nil, err
	}
	return recent, nil
}
