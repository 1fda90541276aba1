package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"worthit/internal/analysis"
	"worthit/internal/logging"
	"worthit/internal/services"
	"worthit/internal/services/backend"
	"worthit/internal/videoid"
)

// computed carries a finished analysis together with the raw inputs the
// persist phase stores as sub-artifacts.
type computed struct {
	analysis   *analysis.ContentAnalysis
	transcript string
	comments   []string
}

// compute runs the Fetching, Summarizing, Merging, and Scoring phases. It is
// shared by the foreground run and the background refresh; the refresh passes
// a nil updates channel.
func (o *Orchestrator) compute(ctx context.Context, gen uint64, id videoid.ID, opts Options, startedAt time.Time, logger *slog.Logger, updates chan<- Update) (computed, error) {
	o.publish(updates, gen, Update{State: StateFetching, VideoID: id})
	transcript, comments, err := o.fetchInputs(ctx, id, opts, logger)
	if err != nil {
		return computed{}, err
	}

	o.publish(updates, gen, Update{State: StateSummarizing, VideoID: id})
	sig, err := o.summarize(ctx, gen, id, transcript, comments, logger, updates)
	if err != nil {
		return computed{}, err
	}

	o.publish(updates, gen, Update{State: StateMerging, VideoID: id})
	o.publish(updates, gen, Update{State: StateScoring, VideoID: id})
	merged := o.merge(id, transcript, comments, sig, startedAt)
	return computed{analysis: merged, transcript: transcript, comments: comments}, nil
}

// fetchInputs retrieves the transcript and comments in parallel. A comment
// failure degrades to a transcript-only analysis; a transcript failure is
// fatal for the run.
func (o *Orchestrator) fetchInputs(ctx context.Context, id videoid.ID, opts Options, logger *slog.Logger) (string, []string, error) {
	var (
		wg            sync.WaitGroup
		transcript    string
		transcriptErr error
		comments      []string
		commentsErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		transcript, transcriptErr = o.backend.Transcript(ctx, id, o.languages(opts))
	}()
	go func() {
		defer wg.Done()
		comments, commentsErr = o.backend.Comments(ctx, id, o.cfg.Backend.CommentLimit)
	}()
	wg.Wait()

	if transcriptErr != nil {
		return "", nil, services.Wrap(services.ErrPartialFetch, "pipeline", "fetch",
			"transcript unavailable", transcriptErr)
	}
	if commentsErr != nil {
		logger.Warn("comments unavailable, proceeding without sentiment",
			logging.Error(commentsErr),
			logging.String(logging.FieldEventType, "comments_degraded"),
		)
		comments = nil
	}
	return transcript, comments, nil
}

// signals collects the backend analysis passes feeding the merge.
type signals struct {
	summary        backend.TranscriptSummary
	classification *backend.CommentClassification
	essentials     backend.Essentials
}

// summarize fans out the transcript summary, comment classification, and
// essentials passes. The essentials result is published as soon as it lands
// so the caller sees a quick partial verdict before the full one.
func (o *Orchestrator) summarize(ctx context.Context, gen uint64, id videoid.ID, transcript string, comments []string, logger *slog.Logger, updates chan<- Update) (signals, error) {
	var (
		wg             sync.WaitGroup
		summary        backend.TranscriptSummary
		summaryErr     error
		classification backend.CommentClassification
		classifyErr    error
		essentials     backend.Essentials
		essentialsErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		summary, summaryErr = o.backend.SummarizeTranscript(ctx, id, transcript, "")
	}()
	go func() {
		defer wg.Done()
		essentials, essentialsErr = o.backend.ScoreEssentials(ctx, id, transcript, comments, "")
		if essentialsErr != nil || !o.cfg.Pipeline.EssentialsEnabled {
			return
		}
		sentiment := essentials.SentimentScore
		if len(comments) == 0 {
			sentiment = nil
		}
		o.publish(updates, gen, Update{
			State:   StateEssentialsReady,
			VideoID: id,
			Essentials: &analysis.Essentials{
				VideoID:            id.String(),
				Score:              o.engine.Score(essentials.ContentDepthScore, sentiment),
				SuggestedQuestions: essentials.SuggestedQuestions,
			},
		})
	}()

	classify := len(comments) > 0
	if classify {
		wg.Add(1)
		go func() {
			defer wg.Done()
			classification, classifyErr = o.backend.ClassifyComments(ctx, id, comments, "")
		}()
	}
	wg.Wait()

	if summaryErr != nil {
		return signals{}, services.Wrap(services.ErrPartialFetch, "pipeline", "summarize",
			"transcript summary failed", summaryErr)
	}
	if essentialsErr != nil {
		return signals{}, services.Wrap(services.ErrPartialFetch, "pipeline", "summarize",
			"essentials scoring failed", essentialsErr)
	}

	sig := signals{summary: summary, essentials: essentials}
	if classify {
		if classifyErr != nil {
			logger.Warn("comment classification failed, dropping insights",
				logging.Error(classifyErr),
				logging.String(logging.FieldEventType, "classification_degraded"),
			)
		} else {
			sig.classification = &classification
		}
	}
	return sig, nil
}

// merge combines the backend passes into one ContentAnalysis, validating
// themes against the fetched comments and scoring the result.
func (o *Orchestrator) merge(id videoid.ID, transcript string, comments []string, sig signals, analyzedAt time.Time) *analysis.ContentAnalysis {
	var insights analysis.CommentInsights
	if sig.classification != nil {
		themes := make([]analysis.Theme, 0, len(sig.classification.Themes))
		for _, theme := range sig.classification.Themes {
			themes = append(themes, analysis.Theme{
				Label:          theme.Label,
				ExampleComment: theme.ExampleComment,
			})
		}
		insights = analysis.CommentInsights{
			SentimentSummary:   sig.classification.SentimentSummary,
			Themes:             analysis.ValidateThemes(themes, comments),
			PerCommentCategory: sig.classification.PerCommentCategory,
		}
	}

	sentiment := sig.essentials.SentimentScore
	if len(comments) == 0 {
		sentiment = nil
	}
	breakdown := o.engine.Score(sig.essentials.ContentDepthScore, sentiment)

	words := len(strings.Fields(transcript))
	return &analysis.ContentAnalysis{
		VideoID:            id.String(),
		LongSummary:        sig.summary.LongSummary,
		Takeaways:          sig.summary.Takeaways,
		GemsOfWisdom:       sig.summary.GemsOfWisdom,
		Insights:           insights,
		Score:              breakdown,
		SuggestedQuestions: sig.essentials.SuggestedQuestions,
		MinutesSaved:       analysis.ReadingMinutes(words, o.cfg.Pipeline.ReadingWordsPerMin),
		AnalyzedAt:         analyzedAt,
	}
}
