package analysis

import (
	"math"

	"worthit/internal/config"
)

// Tuning holds the score weights and nudge parameters.
type Tuning struct {
	DepthWeight         float64
	SentimentWeight     float64
	HighSignalThreshold float64
	HighSignalBonus     int
	LowDepthThreshold   float64
	LowDepthPenalty     int
}

// TuningFromConfig maps the score configuration onto engine tuning.
func TuningFromConfig(cfg config.Score) Tuning {
	return Tuning{
		DepthWeight:         cfg.DepthWeight,
		SentimentWeight:     cfg.SentimentWeight,
		HighSignalThreshold: cfg.HighSignalThreshold,
		HighSignalBonus:     cfg.HighSignalBonus,
		LowDepthThreshold:   cfg.LowDepthThreshold,
		LowDepthPenalty:     cfg.LowDepthPenalty,
	}
}

// Engine turns raw depth/sentiment signals into a scored Breakdown.
type Engine struct {
	tuning Tuning
}

// NewEngine constructs a score engine with the supplied tuning.
func NewEngine(tuning Tuning) *Engine {
	return &Engine{tuning: tuning}
}

// Score computes the verdict for one video. A nil sentiment means comment
// data was unavailable; the score then rests on depth alone and the result is
// flagged so callers can surface the gap.
func (e *Engine) Score(depth float64, sentiment *float64) Breakdown {
	breakdown := Breakdown{
		DepthScore:     depth,
		SentimentScore: sentiment,
	}

	var blended float64
	if sentiment == nil {
		breakdown.MissingCommentData = true
		blended = depth
	} else {
		blended = e.tuning.DepthWeight*depth + e.tuning.SentimentWeight*(*sentiment)
	}
	breakdown.BaseScore = clampScore(int(math.Round(100 * blended)))

	final := breakdown.BaseScore
	if sentiment != nil && depth >= e.tuning.HighSignalThreshold && *sentiment >= e.tuning.HighSignalThreshold {
		final += e.tuning.HighSignalBonus
	}
	if depth < e.tuning.LowDepthThreshold {
		final -= e.tuning.LowDepthPenalty
	}
	breakdown.FinalScore = clampScore(final)
	return breakdown
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
