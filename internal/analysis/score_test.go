package analysis

import (
	"testing"

	"worthit/internal/config"
)

func defaultEngine() *Engine {
	return NewEngine(TuningFromConfig(config.Default().Score))
}

func ptr(v float64) *float64 { return &v }

func TestScoreBlendsDepthAndSentiment(t *testing.T) {
	breakdown := defaultEngine().Score(0.9, ptr(0.85))

	// 0.60*0.9 + 0.40*0.85 = 0.88
	if breakdown.BaseScore != 88 {
		t.Fatalf("expected base 88, got %d", breakdown.BaseScore)
	}
	// both signals clear the high-signal threshold
	if breakdown.FinalScore != 93 {
		t.Fatalf("expected final 93, got %d", breakdown.FinalScore)
	}
	if breakdown.MissingCommentData {
		t.Fatal("comment data was present")
	}
}

func TestScoreWithoutSentimentRestsOnDepth(t *testing.T) {
	breakdown := defaultEngine().Score(0.7, nil)

	if breakdown.BaseScore != 70 || breakdown.FinalScore != 70 {
		t.Fatalf("expected 70/70, got %d/%d", breakdown.BaseScore, breakdown.FinalScore)
	}
	if !breakdown.MissingCommentData {
		t.Fatal("expected missing-comment flag")
	}
	if breakdown.SentimentScore != nil {
		t.Fatal("expected nil sentiment echoed back")
	}
}

func TestScoreLowDepthPenalty(t *testing.T) {
	breakdown := defaultEngine().Score(0.2, ptr(0.9))

	// 0.60*0.2 + 0.40*0.9 = 0.48 -> 48, depth below 0.35 costs 8
	if breakdown.BaseScore != 48 {
		t.Fatalf("expected base 48, got %d", breakdown.BaseScore)
	}
	if breakdown.FinalScore != 40 {
		t.Fatalf("expected final 40, got %d", breakdown.FinalScore)
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	cases := []struct {
		name      string
		depth     float64
		sentiment *float64
	}{
		{"both maxed", 1.0, ptr(1.0)},
		{"both zero", 0.0, ptr(0.0)},
		{"zero depth no sentiment", 0.0, nil},
		{"max depth no sentiment", 1.0, nil},
	}
	engine := defaultEngine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			breakdown := engine.Score(tc.depth, tc.sentiment)
			if breakdown.FinalScore < 0 || breakdown.FinalScore > 100 {
				t.Fatalf("final score %d out of bounds", breakdown.FinalScore)
			}
			if breakdown.BaseScore < 0 || breakdown.BaseScore > 100 {
				t.Fatalf("base score %d out of bounds", breakdown.BaseScore)
			}
		})
	}
}

func TestScoreBonusClampedAtCeiling(t *testing.T) {
	breakdown := defaultEngine().Score(1.0, ptr(1.0))

	if breakdown.BaseScore != 100 {
		t.Fatalf("expected base 100, got %d", breakdown.BaseScore)
	}
	if breakdown.FinalScore != 100 {
		t.Fatalf("expected final clamped to 100, got %d", breakdown.FinalScore)
	}
}

func TestScoreCustomTuning(t *testing.T) {
	engine := NewEngine(Tuning{
		DepthWeight:         0.5,
		SentimentWeight:     0.5,
		HighSignalThreshold: 0.6,
		HighSignalBonus:     10,
		LowDepthThreshold:   0.1,
		LowDepthPenalty:     20,
	})
	breakdown := engine.Score(0.8, ptr(0.6))

	if breakdown.BaseScore != 70 {
		t.Fatalf("expected base 70, got %d", breakdown.BaseScore)
	}
	if breakdown.FinalScore != 80 {
		t.Fatalf("expected final 80, got %d", breakdown.FinalScore)
	}
}

func TestReadingMinutes(t *testing.T) {
	if got := ReadingMinutes(0, 160); got != 0 {
		t.Fatalf("empty transcript: expected 0, got %d", got)
	}
	if got := ReadingMinutes(40, 160); got != 1 {
		t.Fatalf("short transcript: expected minimum 1, got %d", got)
	}
	if got := ReadingMinutes(1600, 160); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := ReadingMinutes(320, 0); got != 2 {
		t.Fatalf("zero rate falls back to default: expected 2, got %d", got)
	}
}
