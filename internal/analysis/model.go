package analysis

import "time"

// Theme is a named discussion thread in the comments, anchored to a verbatim
// example comment.
type Theme struct {
	Label          string `json:"label"`
	ExampleComment string `json:"exampleComment"`
}

// Breakdown is the scored verdict. BaseScore is the weighted blend before
// nudges; FinalScore is what users see.
type Breakdown struct {
	DepthScore         float64  `json:"depthScore"`
	SentimentScore     *float64 `json:"sentimentScore,omitempty"`
	BaseScore          int      `json:"baseScore"`
	FinalScore         int      `json:"finalScore"`
	MissingCommentData bool     `json:"missingCommentData,omitempty"`
}

// CommentInsights is the comment-side analysis after theme validation.
type CommentInsights struct {
	SentimentSummary   string   `json:"sentimentSummary"`
	Themes             []Theme  `json:"themes"`
	PerCommentCategory []string `json:"perCommentCategory,omitempty"`
}

// ContentAnalysis is the merged analysis artifact for one video.
type ContentAnalysis struct {
	VideoID            string          `json:"videoId"`
	LongSummary        string          `json:"longSummary"`
	Takeaways          []string        `json:"takeaways,omitempty"`
	GemsOfWisdom       []string        `json:"gemsOfWisdom,omitempty"`
	Insights           CommentInsights `json:"insights"`
	Score              Breakdown       `json:"score"`
	SuggestedQuestions []string        `json:"suggestedQuestions,omitempty"`
	MinutesSaved       int             `json:"minutesSaved"`
	AnalyzedAt         time.Time       `json:"analyzedAt"`
}

// Essentials is the fast partial result published before the full analysis.
type Essentials struct {
	VideoID            string    `json:"videoId"`
	Score              Breakdown `json:"score"`
	SuggestedQuestions []string  `json:"suggestedQuestions,omitempty"`
}

// QAExchange is one question/answer turn in a conversation about a video.
type QAExchange struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"askedAt"`
}

// ReadingMinutes estimates how many minutes of watching the summary replaces,
// from the transcript word count at the configured reading rate. Never less
// than one minute for a non-empty transcript.
func ReadingMinutes(wordCount, wordsPerMinute int) int {
	if wordCount <= 0 {
		return 0
	}
	if wordsPerMinute <= 0 {
		wordsPerMinute = 160
	}
	minutes := wordCount / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
