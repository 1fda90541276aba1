package backend

import (
	"context"
	"errors"
	"strings"

	"worthit/internal/services"
	"worthit/internal/videoid"
)

// Task names accepted by the AI responses endpoint.
const (
	taskSummarizeTranscript = "summarize_transcript"
	taskClassifyComments    = "classify_comments"
	taskScoreEssentials     = "score_essentials"
	taskAnswerQuestion      = "answer_question"
)

type aiRequest struct {
	Task         string   `json:"task"`
	VideoID      string   `json:"video_id"`
	Transcript   string   `json:"transcript,omitempty"`
	Comments     []string `json:"comments,omitempty"`
	Question     string   `json:"question,omitempty"`
	Continuation string   `json:"continuation,omitempty"`
}

// TranscriptSummary is the full summarization payload.
type TranscriptSummary struct {
	LongSummary  string   `json:"longSummary"`
	Takeaways    []string `json:"takeaways"`
	GemsOfWisdom []string `json:"gemsOfWisdom"`
	Continuation string   `json:"continuation,omitempty"`
}

// Theme pairs a comment theme label with the comment that evidences it.
type Theme struct {
	Label          string `json:"label"`
	ExampleComment string `json:"exampleComment"`
}

// CommentClassification is the comment analysis payload.
type CommentClassification struct {
	SentimentSummary   string   `json:"sentimentSummary"`
	Themes             []Theme  `json:"themes"`
	PerCommentCategory []string `json:"perCommentCategory"`
	Continuation       string   `json:"continuation,omitempty"`
}

// Essentials is the cheap quick-score payload published ahead of the full pass.
type Essentials struct {
	ContentDepthScore  float64  `json:"contentDepthScore"`
	SentimentScore     *float64 `json:"sentimentScore"`
	SuggestedQuestions []string `json:"suggestedQuestions"`
	Continuation       string   `json:"continuation,omitempty"`
}

type qaResponse struct {
	Answer       string `json:"answer"`
	Continuation string `json:"continuation,omitempty"`
}

// SummarizeTranscript requests the full transcript summarization pass.
func (c *Client) SummarizeTranscript(ctx context.Context, id videoid.ID, transcript, continuation string) (TranscriptSummary, error) {
	var decoded TranscriptSummary
	req := aiRequest{
		Task:         taskSummarizeTranscript,
		VideoID:      id.String(),
		Transcript:   transcript,
		Continuation: continuation,
	}
	if err := c.aiResponse(ctx, "summarize", req, &decoded); err != nil {
		return TranscriptSummary{}, err
	}
	if strings.TrimSpace(decoded.LongSummary) == "" {
		return TranscriptSummary{}, services.Wrap(services.ErrDecoding, "backend", "summarize", "missing longSummary", nil)
	}
	return decoded, nil
}

// ClassifyComments requests sentiment and theme analysis over raw comments.
func (c *Client) ClassifyComments(ctx context.Context, id videoid.ID, comments []string, continuation string) (CommentClassification, error) {
	var decoded CommentClassification
	req := aiRequest{
		Task:         taskClassifyComments,
		VideoID:      id.String(),
		Comments:     comments,
		Continuation: continuation,
	}
	if err := c.aiResponse(ctx, "classify", req, &decoded); err != nil {
		return CommentClassification{}, err
	}
	if strings.TrimSpace(decoded.SentimentSummary) == "" {
		return CommentClassification{}, services.Wrap(services.ErrDecoding, "backend", "classify", "missing sentimentSummary", nil)
	}
	return decoded, nil
}

// ScoreEssentials requests the fast partial pass: depth/sentiment scores and
// suggested questions.
func (c *Client) ScoreEssentials(ctx context.Context, id videoid.ID, transcript string, comments []string, continuation string) (Essentials, error) {
	var decoded Essentials
	req := aiRequest{
		Task:         taskScoreEssentials,
		VideoID:      id.String(),
		Transcript:   transcript,
		Comments:     comments,
		Continuation: continuation,
	}
	if err := c.aiResponse(ctx, "essentials", req, &decoded); err != nil {
		return Essentials{}, err
	}
	if decoded.ContentDepthScore < 0 || decoded.ContentDepthScore > 1 {
		return Essentials{}, services.Wrap(services.ErrDecoding, "backend", "essentials", "contentDepthScore out of range", nil)
	}
	if decoded.SentimentScore != nil && (*decoded.SentimentScore < 0 || *decoded.SentimentScore > 1) {
		return Essentials{}, services.Wrap(services.ErrDecoding, "backend", "essentials", "sentimentScore out of range", nil)
	}
	return decoded, nil
}

// Ask requests a conversational answer, chaining the continuation token so
// the backend keeps context without resending history.
func (c *Client) Ask(ctx context.Context, id videoid.ID, question, continuation string) (answer, nextContinuation string, err error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", "", services.Wrap(services.ErrValidation, "backend", "ask", "question required", nil)
	}
	var decoded qaResponse
	req := aiRequest{
		Task:         taskAnswerQuestion,
		VideoID:      id.String(),
		Question:     question,
		Continuation: continuation,
	}
	if err := c.aiResponse(ctx, "ask", req, &decoded); err != nil {
		return "", "", err
	}
	if strings.TrimSpace(decoded.Answer) == "" {
		return "", "", services.Wrap(services.ErrDecoding, "backend", "ask", "missing answer", nil)
	}
	return decoded.Answer, decoded.Continuation, nil
}

// aiResponse posts to the AI endpoint. A malformed payload gets exactly one
// fresh attempt before the decoding error is surfaced.
func (c *Client) aiResponse(ctx context.Context, op string, req aiRequest, target any) error {
	err := c.postJSON(ctx, op, "/ai/responses", req, target)
	if err == nil || !errors.Is(err, services.ErrDecoding) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	return c.postJSON(ctx, op, "/ai/responses", req, target)
}
