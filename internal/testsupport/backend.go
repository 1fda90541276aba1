package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

// FakeBackend serves the transcript/comments/AI contract for tests.
//
// Zero values serve sensible defaults; tests override fields and inject
// failures before issuing calls. All mutators and accessors are safe for
// concurrent use with in-flight requests.
type FakeBackend struct {
	t   testing.TB
	srv *httptest.Server

	mu sync.Mutex

	// Transcripts maps language tag to transcript text. Languages not present
	// yield 404 so fallback behavior can be exercised.
	Transcripts map[string]string
	CommentList []string

	Summary        map[string]any
	Classification map[string]any
	Essentials     map[string]any
	Answers        []string
	answerIdx      int

	// Remaining injected failures (HTTP 500) keyed by operation: "transcript",
	// "comments", or an AI task name.
	Failures map[string]int
	// Remaining malformed JSON responses keyed the same way.
	Malformed map[string]int
	// Artificial response delay keyed the same way.
	Delays map[string]time.Duration

	calls          map[string]int
	requestedLangs []string
	continuations  map[string]string
}

// NewFakeBackend starts a backend stub and shuts it down on test cleanup.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		t:           t,
		Transcripts: map[string]string{"en": "this is a sufficiently long transcript about building useful things"},
		CommentList: []string{"great video", "the pacing was slow", "loved the examples"},
		Summary: map[string]any{
			"longSummary":  "A walkthrough of building useful things with care.",
			"takeaways":    []string{"start small", "measure twice"},
			"gemsOfWisdom": []string{"simplicity survives"},
		},
		Classification: map[string]any{
			"sentimentSummary":   "mostly positive",
			"themes":             []map[string]any{{"label": "praise", "exampleComment": "great video"}},
			"perCommentCategory": []string{"praise", "critique", "praise"},
		},
		Essentials: map[string]any{
			"contentDepthScore":  0.9,
			"sentimentScore":     0.85,
			"suggestedQuestions": []string{"What was the main example?"},
		},
		Answers:       []string{"The main example was a birdhouse."},
		Failures:      map[string]int{},
		Malformed:     map[string]int{},
		Delays:        map[string]time.Duration{},
		calls:         map[string]int{},
		continuations: map[string]string{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/transcript", f.handleTranscript)
	mux.HandleFunc("/comments", f.handleComments)
	mux.HandleFunc("/ai/responses", f.handleAI)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// URL returns the stub's base URL.
func (f *FakeBackend) URL() string { return f.srv.URL }

// Calls returns how many times the named operation was served.
func (f *FakeBackend) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// RequestedLanguages returns the transcript language parameters in request order.
func (f *FakeBackend) RequestedLanguages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requestedLangs...)
}

// Continuation returns the last continuation token received for a task.
func (f *FakeBackend) Continuation(task string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.continuations[task]
}

// intercept applies call counting, delays, and injected failures. It reports
// whether the handler already wrote a response.
func (f *FakeBackend) intercept(w http.ResponseWriter, op string) bool {
	f.mu.Lock()
	f.calls[op]++
	delay := f.Delays[op]
	fail := f.Failures[op] > 0
	if fail {
		f.Failures[op]--
	}
	malformed := !fail && f.Malformed[op] > 0
	if malformed {
		f.Malformed[op]--
	}
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return true
	}
	if malformed {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not json"))
		return true
	}
	return false
}

func (f *FakeBackend) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if f.intercept(w, "transcript") {
		return
	}
	lang := r.URL.Query().Get("languages")
	f.mu.Lock()
	f.requestedLangs = append(f.requestedLangs, lang)
	text, ok := f.Transcripts[lang]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{"text": text})
}

func (f *FakeBackend) handleComments(w http.ResponseWriter, r *http.Request) {
	if f.intercept(w, "comments") {
		return
	}
	f.mu.Lock()
	limit := len(f.CommentList)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed < limit {
			limit = parsed
		}
	}
	comments := append([]string(nil), f.CommentList[:limit]...)
	f.mu.Unlock()
	writeJSON(w, map[string]any{"comments": comments})
}

func (f *FakeBackend) handleAI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Task         string `json:"task"`
		Continuation string `json:"continuation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if f.intercept(w, req.Task) {
		return
	}
	f.mu.Lock()
	f.continuations[req.Task] = req.Continuation
	var payload map[string]any
	switch req.Task {
	case "summarize_transcript":
		payload = clone(f.Summary)
	case "classify_comments":
		payload = clone(f.Classification)
	case "score_essentials":
		payload = clone(f.Essentials)
	case "answer_question":
		answer := "no answer configured"
		if f.answerIdx < len(f.Answers) {
			answer = f.Answers[f.answerIdx]
			f.answerIdx++
		}
		payload = map[string]any{
			"answer":       answer,
			"continuation": "cont-" + strconv.Itoa(f.answerIdx),
		}
	}
	f.mu.Unlock()
	if payload == nil {
		http.Error(w, "unknown task", http.StatusBadRequest)
		return
	}
	writeJSON(w, payload)
}

func clone(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
