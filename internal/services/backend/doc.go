// Package backend is the HTTP client for the transcript, comment, and AI
// response endpoints.
//
// All calls share one retry policy: bounded attempts with exponential backoff,
// honoring Retry-After on 429/5xx, with context-aware sleeps so cancellation
// is never delayed by a pending retry. AI responses are JSON-only and decoded
// strictly; unrecognized or missing required fields fail decoding rather than
// degrade silently, and a decode failure earns exactly one extra attempt.
//
// Failures carry the services error markers so the pipeline can classify them
// without string matching.
package backend
