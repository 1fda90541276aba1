// Package pipeline runs the analysis state machine for one content reference:
// validation, quota, cache lookup, parallel fetch and summarization, merge,
// scoring, and best-effort persistence. Callers observe progress through a
// buffered updates channel; a newer run supersedes older in-flight runs.
package pipeline
