// Package services defines shared utilities consumed by the pipeline and the
// external backend integrations.
//
// Key responsibilities:
//   - Context helpers that stamp video IDs, pipeline stages, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the engine's error taxonomy (validation, quota, transient,
//     decoding, partial fetch, lock held).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, retry classification, observability) stays uniform.
package services
