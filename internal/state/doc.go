// Package state owns the durable store shared by the application process and
// the share invocation process.
//
// Everything both processes must agree on lives in one SQLite database:
// cached artifacts keyed by (video id, kind), daily usage records keyed by
// (owner scope, date key), and the time-saved ledger behind paywall stats.
// WAL journaling plus a busy timeout make concurrent cross-process access
// safe; each write is a single statement so partial mutations are never
// visible. Artifact writes are conditional on their timestamp, giving
// last-writer-wins semantics without any merge logic.
//
// Treat this package as the single source of truth for durable semantics;
// schema changes bump schemaVersion and users clear the state directory to
// adopt the new schema.
package state
