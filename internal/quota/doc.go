// Package quota enforces the per-user daily limit on fresh analyses.
//
// Usage records are keyed by (owner scope, local date) in the shared state
// database, so the limit holds across the application process and the share
// invocation process simultaneously. Consumption is a single conditional
// upsert: either the increment lands within the limit or nothing changes, no
// matter how many processes race. Subscribed and complimentary callers bypass
// the limit without touching the record.
//
// Consume only when a pipeline actually needs fresh network work; cache hits
// go through the side-effect-free Check so repeat viewing never double
// charges. A denied decision carries the paywall context (time saved, streak,
// reset time) computed on demand from the usage record and the time-saved
// ledger.
package quota
