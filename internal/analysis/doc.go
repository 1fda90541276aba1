// Package analysis holds the merged analysis model, the score engine, and
// theme validation. Everything here is pure computation over data produced by
// the backend clients.
package analysis
