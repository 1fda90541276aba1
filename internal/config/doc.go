// Package config loads, normalizes, and validates the TOML configuration
// shared by the primary application process and the share invocation process.
//
// Both processes must point at the same state directory so the durable cache,
// quota records, and invocation locks are shared. All tunable engine
// parameters the design leaves open (score nudges, daily quota limit, retry
// bounds, refresh behavior) live here as named fields rather than constants
// buried in package code.
package config
