// Package artifactcache provides the two-tier cache of fetched and derived
// artifacts keyed by (video id, artifact kind).
//
// The durable tier lives in the shared state database and is the source of
// truth; the volatile in-process tier only accelerates reads and is rebuilt
// from the durable tier after a restart. Puts hit the durable tier before the
// volatile one so an acknowledged write survives a crash in between. Durable
// writes carry a timestamp and are dropped when an equal-or-newer write for
// the same key already landed, which is what lets a later-started pipeline
// stay authoritative over a slow earlier refresh.
//
// Kinds are independent: clearing or overwriting one never touches another.
// There is no TTL eviction; entries leave only through explicit clears.
package artifactcache
