// Package invocationlock prevents duplicate concurrent pipelines for the
// same trigger across the two host processes.
//
// Each scope maps to a lock file in the shared state directory guarded by an
// OS advisory lock. A second invocation for a held scope observes AlreadyHeld
// within the acquisition timeout and must exit without touching quota or
// cache state. The kernel releases advisory locks when their holder dies, so
// an abnormal termination can never leave a scope permanently blocked.
package invocationlock
