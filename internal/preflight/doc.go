// Package preflight provides readiness checks for the filesystem paths and
// the backend endpoint the engine depends on.
//
// Both entry points run RunAll at startup and log the results; the CLI also
// renders them for "worthit config check". Each check returns a Result rather
// than an error so one broken dependency never hides the others.
package preflight
