// Package main hosts the worthit CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces the analysis pipeline, follow-up
// questions, quota inspection, and cache maintenance. It centralizes
// configuration resolution and engine wiring so subcommands can focus on
// user experience instead of plumbing.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
