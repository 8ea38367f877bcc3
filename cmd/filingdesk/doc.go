// Package main hosts the filingdesk CLI entrypoint and command graph.
//
// The Cobra-based command tree starts the interactive capture console and
// exposes headless commands for location stats, selection changes, camera
// snapshots and device listing, capture history, log viewing, readiness checks and
// configuration scaffolding. It centralizes configuration resolution and
// logging setup so subcommands can focus on output.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through a dedicated command or flag here.
package main
