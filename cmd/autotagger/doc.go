// Package main hosts the autotagger CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration, sets up structured logging with
// a per-invocation run id, takes the working-directory lock and hands off to
// the extraction and tagging workflows. Keep this package thin: behaviour
// belongs in the internal packages.
package main
