// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties including disposition and tags
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result and Stream expose the subtitle track metadata the
// extraction workflow needs: codec, language, default and forced flags.
package ffprobe
