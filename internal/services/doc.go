// Package services defines shared utilities consumed by the extraction and
// tagging workflows and the external integrations they drive.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and the file or
//     episode being processed so log lines can be correlated.
//   - Structured error markers plus the Wrap helper that classify failures as
//     missing data, external tool failures, or network/authentication problems.
//
// Use these helpers when wiring new workflow logic so error classification and
// observability stay uniform across commands.
package services
