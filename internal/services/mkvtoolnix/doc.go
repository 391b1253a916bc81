// Package mkvtoolnix mediates access to mkvextract, the container track
// extractor used to pull subtitle tracks out of Matroska files.
//
// It normalizes command invocation, parses progress output, and classifies a
// non-zero exit as an external tool failure. Prefer this package over ad-hoc
// exec.Command usage so extraction errors stay consistent.
package mkvtoolnix
