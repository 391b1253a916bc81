// Package textutil provides the text processing used to compare subtitles and
// to name files.
//
// The primary use cases are:
//   - Normalizing raw subtitle text so formatting noise does not affect comparison
//   - Computing Levenshtein edit distance between normalized texts
//   - Sanitizing filenames for safe filesystem use
//
// Every function here is pure and safe for concurrent use.
package textutil
