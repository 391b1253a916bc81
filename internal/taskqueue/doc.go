// Package taskqueue runs submitted work strictly one task at a time, in
// submission order, on a single background executor.
//
// It lets a caller keep issuing I/O-bound work (extracting the next subtitle
// track) while the previous CPU-bound task (OCR of the last track) is still
// running, without ever running two queued tasks at once. Submission never
// blocks on execution.
//
// A Queue starts draining immediately. Close stops intake and lets the
// executor finish what is already queued; cancelling the context passed to New
// abandons queued work instead.
package taskqueue
