// Package extraction turns mkv files into subtitle files that the matcher can
// read.
//
// For each file it picks the comparison track, extracts it with mkvextract
// and, for bitmap or non-SubRip tracks, queues the conversion to .srt on a
// taskqueue.Queue. Extraction of the next file starts while the previous
// file's OCR runs; the workflow waits for the queue before returning.
package extraction
