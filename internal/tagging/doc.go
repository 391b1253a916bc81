// Package tagging identifies which episode each extracted subtitle file holds
// and renames the matching mkv files.
//
// The workflow resolves the show and the episodes on the disc through TMDB,
// downloads one reference subtitle per episode from OpenSubtitles, scores
// every extracted .srt against every reference with the contentid engine and
// then walks the user through the proposed renames.
package tagging
