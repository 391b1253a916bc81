// Package contentid matches unlabeled subtitle files to known TV episodes by
// comparing their normalized text.
//
// The Engine computes the Levenshtein distance for every (episode, file) pair
// on a bounded worker pool. Workers funnel observations through a channel to a
// single collector, which sorts them by episode, distance, and file so that the
// derived indices are deterministic. Observations are grouped per episode,
// inverted per file, and each file receives the lowest-distance episode as its
// Assignment along with the runner-up distance (the closest negative) as a
// confidence signal.
//
// Assignment is a per-file greedy best match. Two files may claim the same
// episode; callers confirm every rename with the user before acting on it, so
// no one-to-one assignment is enforced and no distance threshold is applied.
package contentid
