package contentid

import (
	"cmp"
	"slices"
)

// SortObservations orders observations by episode ID, then distance, then file.
func SortObservations(observations []Observation) {
	slices.SortFunc(observations, func(a, b Observation) int {
		if c := cmp.Compare(a.EpisodeID, b.EpisodeID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.File, b.File)
	})
}

// GroupByEpisode maps each episode ID to its observations ranked by ascending
// distance. Input must already be sorted with SortObservations.
func GroupByEpisode(observations []Observation) map[int64][]Observation {
	grouped := make(map[int64][]Observation)
	for _, obs := range observations {
		grouped[obs.EpisodeID] = append(grouped[obs.EpisodeID], obs)
	}
	return grouped
}

// InvertByFile maps each file to the episodes that ranked it, ordered by
// distance with ties broken by episode ID. Observations for episodes missing
// from episodes are ignored.
func InvertByFile(byEpisode map[int64][]Observation, episodes []Episode) map[string][]Candidate {
	lookup := make(map[int64]Episode, len(episodes))
	for _, episode := range episodes {
		lookup[episode.ID] = episode
	}
	byFile := make(map[string][]Candidate)
	for episodeID, ranked := range byEpisode {
		episode, ok := lookup[episodeID]
		if !ok {
			continue
		}
		for _, obs := range ranked {
			byFile[obs.File] = append(byFile[obs.File], Candidate{Episode: episode, Distance: obs.Distance})
		}
	}
	for _, candidates := range byFile {
		sortCandidates(candidates)
	}
	return byFile
}

// Assign builds one Assignment per file, ordered by file path. The winner is
// the lowest-distance candidate; files without candidates are unmatched.
func Assign(files []CandidateFile, byFile map[string][]Candidate) []Assignment {
	assignments := make([]Assignment, 0, len(files))
	for _, file := range files {
		candidates := byFile[file.Path]
		assignment := Assignment{File: file.Path}
		if len(candidates) > 0 {
			ranked := slices.Clone(candidates)
			sortCandidates(ranked)
			assignment.Matched = true
			assignment.Episode = ranked[0].Episode
			assignment.Distance = ranked[0].Distance
			assignment.Candidates = ranked
		}
		assignments = append(assignments, assignment)
	}
	slices.SortFunc(assignments, func(a, b Assignment) int {
		return cmp.Compare(a.File, b.File)
	})
	return assignments
}

func sortCandidates(candidates []Candidate) {
	slices.SortFunc(candidates, func(a, b Candidate) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Episode.ID, b.Episode.ID)
	})
}
