package contentid

import "testing"

func TestGroupAndInvertKeepRanking(t *testing.T) {
	observations := []Observation{
		{EpisodeID: 2, File: "b", Distance: 1},
		{EpisodeID: 1, File: "b", Distance: 5},
		{EpisodeID: 1, File: "a", Distance: 2},
		{EpisodeID: 2, File: "a", Distance: 2},
	}
	SortObservations(observations)
	if observations[0].EpisodeID != 1 || observations[0].File != "a" {
		t.Fatalf("unexpected sort order %+v", observations)
	}

	byEpisode := GroupByEpisode(observations)
	if len(byEpisode[1]) != 2 || byEpisode[1][0].Distance != 2 {
		t.Fatalf("unexpected episode ranking %+v", byEpisode[1])
	}

	episodes := []Episode{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}}
	byFile := InvertByFile(byEpisode, episodes)
	if got := byFile["a"]; len(got) != 2 || got[0].Episode.ID != 1 || got[1].Episode.ID != 2 {
		t.Fatalf("expected tie on file a broken by episode id, got %+v", got)
	}
	if got := byFile["b"]; got[0].Episode.ID != 2 || got[0].Distance != 1 {
		t.Fatalf("expected closest episode first for file b, got %+v", got)
	}

	assignments := Assign([]CandidateFile{{Path: "b"}, {Path: "a"}, {Path: "c"}}, byFile)
	if len(assignments) != 3 {
		t.Fatalf("expected three assignments, got %d", len(assignments))
	}
	if assignments[2].File != "c" || assignments[2].Matched {
		t.Fatalf("expected unmatched file c, got %+v", assignments[2])
	}
	if assignments[1].Episode.Name != "two" {
		t.Fatalf("expected file b assigned to episode two, got %+v", assignments[1])
	}
}

func TestEpisodeKey(t *testing.T) {
	if got := (Episode{SeasonNumber: 1, EpisodeNumber: 9}).Key(); got != "S01E09" {
		t.Fatalf("unexpected key %q", got)
	}
}
