package contentid

import "fmt"

// Episode is a known episode with its normalized reference subtitle text.
type Episode struct {
	ID            int64
	SeasonNumber  int
	EpisodeNumber int
	Name          string
	Text          string
}

// Key renders the conventional SxxEyy label.
func (e Episode) Key() string {
	return fmt.Sprintf("S%02dE%02d", e.SeasonNumber, e.EpisodeNumber)
}

// CandidateFile is an unlabeled subtitle file. Path has its media extension
// stripped; Text holds the normalized sidecar contents.
type CandidateFile struct {
	Path string
	Text string
}

// Observation records the edit distance between one episode and one file.
type Observation struct {
	EpisodeID int64
	File      string
	Distance  int
}

// Candidate is one ranked episode for a file.
type Candidate struct {
	Episode  Episode
	Distance int
}

// Assignment is the outcome for one candidate file. When Matched is false the
// file had no ranked episodes.
type Assignment struct {
	File       string
	Matched    bool
	Episode    Episode
	Distance   int
	Candidates []Candidate
}

// ClosestNegative returns the runner-up distance, if a second candidate exists.
func (a Assignment) ClosestNegative() (int, bool) {
	if !a.Matched || len(a.Candidates) < 2 {
		return 0, false
	}
	return a.Candidates[1].Distance, true
}

// Margin returns the gap between the runner-up and the winner. A small margin
// means the match is ambiguous.
func (a Assignment) Margin() (int, bool) {
	negative, ok := a.ClosestNegative()
	if !ok {
		return 0, false
	}
	return negative - a.Distance, true
}
