package mkvtoolnix_test

import (
	"context"
	"errors"
	"testing"

	"autotagger/internal/services"
	"autotagger/internal/services/mkvtoolnix"
)

type stubExecutor struct {
	lines  []string
	err    error
	binary string
	args   []string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	s.binary = binary
	s.args = append([]string(nil), args...)
	for _, line := range s.lines {
		onOutput(line)
	}
	return s.err
}

func TestExtractTrackBuildsArguments(t *testing.T) {
	exec := &stubExecutor{lines: []string{"Extracting track 2 with the CodecID 'S_VOBSUB'", "Progress: 40%", "Progress: 100%"}}
	client, err := mkvtoolnix.New("mkvextract", mkvtoolnix.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var updates []mkvtoolnix.ProgressUpdate
	if err := client.ExtractTrack(context.Background(), "/rips/title_t00.mkv", 2, "/rips/title_t00.idx", func(u mkvtoolnix.ProgressUpdate) {
		updates = append(updates, u)
	}); err != nil {
		t.Fatalf("ExtractTrack returned error: %v", err)
	}

	want := []string{"tracks", "/rips/title_t00.mkv", "2:/rips/title_t00.idx"}
	if len(exec.args) != len(want) {
		t.Fatalf("unexpected args %v", exec.args)
	}
	for i := range want {
		if exec.args[i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, exec.args[i], want[i])
		}
	}
	if exec.binary != "mkvextract" {
		t.Fatalf("unexpected binary %q", exec.binary)
	}
	if len(updates) != 2 || updates[1].Percent != 100 {
		t.Fatalf("unexpected progress updates %+v", updates)
	}
}

func TestExtractTrackClassifiesFailure(t *testing.T) {
	client, _ := mkvtoolnix.New("mkvextract", mkvtoolnix.WithExecutor(&stubExecutor{err: errors.New("exit status 2")}))
	err := client.ExtractTrack(context.Background(), "a.mkv", 0, "a.srt", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestExtractTrackValidatesInput(t *testing.T) {
	client, _ := mkvtoolnix.New("mkvextract", mkvtoolnix.WithExecutor(&stubExecutor{}))
	if err := client.ExtractTrack(context.Background(), "", 0, "a.srt", nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := client.ExtractTrack(context.Background(), "a.mkv", -1, "a.srt", nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := mkvtoolnix.New(" "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}
