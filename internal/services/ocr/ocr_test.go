package ocr_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autotagger/internal/services"
	"autotagger/internal/services/ocr"
)

type recordingExecutor struct {
	calls [][]string
	err   error
}

func (r *recordingExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	r.calls = append(r.calls, append([]string{binary}, args...))
	return r.err
}

func TestVobSubToSRTArguments(t *testing.T) {
	exec := &recordingExecutor{}
	client := ocr.New(ocr.Config{CharBlacklist: "|\\/`_~"}, ocr.WithExecutor(exec))
	if err := client.VobSubToSRT(context.Background(), "ep.idx", "ep.srt"); err != nil {
		t.Fatalf("VobSubToSRT returned error: %v", err)
	}
	got := strings.Join(exec.calls[0], " ")
	want := "vobsubocr -c tessedit_char_blacklist=|\\/`_~ -l eng -o ep.srt ep.idx"
	if got != want {
		t.Fatalf("unexpected command\n got %s\nwant %s", got, want)
	}
}

func TestVobSubToSRTFailureIsExternalToolError(t *testing.T) {
	client := ocr.New(ocr.Config{}, ocr.WithExecutor(&recordingExecutor{err: errors.New("exit status 1")}))
	err := client.VobSubToSRT(context.Background(), "ep.idx", "ep.srt")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestPGSToVobSubRequiresJar(t *testing.T) {
	exec := &recordingExecutor{}
	client := ocr.New(ocr.Config{}, ocr.WithExecutor(exec))
	if err := client.PGSToVobSub(context.Background(), "ep.sup", "ep.idx"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	jar := filepath.Join(t.TempDir(), "BDSup2Sub.jar")
	if err := os.WriteFile(jar, []byte("jar"), 0o644); err != nil {
		t.Fatalf("write jar: %v", err)
	}
	client.SetBDSup2SubPath(jar)
	if err := client.PGSToVobSub(context.Background(), "ep.sup", "ep.idx"); err != nil {
		t.Fatalf("PGSToVobSub returned error: %v", err)
	}
	got := strings.Join(exec.calls[0], " ")
	if got != "java -jar "+jar+" -o ep.idx ep.sup" {
		t.Fatalf("unexpected command %q", got)
	}
}
