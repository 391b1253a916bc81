package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"autotagger/internal/config"
	"autotagger/internal/fileutil"
	"autotagger/internal/media/ffprobe"
	"autotagger/internal/services"
	"autotagger/internal/services/mkvtoolnix"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n"

type fakeProber struct {
	streams map[string][]ffprobe.Stream
	mu      sync.Mutex
	probed  []string
}

func (p *fakeProber) SubtitleStreams(_ context.Context, path string) ([]ffprobe.Stream, error) {
	p.mu.Lock()
	p.probed = append(p.probed, filepath.Base(path))
	p.mu.Unlock()
	return p.streams[filepath.Base(path)], nil
}

type fakeExtractor struct {
	fail map[string]bool
}

func (e *fakeExtractor) ExtractTrack(_ context.Context, source string, trackID int, dest string, _ func(mkvtoolnix.ProgressUpdate)) error {
	if e.fail[filepath.Base(source)] {
		return services.Wrap(services.ErrExternalTool, "mkvextract", "extract", "failed to extract subtitles", errors.New("exit status 2"))
	}
	content := "raw"
	if strings.HasSuffix(dest, ".srt") {
		content = sampleSRT
	}
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return err
	}
	if strings.HasSuffix(dest, ".idx") {
		return os.WriteFile(fileutil.ReplaceExt(dest, ".sub"), []byte("bitmap"), 0o644)
	}
	return nil
}

type fakeRecognizer struct {
	mu      sync.Mutex
	jar     string
	ocr     []string
	pgs     []string
	failOCR bool
}

func (r *fakeRecognizer) VobSubToSRT(_ context.Context, idx, srt string) error {
	r.mu.Lock()
	r.ocr = append(r.ocr, filepath.Base(idx))
	r.mu.Unlock()
	if r.failOCR {
		return services.Wrap(services.ErrExternalTool, "vobsubocr", "ocr", "failed", errors.New("exit status 1"))
	}
	return os.WriteFile(srt, []byte(sampleSRT), 0o644)
}

func (r *fakeRecognizer) PGSToVobSub(_ context.Context, sup, idx string) error {
	r.mu.Lock()
	r.pgs = append(r.pgs, filepath.Base(sup))
	r.mu.Unlock()
	if err := os.WriteFile(idx, []byte("idx"), 0o644); err != nil {
		return err
	}
	return os.WriteFile(fileutil.ReplaceExt(idx, ".sub"), []byte("sub"), 0o644)
}

func (r *fakeRecognizer) BDSup2SubPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jar
}

func (r *fakeRecognizer) SetBDSup2SubPath(path string) {
	r.mu.Lock()
	r.jar = path
	r.mu.Unlock()
}

type fakeConsole struct {
	mu     sync.Mutex
	lines  []string
	inputs []string
}

func (c *fakeConsole) Select(context.Context, string, []string) (int, error) { return 0, nil }

func (c *fakeConsole) Input(context.Context, string, string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inputs) == 0 {
		return "", nil
	}
	answer := c.inputs[0]
	c.inputs = c.inputs[1:]
	return answer, nil
}

func (c *fakeConsole) Printf(_ context.Context, format string, args ...any) error {
	c.mu.Lock()
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
	c.mu.Unlock()
	return nil
}

type harness struct {
	dir       string
	prober    *fakeProber
	extractor *fakeExtractor
	ocr       *fakeRecognizer
	console   *fakeConsole
	workflow  *Workflow
}

func newHarness(t *testing.T, mkvs map[string][]ffprobe.Stream) *harness {
	t.Helper()
	dir := t.TempDir()
	for name := range mkvs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("mkv"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	h := &harness{
		dir:       dir,
		prober:    &fakeProber{streams: mkvs},
		extractor: &fakeExtractor{fail: map[string]bool{}},
		ocr:       &fakeRecognizer{},
		console:   &fakeConsole{},
	}
	cfg := config.Default()
	wf, err := New(&cfg, h.console, WithProber(h.prober), WithExtractor(h.extractor), WithRecognizer(h.ocr))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.workflow = wf
	return h
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunOCRsVobSubAndCleansUp(t *testing.T) {
	h := newHarness(t, map[string][]ffprobe.Stream{
		"Title 01.mkv": {stream(2, "dvd_subtitle", "eng", false)},
		"Title 02.mkv": {stream(3, "subrip", "eng", false)},
	})
	report, err := h.workflow.Run(context.Background(), Request{Dir: h.dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Files) != 2 || report.Failed() != 0 {
		t.Fatalf("unexpected report: %#v", report)
	}
	first := filepath.Join(h.dir, "Title 01")
	if !exists(first+".srt") || exists(first+".idx") || exists(first+".sub") {
		t.Fatal("expected srt to replace idx/sub after OCR")
	}
	if report.Files[0].Output != first+".srt" {
		t.Fatalf("unexpected output %q", report.Files[0].Output)
	}
	if report.Files[1].Output != filepath.Join(h.dir, "Title 02.srt") {
		t.Fatalf("subrip track should be used directly, got %q", report.Files[1].Output)
	}
	if len(h.ocr.ocr) != 1 {
		t.Fatalf("expected one OCR call, got %v", h.ocr.ocr)
	}
}

func TestRunSkipOCRLeavesBitmapSubtitles(t *testing.T) {
	h := newHarness(t, map[string][]ffprobe.Stream{
		"a.mkv": {stream(2, "dvd_subtitle", "eng", false)},
	})
	report, err := h.workflow.Run(context.Background(), Request{Dir: h.dir, SkipOCR: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.ocr.ocr) != 0 {
		t.Fatal("OCR must not run with SkipOCR")
	}
	if !exists(filepath.Join(h.dir, "a.idx")) || !exists(filepath.Join(h.dir, "a.sub")) {
		t.Fatal("expected idx/sub to remain")
	}
	if report.Files[0].Output != filepath.Join(h.dir, "a.idx") {
		t.Fatalf("unexpected output %q", report.Files[0].Output)
	}
}

func TestRunStopsAtFirstExtractionFailure(t *testing.T) {
	h := newHarness(t, map[string][]ffprobe.Stream{
		"a.mkv": {stream(2, "dvd_subtitle", "eng", false)},
		"b.mkv": {stream(2, "dvd_subtitle", "eng", false)},
		"c.mkv": {stream(2, "dvd_subtitle", "eng", false)},
	})
	h.extractor.fail["b.mkv"] = true
	report, err := h.workflow.Run(context.Background(), Request{Dir: h.dir})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if strings.Join(h.prober.probed, ",") != "a.mkv,b.mkv" {
		t.Fatalf("expected processing to stop after b.mkv, probed %v", h.prober.probed)
	}
	if !exists(filepath.Join(h.dir, "a.srt")) {
		t.Fatal("OCR queued before the failure should still complete")
	}
	if len(report.Files) != 2 {
		t.Fatalf("expected only the files reached before the failure, got %d", len(report.Files))
	}
	if report.Files[1].Err == nil {
		t.Fatal("expected failure recorded on b.mkv")
	}
}

func TestRunRecordsOCRFailureWithoutAborting(t *testing.T) {
	h := newHarness(t, map[string][]ffprobe.Stream{
		"a.mkv": {stream(2, "dvd_subtitle", "eng", false)},
		"b.mkv": {stream(2, "dvd_subtitle", "eng", false)},
	})
	h.ocr.failOCR = true
	report, err := h.workflow.Run(context.Background(), Request{Dir: h.dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed() != 2 {
		t.Fatalf("expected both files to fail OCR, got %d", report.Failed())
	}
	if !exists(filepath.Join(h.dir, "a.idx")) {
		t.Fatal("raw subtitles should be kept when OCR fails")
	}
	if len(h.console.lines) != 2 {
		t.Fatalf("expected a notice per failure, got %v", h.console.lines)
	}
}

func TestRunPromptsForBDSup2Sub(t *testing.T) {
	h := newHarness(t, map[string][]ffprobe.Stream{
		"a.mkv": {stream(4, "hdmv_pgs_subtitle", "eng", false)},
	})
	h.console.inputs = []string{"/opt/BDSup2Sub.jar"}
	if _, err := h.workflow.Run(context.Background(), Request{Dir: h.dir}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.ocr.BDSup2SubPath() != "/opt/BDSup2Sub.jar" {
		t.Fatalf("expected jar path to be recorded, got %q", h.ocr.BDSup2SubPath())
	}
	if len(h.ocr.pgs) != 1 || len(h.ocr.ocr) != 1 {
		t.Fatalf("expected PGS conversion then OCR, got %v / %v", h.ocr.pgs, h.ocr.ocr)
	}
	for _, ext := range []string{".sup", ".idx", ".sub"} {
		if exists(filepath.Join(h.dir, "a"+ext)) {
			t.Fatalf("expected %s to be removed", ext)
		}
	}
}

func TestRunExplicitFiles(t *testing.T) {
	h := newHarness(t, map[string][]ffprobe.Stream{
		"a.mkv": {stream(2, "subrip", "eng", false)},
		"b.mkv": {stream(2, "subrip", "eng", false)},
	})
	report, err := h.workflow.Run(context.Background(), Request{Files: []string{filepath.Join(h.dir, "b.mkv")}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Files) != 1 || strings.Join(h.prober.probed, ",") != "b.mkv" {
		t.Fatalf("expected only b.mkv to be processed, got %v", h.prober.probed)
	}
}

func TestRunNoFiles(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.workflow.Run(context.Background(), Request{Dir: h.dir}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
