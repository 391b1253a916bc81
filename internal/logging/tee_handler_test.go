package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTeeHandlerDropsNilBranches(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every branch is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newTeeHandler(nil, inner); h != inner {
		t.Fatal("expected a single branch to be returned unwrapped")
	}
}

func TestTeeHandlerKeepsBranchLevels(t *testing.T) {
	var console, file bytes.Buffer
	h := newTeeHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee enabled for debug")
	}
	logger := slog.New(h).With(FieldRunID, "r1").WithGroup("ocr")
	logger.Debug("queued", "file", "Title 01.idx")
	logger.Info("converted")

	if strings.Contains(console.String(), "queued") {
		t.Fatalf("console received debug record: %q", console.String())
	}
	if !strings.Contains(console.String(), "converted") || !strings.Contains(file.String(), "queued") {
		t.Fatalf("records missing: console=%q file=%q", console.String(), file.String())
	}
	if !strings.Contains(file.String(), "run_id=r1") || !strings.Contains(file.String(), "ocr.file=") {
		t.Fatalf("expected attrs and group propagated: %q", file.String())
	}
}
