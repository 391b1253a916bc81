package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autotagger/internal/config"
	"autotagger/internal/logging"
	"autotagger/internal/services"
)

func TestNewFromConfigWritesRotatingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	var console bytes.Buffer
	logger, closer, err := logging.NewFromConfig(&cfg, &console)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("file message", logging.String("episode", "S01E02"))
	logger.Debug("debug detail")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "autotagger.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := bytes.Split(bytes.TrimSpace(content), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected info and debug lines in file, got %q", content)
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", lines[0], err)
	}
	if entry["msg"] != "file message" || entry["episode"] != "S01E02" || entry["level"] != "INFO" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if strings.Contains(console.String(), "debug detail") {
		t.Fatalf("debug line reached the info-level console: %q", console.String())
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "INFO message without caller") {
		t.Fatalf("unexpected console output %q", buf.String())
	}
}

func TestConsoleLoggerIncludesComponentAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "console", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStage(ctx, "ocr")
	ctx = services.WithFile(ctx, "title_t00.mkv")
	component := logging.NewComponentLogger(logger, "extraction")
	logging.WithContext(ctx, component).Debug("queued ocr task")

	out := buf.String()
	for _, want := range []string{"extraction/ocr [title_t00.mkv]: queued ocr task", "run_id=run-1", ".go:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestSecretsAreRedacted(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("login", logging.String("password", "hunter2"), logging.String("username", "viewer"))
	if strings.Contains(console.String(), "hunter2") {
		t.Fatalf("password leaked to console: %q", console.String())
	}

	var jsonOut bytes.Buffer
	jsonLogger, _, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &jsonOut})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	jsonLogger.Info("login", logging.String("token", "abc123"))
	if strings.Contains(jsonOut.String(), "abc123") {
		t.Fatalf("token leaked to json: %q", jsonOut.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "could not delete intermediate file", "ocr_cleanup_failed",
		logging.String(logging.FieldImpact, "idx file left on disk"))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != "ocr_cleanup_failed" {
		t.Fatalf("unexpected event type: %v", entry)
	}
	if entry[logging.FieldImpact] != "idx file left on disk" {
		t.Fatalf("expected caller impact preserved: %v", entry)
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatalf("expected default error hint: %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestEpisodeIDAttrKeepsInt64(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("renamed episode", logging.EpisodeID(4_000_000_001), logging.File("/rips/Title 01.mkv"))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEpisodeID] != float64(4_000_000_001) {
		t.Fatalf("unexpected episode id: %v", entry)
	}
	if entry[logging.FieldFile] != "/rips/Title 01.mkv" {
		t.Fatalf("unexpected file: %v", entry)
	}
}
