package deps

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"autotagger/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
	if got := MissingRequired(results); !reflect.DeepEqual(got, []string{"Missing"}) {
		t.Fatalf("MissingRequired = %v", got)
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.OCR.Enabled = false
	reqs := Requirements(&cfg)
	byName := make(map[string]Requirement, len(reqs))
	for _, req := range reqs {
		byName[req.Name] = req
	}
	if byName["mkvextract"].Command != "mkvextract" || byName["mkvextract"].Optional {
		t.Fatalf("mkvextract should be required: %#v", byName["mkvextract"])
	}
	if !byName["vobsubocr"].Optional {
		t.Fatalf("vobsubocr should be optional when OCR is disabled")
	}
}

func TestCheckWritable(t *testing.T) {
	dir := t.TempDir()
	if status := CheckWritable("cwd", dir); !status.Available {
		t.Fatalf("expected temp dir to be writable: %#v", status)
	}
	if status := CheckWritable("cwd", filepath.Join(dir, "missing")); status.Available || status.Detail != "does not exist" {
		t.Fatalf("unexpected status for missing dir: %#v", status)
	}
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if status := CheckWritable("cwd", file); status.Available {
		t.Fatalf("expected file path to be rejected: %#v", status)
	}
}
