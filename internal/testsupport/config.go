package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"autotagger/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp log directory per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.TMDB.APIKey = "test"
	cfgVal.OpenSubtitles.APIKey = "test"
	cfgVal.Matching.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAPIKeys sets the TMDB and OpenSubtitles API keys on the test config.
func WithAPIKeys(tmdbKey, openSubtitlesKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = tmdbKey
		b.cfg.OpenSubtitles.APIKey = openSubtitlesKey
	}
}

// WithServiceURLs points the API clients at test servers.
func WithServiceURLs(tmdbURL, openSubtitlesURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = tmdbURL
		b.cfg.OpenSubtitles.BaseURL = openSubtitlesURL
	}
}

// WithStubbedBinaries writes stub executables that exit 0 for the provided
// names and prepends them to PATH. If names is empty, the default external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"mkvextract", "ffprobe", "vobsubocr"}
		}
		for _, name := range names {
			writeStub(b, name, "#!/bin/sh\nexit 0\n")
		}
	}
}

// WithStubScript installs a named shell script on PATH.
func WithStubScript(name, script string) ConfigOption {
	return func(b *configBuilder) {
		writeStub(b, name, script)
	}
}

func writeStub(b *configBuilder, name, script string) {
	b.t.Helper()
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}
	path := os.Getenv("PATH")
	prefix := binDir + string(os.PathListSeparator)
	if len(path) < len(prefix) || path[:len(prefix)] != prefix {
		b.t.Setenv("PATH", prefix+path)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
