package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autotagger/internal/testsupport"
)

type cliTestEnv struct {
	configPath string
	workDir    string
	logDir     string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"TMDB_API_KEY", "OST_API_KEY", "OPENSUBTITLES_API_KEY", "OST_USERNAME", "OST_PASSWORD", "BDSUP2SUB_PATH"} {
		t.Setenv(key, "")
	}

	configPath := filepath.Join(base, "autotagger.toml")
	testsupport.WriteFile(t, configPath, fmt.Sprintf(`[paths]
log_dir = %q

[tmdb]
api_key = "test"

[opensubtitles]
api_key = "test"

[logging]
level = "debug"
`, cfg.Paths.LogDir))

	workDir := filepath.Join(base, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("mkdir work dir: %v", err)
	}
	return &cliTestEnv{configPath: configPath, workDir: workDir, logDir: cfg.Paths.LogDir}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, "--config", env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}
	if _, _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestDepsReportsStubbedBinaries(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	out, _, err := runCLI(t, "--config", env.configPath, "deps")
	if err != nil {
		t.Fatalf("deps: %v\n%s", err, out)
	}
	requireContains(t, out, "mkvextract")
	requireContains(t, out, "available")
	requireContains(t, out, "working directory")
}

func TestDepsFailsWhenRequiredBinaryMissing(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	testsupport.WriteFile(t, env.configPath, string(data)+"\n[extraction]\nmkvextract = \"autotagger-missing-mkvextract\"\n")

	out, _, err := runCLI(t, "--config", env.configPath, "deps")
	if err == nil {
		t.Fatal("expected deps to fail")
	}
	requireContains(t, err.Error(), "mkvextract")
	requireContains(t, out, "missing")
}

const subripProbe = `#!/bin/sh
cat <<'JSON'
{"streams":[
 {"index":0,"codec_name":"h264","codec_type":"video"},
 {"index":1,"codec_name":"subrip","codec_type":"subtitle","tags":{"language":"eng"}}
],"format":{"filename":"x.mkv","nb_streams":2,"format_name":"matroska,webm"}}
JSON
`

const subripExtract = `#!/bin/sh
target="$3"
dest="${target#*:}"
printf '1\n00:00:01,000 --> 00:00:02,000\nHello there\n\n' > "$dest"
echo "Progress: 100%"
`

func TestExtractSubtitlesCommand(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithStubScript("ffprobe", subripProbe),
		testsupport.WithStubScript("mkvextract", subripExtract),
	)
	testsupport.WriteFile(t, filepath.Join(env.workDir, "Title 01.mkv"), "mkv")
	testsupport.WriteFile(t, filepath.Join(env.workDir, "Title 02.mkv"), "mkv")

	out, _, err := runCLI(t, "--config", env.configPath, "extract-subtitles", "--dir", env.workDir)
	if err != nil {
		t.Fatalf("extract-subtitles: %v\n%s", err, out)
	}
	requireContains(t, out, "Title 01.mkv")
	requireContains(t, out, "Title 02.srt")
	requireContains(t, out, "ok")

	for _, name := range []string{"Title 01.srt", "Title 02.srt"} {
		if _, err := os.Stat(filepath.Join(env.workDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(env.workDir, ".autotagger.lock")); !os.IsNotExist(err) {
		t.Fatalf("expected lock file to be removed, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(env.logDir, "autotagger.log")); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

func TestTagRequiresAPIKeys(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.configPath, "[tmdb]\napi_key = \"\"\n")

	_, _, err := runCLI(t, "--config", env.configPath, "tag", "--dir", env.workDir)
	if err == nil {
		t.Fatal("expected tag to fail without api keys")
	}
}

func TestExtractSubtitlesSkipOCRShorthand(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithStubScript("ffprobe", subripProbe),
		testsupport.WithStubScript("mkvextract", subripExtract),
	)
	testsupport.WriteFile(t, filepath.Join(env.workDir, "Title 01.mkv"), "mkv")

	out, _, err := runCLI(t, "--config", env.configPath, "extract-subtitles", "-s", "--dir", env.workDir)
	if err != nil {
		t.Fatalf("extract-subtitles -s: %v\n%s", err, out)
	}
	requireContains(t, out, "Title 01.srt")
}
