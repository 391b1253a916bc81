package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// OpenSubtitles contains configuration for the subtitle search provider.
type OpenSubtitles struct {
	APIKey          string   `toml:"api_key"`
	UserAgent       string   `toml:"user_agent"`
	BaseURL         string   `toml:"base_url"`
	Username        string   `toml:"username"`
	Password        string   `toml:"password"`
	Languages       []string `toml:"languages"`
	ManualSelection bool     `toml:"manual_selection"`
}

// Extraction contains configuration for container track discovery and
// extraction.
type Extraction struct {
	MkvextractBinary string `toml:"mkvextract"`
	FFprobeBinary    string `toml:"ffprobe"`
	// Languages lists the subtitle track languages considered for comparison.
	Languages []string `toml:"languages"`
}

// OCR contains configuration for bitmap subtitle conversion.
type OCR struct {
	Enabled         bool   `toml:"enabled"`
	VobsubocrBinary string `toml:"vobsubocr"`
	Language        string `toml:"language"`
	CharBlacklist   string `toml:"char_blacklist"`
	BDSup2SubPath   string `toml:"bdsup2sub_path"`
	JavaBinary      string `toml:"java"`
}

// Matching contains configuration for the distance computation.
type Matching struct {
	// Workers bounds the number of concurrent distance computations.
	// Zero selects the number of CPUs.
	Workers int `toml:"workers"`
}

// Interaction contains configuration for the interactive console.
type Interaction struct {
	PagerBinary string `toml:"pager"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for autotagger.
//
// Configuration sections by subsystem:
//   - Paths: log directory
//   - TMDB: show, season, and episode metadata
//   - OpenSubtitles: reference subtitle search and download
//   - Extraction: mkvextract/ffprobe binaries and track languages
//   - OCR: vobsubocr and BDSup2Sub settings
//   - Matching: distance worker pool size
//   - Interaction: subtitle preview pager
//   - Logging: log format, level, and rotation
type Config struct {
	Paths         Paths         `toml:"paths"`
	TMDB          TMDB          `toml:"tmdb"`
	OpenSubtitles OpenSubtitles `toml:"opensubtitles"`
	Extraction    Extraction    `toml:"extraction"`
	OCR           OCR           `toml:"ocr"`
	Matching      Matching      `toml:"matching"`
	Interaction   Interaction   `toml:"interaction"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/autotagger/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autotagger.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories autotagger writes to.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// MatchingWorkers returns the effective distance worker count.
func (c *Config) MatchingWorkers() int {
	if c.Matching.Workers > 0 {
		return c.Matching.Workers
	}
	return runtime.NumCPU()
}

// LogFilePath returns the rotating log file location, or "" when file
// logging is disabled.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "autotagger.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
