package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if c.Matching.Workers < 0 {
		return errors.New("matching.workers must be >= 0")
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateTagging ensures the provider credentials needed by the tagging
// workflow are present. Extraction does not require them.
func (c *Config) ValidateTagging() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/autotagger/config.toml"
	}
	if c.TMDB.APIKey == "" {
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'autotagger config init')", defaultPath)
	}
	if c.OpenSubtitles.APIKey == "" {
		return fmt.Errorf("opensubtitles.api_key is required. Set OST_API_KEY env var or edit %s (create with 'autotagger config init')", defaultPath)
	}
	if strings.TrimSpace(c.OpenSubtitles.UserAgent) == "" {
		return errors.New("opensubtitles.user_agent must be set")
	}
	return nil
}

func (c *Config) validateLanguages() error {
	if _, err := language.Parse(c.TMDB.Language); err != nil {
		return fmt.Errorf("tmdb.language %q is not a valid language tag", c.TMDB.Language)
	}
	if len(c.OpenSubtitles.Languages) == 0 {
		return errors.New("opensubtitles.languages must include at least one language")
	}
	for _, lang := range c.OpenSubtitles.Languages {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("opensubtitles.languages: %q is not a valid language tag", lang)
		}
	}
	for _, lang := range c.Extraction.Languages {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("extraction.languages: %q is not a valid language tag", lang)
		}
	}
	return nil
}

func (c *Config) validateOCR() error {
	if !c.OCR.Enabled {
		return nil
	}
	if strings.TrimSpace(c.OCR.VobsubocrBinary) == "" {
		return errors.New("ocr.vobsubocr must be set when ocr.enabled is true")
	}
	if strings.TrimSpace(c.OCR.Language) == "" {
		return errors.New("ocr.language must be set when ocr.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return ensurePositiveMap(map[string]int{
		"logging.max_size_mb": c.Logging.MaxSizeMB,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
