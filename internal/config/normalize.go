package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeOpenSubtitles()
	c.normalizeExtraction()
	if err := c.normalizeOCR(); err != nil {
		return err
	}
	if c.Matching.Workers < 0 {
		c.Matching.Workers = 0
	}
	c.Interaction.PagerBinary = strings.TrimSpace(c.Interaction.PagerBinary)
	if c.Interaction.PagerBinary == "" {
		c.Interaction.PagerBinary = defaultPagerBinary
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		c.TMDB.APIKey = lookupEnv("TMDB_API_KEY")
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeOpenSubtitles() {
	ost := &c.OpenSubtitles
	ost.APIKey = strings.TrimSpace(ost.APIKey)
	if ost.APIKey == "" {
		ost.APIKey = lookupEnv("OST_API_KEY", "OPENSUBTITLES_API_KEY")
	}
	ost.Username = strings.TrimSpace(ost.Username)
	if ost.Username == "" {
		ost.Username = lookupEnv("OST_USERNAME")
	}
	if ost.Password == "" {
		if value, ok := os.LookupEnv("OST_PASSWORD"); ok {
			ost.Password = value
		}
	}
	ost.UserAgent = strings.TrimSpace(ost.UserAgent)
	if ost.UserAgent == "" {
		ost.UserAgent = defaultOpenSubtitlesUserAgent
	}
	ost.BaseURL = strings.TrimRight(strings.TrimSpace(ost.BaseURL), "/")
	if ost.BaseURL == "" {
		ost.BaseURL = defaultOpenSubtitlesBaseURL
	}
	ost.Languages = canonicalLanguages(ost.Languages, []string{"en"})
}

func (c *Config) normalizeExtraction() {
	c.Extraction.MkvextractBinary = strings.TrimSpace(c.Extraction.MkvextractBinary)
	if c.Extraction.MkvextractBinary == "" {
		c.Extraction.MkvextractBinary = defaultMkvextractBinary
	}
	c.Extraction.FFprobeBinary = strings.TrimSpace(c.Extraction.FFprobeBinary)
	if c.Extraction.FFprobeBinary == "" {
		c.Extraction.FFprobeBinary = defaultFFprobeBinary
	}
	langs := make([]string, 0, len(c.Extraction.Languages))
	seen := make(map[string]struct{}, len(c.Extraction.Languages))
	for _, lang := range c.Extraction.Languages {
		trimmed := strings.TrimSpace(lang)
		key := strings.ToLower(trimmed)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		langs = append(langs, trimmed)
	}
	if len(langs) == 0 {
		langs = defaultTrackLanguages()
	}
	c.Extraction.Languages = langs
}

func (c *Config) normalizeOCR() error {
	c.OCR.VobsubocrBinary = strings.TrimSpace(c.OCR.VobsubocrBinary)
	if c.OCR.VobsubocrBinary == "" {
		c.OCR.VobsubocrBinary = defaultVobsubocrBinary
	}
	c.OCR.Language = strings.TrimSpace(c.OCR.Language)
	if c.OCR.Language == "" {
		c.OCR.Language = defaultOCRLanguage
	}
	c.OCR.JavaBinary = strings.TrimSpace(c.OCR.JavaBinary)
	if c.OCR.JavaBinary == "" {
		c.OCR.JavaBinary = defaultJavaBinary
	}
	c.OCR.BDSup2SubPath = strings.TrimSpace(c.OCR.BDSup2SubPath)
	if c.OCR.BDSup2SubPath == "" {
		c.OCR.BDSup2SubPath = lookupEnv("BDSUP2SUB_PATH")
	}
	if c.OCR.BDSup2SubPath != "" {
		var err error
		if c.OCR.BDSup2SubPath, err = expandPath(c.OCR.BDSup2SubPath); err != nil {
			return fmt.Errorf("ocr.bdsup2sub_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

// canonicalLanguages lowercases, dedupes, and canonicalizes BCP 47 tags.
// Entries that fail to parse are kept verbatim so Validate can report them.
func canonicalLanguages(values, fallback []string) []string {
	langs := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, lang := range values {
		normalized := strings.ToLower(strings.TrimSpace(lang))
		if normalized == "" {
			continue
		}
		if tag, err := language.Parse(normalized); err == nil {
			normalized = strings.ToLower(tag.String())
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		langs = append(langs, normalized)
	}
	if len(langs) == 0 {
		return append([]string(nil), fallback...)
	}
	return langs
}

func lookupEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
