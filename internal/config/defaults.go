package config

const (
	defaultLogDir                 = "~/.local/share/autotagger/logs"
	defaultTMDBLanguage           = "en-US"
	defaultTMDBBaseURL            = "https://api.themoviedb.org/3"
	defaultOpenSubtitlesBaseURL   = "https://api.opensubtitles.com/api/v1"
	defaultOpenSubtitlesUserAgent = "plex-autotagger"
	defaultMkvextractBinary       = "mkvextract"
	defaultFFprobeBinary          = "ffprobe"
	defaultVobsubocrBinary        = "vobsubocr"
	defaultJavaBinary             = "java"
	defaultPagerBinary            = "less"
	defaultOCRLanguage            = "eng"
	defaultOCRCharBlacklist       = "|\\/`_~"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogMaxSizeMB           = 10
	defaultLogMaxBackups          = 5
	defaultLogMaxAgeDays          = 30
)

func defaultTrackLanguages() []string {
	return []string{"eng", "en", "en-US", "en-GB"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		OpenSubtitles: OpenSubtitles{
			BaseURL:   defaultOpenSubtitlesBaseURL,
			UserAgent: defaultOpenSubtitlesUserAgent,
			Languages: []string{"en"},
		},
		Extraction: Extraction{
			MkvextractBinary: defaultMkvextractBinary,
			FFprobeBinary:    defaultFFprobeBinary,
			Languages:        defaultTrackLanguages(),
		},
		OCR: OCR{
			Enabled:         true,
			VobsubocrBinary: defaultVobsubocrBinary,
			Language:        defaultOCRLanguage,
			CharBlacklist:   defaultOCRCharBlacklist,
			JavaBinary:      defaultJavaBinary,
		},
		Interaction: Interaction{
			PagerBinary: defaultPagerBinary,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
