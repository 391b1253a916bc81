package textutil

import (
	"regexp"
	"strings"
)

var (
	// subtitleNoise matches markup tags, index lines, timing-cue lines, any
	// character outside the comparison alphabet, leading dash noise, and
	// carriage returns.
	subtitleNoise = regexp.MustCompile(`(?m)(?:<\s*[^>]*>|<\s*/\s*a>)|(?:^.*-->.*$|^[0-9]+$|[^a-zA-Z0-9 ?.,!\n]|^\s*-*\s*|\r)`)
	whitespaceRun = regexp.MustCompile(`[\n ]+`)
)

// NormalizeSubtitles strips timing cues, markup, and punctuation noise from raw
// subtitle text and collapses whitespace, so two renderings of the same
// dialogue compare equal. The result is a fixed point: normalizing it again
// returns it unchanged.
func NormalizeSubtitles(raw string) string {
	out := normalizeOnce(raw)
	for {
		next := normalizeOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func normalizeOnce(text string) string {
	// Index lines only match as whole lines once CRLF endings are gone.
	text = strings.ReplaceAll(text, "\r", "")
	stripped := subtitleNoise.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(stripped, " "))
}
