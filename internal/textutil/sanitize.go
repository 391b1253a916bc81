package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer maps characters that are unsafe in file names on common
// filesystems. Separators become dashes; the rest are dropped.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "-",
	"?", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
	"\x00", "",
)

// SanitizeFileName makes an episode title usable as a file name. Unsafe
// characters are replaced, control characters dropped, runs of whitespace
// collapsed, and trailing dots and spaces removed.
func SanitizeFileName(name string) string {
	name = fileNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	return strings.TrimRight(name, ". ")
}
