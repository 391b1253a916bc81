package extraction

import (
	"context"
	"fmt"
	"strings"

	"autotagger/internal/media/ffprobe"
	"autotagger/internal/services"
)

const trackPromptTitle = "Select the subtitles track to use for comparison"

// Format identifies how an extracted track is stored and converted.
type Format int

const (
	FormatUnknown Format = iota
	FormatSubRip
	FormatASS
	FormatWebVTT
	FormatVobSub
	FormatPGS
)

func (f Format) String() string {
	switch f {
	case FormatSubRip:
		return "subrip"
	case FormatASS:
		return "ass"
	case FormatWebVTT:
		return "webvtt"
	case FormatVobSub:
		return "vobsub"
	case FormatPGS:
		return "pgs"
	default:
		return "unknown"
	}
}

// Extension is the file extension mkvextract output is written with.
func (f Format) Extension() string {
	switch f {
	case FormatSubRip:
		return ".srt"
	case FormatASS:
		return ".ass"
	case FormatWebVTT:
		return ".vtt"
	case FormatVobSub:
		return ".idx"
	case FormatPGS:
		return ".sup"
	default:
		return ""
	}
}

// Bitmap reports whether the format needs OCR.
func (f Format) Bitmap() bool {
	return f == FormatVobSub || f == FormatPGS
}

// FormatForCodec maps an ffprobe codec name to a Format.
func FormatForCodec(codec string) Format {
	switch strings.ToLower(strings.TrimSpace(codec)) {
	case "subrip", "srt":
		return FormatSubRip
	case "ass", "ssa":
		return FormatASS
	case "webvtt":
		return FormatWebVTT
	case "dvd_subtitle", "dvdsub":
		return FormatVobSub
	case "hdmv_pgs_subtitle", "pgssub":
		return FormatPGS
	default:
		return FormatUnknown
	}
}

// Chooser asks the user to pick one of several labels.
type Chooser interface {
	Select(ctx context.Context, title string, labels []string) (int, error)
}

// SelectTrack picks the subtitle stream used for comparison: the only stream
// in an accepted language, else the only default-flagged one among them, else
// whichever the user chooses.
func SelectTrack(ctx context.Context, streams []ffprobe.Stream, languages []string, chooser Chooser) (ffprobe.Stream, error) {
	accepted := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		accepted[strings.ToLower(strings.TrimSpace(lang))] = struct{}{}
	}
	var candidates []ffprobe.Stream
	for _, stream := range streams {
		if _, ok := accepted[strings.ToLower(stream.Language())]; ok {
			candidates = append(candidates, stream)
		}
	}

	switch len(candidates) {
	case 0:
		return ffprobe.Stream{}, services.Wrap(services.ErrNotFound, "extraction", "select track", "no valid subtitle tracks found", nil)
	case 1:
		return candidates[0], nil
	}

	var defaults []ffprobe.Stream
	for _, stream := range candidates {
		if stream.IsDefault() {
			defaults = append(defaults, stream)
		}
	}
	if len(defaults) == 1 {
		return defaults[0], nil
	}

	if chooser == nil {
		return ffprobe.Stream{}, services.Wrap(services.ErrValidation, "extraction", "select track", "several subtitle tracks match and no prompt is available", nil)
	}
	labels := make([]string, len(candidates))
	for i, stream := range candidates {
		labels[i] = TrackLabel(stream)
	}
	idx, err := chooser.Select(ctx, trackPromptTitle, labels)
	if err != nil {
		return ffprobe.Stream{}, err
	}
	return candidates[idx], nil
}

// TrackLabel renders a stream for the track prompt.
func TrackLabel(stream ffprobe.Stream) string {
	label := fmt.Sprintf("Track %d: codec %s, language: %q", stream.Index, stream.CodecName, stream.Language())
	if title := stream.Title(); title != "" {
		label += fmt.Sprintf(", title: %q", title)
	}
	if stream.IsForced() {
		label += " (forced)"
	}
	return label
}
