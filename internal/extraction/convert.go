package extraction

import (
	"github.com/asticode/go-astisub"

	"autotagger/internal/services"
)

// ConvertToSRT rewrites a text subtitle file (ASS, SSA, WebVTT, SubRip) as
// SubRip at dst.
func ConvertToSRT(src, dst string) error {
	subs, err := astisub.OpenFile(src)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extraction", "convert", "read "+src, err)
	}
	if err := subs.Write(dst); err != nil {
		return services.Wrap(services.ErrExternalTool, "extraction", "convert", "write "+dst, err)
	}
	return nil
}

// CountCues returns the number of cues in a subtitle file. OCR output with
// no cues usually means tesseract could not read the bitmaps.
func CountCues(path string) (int, error) {
	subs, err := astisub.OpenFile(path)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "extraction", "verify", "read "+path, err)
	}
	return len(subs.Items), nil
}
