package ocr

import (
	"fmt"
	"strings"
)

// DefaultMinConfidence drops words Tesseract is less than 30% sure of. Icons
// and decorations read as noise words below it.
const DefaultMinConfidence = 0.3

// Mode selects how Tesseract segments a screenshot
type Mode int

const (
	// ModeSparse finds scattered text anywhere on the screen
	ModeSparse Mode = iota

	// ModeAuto assumes a document-like page with columns
	ModeAuto

	// ModeBlock treats the image as one block of text, for clipped regions
	ModeBlock

	// ModeLine treats the image as a single line, for clipped buttons
	ModeLine
)

// String returns a string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeSparse:
		return "sparse"
	case ModeAuto:
		return "auto"
	case ModeBlock:
		return "block"
	case ModeLine:
		return "line"
	default:
		return "unknown"
	}
}

// ParseMode returns the mode named by s
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeSparse, ModeAuto, ModeBlock, ModeLine} {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}
	return ModeSparse, fmt.Errorf("unknown OCR mode %q", s)
}
