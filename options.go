package uilayout

import (
	"github.com/tsawler/uilayout/detection"
	"github.com/tsawler/uilayout/layout"
	"github.com/tsawler/uilayout/observability"
	"github.com/tsawler/uilayout/ocr"
)

// Options holds configuration for a pipeline run.
type Options struct {
	config layout.AnalyzerConfig
	logger observability.Logger

	// clickability nil means detection.DefaultClickability
	clickability detection.Clickability

	// Screenshot used for the screen size and OCR
	screenshot string
	ocr        bool
	languages  []string

	ocrMode          ocr.Mode
	ocrMinConfidence float64
}

// defaultOptions returns the default pipeline options.
func defaultOptions() Options {
	return Options{
		config: layout.DefaultAnalyzerConfig(),
		logger: observability.NopLogger{},

		ocrMode:          ocr.ModeSparse,
		ocrMinConfidence: ocr.DefaultMinConfidence,
	}
}

// clone creates a deep copy of Options.
func (o Options) clone() Options {
	newOpts := o

	// Deep copy languages slice
	if o.languages != nil {
		newOpts.languages = make([]string, len(o.languages))
		copy(newOpts.languages, o.languages)
	}

	return newOpts
}
