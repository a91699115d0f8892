package uilayout

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/uilayout/detection"
	"github.com/tsawler/uilayout/export"
	"github.com/tsawler/uilayout/layout"
	"github.com/tsawler/uilayout/model"
	"github.com/tsawler/uilayout/observability"
	"github.com/tsawler/uilayout/ocr"
	"github.com/tsawler/uilayout/screen"
)

// Pipeline provides a fluent interface for analysing one screen.
// Each configuration method returns a new Pipeline instance, making it
// safe for concurrent use and allowing method chaining.
type Pipeline struct {
	// Source, exactly one of path, input or components
	path       string
	input      detection.Input
	hasInput   bool
	screen     model.Screen
	components []model.Component
	hasComps   bool

	// Configuration
	options Options

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Pipeline with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (p *Pipeline) clone() *Pipeline {
	return &Pipeline{
		path:       p.path,
		input:      p.input,
		hasInput:   p.hasInput,
		screen:     p.screen,
		components: p.components,
		hasComps:   p.hasComps,
		options:    p.options.clone(),
		err:        p.err,
	}
}

// ============================================================================
// Configuration Methods (return new Pipeline instance)
// ============================================================================

// WithConfig replaces the analyzer configuration.
func (p *Pipeline) WithConfig(config layout.AnalyzerConfig) *Pipeline {
	newP := p.clone()
	newP.options.config = config
	return newP
}

// WithConfigFile reads the analyzer configuration from a JSON file. Keys
// missing from the file keep their defaults.
//
// Example:
//
//	data, err := uilayout.FromFile("detections.json").WithConfigFile("uilayout.json").JSON()
func (p *Pipeline) WithConfigFile(path string) *Pipeline {
	newP := p.clone()
	config, err := layout.LoadConfig(path)
	if err != nil {
		if newP.err == nil {
			newP.err = err
		}
		return newP
	}
	newP.options.config = config
	return newP
}

// WithClickability sets the collaborator that decides whether a non-text
// region is interactive.
func (p *Pipeline) WithClickability(c detection.Clickability) *Pipeline {
	newP := p.clone()
	newP.options.clickability = c
	return newP
}

// WithLogger sets the logger.
func (p *Pipeline) WithLogger(l observability.Logger) *Pipeline {
	newP := p.clone()
	newP.options.logger = observability.OrNop(l)
	return newP
}

// WithScreenshot names the screenshot the detections were taken from. Its
// size, after resizing to screen.DetectionSide, is used when the detections
// do not state one.
func (p *Pipeline) WithScreenshot(path string) *Pipeline {
	newP := p.clone()
	newP.options.screenshot = path
	return newP
}

// WithOCR adds word boxes recognized on the screenshot to the detections.
// It requires WithScreenshot and a build with the "ocr" tag; languages
// default to English.
func (p *Pipeline) WithOCR(languages ...string) *Pipeline {
	newP := p.clone()
	newP.options.ocr = true
	newP.options.languages = append([]string(nil), languages...)
	return newP
}

// WithOCRMode sets how the screenshot is segmented for OCR. Default is
// ocr.ModeSparse.
func (p *Pipeline) WithOCRMode(mode ocr.Mode) *Pipeline {
	newP := p.clone()
	newP.options.ocrMode = mode
	return newP
}

// WithOCRMinConfidence sets the confidence in [0, 1] below which OCR words are
// dropped. Default is ocr.DefaultMinConfidence.
func (p *Pipeline) WithOCRMinConfidence(min float64) *Pipeline {
	newP := p.clone()
	if min < 0 || min > 1 {
		newP.err = fmt.Errorf("OCR confidence %v out of range [0, 1]", min)
		return newP
	}
	newP.options.ocrMinConfidence = min
	return newP
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Layout runs the pipeline. When nothing survives merging it returns an
// analysis with an empty root together with layout.ErrDetectionEmpty.
func (p *Pipeline) Layout() (*layout.Analysis, error) {
	if p.err != nil {
		return nil, p.err
	}

	analyzer := layout.NewAnalyzerWithConfig(p.options.config).
		WithClickability(p.options.clickability).
		WithLogger(p.options.logger)

	if p.hasComps {
		return analyzer.AnalyzeComponents(p.screen, p.components)
	}

	in, err := p.resolveInput()
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(in)
}

// Document runs the pipeline and converts the result. An empty detection is
// not an error here; the document carries the warning.
func (p *Pipeline) Document() (export.Document, error) {
	a, err := p.analysis()
	if err != nil {
		return export.Document{}, err
	}
	return export.NewDocument(a), nil
}

// JSON runs the pipeline and returns the indented JSON document.
func (p *Pipeline) JSON() ([]byte, error) {
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, doc, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HTML runs the pipeline and returns an HTML outline of the block tree.
func (p *Pipeline) HTML() (string, error) {
	a, err := p.analysis()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := export.RenderHTML(&buf, a); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Export runs the pipeline and writes the result to w in the given format.
func (p *Pipeline) Export(w io.Writer, format export.Format) error {
	a, err := p.analysis()
	if err != nil {
		return err
	}
	return export.NewExporterWithConfig(export.ConfigFor(format)).Export(a, w)
}

// analysis is Layout with ErrDetectionEmpty absorbed
func (p *Pipeline) analysis() (*layout.Analysis, error) {
	a, err := p.Layout()
	if err != nil && !(errors.Is(err, layout.ErrDetectionEmpty) && a != nil) {
		return nil, err
	}
	return a, nil
}

// resolveInput loads the detections and adds the screenshot size and OCR
// words when requested.
func (p *Pipeline) resolveInput() (detection.Input, error) {
	var (
		shot     model.Screen
		png      []byte
		err      error
		needsPNG = p.options.ocr
	)
	if p.options.screenshot != "" {
		shot, png, err = loadScreenshot(p.options.screenshot, needsPNG)
		if err != nil {
			return detection.Input{}, err
		}
	} else if p.options.ocr {
		return detection.Input{}, fmt.Errorf("OCR requires a screenshot")
	}

	in := p.input
	if !p.hasInput {
		if p.path == "" {
			return detection.Input{}, fmt.Errorf("no detections specified")
		}
		in, err = detection.LoadFileWithScreen(p.path, shot)
		if err != nil {
			return detection.Input{}, err
		}
	} else if !in.Screen.Known() {
		in.Screen = shot
	}

	if p.options.ocr {
		words, err := recognizeWords(png, p.options)
		if err != nil {
			return detection.Input{}, err
		}
		// OCR runs on the resized screenshot; map back if the detections
		// use another scale
		if in.Screen.Known() && shot.Known() && in.Screen.Width != shot.Width {
			factor := in.Screen.Width / shot.Width
			for i := range words {
				words[i].BBox = words[i].BBox.Scale(factor)
			}
		}
		p.options.logger.Debug("ocr words", observability.Int("count", len(words)))
		in.Texts = append(append([]detection.TextDetection(nil), in.Texts...), words...)
	}
	return in, nil
}

// loadScreenshot returns the size of the resized screenshot and, when asked,
// its PNG encoding
func loadScreenshot(path string, encode bool) (model.Screen, []byte, error) {
	img, err := screen.DecodeFile(path)
	if err != nil {
		return model.Screen{}, nil, err
	}
	resized, _ := screen.ResizeLongestSide(img, screen.DetectionSide)
	if !encode {
		return screen.Size(resized), nil, nil
	}
	data, err := screen.EncodePNG(resized)
	if err != nil {
		return model.Screen{}, nil, err
	}
	return screen.Size(resized), data, nil
}

func recognizeWords(png []byte, opts Options) ([]detection.TextDetection, error) {
	client, err := ocr.New()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if len(opts.languages) > 0 {
		if err := client.SetLanguage(opts.languages...); err != nil {
			return nil, fmt.Errorf("failed to set OCR language: %w", err)
		}
	}
	if err := client.SetMode(opts.ocrMode); err != nil {
		return nil, err
	}
	if err := client.SetMinConfidence(opts.ocrMinConfidence); err != nil {
		return nil, err
	}
	return client.DetectText(png)
}
