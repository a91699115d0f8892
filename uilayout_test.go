package uilayout

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/uilayout/detection"
	"github.com/tsawler/uilayout/export"
	"github.com/tsawler/uilayout/layout"
	"github.com/tsawler/uilayout/model"
	"github.com/tsawler/uilayout/ocr"
)

var phone = model.Screen{Width: 1000, Height: 2000}

// cardFeed is a feed of n cards, each an avatar next to a title and subtitle
func cardFeed(n int) detection.Input {
	in := detection.Input{Screen: phone}
	for i := 0; i < n; i++ {
		y := 100 + float64(i)*100
		in.Compos = append(in.Compos, detection.CompoDetection{BBox: model.NewBBox(20, y, 68, y+48), Label: "Image"})
		in.Texts = append(in.Texts,
			detection.TextDetection{BBox: model.NewBBox(80, y+4, 380, y+24), Text: "Title"},
			detection.TextDetection{BBox: model.NewBBox(80, y+30, 300, y+46), Text: "Subtitle"})
	}
	return in
}

// writeFile writes data to a file in a temporary directory
func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const iconRowFile = `{
	"img_shape": [2000, 1000, 3],
	"compos": [
		{"class": "Compo", "compo_class": "Image", "position": {"column_min": 40, "row_min": 200, "column_max": 88, "row_max": 248}},
		{"class": "Compo", "compo_class": "Image", "position": {"column_min": 140, "row_min": 200, "column_max": 188, "row_max": 248}},
		{"class": "Compo", "compo_class": "Image", "position": {"column_min": 240, "row_min": 200, "column_max": 288, "row_max": 248}}
	]
}`

func TestFromInputLayout(t *testing.T) {
	a, err := FromInput(cardFeed(4)).Layout()
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if len(a.Lists) != 1 || a.Lists[0].Len() != 4 {
		t.Errorf("Expected one list of 4 cards, got %+v", a.Lists)
	}
}

func TestFromFile(t *testing.T) {
	path := writeFile(t, "detections.json", []byte(iconRowFile))

	data, err := FromFile(path).JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	doc, err := export.DecodeDocument(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Expected a document: %v", err)
	}
	if len(doc.Groups) != 1 || len(doc.Groups[0].Members) != 3 {
		t.Errorf("Expected one group of three icons, got %+v", doc.Groups)
	}
}

func TestFromFileMissing(t *testing.T) {
	if _, err := FromFile("does-not-exist.json").Layout(); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := FromFile("").Layout(); err == nil {
		t.Error("Expected error without detections")
	}
}

func TestFromComponents(t *testing.T) {
	first, err := FromInput(cardFeed(3)).Layout()
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	comps := make([]model.Component, len(first.Components))
	for i, rec := range first.Components {
		comps[i] = rec.Component
	}

	second, err := FromComponents(phone, comps).Layout()
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if len(second.Lists) != len(first.Lists) || second.Root.Count() != first.Root.Count() {
		t.Error("Expected re-analysing merged components to give the same structure")
	}
}

func TestWithConfig(t *testing.T) {
	config := layout.DefaultAnalyzerConfig()
	config.Pair.PromoteGroups = true
	path := writeFile(t, "detections.json", []byte(iconRowFile))

	a, err := FromFile(path).WithConfig(config).Layout()
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if len(a.Lists) != 1 || len(a.Groups) != 0 {
		t.Errorf("Expected the icon row promoted to a list, got %d lists %d groups", len(a.Lists), len(a.Groups))
	}
}

func TestWithConfigFile(t *testing.T) {
	detections := writeFile(t, "detections.json", []byte(iconRowFile))
	config := writeFile(t, "config.json", []byte(`{"pair": {"promote-groups": true}}`))

	a, err := FromFile(detections).WithConfigFile(config).Layout()
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if len(a.Lists) != 1 {
		t.Errorf("Expected config from file to apply, got %d lists", len(a.Lists))
	}

	if _, err := FromFile(detections).WithConfigFile("missing.json").Layout(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestPipelineIsImmutable(t *testing.T) {
	base := FromInput(cardFeed(2))
	config := layout.DefaultAnalyzerConfig()
	config.Detection.MinElementArea = 1e9

	_ = base.WithConfig(config).WithOCR("eng")

	if base.options.config.Detection.MinElementArea != 50 {
		t.Error("Expected the original pipeline to keep its config")
	}
	if base.options.ocr {
		t.Error("Expected the original pipeline to keep OCR off")
	}
}

func TestEmptyDetections(t *testing.T) {
	p := FromInput(detection.Input{Screen: phone})

	a, err := p.Layout()
	if !errors.Is(err, layout.ErrDetectionEmpty) {
		t.Fatalf("Expected ErrDetectionEmpty, got %v", err)
	}
	if a == nil || len(a.Root.Children) != 0 {
		t.Error("Expected an empty root")
	}

	data, err := p.JSON()
	if err != nil {
		t.Fatalf("Expected JSON for an empty screen, got %v", err)
	}
	if !strings.Contains(string(data), "detection-empty") {
		t.Error("Expected the warning in the document")
	}
}

func TestHTMLAndExport(t *testing.T) {
	p := FromInput(cardFeed(2))

	html, err := p.HTML()
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if !strings.Contains(html, `id="b-0"`) {
		t.Error("Expected the root block in the outline")
	}

	var buf bytes.Buffer
	if err := p.Export(&buf, export.FormatJSONL); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Errorf("Expected 6 component lines, got %d", len(lines))
	}
	var c export.Component
	if err := json.Unmarshal([]byte(lines[0]), &c); err != nil {
		t.Errorf("Expected a component per line: %v", err)
	}
}

func TestWithScreenshotSize(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 400, 800))); err != nil {
		t.Fatal(err)
	}
	shot := writeFile(t, "screen.png", buf.Bytes())
	detections := writeFile(t, "detections.json", []byte(
		`{"compos": [{"class": "Text", "position": {"column_min": 10, "row_min": 100, "column_max": 200, "row_max": 130}, "text_content": "Hello"}]}`))

	if _, err := FromFile(detections).Layout(); err == nil {
		t.Error("Expected error without any screen size")
	}

	a, err := FromFile(detections).WithScreenshot(shot).Layout()
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if a.Screen != (model.Screen{Width: 400, Height: 800}) {
		t.Errorf("Expected the screenshot size, got %+v", a.Screen)
	}
}

func TestWithOCRRequiresScreenshot(t *testing.T) {
	if _, err := FromInput(cardFeed(1)).WithOCR().Layout(); err == nil {
		t.Error("Expected error for OCR without a screenshot")
	}
}

func TestWithOCRSettings(t *testing.T) {
	base := FromInput(cardFeed(1)).WithOCR()
	p := base.WithOCRMode(ocr.ModeLine).WithOCRMinConfidence(0.6)

	if p.options.ocrMode != ocr.ModeLine || p.options.ocrMinConfidence != 0.6 {
		t.Errorf("Expected line mode and 0.6, got %v and %v", p.options.ocrMode, p.options.ocrMinConfidence)
	}
	if base.options.ocrMode != ocr.ModeSparse || base.options.ocrMinConfidence != ocr.DefaultMinConfidence {
		t.Error("Expected the original pipeline to keep the OCR defaults")
	}

	if _, err := FromInput(cardFeed(1)).WithOCRMinConfidence(1.5).Layout(); err == nil {
		t.Error("Expected error for a confidence above 1")
	}
}

func TestMust(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected Must to panic on error")
		}
	}()
	Must(FromFile("does-not-exist.json").JSON())
}
