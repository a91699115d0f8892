// Package uilayout reconstructs the layout of a GUI screenshot from raw
// element detections: it merges OCR and non-text boxes into components,
// finds rows and columns of similar components, pairs congruent groups into
// lists and slices the screen into a tree of blocks.
//
// Basic usage:
//
//	a, err := uilayout.FromFile("detections.json").Layout()
//	if err != nil && !errors.Is(err, layout.ErrDetectionEmpty) {
//	    // handle error
//	}
//	for _, leaf := range a.Root.Leaves() {
//	    fmt.Println(leaf.ID, leaf.BBox)
//	}
//
// With options:
//
//	data, err := uilayout.FromFile("detections.json").
//	    WithConfigFile("uilayout.json").
//	    WithScreenshot("screen.png").
//	    WithOCR("eng").
//	    JSON()
//
// For finer control, the detection, layout and export packages can be used
// directly.
package uilayout

import (
	"github.com/tsawler/uilayout/detection"
	"github.com/tsawler/uilayout/model"
)

// FromFile starts a pipeline over a detection file in the element-detector
// JSON format. The file is read by the terminal operation.
//
// Example:
//
//	a, err := uilayout.FromFile("detections.json").Layout()
func FromFile(path string) *Pipeline {
	return &Pipeline{
		path:    path,
		options: defaultOptions(),
	}
}

// FromInput starts a pipeline over detections already in memory.
//
// Example:
//
//	in := detection.Input{Screen: model.Screen{Width: 1080, Height: 2400}, Texts: words}
//	html, err := uilayout.FromInput(in).HTML()
func FromInput(in detection.Input) *Pipeline {
	return &Pipeline{
		input:    in,
		hasInput: true,
		options:  defaultOptions(),
	}
}

// FromComponents starts a pipeline over already merged components, such as
// the Components of an earlier analysis. Ids are reassigned.
func FromComponents(screen model.Screen, comps []model.Component) *Pipeline {
	return &Pipeline{
		screen:     screen,
		components: append([]model.Component(nil), comps...),
		hasComps:   true,
		options:    defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	data := uilayout.Must(uilayout.FromFile("detections.json").JSON())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
