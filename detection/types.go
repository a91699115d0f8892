package detection

import (
	"strings"

	"github.com/tsawler/uilayout/model"
)

// TextDetection is one box produced by the OCR collaborator
type TextDetection struct {
	BBox model.BBox
	Text string

	// Confidence in [0, 1]; informational only
	Confidence float64
}

// CompoDetection is one non-text region proposal
type CompoDetection struct {
	BBox model.BBox

	// Label is the class label reported by the detector or a classifier
	Label string

	// Confidence in [0, 1]; zero means not reported
	Confidence float64

	// Clickable is set when the detector already knows the region is
	// interactive as a whole
	Clickable bool
}

// Input is everything detected on one screenshot
type Input struct {
	Screen model.Screen
	Texts  []TextDetection
	Compos []CompoDetection
}

// IsEmpty reports whether neither collaborator produced a box
func (in Input) IsEmpty() bool {
	return len(in.Texts) == 0 && len(in.Compos) == 0
}

// Stats counts what the merger dropped or fused
type Stats struct {
	// DroppedInvalid counts degenerate boxes (right<=left or bottom<=top),
	// including boxes that became degenerate when clipped to the screen
	DroppedInvalid int `json:"dropped_invalid"`

	// DroppedSmall counts non-text proposals below the minimum area
	DroppedSmall int `json:"dropped_small"`

	// DroppedLowConfidence counts non-text proposals below the minimum confidence
	DroppedLowConfidence int `json:"dropped_low_confidence"`

	// Duplicates counts boxes identical to an earlier box of the same source
	Duplicates int `json:"duplicates"`

	// RemovedBars counts boxes filtered as system chrome
	RemovedBars int `json:"removed_bars"`

	// MergedWords counts OCR boxes fused into a line
	MergedWords int `json:"merged_words"`

	// MergedLines counts OCR lines fused into a paragraph
	MergedLines int `json:"merged_lines"`

	// MergedCaptions counts Compo boxes absorbed into the Text they frame
	MergedCaptions int `json:"merged_captions"`

	// Owned counts Text components that keep a reference to their container
	Owned int `json:"owned"`
}

// Dropped returns the number of input boxes discarded as unusable
func (s Stats) Dropped() int {
	return s.DroppedInvalid + s.DroppedSmall + s.DroppedLowConfidence + s.Duplicates
}

// Result is the merged component set for one screenshot
type Result struct {
	Screen     model.Screen
	Components []model.Component
	Stats      Stats
}

// IsEmpty reports whether no component survived merging
func (r *Result) IsEmpty() bool {
	return r == nil || len(r.Components) == 0
}

// Clickability decides whether a non-text region is interactive as a whole.
// Implementations wrap a classifier collaborator; tests use deterministic
// stand-ins.
type Clickability interface {
	Clickable(c CompoDetection) bool
}

// ClickabilityFunc adapts a function to the Clickability interface
type ClickabilityFunc func(c CompoDetection) bool

// Clickable calls f(c)
func (f ClickabilityFunc) Clickable(c CompoDetection) bool {
	return f(c)
}

// LabelClickability treats a fixed set of labels as clickable. Keys are
// lower-case.
type LabelClickability map[string]bool

// DefaultClickability returns the labels of interactive widgets produced by
// the compo classifier.
func DefaultClickability() LabelClickability {
	return LabelClickability{
		"button":      true,
		"text button": true,
		"input":       true,
		"switch":      true,
		"checkbox":    true,
	}
}

// Clickable reports whether the detector flagged the region or its label is
// in the set
func (l LabelClickability) Clickable(c CompoDetection) bool {
	return c.Clickable || l[strings.ToLower(strings.TrimSpace(c.Label))]
}
