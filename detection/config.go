package detection

// Config holds the detection key parameters and the merge thresholds.
//
// The first block mirrors the key parameters handed to the element detectors.
// MinGrad and FloodFillBlock are consumed by the external non-text detector and
// are carried here so one file configures a whole detection run; the merger
// itself does not read them.
type Config struct {
	// MinGrad is the edge-gradient sensitivity of the non-text detector.
	// Default: 10
	MinGrad int `json:"min-grad"`

	// FloodFillBlock is the flood-fill block size of the non-text detector.
	// Default: 5
	FloodFillBlock int `json:"ffl-block"`

	// MinElementArea drops non-text proposals smaller than this many pixels.
	// Default: 50
	MinElementArea float64 `json:"min-ele-area"`

	// MergeContained enables merging of boxes contained in a box from the
	// other source. Default: true
	MergeContained bool `json:"merge-contained-ele"`

	// MaxWordInlineGap is the largest horizontal gap between two OCR boxes on
	// the same row that are merged into one line. Default: 10 pixels
	MaxWordInlineGap float64 `json:"max-word-inline-gap"`

	// MaxLineInGraphGap is the largest vertical gap between two OCR lines that
	// are merged into one paragraph. Default: 4 pixels
	MaxLineInGraphGap float64 `json:"max-line-ingraph-gap"`

	// RemoveUIBar filters status and navigation bar chrome. Default: true
	RemoveUIBar bool `json:"remove-ui-bar"`

	// MergeParagraphs enables line-to-paragraph merging. Default: true
	MergeParagraphs bool `json:"merge-paragraph"`

	// IoUThreshold is the IoU above which a Text and a Compo box describe the
	// same element. Default: 0.8
	IoUThreshold float64 `json:"iou-threshold"`

	// ContainEpsilon is the margin in pixels by which a contained box may
	// exceed its container. Default: 2
	ContainEpsilon float64 `json:"contain-epsilon"`

	// LineOverlapRatio is the vertical overlap ratio for two OCR boxes to be
	// on the same row. Default: 0.5
	LineOverlapRatio float64 `json:"line-overlap-ratio"`

	// BarHeightRatio is the maximum bar height as a fraction of the screen
	// height. Default: 0.05
	BarHeightRatio float64 `json:"bar-height-ratio"`

	// BarEdgeMargin is how close to the top or bottom edge a box must start or
	// end to count as touching it. Default: 2 pixels
	BarEdgeMargin float64 `json:"bar-edge-margin"`

	// MinConfidence drops non-text proposals reporting a lower confidence.
	// A zero confidence means the detector reported none. Default: 0.3
	MinConfidence float64 `json:"min-confidence"`
}

// DefaultConfig returns the defaults used by the detection pipeline
func DefaultConfig() Config {
	return Config{
		MinGrad:           10,
		FloodFillBlock:    5,
		MinElementArea:    50,
		MergeContained:    true,
		MaxWordInlineGap:  10,
		MaxLineInGraphGap: 4,
		RemoveUIBar:       true,
		MergeParagraphs:   true,
		IoUThreshold:      0.8,
		ContainEpsilon:    2,
		LineOverlapRatio:  0.5,
		BarHeightRatio:    0.05,
		BarEdgeMargin:     2,
		MinConfidence:     0.3,
	}
}
