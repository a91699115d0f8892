package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tsawler/uilayout/detection"
	"github.com/tsawler/uilayout/model"
	"github.com/tsawler/uilayout/observability"
)

// AnalyzerConfig holds the configuration of every pipeline stage
type AnalyzerConfig struct {
	Detection detection.Config `json:"detection"`
	Table     TableConfig      `json:"table"`
	Group     GroupConfig      `json:"group"`
	Pair      PairConfig       `json:"pair"`
	Slice     SliceConfig      `json:"slice"`
}

// DefaultAnalyzerConfig returns the defaults of all stages
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Detection: detection.DefaultConfig(),
		Table:     DefaultTableConfig(),
		Group:     DefaultGroupConfig(),
		Pair:      DefaultPairConfig(),
		Slice:     DefaultSliceConfig(),
	}
}

// DecodeConfig reads a JSON configuration over the defaults. Keys that are
// absent keep their default; unknown keys are rejected.
func DecodeConfig(r io.Reader) (AnalyzerConfig, error) {
	config := DefaultAnalyzerConfig()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil && err != io.EOF {
		return DefaultAnalyzerConfig(), fmt.Errorf("layout: config: %w", err)
	}
	return config, nil
}

// LoadConfig reads a JSON configuration file over the defaults
func LoadConfig(path string) (AnalyzerConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultAnalyzerConfig(), err
	}
	defer f.Close()

	config, err := DecodeConfig(f)
	if err != nil {
		return config, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Analysis is the output of one pipeline run
type Analysis struct {
	Screen model.Screen

	// Components is the flat component list with group and list ids
	Components []ComponentRecord

	// Groups are the groups standing on their own; groups merged into lists
	// are reachable through the list items
	Groups []Group

	Lists []List

	// Root covers the whole screen, or the envelope of the components when
	// the screen size is unknown
	Root *Block

	Stats    detection.Stats
	Warnings []Warning
}

// Component returns the record of a component id
func (a *Analysis) Component(id int) (ComponentRecord, bool) {
	if id < 0 || id >= len(a.Components) {
		return ComponentRecord{}, false
	}
	return a.Components[id], true
}

// List returns the list with the given id
func (a *Analysis) List(id int) (List, bool) {
	for _, l := range a.Lists {
		if l.ID == id {
			return l, true
		}
	}
	return List{}, false
}

// Analyzer runs the whole reconstruction pipeline: merge, index, group, pair
// and slice. It keeps no state between runs, so one analyzer may serve
// several goroutines.
type Analyzer struct {
	config       AnalyzerConfig
	clickability detection.Clickability
	logger       observability.Logger
}

// NewAnalyzer creates an analyzer with default configuration
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(DefaultAnalyzerConfig())
}

// NewAnalyzerWithConfig creates an analyzer with custom configuration
func NewAnalyzerWithConfig(config AnalyzerConfig) *Analyzer {
	return &Analyzer{
		config: config,
		logger: observability.NopLogger{},
	}
}

// WithClickability injects the capability deciding whether a non-text
// region is interactive
func (a *Analyzer) WithClickability(c detection.Clickability) *Analyzer {
	a.clickability = c
	return a
}

// WithLogger sets the logger
func (a *Analyzer) WithLogger(l observability.Logger) *Analyzer {
	a.logger = observability.OrNop(l)
	return a
}

// Config returns the configuration in use
func (a *Analyzer) Config() AnalyzerConfig {
	return a.config
}

func (a *Analyzer) merger() *detection.Merger {
	return detection.NewMergerWithConfig(a.config.Detection).WithClickability(a.clickability)
}

// Analyze reconstructs the layout of one screenshot from its raw detections.
//
// When no component survives merging the analysis holds a root block without
// children and ErrDetectionEmpty is returned with it. A *ReassignmentError
// is returned with a nil analysis.
func (a *Analyzer) Analyze(in detection.Input) (*Analysis, error) {
	return a.run(a.merger().Merge(in))
}

// AnalyzeComponents reconstructs the layout from components that were merged
// earlier, for example by another process.
func (a *Analyzer) AnalyzeComponents(screen model.Screen, comps []model.Component) (*Analysis, error) {
	return a.run(a.merger().MergeComponents(screen, comps))
}

func (a *Analyzer) run(merged *detection.Result) (*Analysis, error) {
	log := a.logger
	stats := merged.Stats
	log.Debug("detections merged",
		observability.Int("components", len(merged.Components)),
		observability.Int("dropped", stats.Dropped()),
		observability.Int("removed_bars", stats.RemovedBars))

	result := &Analysis{
		Screen: merged.Screen,
		Stats:  stats,
	}
	if stats.DroppedInvalid > 0 {
		result.Warnings = append(result.Warnings, Warning{
			Kind:    WarningInvalidBoundingBox,
			Message: fmt.Sprintf("%d degenerate boxes dropped", stats.DroppedInvalid),
		})
	}

	root := merged.Screen.BBox()
	if !merged.Screen.Known() {
		boxes := make([]model.BBox, len(merged.Components))
		for i, c := range merged.Components {
			boxes[i] = c.BBox
		}
		root = model.Envelope(boxes)
	}

	if merged.IsEmpty() {
		log.Warn("no components survived detection", observability.Int("dropped", stats.Dropped()))
		result.Root = &Block{BBox: root, GroupID: NoID}
		result.Warnings = append(result.Warnings, Warning{
			Kind:    WarningDetectionEmpty,
			Message: "no components survived detection",
		})
		return result, ErrDetectionEmpty
	}

	table, err := NewTableWithConfig(merged.Components, a.config.Table)
	if err != nil {
		return nil, err
	}

	groups := NewGroupRecognizerWithConfig(a.config.Group).WithLogger(log).Recognize(table)
	result.Warnings = append(result.Warnings, groups.Warnings...)

	pairs, err := NewPairRecognizerWithConfig(a.config.Pair).Recognize(table, groups.Groups)
	if err != nil {
		log.Error("annotation conflict", observability.Error("err", err))
		return nil, err
	}

	result.Root = NewBlockSlicerWithConfig(a.config.Slice).Slice(root, UnitsFrom(table, pairs))
	result.Components = table.Records()
	result.Groups = pairs.Groups
	result.Lists = pairs.Lists

	log.Debug("layout reconstructed",
		observability.Int("groups", len(pairs.Groups)),
		observability.Int("lists", len(pairs.Lists)),
		observability.Int("dissolved", len(pairs.Dissolved)),
		observability.Int("merged", len(pairs.Merged)),
		observability.Int("blocks", result.Root.Count()))
	return result, nil
}
