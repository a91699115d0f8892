package layout

import (
	"math"

	"github.com/tsawler/uilayout/model"
)

// NoID marks an unset group or list annotation
const NoID = -1

// TableConfig holds the thresholds of the component predicates
type TableConfig struct {
	// RowOverlapRatio is the minimum vertical overlap, over the shorter
	// height, for two components to sit on the same row. Default: 0.5
	RowOverlapRatio float64 `json:"row-overlap-ratio"`

	// ColumnOverlapRatio is the minimum horizontal overlap, over the shorter
	// width, for two components to sit in the same column. Default: 0.5
	ColumnOverlapRatio float64 `json:"column-overlap-ratio"`

	// SizeRatio is the minimum ratio of the smaller area to the larger one
	// for two components to have similar size. Default: 0.7
	SizeRatio float64 `json:"size-ratio"`

	// HeightRatio is the minimum ratio of the smaller height to the larger
	// one for two components to have similar height. Default: 0.75
	HeightRatio float64 `json:"height-ratio"`
}

// DefaultTableConfig returns the default predicate thresholds
func DefaultTableConfig() TableConfig {
	return TableConfig{
		RowOverlapRatio:    0.5,
		ColumnOverlapRatio: 0.5,
		SizeRatio:          0.7,
		HeightRatio:        0.75,
	}
}

// ComponentRecord is one row of the flat component output
type ComponentRecord struct {
	model.Component

	// GroupID is the group the component belongs to, or NoID
	GroupID int

	// ListID is the list the component belongs to, or NoID
	ListID int
}

// Table is the indexed view over the components of one screenshot.
//
// Components are immutable. The only mutable state is the pair of write-once
// annotations (group id and list id) per component. A Table belongs to one
// pipeline run and must not be shared between goroutines.
type Table struct {
	config     TableConfig
	components []model.Component
	groupOf    []int
	listOf     []int
}

// NewTable creates a table with default configuration
func NewTable(comps []model.Component) (*Table, error) {
	return NewTableWithConfig(comps, DefaultTableConfig())
}

// NewTableWithConfig creates a table over comps. Component ids must equal
// their index, as produced by the detection merger.
func NewTableWithConfig(comps []model.Component, config TableConfig) (*Table, error) {
	for i, c := range comps {
		if c.ID != i {
			return nil, ErrSparseIDs
		}
	}
	t := &Table{
		config:     config,
		components: append([]model.Component(nil), comps...),
		groupOf:    make([]int, len(comps)),
		listOf:     make([]int, len(comps)),
	}
	for i := range comps {
		t.groupOf[i] = NoID
		t.listOf[i] = NoID
	}
	return t, nil
}

// Len returns the number of components
func (t *Table) Len() int {
	return len(t.components)
}

// Component returns the component with the given id
func (t *Table) Component(id int) model.Component {
	return t.components[id]
}

// Components returns a copy of all components
func (t *Table) Components() []model.Component {
	return append([]model.Component(nil), t.components...)
}

// BBox returns the bounding box of the component with the given id
func (t *Table) BBox(id int) model.BBox {
	return t.components[id].BBox
}

// Envelope returns the minimal box containing the given components
func (t *Table) Envelope(ids []int) model.BBox {
	boxes := make([]model.BBox, len(ids))
	for i, id := range ids {
		boxes[i] = t.components[id].BBox
	}
	return model.Envelope(boxes)
}

// SameRow reports whether the vertical extents overlap enough
func (t *Table) SameRow(a, b int) bool {
	return t.BBox(a).VerticalOverlapRatio(t.BBox(b)) >= t.config.RowOverlapRatio
}

// SameColumn reports whether the horizontal extents overlap enough
func (t *Table) SameColumn(a, b int) bool {
	return t.BBox(a).HorizontalOverlapRatio(t.BBox(b)) >= t.config.ColumnOverlapRatio
}

// SameLine reports whether a and b line up along the axis: the same row for
// Horizontal, the same column for Vertical.
func (t *Table) SameLine(a, b int, axis model.Axis) bool {
	if axis == model.Horizontal {
		return t.SameRow(a, b)
	}
	return t.SameColumn(a, b)
}

// SimilarSize reports whether the areas are within the size ratio
func (t *Table) SimilarSize(a, b int) bool {
	return ratio(t.BBox(a).Area(), t.BBox(b).Area()) >= t.config.SizeRatio
}

// SimilarHeight reports whether the heights are within the height ratio
func (t *Table) SimilarHeight(a, b int) bool {
	return ratio(t.BBox(a).Height(), t.BBox(b).Height()) >= t.config.HeightRatio
}

// Related reports whether one component owns the other
func (t *Table) Related(a, b int) bool {
	ca, cb := t.components[a], t.components[b]
	return ca.OwnerID == b || cb.OwnerID == a
}

// Nearest returns the closest component after (forward) or before id along
// the axis among those on the same line, or NoID when there is none.
// Distance ties go to the lower id.
func (t *Table) Nearest(id int, axis model.Axis, forward bool) int {
	from := t.BBox(id)
	best := NoID
	bestGap := math.Inf(1)
	for other := range t.components {
		if other == id || !t.SameLine(id, other, axis) {
			continue
		}
		box := t.BBox(other)
		var gap float64
		if forward {
			if box.Start(axis) < from.Start(axis) {
				continue
			}
			gap = box.Start(axis) - from.End(axis)
		} else {
			if box.Start(axis) > from.Start(axis) {
				continue
			}
			gap = from.Start(axis) - box.End(axis)
		}
		// components starting at the same coordinate are ordered by id
		if box.Start(axis) == from.Start(axis) && (other > id) != forward {
			continue
		}
		if gap < bestGap {
			best, bestGap = other, gap
		}
	}
	return best
}

// SetGroup annotates a component with its group. Setting the same id again is
// a no-op; setting a different id returns a *ReassignmentError.
func (t *Table) SetGroup(id, groupID int) error {
	return set(t.groupOf, "group-id", id, groupID)
}

// SetList annotates a component with its list, with the same write-once
// semantics as SetGroup.
func (t *Table) SetList(id, listID int) error {
	return set(t.listOf, "list-id", id, listID)
}

// GroupOf returns the group of a component, or NoID
func (t *Table) GroupOf(id int) int {
	return t.groupOf[id]
}

// ListOf returns the list of a component, or NoID
func (t *Table) ListOf(id int) int {
	return t.listOf[id]
}

// Records returns the flat component output with annotations
func (t *Table) Records() []ComponentRecord {
	records := make([]ComponentRecord, len(t.components))
	for i, c := range t.components {
		records[i] = ComponentRecord{
			Component: c,
			GroupID:   t.groupOf[i],
			ListID:    t.listOf[i],
		}
	}
	return records
}

func set(column []int, field string, id, value int) error {
	current := column[id]
	if current == value {
		return nil
	}
	if current != NoID {
		return &ReassignmentError{Field: field, ComponentID: id, Current: current, Requested: value}
	}
	column[id] = value
	return nil
}

// ratio returns the smaller value over the larger one, in [0, 1]
func ratio(a, b float64) float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	if hi <= 0 {
		return 0
	}
	return lo / hi
}
