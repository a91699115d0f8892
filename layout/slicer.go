package layout

import (
	"math"
	"sort"

	"github.com/tsawler/uilayout/model"
)

// SliceConfig holds configuration for block slicing
type SliceConfig struct {
	// MinGap is the empty margin required between two bands. With the
	// default of 0, units that merely touch are still separated.
	MinGap float64 `json:"min-gap"`
}

// DefaultSliceConfig returns the default slicing configuration
func DefaultSliceConfig() SliceConfig {
	return SliceConfig{MinGap: 0}
}

// UnitKind identifies what a top-level structural unit wraps
type UnitKind int

const (
	UnitComponent UnitKind = iota
	UnitGroup
	UnitList
)

// String returns a string representation of the unit kind
func (k UnitKind) String() string {
	switch k {
	case UnitComponent:
		return "component"
	case UnitGroup:
		return "group"
	case UnitList:
		return "list"
	default:
		return "unknown"
	}
}

// Unit is a top-level structural unit handed to the slicer
type Unit struct {
	Kind UnitKind
	ID   int
	BBox model.BBox

	// Members are the component ids of a group unit
	Members []int
}

// ChildKind identifies what a block child refers to
type ChildKind int

const (
	ChildComponent ChildKind = iota
	ChildList
	ChildBlock
)

// String returns a string representation of the child kind
func (k ChildKind) String() string {
	switch k {
	case ChildComponent:
		return "component"
	case ChildList:
		return "list"
	case ChildBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Child is one entry of a block: a component id, a list id or a nested block
type Child struct {
	Kind  ChildKind
	ID    int
	Block *Block
}

// Block is a node of the layout tree. Blocks are built bottom-up and never
// modified once returned.
type Block struct {
	ID       int
	BBox     model.BBox
	Children []Child
	Depth    int

	// GroupID is set when the block wraps exactly one group, else NoID
	GroupID int
}

// IsLeaf reports whether the block has no nested blocks
func (b *Block) IsLeaf() bool {
	for _, c := range b.Children {
		if c.Kind == ChildBlock {
			return false
		}
	}
	return true
}

// Walk visits the block and its descendants in pre-order
func (b *Block) Walk(fn func(*Block)) {
	fn(b)
	for _, c := range b.Children {
		if c.Kind == ChildBlock {
			c.Block.Walk(fn)
		}
	}
}

// Leaves returns the leaf blocks in pre-order
func (b *Block) Leaves() []*Block {
	var leaves []*Block
	b.Walk(func(n *Block) {
		if n.IsLeaf() {
			leaves = append(leaves, n)
		}
	})
	return leaves
}

// Count returns the number of blocks in the subtree
func (b *Block) Count() int {
	n := 0
	b.Walk(func(*Block) { n++ })
	return n
}

// MaxDepth returns the depth of the deepest block in the subtree
func (b *Block) MaxDepth() int {
	depth := b.Depth
	b.Walk(func(n *Block) {
		if n.Depth > depth {
			depth = n.Depth
		}
	})
	return depth
}

// ChildIDs returns the ids of the direct children of the given kind
func (b *Block) ChildIDs(kind ChildKind) []int {
	var ids []int
	for _, c := range b.Children {
		if c.Kind == kind {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// UnitsFrom returns the top-level units of a paired table: every list, every
// surviving group and every component in neither.
func UnitsFrom(t *Table, pair *PairLayout) []Unit {
	var units []Unit
	for _, l := range pair.Lists {
		units = append(units, Unit{Kind: UnitList, ID: l.ID, BBox: l.BBox})
	}
	for _, g := range pair.Groups {
		units = append(units, Unit{
			Kind:    UnitGroup,
			ID:      g.ID,
			BBox:    g.BBox,
			Members: append([]int(nil), g.Members...),
		})
	}
	for id := 0; id < t.Len(); id++ {
		if t.ListOf(id) != NoID || t.GroupOf(id) != NoID {
			continue
		}
		units = append(units, Unit{Kind: UnitComponent, ID: id, BBox: t.BBox(id)})
	}
	return units
}

// BlockSlicer partitions the screen into a tree of blocks
type BlockSlicer struct {
	config SliceConfig
}

// NewBlockSlicer creates a slicer with default configuration
func NewBlockSlicer() *BlockSlicer {
	return NewBlockSlicerWithConfig(DefaultSliceConfig())
}

// NewBlockSlicerWithConfig creates a slicer with custom configuration
func NewBlockSlicerWithConfig(config SliceConfig) *BlockSlicer {
	return &BlockSlicer{config: config}
}

// Slice builds the block tree of the units inside root. The container is
// first cut into horizontal bands (along the vertical axis), each band with
// several units is cut across the other axis, and so on. Units that cannot be
// separated on either axis end up together in one leaf, ordered by their
// top-left corner. Block ids are assigned in pre-order starting at 0.
func (s *BlockSlicer) Slice(root model.BBox, units []Unit) *Block {
	next := 0
	return s.slice(root, units, model.Vertical, 0, &next)
}

func (s *BlockSlicer) slice(bbox model.BBox, units []Unit, axis model.Axis, depth int, next *int) *Block {
	id := *next
	*next++
	if len(units) == 0 {
		return &Block{ID: id, BBox: bbox, Depth: depth, GroupID: NoID}
	}

	bands := s.bands(units, axis)
	if len(bands) < 2 {
		axis = axis.Other()
		bands = s.bands(units, axis)
	}
	if len(bands) < 2 {
		return leaf(id, bbox, depth, units)
	}

	children := make([]Child, 0, len(bands))
	for _, b := range bands {
		box := b.bbox(bbox, axis)
		var child *Block
		if len(b.units) == 1 {
			child = leaf(*next, box, depth+1, b.units)
			*next++
		} else {
			child = s.slice(box, b.units, axis.Other(), depth+1, next)
		}
		children = append(children, Child{Kind: ChildBlock, ID: child.ID, Block: child})
	}
	return &Block{ID: id, BBox: bbox, Children: children, Depth: depth, GroupID: NoID}
}

type band struct {
	start, end float64
	units      []Unit
}

// bbox spans the band along the axis and the whole container across it
func (b band) bbox(container model.BBox, axis model.Axis) model.BBox {
	box := container
	if axis == model.Vertical {
		box.Top, box.Bottom = b.start, b.end
	} else {
		box.Left, box.Right = b.start, b.end
	}
	if clipped := box.Clip(container); clipped.IsValid() {
		return clipped
	}
	return box
}

// bands sweeps the units along the axis and cuts wherever the next unit
// starts at least MinGap past everything seen so far
func (s *BlockSlicer) bands(units []Unit, axis model.Axis) []band {
	sorted := append([]Unit(nil), units...)
	cross := axis.Other()
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.BBox.Start(axis) != b.BBox.Start(axis) {
			return a.BBox.Start(axis) < b.BBox.Start(axis)
		}
		if a.BBox.Start(cross) != b.BBox.Start(cross) {
			return a.BBox.Start(cross) < b.BBox.Start(cross)
		}
		return lessUnit(a, b)
	})

	var bands []band
	for _, u := range sorted {
		n := len(bands)
		if n > 0 && u.BBox.Start(axis) < bands[n-1].end+s.config.MinGap {
			bands[n-1].end = math.Max(bands[n-1].end, u.BBox.End(axis))
			bands[n-1].units = append(bands[n-1].units, u)
			continue
		}
		bands = append(bands, band{start: u.BBox.Start(axis), end: u.BBox.End(axis), units: []Unit{u}})
	}
	return bands
}

// leaf wraps units that are not sliced further. A group unit contributes its
// member components; a lone group also marks the block with its id.
func leaf(id int, bbox model.BBox, depth int, units []Unit) *Block {
	sorted := append([]Unit(nil), units...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].BBox, sorted[j].BBox
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		if a.Left != b.Left {
			return a.Left < b.Left
		}
		return lessUnit(sorted[i], sorted[j])
	})

	block := &Block{ID: id, BBox: bbox, Depth: depth, GroupID: NoID}
	for _, u := range sorted {
		switch u.Kind {
		case UnitList:
			block.Children = append(block.Children, Child{Kind: ChildList, ID: u.ID})
		case UnitGroup:
			for _, m := range u.Members {
				block.Children = append(block.Children, Child{Kind: ChildComponent, ID: m})
			}
		default:
			block.Children = append(block.Children, Child{Kind: ChildComponent, ID: u.ID})
		}
	}
	if len(sorted) == 1 && sorted[0].Kind == UnitGroup {
		block.GroupID = sorted[0].ID
	}
	return block
}

func lessUnit(a, b Unit) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}
