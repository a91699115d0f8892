package model

import (
	"errors"
	"math"
)

// ErrInvalidBoundingBox is reported for boxes whose right edge is not past
// the left edge or whose bottom edge is not below the top edge.
var ErrInvalidBoundingBox = errors.New("invalid bounding box")

// Point represents a 2D point in screen pixels
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Axis names one of the two screen axes.
type Axis int

const (
	// Horizontal is the X axis. Components aligned horizontally form a row.
	Horizontal Axis = iota
	// Vertical is the Y axis. Components aligned vertically form a column.
	Vertical
)

// String returns a string representation of the axis
func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Other returns the perpendicular axis
func (a Axis) Other() Axis {
	if a == Vertical {
		return Horizontal
	}
	return Vertical
}

// BBox represents a bounding box in screen coordinates. The origin is the
// top-left corner of the screen and Y grows downward.
type BBox struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// NewBBox creates a bounding box from its four edges
func NewBBox(left, top, right, bottom float64) BBox {
	return BBox{Left: left, Top: top, Right: right, Bottom: bottom}
}

// NewBBoxFromPoints creates a bounding box from two opposite corners
func NewBBoxFromPoints(p1, p2 Point) BBox {
	return BBox{
		Left:   math.Min(p1.X, p2.X),
		Top:    math.Min(p1.Y, p2.Y),
		Right:  math.Max(p1.X, p2.X),
		Bottom: math.Max(p1.Y, p2.Y),
	}
}

// Width returns the horizontal extent
func (b BBox) Width() float64 {
	return b.Right - b.Left
}

// Height returns the vertical extent
func (b BBox) Height() float64 {
	return b.Bottom - b.Top
}

// Area returns the area of the bounding box
func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

// Center returns the centroid
func (b BBox) Center() Point {
	return Point{
		X: (b.Left + b.Right) / 2,
		Y: (b.Top + b.Bottom) / 2,
	}
}

// ShortSide returns the smaller of width and height
func (b BBox) ShortSide() float64 {
	return math.Min(b.Width(), b.Height())
}

// Start returns the leading edge along the axis (left or top)
func (b BBox) Start(axis Axis) float64 {
	if axis == Vertical {
		return b.Top
	}
	return b.Left
}

// End returns the trailing edge along the axis (right or bottom)
func (b BBox) End(axis Axis) float64 {
	if axis == Vertical {
		return b.Bottom
	}
	return b.Right
}

// Extent returns the length of the box along the axis
func (b BBox) Extent(axis Axis) float64 {
	return b.End(axis) - b.Start(axis)
}

// IsValid returns true if the bounding box has positive dimensions
func (b BBox) IsValid() bool {
	return b.Right > b.Left && b.Bottom > b.Top
}

// IsEmpty returns true if the bounding box has zero area
func (b BBox) IsEmpty() bool {
	return !b.IsValid()
}

// Validate returns ErrInvalidBoundingBox for degenerate boxes
func (b BBox) Validate() error {
	if !b.IsValid() || math.IsNaN(b.Left+b.Top+b.Right+b.Bottom) {
		return ErrInvalidBoundingBox
	}
	return nil
}

// ContainsPoint checks if a point is inside the bounding box
func (b BBox) ContainsPoint(p Point) bool {
	return p.X >= b.Left && p.X <= b.Right &&
		p.Y >= b.Top && p.Y <= b.Bottom
}

// Contains reports whether other lies inside b, allowing other to poke out
// by at most eps pixels on each side.
func (b BBox) Contains(other BBox, eps float64) bool {
	return other.Left >= b.Left-eps && other.Right <= b.Right+eps &&
		other.Top >= b.Top-eps && other.Bottom <= b.Bottom+eps
}

// Intersects checks if two bounding boxes share a region of positive area
func (b BBox) Intersects(other BBox) bool {
	return b.Left < other.Right && other.Left < b.Right &&
		b.Top < other.Bottom && other.Top < b.Bottom
}

// Intersection returns the intersection of two bounding boxes
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}
	return BBox{
		Left:   math.Max(b.Left, other.Left),
		Top:    math.Max(b.Top, other.Top),
		Right:  math.Min(b.Right, other.Right),
		Bottom: math.Min(b.Bottom, other.Bottom),
	}
}

// Union returns the smallest box containing both boxes
func (b BBox) Union(other BBox) BBox {
	return BBox{
		Left:   math.Min(b.Left, other.Left),
		Top:    math.Min(b.Top, other.Top),
		Right:  math.Max(b.Right, other.Right),
		Bottom: math.Max(b.Bottom, other.Bottom),
	}
}

// IoU returns the intersection over union of two boxes
func (b BBox) IoU(other BBox) float64 {
	inter := b.Intersection(other).Area()
	if inter == 0 {
		return 0
	}
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// OverlapRatio calculates the intersection area over the smaller area.
// Returns value between 0 and 1
func (b BBox) OverlapRatio(other BBox) float64 {
	if !b.Intersects(other) {
		return 0
	}
	minArea := math.Min(b.Area(), other.Area())
	if minArea == 0 {
		return 0
	}
	return b.Intersection(other).Area() / minArea
}

// AxisOverlapRatio returns the 1-D overlap of the two boxes along the axis
// divided by the shorter of the two extents.
func (b BBox) AxisOverlapRatio(other BBox, axis Axis) float64 {
	overlap := math.Min(b.End(axis), other.End(axis)) - math.Max(b.Start(axis), other.Start(axis))
	if overlap <= 0 {
		return 0
	}
	shorter := math.Min(b.Extent(axis), other.Extent(axis))
	if shorter <= 0 {
		return 0
	}
	return overlap / shorter
}

// VerticalOverlapRatio is the overlap of the vertical extents (same-row test)
func (b BBox) VerticalOverlapRatio(other BBox) float64 {
	return b.AxisOverlapRatio(other, Vertical)
}

// HorizontalOverlapRatio is the overlap of the horizontal extents (same-column test)
func (b BBox) HorizontalOverlapRatio(other BBox) float64 {
	return b.AxisOverlapRatio(other, Horizontal)
}

// Gap returns the empty distance between the boxes along the axis. It is
// negative when the extents overlap.
func (b BBox) Gap(other BBox, axis Axis) float64 {
	if b.Start(axis) <= other.Start(axis) {
		return other.Start(axis) - b.End(axis)
	}
	return b.Start(axis) - other.End(axis)
}

// Expand expands the bounding box by a margin on all sides
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		Left:   b.Left - margin,
		Top:    b.Top - margin,
		Right:  b.Right + margin,
		Bottom: b.Bottom + margin,
	}
}

// Clip restricts the box to the bounds. The result may be invalid when the
// box lies entirely outside bounds.
func (b BBox) Clip(bounds BBox) BBox {
	return BBox{
		Left:   math.Max(b.Left, bounds.Left),
		Top:    math.Max(b.Top, bounds.Top),
		Right:  math.Min(b.Right, bounds.Right),
		Bottom: math.Min(b.Bottom, bounds.Bottom),
	}
}

// Scale multiplies every edge by factor
func (b BBox) Scale(factor float64) BBox {
	return BBox{
		Left:   b.Left * factor,
		Top:    b.Top * factor,
		Right:  b.Right * factor,
		Bottom: b.Bottom * factor,
	}
}

// Envelope returns the minimal box containing all boxes. The zero BBox is
// returned for an empty slice.
func Envelope(boxes []BBox) BBox {
	if len(boxes) == 0 {
		return BBox{}
	}
	env := boxes[0]
	for _, b := range boxes[1:] {
		env = env.Union(b)
	}
	return env
}

// Screen describes the captured screen. A zero size means unknown.
type Screen struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Known reports whether both dimensions are positive
func (s Screen) Known() bool {
	return s.Width > 0 && s.Height > 0
}

// BBox returns the full-screen bounding box
func (s Screen) BBox() BBox {
	return BBox{Left: 0, Top: 0, Right: s.Width, Bottom: s.Height}
}
