// Package model provides the geometric primitives and component records that
// every stage of GUI layout reconstruction works on.
//
// # Geometry
//
// Coordinates are screen pixels with the origin in the top-left corner and Y
// growing downward:
//
//   - [BBox] - left, top, right, bottom with IoU, containment, union and
//     per-axis overlap calculations
//   - [Point] - 2D point with distance calculation
//   - [Axis] - [Horizontal] or [Vertical]
//   - [Screen] - the captured screen size
//
// # Components
//
// A [Component] is one detected region, either [ClassText] (OCR) or
// [ClassCompo] (non-text proposal). Components are created by the detection
// merger and never mutated afterwards:
//
//	c := model.Component{ID: 0, Class: model.ClassText, BBox: model.NewBBox(10, 10, 90, 30), Text: "Inbox"}
package model
