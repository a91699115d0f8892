package model

import (
	"fmt"
	"strings"
)

// Class is the coarse visual class of a detected component
type Class int

const (
	// ClassText is a region recognised by OCR
	ClassText Class = iota
	// ClassCompo is a non-text region proposal (icon, image, button, input...)
	ClassCompo
)

// String returns a string representation of the class
func (c Class) String() string {
	switch c {
	case ClassText:
		return "Text"
	case ClassCompo:
		return "Compo"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Class) UnmarshalText(b []byte) error {
	parsed, err := ParseClass(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClass parses "Text" or "Compo" (case-insensitive)
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return ClassText, nil
	case "compo", "component", "non-text":
		return ClassCompo, nil
	}
	return ClassCompo, fmt.Errorf("unknown component class %q", s)
}

// NoOwner is the OwnerID of a component that is not held by a container
const NoOwner = -1

// Component is one detected, classified region of the screen. Components are
// immutable values; grouping annotations live in the layout table.
type Component struct {
	// ID is assigned at merge time in top-to-bottom, left-to-right order
	ID int

	// Class is Text or Compo
	Class Class

	// BBox is the region in screen pixels
	BBox BBox

	// Text is the recognised content (Text components only)
	Text string

	// Label is the collaborator-provided label of a Compo (e.g. "Icon", "Button")
	Label string

	// Clickable marks a Compo that is interactive as a whole
	Clickable bool

	// OwnerID references the Compo that contains this component, or NoOwner
	OwnerID int
}

// HasOwner reports whether the component is held by a container Compo
func (c Component) HasOwner() bool {
	return c.OwnerID != NoOwner
}

// IsText reports whether the component is a Text component
func (c Component) IsText() bool {
	return c.Class == ClassText
}

// String returns a compact description used in logs and test failures
func (c Component) String() string {
	return fmt.Sprintf("%s#%d[%.0f,%.0f,%.0f,%.0f]", c.Class, c.ID,
		c.BBox.Left, c.BBox.Top, c.BBox.Right, c.BBox.Bottom)
}
