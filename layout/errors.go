package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrDetectionEmpty is returned alongside a valid analysis whose root
	// block has no children because no component survived merging. Callers
	// may re-run detection or abandon the screen.
	ErrDetectionEmpty = errors.New("layout: no components survived detection")

	// ErrReassignmentConflict marks an annotation set twice with different
	// values. It always indicates a defect in the clustering stages.
	ErrReassignmentConflict = errors.New("layout: annotation reassigned")

	// ErrSparseIDs is returned when table components are not numbered 0..n-1
	ErrSparseIDs = errors.New("layout: component ids must equal their index")
)

// ReassignmentError describes a rejected write to a write-once annotation
type ReassignmentError struct {
	Field       string
	ComponentID int
	Current     int
	Requested   int
}

func (e *ReassignmentError) Error() string {
	return fmt.Sprintf("layout: %s of component %d is %d, cannot set %d",
		e.Field, e.ComponentID, e.Current, e.Requested)
}

// Unwrap returns ErrReassignmentConflict
func (e *ReassignmentError) Unwrap() error {
	return ErrReassignmentConflict
}

// WarningKind classifies a non-fatal finding
type WarningKind int

const (
	WarningDetectionEmpty WarningKind = iota
	WarningClusterAmbiguous
	WarningInvalidBoundingBox
)

// String returns a string representation of the warning kind
func (k WarningKind) String() string {
	switch k {
	case WarningDetectionEmpty:
		return "detection-empty"
	case WarningClusterAmbiguous:
		return "cluster-ambiguous"
	case WarningInvalidBoundingBox:
		return "invalid-bounding-box"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k WarningKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *WarningKind) UnmarshalText(text []byte) error {
	for _, kind := range []WarningKind{WarningDetectionEmpty, WarningClusterAmbiguous, WarningInvalidBoundingBox} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("layout: unknown warning kind %q", text)
}

// Warning is a finding that was absorbed without failing the analysis
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return w.Kind.String() + ": " + w.Message
}
