package layout

import (
	"fmt"
	"math"
	"sort"

	"github.com/tsawler/uilayout/model"
	"github.com/tsawler/uilayout/observability"
)

// GroupConfig holds configuration for group recognition
type GroupConfig struct {
	// RowGapFactor scales the median member size into the largest gap
	// between neighbours of a row (Horizontal) group. Default: 1.5
	RowGapFactor float64 `json:"row-gap-factor"`

	// ColumnGapFactor scales the median member size into the largest gap
	// between neighbours of a column (Vertical) group. Default: 1.0
	ColumnGapFactor float64 `json:"column-gap-factor"`

	// MinMembers is the minimum number of top-level members of a group.
	// Captions owned by another member do not count. Default: 2
	MinMembers int `json:"min-members"`

	// AmbiguityEpsilon is the largest difference between two gap coefficients
	// of variation that is still treated as a tie. Default: 1e-6
	AmbiguityEpsilon float64 `json:"ambiguity-epsilon"`
}

// DefaultGroupConfig returns sensible defaults for group recognition
func DefaultGroupConfig() GroupConfig {
	return GroupConfig{
		RowGapFactor:     1.5,
		ColumnGapFactor:  1.0,
		MinMembers:       2,
		AmbiguityEpsilon: 1e-6,
	}
}

// Group is a cluster of components aligned along one axis
type Group struct {
	ID int

	// Members are component ids ordered along the alignment axis
	Members []int

	// Alignment is Horizontal for a row and Vertical for a column
	Alignment model.Axis

	// Homogeneous is false when captions owned by members are included
	Homogeneous bool

	// BBox is the envelope of all members
	BBox model.BBox

	// GapCV is the coefficient of variation of the gaps between top-level
	// members; lower means more regular spacing
	GapCV float64
}

// Len returns the number of members
func (g Group) Len() int {
	return len(g.Members)
}

// Contains reports whether the component is a member
func (g Group) Contains(id int) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

func (g Group) minID() int {
	lo := math.MaxInt
	for _, m := range g.Members {
		if m < lo {
			lo = m
		}
	}
	return lo
}

// GroupLayout is the result of group recognition
type GroupLayout struct {
	// Groups are the accepted groups, numbered in reading order
	Groups []Group

	// Candidates is the number of clusters produced by both axis scans
	Candidates int

	// Ambiguous counts ties between overlapping row and column candidates
	Ambiguous int

	Warnings []Warning
}

// GroupRecognizer clusters components into row and column groups
type GroupRecognizer struct {
	config GroupConfig
	logger observability.Logger
}

// NewGroupRecognizer creates a recognizer with default configuration
func NewGroupRecognizer() *GroupRecognizer {
	return NewGroupRecognizerWithConfig(DefaultGroupConfig())
}

// NewGroupRecognizerWithConfig creates a recognizer with custom configuration
func NewGroupRecognizerWithConfig(config GroupConfig) *GroupRecognizer {
	return &GroupRecognizer{
		config: config,
		logger: observability.NopLogger{},
	}
}

// WithLogger sets the logger used to report ambiguous clusters
func (r *GroupRecognizer) WithLogger(l observability.Logger) *GroupRecognizer {
	r.logger = observability.OrNop(l)
	return r
}

// Recognize scans the table along both axes and keeps a non-overlapping set
// of groups. When a row and a column candidate share members, the one with
// the more regular spacing wins. The table is not annotated.
func (r *GroupRecognizer) Recognize(t *Table) *GroupLayout {
	result := &GroupLayout{}

	var candidates []Group
	for _, axis := range []model.Axis{model.Horizontal, model.Vertical} {
		candidates = append(candidates, r.cluster(t, axis)...)
	}
	result.Candidates = len(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.GapCV != b.GapCV {
			return a.GapCV < b.GapCV
		}
		if len(a.Members) != len(b.Members) {
			return len(a.Members) > len(b.Members)
		}
		if a.Alignment != b.Alignment {
			return a.Alignment < b.Alignment
		}
		return a.minID() < b.minID()
	})

	taken := make(map[int]bool)
	var accepted []Group
	for i, cand := range candidates {
		if anyTaken(cand.Members, taken) {
			continue
		}
		for _, rival := range candidates[i+1:] {
			if rival.Alignment == cand.Alignment || !shareMember(cand, rival) || anyTaken(rival.Members, taken) {
				continue
			}
			if math.Abs(rival.GapCV-cand.GapCV) <= r.config.AmbiguityEpsilon {
				result.Ambiguous++
				msg := fmt.Sprintf("%s cluster %v kept over %s cluster %v with equal spacing regularity",
					cand.Alignment, cand.Members, rival.Alignment, rival.Members)
				result.Warnings = append(result.Warnings, Warning{Kind: WarningClusterAmbiguous, Message: msg})
				r.logger.Info("cluster ambiguous",
					observability.String("kept", cand.Alignment.String()),
					observability.Int("first", cand.minID()),
					observability.Float("cv", cand.GapCV))
				break
			}
		}
		for _, m := range cand.Members {
			taken[m] = true
		}
		accepted = append(accepted, cand)
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		a, b := accepted[i].BBox, accepted[j].BBox
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		if a.Left != b.Left {
			return a.Left < b.Left
		}
		return accepted[i].minID() < accepted[j].minID()
	})
	for i := range accepted {
		accepted[i].ID = i
	}
	result.Groups = accepted

	r.logger.Debug("groups recognised",
		observability.Int("candidates", result.Candidates),
		observability.Int("groups", len(accepted)),
		observability.Int("ambiguous", result.Ambiguous))
	return result
}

// cluster runs the single-pass scan along one axis. Components are visited by
// their start coordinate and join the open cluster they fit best; a component
// fitting none opens a new cluster.
func (r *GroupRecognizer) cluster(t *Table, axis model.Axis) []Group {
	order := make([]int, t.Len())
	for i := range order {
		order[i] = i
	}
	cross := axis.Other()
	sort.SliceStable(order, func(i, j int) bool {
		a, b := t.BBox(order[i]), t.BBox(order[j])
		if a.Start(axis) != b.Start(axis) {
			return a.Start(axis) < b.Start(axis)
		}
		if a.Start(cross) != b.Start(cross) {
			return a.Start(cross) < b.Start(cross)
		}
		return order[i] < order[j]
	})

	var clusters [][]int
	for _, id := range order {
		best := -1
		bestGap := math.Inf(1)
		for k, members := range clusters {
			if gap, ok := r.fits(t, members, id, axis); ok && gap < bestGap {
				best, bestGap = k, gap
			}
		}
		if best < 0 {
			clusters = append(clusters, []int{id})
			continue
		}
		clusters[best] = append(clusters[best], id)
	}

	var groups []Group
	for _, members := range clusters {
		anchors, ok := r.anchors(t, members)
		if !ok || len(anchors) < r.config.MinMembers {
			continue
		}
		groups = append(groups, Group{
			Members:     members,
			Alignment:   axis,
			Homogeneous: len(anchors) == len(members),
			BBox:        t.Envelope(members),
			GapCV:       gapCV(t, anchors, axis),
		})
	}
	return groups
}

// fits reports whether id may join the cluster and returns its gap to the
// member it attaches to. A caption joins the cluster holding its owner.
// Anything else must line up with the last member of its own class, keep the
// size pattern and stay within the dynamic gap threshold.
func (r *GroupRecognizer) fits(t *Table, members []int, id int, axis model.Axis) (float64, bool) {
	c := t.Component(id)
	for _, m := range members {
		if t.Related(m, id) {
			return t.BBox(m).Gap(c.BBox, axis), true
		}
	}

	prev := NoID
	var sizes []float64
	for _, m := range members {
		if t.Component(m).Class == c.Class {
			prev = m
			sizes = append(sizes, t.BBox(m).ShortSide())
		}
	}
	if prev == NoID || !t.SameLine(prev, id, axis) {
		return 0, false
	}
	if c.Class == model.ClassText {
		if !t.SimilarHeight(prev, id) {
			return 0, false
		}
	} else if !t.SimilarSize(prev, id) {
		return 0, false
	}

	sizes = append(sizes, c.BBox.ShortSide())
	gap := t.BBox(prev).Gap(c.BBox, axis)
	if gap > r.gapFactor(axis)*median(sizes) {
		return 0, false
	}
	return gap, true
}

// anchors returns the members not owned by another member. A cluster whose
// anchors mix Text and Compo is rejected.
func (r *GroupRecognizer) anchors(t *Table, members []int) ([]int, bool) {
	in := make(map[int]bool, len(members))
	for _, m := range members {
		in[m] = true
	}
	var anchors []int
	for _, m := range members {
		c := t.Component(m)
		if c.HasOwner() && in[c.OwnerID] {
			continue
		}
		if len(anchors) > 0 && t.Component(anchors[0]).Class != c.Class {
			return nil, false
		}
		anchors = append(anchors, m)
	}
	return anchors, true
}

func (r *GroupRecognizer) gapFactor(axis model.Axis) float64 {
	if axis == model.Horizontal {
		return r.config.RowGapFactor
	}
	return r.config.ColumnGapFactor
}

// gapCV returns the coefficient of variation of the gaps between consecutive
// members. Gaps are pixels, so a mean below one pixel is clamped to one.
func gapCV(t *Table, members []int, axis model.Axis) float64 {
	if len(members) < 3 {
		return 0
	}
	gaps := make([]float64, len(members)-1)
	for i := 1; i < len(members); i++ {
		gaps[i-1] = t.BBox(members[i]).Start(axis) - t.BBox(members[i-1]).End(axis)
	}
	return coefficientOfVariation(gaps)
}

func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(values)))
	return std / math.Max(mean, 1)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func anyTaken(members []int, taken map[int]bool) bool {
	for _, m := range members {
		if taken[m] {
			return true
		}
	}
	return false
}

func shareMember(a, b Group) bool {
	for _, m := range a.Members {
		if b.Contains(m) {
			return true
		}
	}
	return false
}
