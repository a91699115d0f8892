package layout

import (
	"math"
	"sort"

	"github.com/tsawler/uilayout/model"
)

// PairConfig holds configuration for pairing repeated groups into lists
type PairConfig struct {
	// PositionTolerance is the largest difference between two relative
	// coordinates (fractions of the group envelope) of matching fingerprint
	// entries. Default: 0.1
	PositionTolerance float64 `json:"position-tolerance"`

	// AlignRatio is the minimum overlap of two envelopes across the stacking
	// axis for them to be aligned. Default: 0.5
	AlignRatio float64 `json:"align-ratio"`

	// AdjacencyFactor bounds the gap between two congruent envelopes, as a
	// multiple of the larger envelope extent along the stacking axis.
	// Default: 2.0
	AdjacencyFactor float64 `json:"adjacency-factor"`

	// MinStandaloneMembers is the minimum number of top-level members of a
	// group that joined no list to survive on its own. Default: 3
	MinStandaloneMembers int `json:"min-standalone-members"`

	// MaxStandaloneGapCV is the largest gap coefficient of variation of a
	// group that joined no list to survive on its own. Default: 0.5
	MaxStandaloneGapCV float64 `json:"max-standalone-gap-cv"`

	// CompleteItems absorbs standalone components sitting at the same offset
	// next to every item of a list. Default: true
	CompleteItems bool `json:"complete-items"`

	// CompletionGapFactor bounds the distance between a completing component
	// and its item, as a multiple of the item's shorter side. Default: 1.0
	CompletionGapFactor float64 `json:"completion-gap-factor"`

	// PromoteGroups turns every surviving standalone group into a list whose
	// items are its members. Default: false
	PromoteGroups bool `json:"promote-groups"`

	// MergeParallelGroups spreads a group that runs alongside a list, one
	// member next to each item, over the items of that list. Default: true
	MergeParallelGroups bool `json:"merge-parallel-groups"`

	// PairContainers turns repeated containers whose owned components are laid
	// out alike into lists. Default: true
	PairContainers bool `json:"pair-containers"`

	// MinContainerChildren is the number of owned components that makes a
	// compo a container. Default: 2
	MinContainerChildren int `json:"min-container-children"`
}

// DefaultPairConfig returns sensible defaults for pair recognition
func DefaultPairConfig() PairConfig {
	return PairConfig{
		PositionTolerance:    0.1,
		AlignRatio:           0.5,
		AdjacencyFactor:      2.0,
		MinStandaloneMembers: 3,
		MaxStandaloneGapCV:   0.5,
		CompleteItems:        true,
		CompletionGapFactor:  1.0,
		PromoteGroups:        false,
		MergeParallelGroups:  true,
		PairContainers:       true,
		MinContainerChildren: 2,
	}
}

// MemberPrint is one fingerprint entry. Coordinates are fractions of the
// group envelope.
type MemberPrint struct {
	Class model.Class
	X, Y  float64
	W, H  float64
}

// Fingerprint is the normalised structure of a group
type Fingerprint struct {
	Alignment model.Axis
	Members   []MemberPrint
}

// Matches reports whether the fingerprints agree entry by entry within tol.
// The width of Text entries is ignored because it follows the text length.
func (f Fingerprint) Matches(other Fingerprint, tol float64) bool {
	if f.Alignment != other.Alignment || len(f.Members) != len(other.Members) {
		return false
	}
	for i, a := range f.Members {
		b := other.Members[i]
		if a.Class != b.Class {
			return false
		}
		if math.Abs(a.X-b.X) > tol || math.Abs(a.Y-b.Y) > tol || math.Abs(a.H-b.H) > tol {
			return false
		}
		if a.Class != model.ClassText && math.Abs(a.W-b.W) > tol {
			return false
		}
	}
	return true
}

// ListItem is one repeated unit of a list
type ListItem struct {
	// GroupID is the group the item was built from, or NoID for an item made
	// of a single component
	GroupID int

	// Members are the component ids of the item
	Members []int

	BBox model.BBox
}

// List is a sequence of congruent items
type List struct {
	ID          int
	Items       []ListItem
	Alignment   model.Axis
	Fingerprint Fingerprint
	BBox        model.BBox
}

// Len returns the number of items
func (l List) Len() int {
	return len(l.Items)
}

// Members returns the component ids of all items in item order
func (l List) Members() []int {
	var ids []int
	for _, item := range l.Items {
		ids = append(ids, item.Members...)
	}
	return ids
}

// PairLayout is the result of pair recognition
type PairLayout struct {
	Lists []List

	// Groups are the groups that joined no list and passed validation
	Groups []Group

	// Dissolved are the ids of groups released back into components
	Dissolved []int

	// Merged are the ids of groups spread over the items of a list
	Merged []int

	// Pairs maps a group id to the ids of the groups congruent with it
	Pairs map[int][]int
}

// PairRecognizer merges congruent groups into lists and dissolves the groups
// that cannot stand on their own
type PairRecognizer struct {
	config PairConfig
}

// NewPairRecognizer creates a recognizer with default configuration
func NewPairRecognizer() *PairRecognizer {
	return NewPairRecognizerWithConfig(DefaultPairConfig())
}

// NewPairRecognizerWithConfig creates a recognizer with custom configuration
func NewPairRecognizerWithConfig(config PairConfig) *PairRecognizer {
	return &PairRecognizer{config: config}
}

// Fingerprint computes the structural signature of a group
func (r *PairRecognizer) Fingerprint(t *Table, g Group) Fingerprint {
	env := g.BBox
	w, h := math.Max(env.Width(), 1), math.Max(env.Height(), 1)
	fp := Fingerprint{Alignment: g.Alignment, Members: make([]MemberPrint, len(g.Members))}
	for i, id := range g.Members {
		b := t.BBox(id)
		fp.Members[i] = MemberPrint{
			Class: t.Component(id).Class,
			X:     (b.Left - env.Left) / w,
			Y:     (b.Top - env.Top) / h,
			W:     b.Width() / w,
			H:     b.Height() / h,
		}
	}
	return fp
}

// Congruent reports whether two distinct groups have matching fingerprints and
// adjacent, aligned envelopes. The relation is symmetric.
func (r *PairRecognizer) Congruent(t *Table, a, b Group) bool {
	if a.ID == b.ID || a.Alignment != b.Alignment || a.Len() != b.Len() {
		return false
	}
	if _, ok := r.stacking(a.BBox, b.BBox); !ok {
		return false
	}
	return r.Fingerprint(t, a).Matches(r.Fingerprint(t, b), r.config.PositionTolerance)
}

// stacking returns the axis along which two envelopes follow each other, and
// whether they are close enough to be neighbours on it
func (r *PairRecognizer) stacking(a, b model.BBox) (model.Axis, bool) {
	var axis model.Axis
	switch {
	case a.HorizontalOverlapRatio(b) >= r.config.AlignRatio:
		axis = model.Vertical
	case a.VerticalOverlapRatio(b) >= r.config.AlignRatio:
		axis = model.Horizontal
	default:
		return axis, false
	}
	gap := a.Gap(b, axis)
	if gap < 0 {
		return axis, false
	}
	limit := r.config.AdjacencyFactor * math.Max(a.Extent(axis), b.Extent(axis))
	return axis, gap <= limit
}

// Recognize pairs the groups, validates the rest and annotates the table with
// group and list ids. An error is returned only when an annotation conflicts,
// which indicates overlapping groups were passed in.
func (r *PairRecognizer) Recognize(t *Table, groups []Group) (*PairLayout, error) {
	result := &PairLayout{Pairs: make(map[int][]int)}

	// containers paired as lists take precedence over any group touching them
	result.Lists = r.containerLists(t)
	if len(result.Lists) > 0 {
		taken := make(map[int]bool)
		for _, l := range result.Lists {
			for _, id := range l.Members() {
				taken[id] = true
			}
		}
		pairable := make([]Group, 0, len(groups))
		for _, g := range groups {
			if anyTaken(g.Members, taken) {
				result.Dissolved = append(result.Dissolved, g.ID)
				continue
			}
			pairable = append(pairable, g)
		}
		groups = pairable
	}

	uf := newUnionFind(len(groups))
	for i := range groups {
		for j := i + 1; j < len(groups); j++ {
			if !r.Congruent(t, groups[i], groups[j]) {
				continue
			}
			uf.union(i, j)
			result.Pairs[groups[i].ID] = append(result.Pairs[groups[i].ID], groups[j].ID)
			result.Pairs[groups[j].ID] = append(result.Pairs[groups[j].ID], groups[i].ID)
		}
	}
	for id := range result.Pairs {
		sort.Ints(result.Pairs[id])
	}

	classes := make(map[int][]int)
	var roots []int
	for i := range groups {
		root := uf.find(i)
		if _, seen := classes[root]; !seen {
			roots = append(roots, root)
		}
		classes[root] = append(classes[root], i)
	}

	var singles []Group
	for _, root := range roots {
		class := classes[root]
		if len(class) < 2 {
			singles = append(singles, groups[class[0]])
			continue
		}
		result.Lists = append(result.Lists, r.buildList(t, groups, class))
	}

	var standalone []Group
	for _, g := range singles {
		if r.config.MergeParallelGroups && r.mergeParallel(t, result.Lists, g) {
			result.Merged = append(result.Merged, g.ID)
			continue
		}
		if topLevel(t, g) >= r.config.MinStandaloneMembers && g.GapCV <= r.config.MaxStandaloneGapCV {
			standalone = append(standalone, g)
		} else {
			result.Dissolved = append(result.Dissolved, g.ID)
		}
	}

	for _, g := range standalone {
		for _, m := range g.Members {
			if err := t.SetGroup(m, g.ID); err != nil {
				return nil, err
			}
		}
		if r.config.PromoteGroups {
			result.Lists = append(result.Lists, r.promote(t, g))
			continue
		}
		result.Groups = append(result.Groups, g)
	}

	sort.SliceStable(result.Lists, func(i, j int) bool {
		a, b := result.Lists[i].BBox, result.Lists[j].BBox
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		return a.Left < b.Left
	})

	if r.config.CompleteItems {
		free := make(map[int]bool, t.Len())
		for id := 0; id < t.Len(); id++ {
			free[id] = true
		}
		for _, l := range result.Lists {
			for _, id := range l.Members() {
				free[id] = false
			}
		}
		for _, g := range result.Groups {
			for _, id := range g.Members {
				free[id] = false
			}
		}
		for i := range result.Lists {
			r.complete(t, &result.Lists[i], free)
		}
	}

	byID := make(map[int]Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	for i := range result.Lists {
		l := &result.Lists[i]
		l.ID = i
		for _, item := range l.Items {
			if g, ok := byID[item.GroupID]; ok {
				for _, m := range g.Members {
					if err := t.SetGroup(m, g.ID); err != nil {
						return nil, err
					}
				}
			}
			for _, m := range item.Members {
				if err := t.SetList(m, l.ID); err != nil {
					return nil, err
				}
			}
		}
	}
	return result, nil
}

// buildList orders the congruent groups along the axis they spread on
func (r *PairRecognizer) buildList(t *Table, groups []Group, class []int) List {
	members := make([]Group, len(class))
	for i, idx := range class {
		members[i] = groups[idx]
	}

	axis := spreadAxis(members)
	cross := axis.Other()
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i].BBox, members[j].BBox
		if a.Start(axis) != b.Start(axis) {
			return a.Start(axis) < b.Start(axis)
		}
		return a.Start(cross) < b.Start(cross)
	})

	l := List{
		Alignment:   axis,
		Fingerprint: r.Fingerprint(t, members[0]),
		Items:       make([]ListItem, len(members)),
	}
	boxes := make([]model.BBox, len(members))
	for i, g := range members {
		l.Items[i] = ListItem{
			GroupID: g.ID,
			Members: append([]int(nil), g.Members...),
			BBox:    g.BBox,
		}
		boxes[i] = g.BBox
	}
	l.BBox = model.Envelope(boxes)
	return l
}

// promote turns a validated group into a list of single-component items.
// Captions owned by a member stay in their owner's item.
func (r *PairRecognizer) promote(t *Table, g Group) List {
	l := List{
		Alignment:   g.Alignment,
		Fingerprint: r.Fingerprint(t, g),
		BBox:        g.BBox,
	}
	index := make(map[int]int)
	for _, id := range g.Members {
		c := t.Component(id)
		if c.HasOwner() && g.Contains(c.OwnerID) {
			continue
		}
		index[id] = len(l.Items)
		l.Items = append(l.Items, ListItem{GroupID: NoID, Members: []int{id}, BBox: c.BBox})
	}
	for _, id := range g.Members {
		c := t.Component(id)
		k, ok := index[c.OwnerID]
		if !c.HasOwner() || !ok {
			continue
		}
		item := &l.Items[k]
		item.Members = append(item.Members, id)
		item.BBox = item.BBox.Union(c.BBox)
	}
	return l
}

// complete absorbs free components found at a consistent offset next to
// every item of the list. Offsets are measured against the item boxes as they
// were before completion started.
func (r *PairRecognizer) complete(t *Table, l *List, free map[int]bool) {
	if len(l.Items) < 2 {
		return
	}
	base := make([]model.BBox, len(l.Items))
	for i, item := range l.Items {
		base[i] = item.BBox
	}
	limit := r.config.CompletionGapFactor * base[0].ShortSide()
	tol := r.config.PositionTolerance

	candidates := make([]int, 0, len(free))
	for id := 0; id < t.Len(); id++ {
		if free[id] {
			candidates = append(candidates, id)
		}
	}

	for _, c := range candidates {
		if !free[c] {
			continue
		}
		cb := t.BBox(c)
		if math.Max(base[0].Gap(cb, model.Horizontal), base[0].Gap(cb, model.Vertical)) > limit {
			continue
		}
		dx, dy := cb.Left-base[0].Left, cb.Top-base[0].Top

		picks := []int{c}
		for k := 1; k < len(base); k++ {
			match := NoID
			for _, o := range candidates {
				if !free[o] || containsInt(picks, o) || !r.alike(t, c, o) {
					continue
				}
				ob := t.BBox(o)
				if math.Abs(ob.Left-base[k].Left-dx) <= tol*base[k].Width() &&
					math.Abs(ob.Top-base[k].Top-dy) <= tol*base[k].Height() {
					match = o
					break
				}
			}
			if match == NoID {
				picks = nil
				break
			}
			picks = append(picks, match)
		}

		for k, p := range picks {
			item := &l.Items[k]
			item.Members = append(item.Members, p)
			item.BBox = item.BBox.Union(t.BBox(p))
			free[p] = false
		}
	}

	boxes := make([]model.BBox, len(l.Items))
	for i, item := range l.Items {
		boxes[i] = item.BBox
	}
	l.BBox = model.Envelope(boxes)
}

// mergeParallel spreads g over the first list it runs alongside: the list
// and g share an alignment, g has one top-level member per item, and every
// member sits at the same offset from its item. Captions follow their owner.
func (r *PairRecognizer) mergeParallel(t *Table, lists []List, g Group) bool {
	var anchors, captions []int
	for _, id := range g.Members {
		c := t.Component(id)
		if c.HasOwner() && g.Contains(c.OwnerID) {
			captions = append(captions, id)
			continue
		}
		anchors = append(anchors, id)
	}

	for i := range lists {
		l := &lists[i]
		if l.Alignment != g.Alignment || len(l.Items) < 2 || len(anchors) != len(l.Items) {
			continue
		}
		order := append([]int(nil), anchors...)
		axis, cross := l.Alignment, l.Alignment.Other()
		sort.SliceStable(order, func(a, b int) bool {
			ba, bb := t.BBox(order[a]), t.BBox(order[b])
			if ba.Start(axis) != bb.Start(axis) {
				return ba.Start(axis) < bb.Start(axis)
			}
			return ba.Start(cross) < bb.Start(cross)
		})
		if !r.parallel(t, l, order) {
			continue
		}

		slot := make(map[int]int, len(order))
		for k, id := range order {
			slot[id] = k
		}
		for k, id := range order {
			item := &l.Items[k]
			item.Members = append(item.Members, id)
			item.BBox = item.BBox.Union(t.BBox(id))
		}
		for _, id := range captions {
			item := &l.Items[slot[t.Component(id).OwnerID]]
			item.Members = append(item.Members, id)
			item.BBox = item.BBox.Union(t.BBox(id))
		}

		boxes := make([]model.BBox, len(l.Items))
		for k, item := range l.Items {
			boxes[k] = item.BBox
		}
		l.BBox = model.Envelope(boxes)
		return true
	}
	return false
}

// parallel reports whether order[k] sits next to item k at one common offset
func (r *PairRecognizer) parallel(t *Table, l *List, order []int) bool {
	first, fb := l.Items[0].BBox, t.BBox(order[0])
	limit := r.config.CompletionGapFactor * first.ShortSide()
	if math.Max(first.Gap(fb, model.Horizontal), first.Gap(fb, model.Vertical)) > limit {
		return false
	}
	dx, dy := fb.Left-first.Left, fb.Top-first.Top
	tol := r.config.PositionTolerance
	for k := 1; k < len(order); k++ {
		ib, mb := l.Items[k].BBox, t.BBox(order[k])
		if math.Abs(mb.Left-ib.Left-dx) > tol*ib.Width() || math.Abs(mb.Top-ib.Top-dy) > tol*ib.Height() {
			return false
		}
		if !r.alike(t, order[0], order[k]) {
			return false
		}
	}
	return true
}

// containerLists pairs containers, compos owning at least
// MinContainerChildren components, into lists. Two containers are congruent
// when they are similar in size, adjacent and aligned, and their owned
// components sit at the same relative positions.
func (r *PairRecognizer) containerLists(t *Table) []List {
	if !r.config.PairContainers {
		return nil
	}
	children := make(map[int][]int)
	for id := 0; id < t.Len(); id++ {
		if c := t.Component(id); c.HasOwner() {
			children[c.OwnerID] = append(children[c.OwnerID], id)
		}
	}

	var boxes []Group
	for id := 0; id < t.Len(); id++ {
		c := t.Component(id)
		if c.Class != model.ClassCompo || c.HasOwner() || len(children[id]) < r.config.MinContainerChildren {
			continue
		}
		boxes = append(boxes, containerGroup(t, id, children[id]))
	}
	if len(boxes) < 2 {
		return nil
	}

	uf := newUnionFind(len(boxes))
	for i := range boxes {
		for j := i + 1; j < len(boxes); j++ {
			if r.containersCongruent(t, boxes[i], boxes[j]) {
				uf.union(i, j)
			}
		}
	}

	classes := make(map[int][]int)
	var roots []int
	for i := range boxes {
		root := uf.find(i)
		if _, seen := classes[root]; !seen {
			roots = append(roots, root)
		}
		classes[root] = append(classes[root], i)
	}

	var lists []List
	for _, root := range roots {
		if class := classes[root]; len(class) >= 2 {
			lists = append(lists, r.buildList(t, boxes, class))
		}
	}
	return lists
}

// containerGroup wraps a container and its owned components. The container
// comes first and the owned components follow in reading order.
func containerGroup(t *Table, id int, owned []int) Group {
	kids := append([]int(nil), owned...)
	sort.SliceStable(kids, func(i, j int) bool {
		a, b := t.BBox(kids[i]), t.BBox(kids[j])
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		return a.Left < b.Left
	})
	members := append([]int{id}, kids...)
	return Group{
		ID:        NoID,
		Members:   members,
		Alignment: model.Vertical,
		BBox:      t.Envelope(members),
	}
}

func (r *PairRecognizer) containersCongruent(t *Table, a, b Group) bool {
	if a.Len() != b.Len() || !t.SimilarSize(a.Members[0], b.Members[0]) {
		return false
	}
	if _, ok := r.stacking(a.BBox, b.BBox); !ok {
		return false
	}
	return r.Fingerprint(t, a).Matches(r.Fingerprint(t, b), r.config.PositionTolerance)
}

// alike reports whether two components could play the same part in two items
func (r *PairRecognizer) alike(t *Table, a, b int) bool {
	ca, cb := t.Component(a), t.Component(b)
	if ca.Class != cb.Class {
		return false
	}
	if ca.Class == model.ClassText {
		return t.SimilarHeight(a, b)
	}
	return t.SimilarSize(a, b)
}

// spreadAxis returns Vertical when the envelopes spread more from top to
// bottom than from left to right
func spreadAxis(groups []Group) model.Axis {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, g := range groups {
		c := g.BBox.Center()
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
		minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
	}
	if maxY-minY >= maxX-minX {
		return model.Vertical
	}
	return model.Horizontal
}

// topLevel counts the members not owned by another member
func topLevel(t *Table, g Group) int {
	n := 0
	for _, id := range g.Members {
		c := t.Component(id)
		if c.HasOwner() && g.Contains(c.OwnerID) {
			continue
		}
		n++
	}
	return n
}

func containsInt(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union keeps the smaller index as root so classes are listed in input order
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
