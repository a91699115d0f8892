package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tsawler/uilayout/detection"
	"github.com/tsawler/uilayout/layout"
	"github.com/tsawler/uilayout/model"
)

// Identifier prefixes
const (
	ComponentPrefix = "c-"
	GroupPrefix     = "g-"
	ListPrefix      = "l-"
	BlockPrefix     = "b-"
)

// Box is a bounding box in screen pixels
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// BBox converts the box back to model geometry
func (b Box) BBox() model.BBox {
	return model.NewBBox(b.Left, b.Top, b.Right, b.Bottom)
}

func newBox(b model.BBox) Box {
	return Box{Left: b.Left, Top: b.Top, Right: b.Right, Bottom: b.Bottom}
}

// Size is the screen size; zero when unknown
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Component is one entry of the flat component list
type Component struct {
	ID        string `json:"id"`
	Class     string `json:"class"`
	BBox      Box    `json:"bbox"`
	Text      string `json:"text,omitempty"`
	Label     string `json:"label,omitempty"`
	Clickable bool   `json:"clickable,omitempty"`
	OwnerID   string `json:"owner-id,omitempty"`
	GroupID   string `json:"group-id,omitempty"`
	ListID    string `json:"list-id,omitempty"`
}

// Group is a standalone row or column of components
type Group struct {
	ID          string   `json:"id"`
	Alignment   string   `json:"alignment"`
	Homogeneous bool     `json:"homogeneous"`
	BBox        Box      `json:"bbox"`
	Members     []string `json:"members"`
}

// ListItem is one repetition of a list
type ListItem struct {
	GroupID string   `json:"group-id,omitempty"`
	BBox    Box      `json:"bbox"`
	Members []string `json:"members"`
}

// List is a sequence of congruent items
type List struct {
	ID        string     `json:"id"`
	Alignment string     `json:"alignment"`
	BBox      Box        `json:"bbox"`
	Items     []ListItem `json:"items"`
}

// Node is a block of the layout tree
type Node struct {
	ID       string  `json:"id"`
	BBox     Box     `json:"bbox"`
	GroupID  string  `json:"group-id,omitempty"`
	Children []Child `json:"children"`
}

// Child is exactly one of a component reference, a list reference or a
// nested block
type Child struct {
	ComponentID string `json:"component-id,omitempty"`
	ListID      string `json:"list-id,omitempty"`
	Block       *Node  `json:"block,omitempty"`
}

// Document is the exported form of an analysis
type Document struct {
	Screen     Size             `json:"screen"`
	Components []Component      `json:"components"`
	Groups     []Group          `json:"groups,omitempty"`
	Lists      []List           `json:"lists,omitempty"`
	Root       *Node            `json:"root"`
	Stats      *detection.Stats `json:"stats,omitempty"`
	Warnings   []layout.Warning `json:"warnings,omitempty"`
}

// NewDocument converts an analysis. A nil analysis yields an empty document
// with no root.
func NewDocument(a *layout.Analysis) Document {
	doc := Document{Components: []Component{}}
	if a == nil {
		return doc
	}

	doc.Screen = Size{Width: a.Screen.Width, Height: a.Screen.Height}
	for _, rec := range a.Components {
		doc.Components = append(doc.Components, newComponent(rec))
	}
	for _, g := range a.Groups {
		doc.Groups = append(doc.Groups, Group{
			ID:          GroupPrefix + strconv.Itoa(g.ID),
			Alignment:   g.Alignment.String(),
			Homogeneous: g.Homogeneous,
			BBox:        newBox(g.BBox),
			Members:     componentIDs(g.Members),
		})
	}
	for _, l := range a.Lists {
		doc.Lists = append(doc.Lists, newList(l))
	}
	if a.Root != nil {
		doc.Root = newNode(a.Root)
	}

	stats := a.Stats
	doc.Stats = &stats
	doc.Warnings = a.Warnings
	return doc
}

func newComponent(rec layout.ComponentRecord) Component {
	c := Component{
		ID:        ComponentPrefix + strconv.Itoa(rec.ID),
		Class:     rec.Class.String(),
		BBox:      newBox(rec.BBox),
		Text:      rec.Text,
		Label:     rec.Label,
		Clickable: rec.Clickable,
	}
	if rec.HasOwner() {
		c.OwnerID = ComponentPrefix + strconv.Itoa(rec.OwnerID)
	}
	if rec.GroupID != layout.NoID {
		c.GroupID = GroupPrefix + strconv.Itoa(rec.GroupID)
	}
	if rec.ListID != layout.NoID {
		c.ListID = ListPrefix + strconv.Itoa(rec.ListID)
	}
	return c
}

func newList(l layout.List) List {
	out := List{
		ID:        ListPrefix + strconv.Itoa(l.ID),
		Alignment: l.Alignment.String(),
		BBox:      newBox(l.BBox),
		Items:     make([]ListItem, 0, len(l.Items)),
	}
	for _, item := range l.Items {
		li := ListItem{BBox: newBox(item.BBox), Members: componentIDs(item.Members)}
		if item.GroupID != layout.NoID {
			li.GroupID = GroupPrefix + strconv.Itoa(item.GroupID)
		}
		out.Items = append(out.Items, li)
	}
	return out
}

func newNode(b *layout.Block) *Node {
	n := &Node{
		ID:       BlockPrefix + strconv.Itoa(b.ID),
		BBox:     newBox(b.BBox),
		Children: make([]Child, 0, len(b.Children)),
	}
	if b.GroupID != layout.NoID {
		n.GroupID = GroupPrefix + strconv.Itoa(b.GroupID)
	}
	for _, c := range b.Children {
		switch c.Kind {
		case layout.ChildComponent:
			n.Children = append(n.Children, Child{ComponentID: ComponentPrefix + strconv.Itoa(c.ID)})
		case layout.ChildList:
			n.Children = append(n.Children, Child{ListID: ListPrefix + strconv.Itoa(c.ID)})
		case layout.ChildBlock:
			n.Children = append(n.Children, Child{Block: newNode(c.Block)})
		}
	}
	return n
}

func componentIDs(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = ComponentPrefix + strconv.Itoa(id)
	}
	return out
}

// Walk visits the node and its nested blocks in pre-order
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		if c.Block != nil {
			c.Block.Walk(fn)
		}
	}
}

// Find returns the block with the given id, or nil
func (d *Document) Find(id string) *Node {
	if d.Root == nil {
		return nil
	}
	var found *Node
	d.Root.Walk(func(n *Node) {
		if found == nil && n.ID == id {
			found = n
		}
	})
	return found
}

// Component returns the component with the given id
func (d *Document) Component(id string) (Component, bool) {
	n, err := ParseID(id, ComponentPrefix)
	if err != nil || n >= len(d.Components) {
		return Component{}, false
	}
	return d.Components[n], true
}

// ParseID returns the number of a prefixed identifier such as "c-12"
func ParseID(id, prefix string) (int, error) {
	if !strings.HasPrefix(id, prefix) {
		return 0, fmt.Errorf("identifier %q does not start with %q", id, prefix)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid identifier %q", id)
	}
	return n, nil
}

// WriteJSON writes the document as a single JSON value
func WriteJSON(w io.Writer, doc Document, indent bool) error {
	encoder := json.NewEncoder(w)
	if indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}

// DecodeDocument reads a document written by WriteJSON
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}
