package export

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/uilayout/layout"
	"github.com/tsawler/uilayout/model"
)

// RenderHTML writes an HTML outline of the block tree. Blocks become
// sections, lists become ordered lists, clickable components become buttons
// and other components become paragraphs or divs. Every element carries its
// exported id and a data-bbox attribute.
func RenderHTML(w io.Writer, a *layout.Analysis) error {
	if a == nil {
		return fmt.Errorf("rendering HTML: no analysis")
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	title := element(atom.Title)
	title.AppendChild(text("Screen layout"))
	head.AppendChild(title)
	root.AppendChild(head)

	body := element(atom.Body,
		attr("data-width", formatCoord(a.Screen.Width)),
		attr("data-height", formatCoord(a.Screen.Height)),
	)
	root.AppendChild(body)

	r := &renderer{analysis: a}
	if a.Root != nil {
		body.AppendChild(r.block(a.Root))
	}

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}
	return nil
}

type renderer struct {
	analysis *layout.Analysis
}

func (r *renderer) block(b *layout.Block) *html.Node {
	attrs := []html.Attribute{
		attr("id", BlockPrefix+strconv.Itoa(b.ID)),
		attr("class", "block"),
		bboxAttr(b.BBox),
	}
	if b.GroupID != layout.NoID {
		attrs = append(attrs, attr("data-group-id", GroupPrefix+strconv.Itoa(b.GroupID)))
	}
	n := element(atom.Section, attrs...)

	for _, c := range b.Children {
		switch c.Kind {
		case layout.ChildComponent:
			n.AppendChild(r.component(c.ID))
		case layout.ChildList:
			n.AppendChild(r.list(c.ID))
		case layout.ChildBlock:
			n.AppendChild(r.block(c.Block))
		}
	}
	return n
}

func (r *renderer) list(id int) *html.Node {
	l, ok := r.analysis.List(id)
	if !ok {
		return &html.Node{Type: html.CommentNode, Data: " missing list " + strconv.Itoa(id) + " "}
	}

	n := element(atom.Ol,
		attr("id", ListPrefix+strconv.Itoa(l.ID)),
		attr("class", "list "+l.Alignment.String()),
		bboxAttr(l.BBox),
	)
	for _, item := range l.Items {
		attrs := []html.Attribute{bboxAttr(item.BBox)}
		if item.GroupID != layout.NoID {
			attrs = append(attrs, attr("data-group-id", GroupPrefix+strconv.Itoa(item.GroupID)))
		}
		li := element(atom.Li, attrs...)
		for _, m := range item.Members {
			li.AppendChild(r.component(m))
		}
		n.AppendChild(li)
	}
	return n
}

func (r *renderer) component(id int) *html.Node {
	rec, ok := r.analysis.Component(id)
	if !ok {
		return &html.Node{Type: html.CommentNode, Data: " missing component " + strconv.Itoa(id) + " "}
	}

	a := atom.Div
	switch {
	case rec.Clickable:
		a = atom.Button
	case rec.IsText():
		a = atom.P
	}

	class := "compo"
	if rec.IsText() {
		class = "text"
	}
	attrs := []html.Attribute{
		attr("id", ComponentPrefix+strconv.Itoa(rec.ID)),
		attr("class", class),
		bboxAttr(rec.BBox),
	}
	if rec.Label != "" {
		attrs = append(attrs, attr("data-label", rec.Label))
	}
	if rec.HasOwner() {
		attrs = append(attrs, attr("data-owner-id", ComponentPrefix+strconv.Itoa(rec.OwnerID)))
	}

	n := element(a, attrs...)
	if rec.Text != "" {
		n.AppendChild(text(rec.Text))
	}
	return n
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func bboxAttr(b model.BBox) html.Attribute {
	return attr("data-bbox", fmt.Sprintf("%s,%s,%s,%s",
		formatCoord(b.Left), formatCoord(b.Top), formatCoord(b.Right), formatCoord(b.Bottom)))
}
