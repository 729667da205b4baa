// Package htmltree adapts a parsed static HTML document to census.Node.
//
// Without a layout engine, computed style is approximated from what the
// markup itself says:
//   - display comes from the element's default (head, script, style and
//     the like are not rendered), the hidden attribute, and an inline
//     display declaration;
//   - visibility inherits from the parent unless declared inline;
//   - opacity is the inline value and does not inherit;
//   - descendants of a display:none element get an empty rectangle;
//   - every other element gets a 1x1 rectangle at the origin, resized by
//     inline px width/height and moved by inline px top/left when
//     absolutely or fixed positioned.
package htmltree

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domcensus/census"
)

// inherited is the style state a node receives from its ancestors.
type inherited struct {
	visibility string
	collapsed  bool // an ancestor has display:none
}

var rootInherited = inherited{visibility: "visible"}

// Node is a census.Node over an *html.Node.
type Node struct {
	n   *html.Node
	inh inherited
	box census.Box
}

var _ census.Node = (*Node)(nil)

// Wrap adapts n. The inherited style state is rebuilt from n's ancestors,
// so any node of a parsed document can serve as a census root.
func Wrap(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	var chain []*html.Node
	for p := n.Parent; p != nil; p = p.Parent {
		chain = append(chain, p)
	}
	inh := rootInherited
	for i := len(chain) - 1; i >= 0; i-- {
		inh = wrap(chain[i], inh).childInherited()
	}
	return wrap(n, inh)
}

func wrap(n *html.Node, inh inherited) *Node {
	w := &Node{n: n, inh: inh}
	if n.Type == html.ElementNode {
		w.box = computeBox(n, inh)
	}
	return w
}

func (w *Node) childInherited() inherited {
	if w.n.Type != html.ElementNode {
		return w.inh
	}
	return inherited{
		visibility: w.box.Visibility,
		collapsed:  w.inh.collapsed || w.box.Display == "none",
	}
}

// HTML returns the underlying node.
func (w *Node) HTML() *html.Node { return w.n }

func (w *Node) Kind() census.Kind {
	switch w.n.Type {
	case html.ElementNode:
		return census.KindElement
	case html.TextNode, html.RawNode:
		return census.KindText
	case html.CommentNode:
		return census.KindComment
	case html.DocumentNode:
		return census.KindDocument
	case html.DoctypeNode:
		return census.KindDoctype
	}
	return 0
}

// Name follows the DOM: HTML elements report an upper-case tagName, foreign
// elements (svg, math) keep their case.
func (w *Node) Name() string {
	switch w.n.Type {
	case html.ElementNode:
		if w.n.Namespace == "" {
			return strings.ToUpper(w.n.Data)
		}
		return w.n.Data
	case html.TextNode, html.RawNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	case html.DocumentNode:
		return "#document"
	case html.DoctypeNode:
		return w.n.Data
	}
	return ""
}

func (w *Node) Children() []census.Node {
	var out []census.Node
	inh := w.childInherited()
	for c := w.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ErrorNode {
			continue
		}
		out = append(out, wrap(c, inh))
	}
	return out
}

func (w *Node) Box() (census.Box, bool) {
	if w.n.Type != html.ElementNode {
		return census.Box{}, false
	}
	return w.box, true
}

func (w *Node) ID() string {
	if w.n.Type != html.ElementNode {
		return ""
	}
	return attr(w.n, "id")
}

func (w *Node) Classes() []string {
	if w.n.Type != html.ElementNode {
		return nil
	}
	return strings.Fields(attr(w.n, "class"))
}

func computeBox(n *html.Node, inh inherited) census.Box {
	decls := declarations(attr(n, "style"))

	b := census.Box{
		Display:    defaultDisplay(n),
		Visibility: inh.visibility,
		Opacity:    "1",
	}
	if v, ok := decls["display"]; ok {
		b.Display = v
	}
	switch v := decls["visibility"]; v {
	case "visible", "hidden", "collapse":
		b.Visibility = v
	}
	if v, ok := decls["opacity"]; ok {
		b.Opacity = normaliseOpacity(v)
	}

	if inh.collapsed || b.Display == "none" {
		return b
	}

	b.Rect = census.Rect{Width: 1, Height: 1}
	if px, ok := pixels(decls["width"]); ok {
		b.Rect.Width = px
	}
	if px, ok := pixels(decls["height"]); ok {
		b.Rect.Height = px
	}
	switch decls["position"] {
	case "absolute", "fixed":
		if px, ok := pixels(decls["top"]); ok {
			b.Rect.Top = px
		}
		if px, ok := pixels(decls["left"]); ok {
			b.Rect.Left = px
		}
	}
	return b
}
