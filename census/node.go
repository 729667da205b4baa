package census

// Kind is a DOM node type, numbered as Node.nodeType.
type Kind int

const (
	KindElement               Kind = 1
	KindAttribute             Kind = 2
	KindText                  Kind = 3
	KindCDATA                 Kind = 4
	KindProcessingInstruction Kind = 7
	KindComment               Kind = 8
	KindDocument              Kind = 9
	KindDoctype               Kind = 10
	KindFragment              Kind = 11
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindAttribute:
		return "attribute"
	case KindText:
		return "text"
	case KindCDATA:
		return "cdata"
	case KindProcessingInstruction:
		return "processing-instruction"
	case KindComment:
		return "comment"
	case KindDocument:
		return "document"
	case KindDoctype:
		return "doctype"
	case KindFragment:
		return "fragment"
	}
	return "unknown"
}

// Node is the read-only view of a DOM node that the census walks. Adapters
// exist for static HTML documents and for live browser pages.
type Node interface {
	// Kind reports the node type.
	Kind() Kind

	// Name is the element's tagName exactly as the DOM reports it (upper
	// case for HTML elements) and the nodeName for everything else.
	Name() string

	// Children returns the child nodes in document order. Entries may be
	// nil for detached or unreadable children; the census skips them.
	Children() []Node

	// Box returns the computed style and bounding rectangle of an element.
	// ok is false when the adapter has no layout information for the node.
	Box() (box Box, ok bool)

	// ID is the element id attribute, empty when absent.
	ID() string

	// Classes is the element's class token list in order.
	Classes() []string
}

// Rect is a bounding client rectangle in CSS pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns Top+Height.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Right returns Left+Width.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Box is the subset of computed style and geometry that decides visibility.
// Values are kept as the strings getComputedStyle returns.
type Box struct {
	Display    string `json:"display"`
	Visibility string `json:"visibility"`
	Opacity    string `json:"opacity"`
	Rect       Rect   `json:"rect"`
}

// Viewport is the size of the layout viewport.
type Viewport struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// IsVisible applies the visibility rule: displayed, visibility "visible",
// opacity not "0", a non-empty rect, and the rect intersecting the viewport.
func IsVisible(b Box, vp Viewport) bool {
	if b.Display == "none" || b.Visibility != "visible" || b.Opacity == "0" {
		return false
	}
	r := b.Rect
	return r.Width > 0 && r.Height > 0 &&
		r.Bottom() > 0 && r.Right() > 0 &&
		r.Top < vp.Height && r.Left < vp.Width
}
