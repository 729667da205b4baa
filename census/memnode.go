package census

// MemNode is an in-memory Node. The browser adapter decodes the page's
// subtree into MemNodes; tests build synthetic trees with them.
type MemNode struct {
	NodeKind  Kind       `json:"k"`
	NodeName  string     `json:"n"`
	NodeID    string     `json:"id,omitempty"`
	ClassList []string   `json:"cls,omitempty"`
	Layout    *Box       `json:"b,omitempty"`
	Kids      []*MemNode `json:"c,omitempty"`
}

// Element returns an element MemNode with the given tag and children.
func Element(tag string, kids ...*MemNode) *MemNode {
	return &MemNode{NodeKind: KindElement, NodeName: tag, Kids: kids}
}

// Text returns a text MemNode.
func Text() *MemNode {
	return &MemNode{NodeKind: KindText, NodeName: "#text"}
}

// Comment returns a comment MemNode.
func Comment() *MemNode {
	return &MemNode{NodeKind: KindComment, NodeName: "#comment"}
}

// WithBox sets the layout box and returns n.
func (n *MemNode) WithBox(b Box) *MemNode {
	n.Layout = &b
	return n
}

// WithID sets the id and returns n.
func (n *MemNode) WithID(id string) *MemNode {
	n.NodeID = id
	return n
}

// WithClasses sets the class list and returns n.
func (n *MemNode) WithClasses(cls ...string) *MemNode {
	n.ClassList = cls
	return n
}

func (n *MemNode) Kind() Kind { return n.NodeKind }
func (n *MemNode) Name() string { return n.NodeName }
func (n *MemNode) ID() string { return n.NodeID }
func (n *MemNode) Classes() []string { return n.ClassList }

func (n *MemNode) Box() (Box, bool) {
	if n.Layout == nil {
		return Box{}, false
	}
	return *n.Layout, true
}

func (n *MemNode) Children() []Node {
	if len(n.Kids) == 0 {
		return nil
	}
	out := make([]Node, len(n.Kids))
	for i, k := range n.Kids {
		if k != nil {
			out[i] = k
		}
	}
	return out
}
