package htmltree

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Selector is a parsed selector. It supports a subset of CSS:
//   - tag: "article", "main", "svg"
//   - .class (repeatable): ".content", "div.a.b"
//   - #id: "#main-content", "div#main"
//   - [attr] and [attr=val]: "div[data-content]", "div[role=main]"
//   - "*" for any element
//   - compounds separated by whitespace (descendant combinator)
type Selector struct {
	raw   string
	parts []simpleSelector
}

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

type attrMatch struct {
	key    string
	val    string
	hasVal bool
}

// ParseSelector parses sel.
func ParseSelector(sel string) (Selector, error) {
	fields := strings.Fields(sel)
	if len(fields) == 0 {
		return Selector{}, fmt.Errorf("htmltree: empty selector")
	}
	s := Selector{raw: sel}
	for _, f := range fields {
		p, err := parseSimpleSelector(f)
		if err != nil {
			return Selector{}, fmt.Errorf("htmltree: selector %q: %w", sel, err)
		}
		s.parts = append(s.parts, p)
	}
	return s, nil
}

func (s Selector) String() string { return s.raw }

// parseSimpleSelector parses "tag.class", "#id", "tag[attr=val]", etc.
func parseSimpleSelector(sel string) (simpleSelector, error) {
	var s simpleSelector

	i := 0
	for i < len(sel) && !strings.ContainsRune(".#[", rune(sel[i])) {
		i++
	}
	s.tag = strings.ToLower(sel[:i])
	if s.tag == "*" {
		s.tag = ""
	}
	for _, r := range s.tag {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return s, fmt.Errorf("unsupported combinator or tag %q", sel[:i])
		}
	}

	for i < len(sel) {
		switch sel[i] {
		case '.', '#':
			j := i + 1
			for j < len(sel) && !strings.ContainsRune(".#[", rune(sel[j])) {
				j++
			}
			name := sel[i+1 : j]
			if name == "" {
				return s, fmt.Errorf("empty name after %q", sel[i])
			}
			if sel[i] == '.' {
				s.classes = append(s.classes, name)
			} else {
				s.id = name
			}
			i = j
		case '[':
			end := strings.IndexByte(sel[i:], ']')
			if end < 0 {
				return s, fmt.Errorf("unterminated attribute selector")
			}
			body := sel[i+1 : i+end]
			var m attrMatch
			if eq := strings.IndexByte(body, '='); eq >= 0 {
				m.key = strings.ToLower(body[:eq])
				m.val = strings.Trim(body[eq+1:], `"'`)
				m.hasVal = true
			} else {
				m.key = strings.ToLower(body)
			}
			if m.key == "" {
				return s, fmt.Errorf("empty attribute name")
			}
			s.attrs = append(s.attrs, m)
			i += end + 1
		default:
			return s, fmt.Errorf("unexpected %q", sel[i])
		}
	}
	return s, nil
}

// matchesSelector checks if a node matches a parsed simple selector.
func matchesSelector(n *html.Node, s simpleSelector) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && !strings.EqualFold(n.Data, s.tag) {
		return false
	}
	if s.id != "" && attr(n, "id") != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(attr(n, "class"))
		for _, want := range s.classes {
			found := false
			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	for _, a := range s.attrs {
		if !hasAttr(n, a.key) {
			return false
		}
		if a.hasVal && attr(n, a.key) != a.val {
			return false
		}
	}
	return true
}

// Matches reports whether n matches the full selector: n matches the last
// compound and, walking up, ancestors match the earlier ones in order.
func (s Selector) Matches(n *html.Node) bool {
	last := len(s.parts) - 1
	if last < 0 || !matchesSelector(n, s.parts[last]) {
		return false
	}
	i := last - 1
	for p := n.Parent; p != nil && i >= 0; p = p.Parent {
		if matchesSelector(p, s.parts[i]) {
			i--
		}
	}
	return i < 0
}

// First returns the first element under root, in document order, matching s.
func (s Selector) First(root *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if s.Matches(n) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

// All returns every element under root matching s, in document order.
func (s Selector) All(root *html.Node) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if s.Matches(n) {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results
}

// Select parses sel and returns its first match under doc, or nil.
func Select(doc *html.Node, sel string) (*html.Node, error) {
	s, err := ParseSelector(sel)
	if err != nil {
		return nil, err
	}
	return s.First(doc), nil
}

// attr returns the value of an attribute on a node.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasAttr checks if a node has a specific attribute.
func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}
