package htmltree

import (
	"strconv"
	"strings"

	"github.com/gorilla/css/scanner"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// declarations parses an inline style attribute into lower-cased property
// names and values. Later declarations win; "!important" is dropped.
func declarations(style string) map[string]string {
	decls := make(map[string]string)
	if strings.TrimSpace(style) == "" {
		return decls
	}

	s := scanner.New(style)
	var (
		prop  string
		value strings.Builder
		inVal bool
	)
	flush := func() {
		if prop != "" {
			v := strings.ToLower(strings.TrimSpace(value.String()))
			v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
			if v != "" {
				decls[prop] = v
			}
		}
		prop, inVal = "", false
		value.Reset()
	}

	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			break
		}
		switch {
		case tok.Type == scanner.TokenChar && tok.Value == ";":
			flush()
		case inVal:
			if tok.Type != scanner.TokenComment {
				value.WriteString(tok.Value)
			}
		case tok.Type == scanner.TokenIdent && prop == "":
			prop = strings.ToLower(tok.Value)
		case tok.Type == scanner.TokenChar && tok.Value == ":" && prop != "":
			inVal = true
		}
	}
	flush()
	return decls
}

// notRendered lists elements a browser never lays out.
var notRendered = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Title:    true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Base:     true,
	atom.Noscript: true,
	atom.Param:    true,
	atom.Datalist: true,
}

var inlineElements = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Bdi: true, atom.Bdo: true,
	atom.Br: true, atom.Cite: true, atom.Code: true, atom.Data: true, atom.Dfn: true,
	atom.Em: true, atom.I: true, atom.Img: true, atom.Input: true, atom.Kbd: true,
	atom.Label: true, atom.Mark: true, atom.Q: true, atom.S: true, atom.Samp: true,
	atom.Select: true, atom.Small: true, atom.Span: true, atom.Strong: true,
	atom.Sub: true, atom.Sup: true, atom.Time: true, atom.U: true, atom.Var: true,
	atom.Button: true, atom.Textarea: true,
}

// defaultDisplay is the user-agent display value of an element.
func defaultDisplay(n *html.Node) string {
	if n.Namespace == "" {
		if notRendered[n.DataAtom] {
			return "none"
		}
		if n.DataAtom == atom.Input && strings.EqualFold(attr(n, "type"), "hidden") {
			return "none"
		}
	}
	if hasAttr(n, "hidden") {
		return "none"
	}
	if n.Namespace == "" && inlineElements[n.DataAtom] {
		return "inline"
	}
	if n.Namespace != "" {
		return "inline"
	}
	return "block"
}

// normaliseOpacity maps every spelling of zero to "0".
func normaliseOpacity(v string) string {
	pct := strings.HasSuffix(v, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
	if err != nil {
		return "1"
	}
	if f <= 0 {
		return "0"
	}
	if pct {
		f /= 100
	}
	if f >= 1 {
		return "1"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// pixels parses a CSS length in px (or a bare number). ok is false for any
// other unit, since static geometry cannot resolve it.
func pixels(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
