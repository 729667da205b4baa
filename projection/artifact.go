package projection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrEmptyView is returned when an artifact is requested for a view with no
// snapshot behind it.
var ErrEmptyView = errors.New("projection: nothing to render, no element selected")

var (
	mdOnce sync.Once
	mdConv *converter.Converter
)

func markdownConverter() *converter.Converter {
	mdOnce.Do(func() {
		mdConv = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		)
	})
	return mdConv
}

// HTML serialises the view's table as markup: a title heading, a totals
// line, and the table with headers in on-screen order and rows in
// projection order.
func HTML(v View) (string, error) {
	if v.Empty {
		return "", ErrEmptyView
	}

	root := elem(atom.Div, "div")
	root.Attr = []html.Attribute{{Key: "class", Val: "domcensus-report"}}

	h := elem(atom.H2, "h2")
	h.AppendChild(text(v.Title))
	root.AppendChild(h)

	p := elem(atom.P, "p")
	p.AppendChild(text(fmt.Sprintf("%s descendants, %s visible", v.TotalText, v.VisibleText)))
	root.AppendChild(p)

	tbl := elem(atom.Table, "table")
	tbl.Attr = []html.Attribute{{Key: "id", Val: "countsTable"}}
	thead := elem(atom.Thead, "thead")
	hr := elem(atom.Tr, "tr")
	for _, hv := range v.Headers {
		th := elem(atom.Th, "th")
		th.Attr = []html.Attribute{{Key: "aria-sort", Val: hv.Indicator}}
		th.AppendChild(text(hv.Label))
		hr.AppendChild(th)
	}
	thead.AppendChild(hr)
	tbl.AppendChild(thead)

	tbody := elem(atom.Tbody, "tbody")
	for _, r := range v.Rows {
		tr := elem(atom.Tr, "tr")
		for _, cell := range []string{r.Name, strconv.Itoa(r.Count), strconv.Itoa(r.Visible)} {
			td := elem(atom.Td, "td")
			td.AppendChild(text(cell))
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	tbl.AppendChild(tbody)
	root.AppendChild(tbl)

	var b strings.Builder
	if err := html.Render(&b, root); err != nil {
		return "", fmt.Errorf("projection: render html: %w", err)
	}
	return b.String(), nil
}

// Markdown converts the HTML artifact to a markdown document with a table.
// Copy and export collaborators receive this text and never re-sort it.
func Markdown(v View) (string, error) {
	markup, err := HTML(v)
	if err != nil {
		return "", err
	}
	md, err := markdownConverter().ConvertString(markup)
	if err != nil {
		return "", fmt.Errorf("projection: convert markdown: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}

func elem(a atom.Atom, tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: tag}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
