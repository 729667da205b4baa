package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"

	"github.com/hazyhaar/domcensus/census"
	"github.com/hazyhaar/domcensus/projection"
	"github.com/hazyhaar/domcensus/session"
)

var vp = census.Viewport{Width: 1280, Height: 800}

type treeInspector map[string]*census.MemNode

func (t treeInspector) Inspect(_ context.Context, sel string) (census.Node, census.Viewport, error) {
	if n, ok := t[sel]; ok {
		return n, vp, nil
	}
	return nil, vp, nil
}

func shown() census.Box {
	return census.Box{Display: "block", Visibility: "visible", Opacity: "1",
		Rect: census.Rect{Width: 10, Height: 10}}
}

type copier struct{ text string }

func (c *copier) Copy(_ context.Context, text string) (string, error) {
	c.text = text
	return "manual", nil
}

func newPanel(t *testing.T) (*session.Panel, *copier) {
	t.Helper()
	insp := treeInspector{
		"ul": census.Element("UL",
			census.Element("LI").WithBox(shown()),
			census.Element("LI").WithBox(shown()),
			census.Element("B"),
		),
	}
	cp := &copier{}
	return session.New(session.Config{Inspector: insp, Copier: cp}), cp
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds msg to m and runs the resulting command once.
func press(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	m, cmd := m.Update(msg)
	if cmd != nil {
		if out := cmd(); out != nil {
			m, _ = m.Update(out)
		}
	}
	return m
}

func TestModel_EmptyView(t *testing.T) {
	p, _ := newPanel(t)
	out := New(context.Background(), p).View()
	if !strings.Contains(out, projection.EmptyMessage) {
		t.Fatalf("empty view:\n%s", out)
	}
	if strings.Contains(out, "c copy") || strings.Contains(out, "e export") {
		t.Fatalf("copy and export must be hidden without a snapshot:\n%s", out)
	}
}

func TestModel_SelectAndSort(t *testing.T) {
	p, _ := newPanel(t)
	var m tea.Model = New(context.Background(), p)

	m = press(t, m, key("/"))
	for _, r := range "ul" {
		m = press(t, m, key(string(r)))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	out := m.View()
	if !strings.Contains(out, "3 descendants, 2 visible") {
		t.Fatalf("after select:\n%s", out)
	}
	if !strings.Contains(out, "c copy") {
		t.Fatalf("copy must be offered:\n%s", out)
	}

	m = press(t, m, key("1"))
	if p.Sort() != (projection.SortState{Column: projection.ColumnName, Direction: projection.Ascending}) {
		t.Fatalf("sort: %v", p.Sort())
	}
	if out := m.View(); !strings.Contains(out, "Name ▲") {
		t.Fatalf("indicator missing:\n%s", out)
	}

	m = press(t, m, key("3"))
	out = m.View()
	if !strings.Contains(out, "Visible (2) ▼") {
		t.Fatalf("visible header:\n%s", out)
	}
	if strings.Index(out, "LI") > strings.Index(out, " B ") {
		t.Fatalf("LI must precede B under visible descending:\n%s", out)
	}

	m = press(t, m, key("x"))
	if p.Sort() != projection.DefaultSort() {
		t.Fatalf("reset: %v", p.Sort())
	}
}

func TestModel_CopyAndExport(t *testing.T) {
	p, cp := newPanel(t)
	p.Select(context.Background(), "ul")
	var m tea.Model = New(context.Background(), p)

	m = press(t, m, key("c"))
	if cp.text == "" || !strings.Contains(m.View(), "Copied via manual") {
		t.Fatalf("copy:\n%s", m.View())
	}

	m = press(t, m, key("e"))
	if !strings.Contains(m.View(), "Exported domcensus-ul-") {
		t.Fatalf("export:\n%s", m.View())
	}
}

func TestModel_RefreshWithoutSelection(t *testing.T) {
	p, _ := newPanel(t)
	var m tea.Model = New(context.Background(), p)
	m = press(t, m, key("r"))
	if !strings.Contains(m.View(), "Error: session: no element selected") {
		t.Fatalf("refresh:\n%s", m.View())
	}
}

func TestModel_ViewMsg(t *testing.T) {
	p, _ := newPanel(t)
	var m tea.Model = New(context.Background(), p)
	v, _ := p.Select(context.Background(), "ul")
	m, _ = m.Update(ViewMsg{View: v})
	if !strings.Contains(m.View(), "3 descendants") {
		t.Fatalf("external view not shown:\n%s", m.View())
	}
}

func TestModel_Quit(t *testing.T) {
	p, _ := newPanel(t)
	_, cmd := New(context.Background(), p).Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestTable(t *testing.T) {
	v := projection.NewRenderer(language.English).Render(&census.Snapshot{
		CurrentNode: &census.NodeDescriptor{Tag: "div"},
		Total:       12345,
		Visible:     2,
		Counts:      map[string]census.GroupCount{"DIV": {Count: 12345, Visible: 2}},
	}, projection.DefaultSort())
	out := Table(v)
	if !strings.Contains(out, "Count (12,345)") || !strings.Contains(out, "12345") {
		t.Fatalf("table:\n%s", out)
	}
}
