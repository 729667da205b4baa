// Package tui is the terminal front end of the census panel.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazyhaar/domcensus/projection"
	"github.com/hazyhaar/domcensus/report"
)

// Panel is the part of the session the terminal drives.
type Panel interface {
	View() projection.View
	Selector() string
	Select(ctx context.Context, selector string) (projection.View, error)
	Refresh(ctx context.Context) (projection.View, error)
	ClickHeader(c projection.Column) projection.View
	ResetSort() projection.View
	Export(ctx context.Context) (*report.Report, error)
	Copy(ctx context.Context) (string, error)
}

// ViewMsg carries a view produced outside the terminal, such as a
// recalculation triggered by a file change.
type ViewMsg struct {
	View projection.View
}

type resultMsg struct {
	view   *projection.View
	status string
	err    error
}

// Model is the bubbletea model of the panel.
type Model struct {
	ctx   context.Context
	panel Panel

	view      projection.View
	status    string
	err       error
	selecting bool
	input     string
	busy      bool
}

// New creates a model showing the panel's current view.
func New(ctx context.Context, panel Panel) Model {
	return Model{ctx: ctx, panel: panel, view: panel.View()}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ViewMsg:
		m.view = msg.View
		return m, nil

	case resultMsg:
		m.busy = false
		m.status, m.err = msg.status, msg.err
		if msg.view != nil {
			m.view = *msg.view
		}
		return m, nil

	case tea.KeyMsg:
		if m.selecting {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "1", "2", "3":
		col, _ := projection.ParseColumn(key)
		m.view = m.panel.ClickHeader(col)
		m.status, m.err = "", nil
	case "x":
		m.view = m.panel.ResetSort()
		m.status, m.err = "Sort reset", nil
	case "/":
		m.selecting = true
		m.input = m.panel.Selector()
	case "r":
		return m.start("Recalculating…", func(ctx context.Context) resultMsg {
			v, err := m.panel.Refresh(ctx)
			return resultMsg{view: &v, status: "Recalculated", err: err}
		})
	case "c":
		if !m.view.Actions.Copy {
			return m, nil
		}
		return m.start("Copying…", func(ctx context.Context) resultMsg {
			method, err := m.panel.Copy(ctx)
			return resultMsg{status: "Copied via " + method, err: err}
		})
	case "e":
		if !m.view.Actions.Export {
			return m, nil
		}
		return m.start("Exporting…", func(ctx context.Context) resultMsg {
			r, err := m.panel.Export(ctx)
			if r == nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: "Exported " + r.FileName(), err: err}
		})
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.selecting = false
	case tea.KeyEnter:
		m.selecting = false
		sel := strings.TrimSpace(m.input)
		if sel == "" {
			return m, nil
		}
		return m.start("Selecting "+sel+"…", func(ctx context.Context) resultMsg {
			v, err := m.panel.Select(ctx, sel)
			return resultMsg{view: &v, err: err}
		})
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// start runs fn off the event loop. Only one action runs at a time.
func (m Model) start(status string, fn func(context.Context) resultMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.status, m.err = status, nil
	ctx := m.ctx
	return m, func() tea.Msg { return fn(ctx) }
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(Summary(m.view))
	b.WriteString("\n\n")
	b.WriteString(Table(m.view))
	b.WriteString("\n\n")

	if m.selecting {
		b.WriteString("selector: " + m.input + "█\n")
	}
	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render(errorText(m.err)) + "\n")
	case m.status != "":
		b.WriteString(m.status + "\n")
	}
	b.WriteString(dimStyle.Render(m.help()))
	return b.String()
}

func (m Model) help() string {
	keys := []string{"1/2/3 sort", "x reset", "/ select", "r recalculate"}
	if m.view.Actions.Copy {
		keys = append(keys, "c copy")
	}
	if m.view.Actions.Export {
		keys = append(keys, "e export")
	}
	return strings.Join(append(keys, "q quit"), " · ")
}

// errorText flattens joined errors onto one line.
func errorText(err error) string {
	return "Error: " + strings.ReplaceAll(err.Error(), "\n", "; ")
}
