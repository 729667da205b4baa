package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hazyhaar/domcensus/projection"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numStyle    = cellStyle.Align(lipgloss.Right)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// HeaderLabel is the header text with its total and sort arrow.
func HeaderLabel(h projection.HeaderView) string {
	label := h.Label
	if h.Total != "" {
		label += " (" + h.Total + ")"
	}
	switch h.Indicator {
	case "ascending":
		label += " ▲"
	case "descending":
		label += " ▼"
	}
	return label
}

// Table renders the view's rows as a bordered terminal table. An empty view
// renders its empty message.
func Table(v projection.View) string {
	if v.Empty {
		return dimStyle.Render(v.EmptyMessage)
	}
	headers := make([]string, len(v.Headers))
	for i, h := range v.Headers {
		headers[i] = HeaderLabel(h)
	}
	rows := make([][]string, len(v.Rows))
	for i, r := range v.Rows {
		rows[i] = []string{r.Name, strconv.Itoa(r.Count), strconv.Itoa(r.Visible)}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col > 0:
				return numStyle
			}
			return cellStyle
		}).
		Render()
}

// Summary is the title line followed by the totals line.
func Summary(v projection.View) string {
	s := titleStyle.Render(v.Title)
	if !v.Empty {
		s += "\n" + v.TotalText + " descendants, " + v.VisibleText + " visible"
	}
	return s
}
