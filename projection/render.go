package projection

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hazyhaar/domcensus/census"
)

// EmptyMessage is shown when no element is selected.
const EmptyMessage = "Select an element in the inspected page to count its descendants."

// HeaderView is one table header with its sort indicator.
type HeaderView struct {
	Column    Column `json:"column"`
	Label     string `json:"label"`
	Indicator string `json:"indicator"` // ascending | descending | none
	Total     string `json:"total,omitempty"`
}

// Actions reports which data-dependent actions are enabled.
type Actions struct {
	Export bool `json:"export"`
	Copy   bool `json:"copy"`
}

// View is everything the presentation layer needs to draw the panel.
type View struct {
	Empty        bool         `json:"empty"`
	EmptyMessage string       `json:"empty_message,omitempty"`
	Title        string       `json:"title"`
	Sort         SortState    `json:"sort"`
	Headers      []HeaderView `json:"headers"`
	Rows         []Row        `json:"rows"`
	Total        int          `json:"total"`
	VisibleTotal int          `json:"visible_total"`
	TotalText    string       `json:"total_text"`
	VisibleText  string       `json:"visible_text"`
	Actions      Actions      `json:"actions"`
}

// Renderer turns snapshots into Views for one locale.
type Renderer struct {
	tag     language.Tag
	printer *message.Printer
}

// NewRenderer creates a Renderer. The locale drives name collation and the
// grouping separator of totals.
func NewRenderer(tag language.Tag) *Renderer {
	return &Renderer{tag: tag, printer: message.NewPrinter(tag)}
}

// ParseLocale parses a BCP 47 tag, falling back to English on error.
func ParseLocale(s string) language.Tag {
	if s == "" {
		return language.English
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	return tag
}

// Locale returns the renderer's locale.
func (r *Renderer) Locale() language.Tag { return r.tag }

// FormatInt formats n with the locale's grouping separator.
func (r *Renderer) FormatInt(n int) string {
	return r.printer.Sprintf("%d", n)
}

// Render projects snap under state. A nil snapshot renders the empty state
// with export and copy disabled.
func (r *Renderer) Render(snap *census.Snapshot, state SortState) View {
	v := View{Sort: state}
	if snap == nil {
		v.Empty = true
		v.EmptyMessage = EmptyMessage
		v.Title = (*census.NodeDescriptor)(nil).Title()
		v.Headers = r.headers(state, "", "")
		v.Rows = []Row{}
		return v
	}

	v.Title = snap.CurrentNode.Title()
	v.Rows = ProjectLocale(snap.Counts, state, r.tag)
	v.Total = snap.Total
	v.VisibleTotal = snap.Visible
	v.TotalText = r.FormatInt(snap.Total)
	v.VisibleText = r.FormatInt(snap.Visible)
	v.Headers = r.headers(state, v.TotalText, v.VisibleText)
	v.Actions = Actions{Export: true, Copy: true}
	return v
}

func (r *Renderer) headers(state SortState, total, visible string) []HeaderView {
	hs := make([]HeaderView, 0, len(Columns))
	for _, c := range Columns {
		h := HeaderView{Column: c, Label: c.Header(), Indicator: state.Indicator(c)}
		switch c {
		case ColumnCount:
			h.Total = total
		case ColumnVisible:
			h.Total = visible
		}
		hs = append(hs, h)
	}
	return hs
}
