// Package projection orders a census snapshot for display and renders it as
// rows, formatted totals, and the table artifacts handed to copy and export.
// Projecting never re-walks the DOM; it only re-orders the snapshot it gets.
package projection

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hazyhaar/domcensus/census"
)

// Column is a sortable table column.
type Column int

const (
	// ColumnNone is the initial "default order" state. It orders like
	// count descending but is a distinct state.
	ColumnNone Column = iota
	ColumnName
	ColumnCount
	ColumnVisible
)

// Columns lists the table columns in header order.
var Columns = []Column{ColumnName, ColumnCount, ColumnVisible}

func (c Column) String() string {
	switch c {
	case ColumnNone:
		return "none"
	case ColumnName:
		return "name"
	case ColumnCount:
		return "count"
	case ColumnVisible:
		return "visible"
	}
	return fmt.Sprintf("column(%d)", int(c))
}

// Header is the column's display label.
func (c Column) Header() string {
	switch c {
	case ColumnName:
		return "Name"
	case ColumnCount:
		return "Count"
	case ColumnVisible:
		return "Visible"
	}
	return ""
}

// DefaultDirection is the direction a column starts in when first clicked.
func (c Column) DefaultDirection() Direction {
	if c == ColumnName {
		return Ascending
	}
	return Descending
}

func (c Column) valid() bool {
	return c == ColumnName || c == ColumnCount || c == ColumnVisible
}

// ParseColumn parses a column name from user input. Header labels and
// column indexes (1-based, as shown) are accepted too.
func ParseColumn(s string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "1":
		return ColumnName, nil
	case "count", "2":
		return ColumnCount, nil
	case "visible", "3":
		return ColumnVisible, nil
	}
	return ColumnNone, fmt.Errorf("projection: unknown column %q", s)
}

// Direction is a sort direction.
type Direction int

const (
	Descending Direction = iota
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "ascending"
	}
	return "descending"
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// SortState is the panel's sort selection. It lives for the whole session
// and is independent of which snapshot is displayed.
type SortState struct {
	Column    Column    `json:"column"`
	Direction Direction `json:"direction"`
}

// DefaultSort is the initial state: no column, descending.
func DefaultSort() SortState {
	return SortState{Column: ColumnNone, Direction: Descending}
}

// Click applies a header click. Clicking the active column toggles the
// direction; clicking another column selects it with its default direction.
// Clicking anything but a table column is a programming error.
func (s SortState) Click(c Column) SortState {
	if !c.valid() {
		panic(fmt.Sprintf("projection: click on invalid column %v", c))
	}
	if s.Column == c {
		return SortState{Column: c, Direction: s.Direction.Toggle()}
	}
	return SortState{Column: c, Direction: c.DefaultDirection()}
}

// Reset returns the initial sort state.
func (s SortState) Reset() SortState {
	return DefaultSort()
}

// Indicator is the aria-sort value for column c under s.
func (s SortState) Indicator(c Column) string {
	if s.Column != c || c == ColumnNone {
		return "none"
	}
	return s.Direction.String()
}

func (s SortState) String() string {
	if s.Column == ColumnNone {
		return "default"
	}
	return s.Column.String() + " " + s.Direction.String()
}

// Row is one projected table row.
type Row struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Visible int    `json:"visible"`
}

// Project orders counts by state. Ties keep a deterministic base order
// (names in byte order), so projecting the same input twice yields the same
// rows. Name comparison uses the root collation; see ProjectLocale.
func Project(counts map[string]census.GroupCount, state SortState) []Row {
	return ProjectLocale(counts, state, language.Und)
}

// ProjectLocale is Project with a locale for name collation.
func ProjectLocale(counts map[string]census.GroupCount, state SortState, tag language.Tag) []Row {
	rows := make([]Row, 0, len(counts))
	for name, g := range counts {
		rows = append(rows, Row{Name: name, Count: g.Count, Visible: g.Visible})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	cmp := comparator(state.Column, tag)
	if state.Column != ColumnNone && state.Direction == Descending {
		asc := cmp
		cmp = func(a, b Row) int { return -asc(a, b) }
	}
	sort.SliceStable(rows, func(i, j int) bool { return cmp(rows[i], rows[j]) < 0 })
	return rows
}

func comparator(c Column, tag language.Tag) func(a, b Row) int {
	switch c {
	case ColumnNone:
		return func(a, b Row) int { return b.Count - a.Count }
	case ColumnName:
		col := collate.New(tag)
		return func(a, b Row) int { return col.CompareString(a.Name, b.Name) }
	case ColumnCount:
		return func(a, b Row) int { return a.Count - b.Count }
	case ColumnVisible:
		return func(a, b Row) int { return a.Visible - b.Visible }
	}
	panic(fmt.Sprintf("projection: sort on invalid column %v", c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Column) MarshalText() ([]byte, error) {
	if c != ColumnNone && !c.valid() {
		return nil, fmt.Errorf("projection: invalid column %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "none" and the empty
// string decode to ColumnNone.
func (c *Column) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	if s == "" || s == "none" {
		*c = ColumnNone
		return nil
	}
	col, err := ParseColumn(s)
	if err != nil {
		return err
	}
	*c = col
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts "asc" and
// "desc" as short forms.
func (d *Direction) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "ascending", "asc":
		*d = Ascending
	case "descending", "desc", "":
		*d = Descending
	default:
		return fmt.Errorf("projection: unknown direction %q", text)
	}
	return nil
}
