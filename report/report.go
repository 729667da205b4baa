// Package report defines the artifact produced when a census table is
// exported. Sinks and the archive store consume it; it carries the rows in
// the order they were displayed and never re-sorts them.
package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hazyhaar/domcensus/projection"
)

// Sort records the sort selection in effect when the report was built.
type Sort struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// Report is one exported census table.
type Report struct {
	ID        string           `json:"id"` // UUIDv7
	Source    string           `json:"source"`
	Selector  string           `json:"selector"`
	Title     string           `json:"title"`
	Sort      Sort             `json:"sort"`
	Total     int              `json:"total"`
	Visible   int              `json:"visible"`
	Rows      []projection.Row `json:"rows"`
	Markdown  string           `json:"markdown"`
	HTML      string           `json:"html,omitempty"`
	CreatedAt int64            `json:"created_at"` // epoch milliseconds
}

// FromView builds a report from a rendered view and its artifacts.
func FromView(id, source, selector string, v projection.View, markdown, markup string, now time.Time) *Report {
	rows := make([]projection.Row, len(v.Rows))
	copy(rows, v.Rows)
	return &Report{
		ID:        id,
		Source:    source,
		Selector:  selector,
		Title:     v.Title,
		Sort:      Sort{Column: v.Sort.Column.String(), Direction: v.Sort.Direction.String()},
		Total:     v.Total,
		Visible:   v.VisibleTotal,
		Rows:      rows,
		Markdown:  markdown,
		HTML:      markup,
		CreatedAt: now.UnixMilli(),
	}
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// FileName is the name used when the report is written to a directory:
// domcensus-<tag>-<timestamp>.md, with the tag taken from the title.
func (r *Report) FileName() string {
	tag := r.Title
	if i := strings.IndexAny(tag, "#."); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(tag), "-"), "-")
	if tag == "" {
		tag = "node"
	}
	ts := time.UnixMilli(r.CreatedAt).UTC().Format("20060102T150405.000Z")
	ts = strings.Replace(ts, ".", "", 1)
	return fmt.Sprintf("domcensus-%s-%s.md", tag, ts)
}

// Marshal serialises a Report to JSON.
func Marshal(r *Report) ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal deserialises a Report from JSON.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: unmarshal: %w", err)
	}
	return &r, nil
}
