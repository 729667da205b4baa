// Package store archives exported census reports in SQLite. The panel
// itself keeps no history; only reports the user chose to export land here.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hazyhaar/domcensus/internal/dbopen"
	"github.com/hazyhaar/domcensus/report"
)

// Schema contains the DDL for the report archive.
const Schema = `
CREATE TABLE IF NOT EXISTS census_reports (
    id             TEXT PRIMARY KEY,
    source         TEXT NOT NULL,
    selector       TEXT NOT NULL DEFAULT '',
    title          TEXT NOT NULL,
    sort_column    TEXT NOT NULL,
    sort_direction TEXT NOT NULL,
    total          INTEGER NOT NULL,
    visible        INTEGER NOT NULL,
    rows_json      TEXT NOT NULL DEFAULT '[]',
    markdown       TEXT NOT NULL,
    html           TEXT NOT NULL DEFAULT '',
    created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_census_reports_created ON census_reports(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_census_reports_source ON census_reports(source, created_at DESC);
`

// Store is the archive database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the archive at path and applies the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// InsertReport archives r.
func (s *Store) InsertReport(ctx context.Context, r *report.Report) error {
	rows, err := json.Marshal(r.Rows)
	if err != nil {
		return fmt.Errorf("store: marshal rows: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO census_reports
			(id, source, selector, title, sort_column, sort_direction,
			 total, visible, rows_json, markdown, html, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.Source, r.Selector, r.Title, r.Sort.Column, r.Sort.Direction,
		r.Total, r.Visible, string(rows), r.Markdown, r.HTML, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert report %s: %w", r.ID, err)
	}
	return nil
}

const reportColumns = `id, source, selector, title, sort_column, sort_direction,
		       total, visible, rows_json, markdown, html, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(sc scanner) (*report.Report, error) {
	r := &report.Report{}
	var rows string
	if err := sc.Scan(&r.ID, &r.Source, &r.Selector, &r.Title, &r.Sort.Column, &r.Sort.Direction,
		&r.Total, &r.Visible, &rows, &r.Markdown, &r.HTML, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rows), &r.Rows); err != nil {
		return nil, fmt.Errorf("store: decode rows of %s: %w", r.ID, err)
	}
	return r, nil
}

// GetReport retrieves a report by ID. It returns nil, nil when absent.
func (s *Store) GetReport(ctx context.Context, id string) (*report.Report, error) {
	r, err := scanReport(s.DB.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM census_reports WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get report %s: %w", id, err)
	}
	return r, nil
}

// ListReports returns the most recent reports first. limit <= 0 means 50.
func (s *Store) ListReports(ctx context.Context, limit int) ([]*report.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM census_reports ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	var out []*report.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Sink adapts the store to the export sink interface.
func (s *Store) Sink() *ReportSink {
	return &ReportSink{store: s}
}

// ReportSink archives every exported report.
type ReportSink struct {
	store *Store
}

func (rs *ReportSink) SendReport(ctx context.Context, r report.Report) error {
	return rs.store.InsertReport(ctx, &r)
}

// Close closes the underlying store.
func (rs *ReportSink) Close() error {
	return rs.store.Close()
}
