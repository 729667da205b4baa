package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/domcensus/internal/dbopen"
	"github.com/hazyhaar/domcensus/internal/sink"
	"github.com/hazyhaar/domcensus/projection"
	"github.com/hazyhaar/domcensus/report"
)

var _ sink.Sink = (*ReportSink)(nil)

func testStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return &Store{DB: db}
}

func newReport(id string, createdAt int64) *report.Report {
	return &report.Report{
		ID:        id,
		Source:    "https://example.com",
		Selector:  "main",
		Title:     "main",
		Sort:      report.Sort{Column: "name", Direction: "ascending"},
		Total:     3,
		Visible:   2,
		Rows:      []projection.Row{{Name: "A", Count: 1, Visible: 1}, {Name: "P", Count: 2, Visible: 1}},
		Markdown:  "| Name |",
		CreatedAt: createdAt,
	}
}

func TestReportCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.InsertReport(ctx, newReport("r1", 1000)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetReport(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("get: got nil")
	}
	if got.Sort.Column != "name" || got.Sort.Direction != "ascending" {
		t.Errorf("Sort: got %+v", got.Sort)
	}
	if len(got.Rows) != 2 || got.Rows[0].Name != "A" || got.Rows[1].Count != 2 {
		t.Errorf("Rows: got %+v", got.Rows)
	}

	missing, err := s.GetReport(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing: got %v, %v", missing, err)
	}

	if err := s.InsertReport(ctx, newReport("r1", 2000)); err == nil {
		t.Fatal("duplicate id must fail")
	}
}

func TestListReports_NewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		if err := s.InsertReport(ctx, newReport(id, int64(1000*(i+1)))); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListReports(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("order: got %v", ids(all))
	}

	two, err := s.ListReports(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 2 || two[0].ID != "c" || two[1].ID != "b" {
		t.Fatalf("limit: got %v", ids(two))
	}
}

func TestSink(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "db", "archive.db"))
	if err != nil {
		t.Fatal(err)
	}
	rs := s.Sink()
	defer rs.Close()

	if err := rs.SendReport(context.Background(), *newReport("s1", 5)); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetReport(context.Background(), "s1")
	if err != nil || got == nil {
		t.Fatalf("archived report: %v, %v", got, err)
	}
}

func ids(rs []*report.Report) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
