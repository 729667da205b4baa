package dbopen

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory_Pragmas(t *testing.T) {
	db := OpenMemory(t)

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d, want 1", fk)
	}

	var busy int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busy); err != nil {
		t.Fatal(err)
	}
	if busy != 10_000 {
		t.Fatalf("busy_timeout = %d, want 10000", busy)
	}
}

func TestOpen_SchemaAndMkdir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "archive.db")
	db, err := Open(path, WithMkdirAll(), WithBusyTimeout(2000),
		WithSchema("CREATE TABLE t (id INTEGER PRIMARY KEY)"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
	if _, err := db.Exec("INSERT INTO t (id) VALUES (1)"); err != nil {
		t.Fatalf("schema not applied: %v", err)
	}
}

func TestOpen_BadSchema(t *testing.T) {
	if _, err := Open(":memory:", WithSchema("NOT SQL")); err == nil {
		t.Fatal("expected error")
	}
}
