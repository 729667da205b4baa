package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/domcensus/report"
)

// File writes each report's markdown to its own file in a directory.
type File struct {
	dir string
}

// NewFile creates a File sink writing into dir, created on first use.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

// Path returns where r is written.
func (f *File) Path(r report.Report) string {
	return filepath.Join(f.dir, r.FileName())
}

func (f *File) SendReport(_ context.Context, r report.Report) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("file sink: mkdir: %w", err)
	}
	path := f.Path(r)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(r.Markdown), 0o644); err != nil {
		return fmt.Errorf("file sink: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("file sink: rename: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }
