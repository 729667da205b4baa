package htmltree

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domcensus/census"
)

// Parse parses an HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmltree: parse: %w", err)
	}
	return doc, nil
}

// Inspector serves census roots from a static HTML source. The source is
// re-read on every Inspect, so edits to a file are picked up by the next
// selection change or recalculation.
type Inspector struct {
	name     string
	open     func() (io.ReadCloser, error)
	viewport census.Viewport
	logger   *slog.Logger
}

// NewFileInspector inspects the HTML file at path.
func NewFileInspector(path string, vp census.Viewport, logger *slog.Logger) *Inspector {
	return NewInspector(path, func() (io.ReadCloser, error) { return os.Open(path) }, vp, logger)
}

// NewInspector inspects whatever open returns. name identifies the source
// in reports and logs.
func NewInspector(name string, open func() (io.ReadCloser, error), vp census.Viewport, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{name: name, open: open, viewport: vp, logger: logger}
}

// Source returns the inspector's source name.
func (in *Inspector) Source() string { return in.name }

// Inspect parses the source and returns the first element matching
// selector. No match yields a nil node and no error.
func (in *Inspector) Inspect(ctx context.Context, selector string) (census.Node, census.Viewport, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, in.viewport, err
	}
	if err := ctx.Err(); err != nil {
		return nil, in.viewport, err
	}

	rc, err := in.open()
	if err != nil {
		return nil, in.viewport, fmt.Errorf("htmltree: open %s: %w", in.name, err)
	}
	defer rc.Close()

	doc, err := Parse(rc)
	if err != nil {
		return nil, in.viewport, err
	}

	n := sel.First(doc)
	if n == nil {
		in.logger.Debug("htmltree: selector matched nothing", "source", in.name, "selector", selector)
		return nil, in.viewport, nil
	}
	return Wrap(n), in.viewport, nil
}
