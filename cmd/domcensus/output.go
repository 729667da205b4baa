package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hazyhaar/domcensus/internal/tui"
	"github.com/hazyhaar/domcensus/projection"
)

// printView writes v in the requested format. An empty view prints its
// message in every format but json.
func printView(w io.Writer, v projection.View, format string) error {
	var out string
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode view: %w", err)
		}
		out = string(data)
	case "markdown", "html":
		if v.Empty {
			out = v.EmptyMessage
			break
		}
		var err error
		if format == "html" {
			out, err = projection.HTML(v)
		} else {
			out, err = projection.Markdown(v)
		}
		if err != nil {
			return err
		}
	default:
		out = tui.Summary(v) + "\n\n" + tui.Table(v)
	}
	_, err := fmt.Fprintln(w, out)
	return err
}
