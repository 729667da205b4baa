package sink

import (
	"context"

	"github.com/hazyhaar/domcensus/report"
)

// ReportFunc is called for each report, in process, without serialisation.
type ReportFunc func(ctx context.Context, r report.Report) error

// Callback delivers reports via a Go function call.
type Callback struct {
	fn ReportFunc
}

// NewCallback creates a Callback sink. fn may be nil.
func NewCallback(fn ReportFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) SendReport(ctx context.Context, r report.Report) error {
	if c.fn != nil {
		return c.fn(ctx, r)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
