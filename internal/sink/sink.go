// Package sink delivers exported census reports to output backends.
package sink

import (
	"context"

	"github.com/hazyhaar/domcensus/report"
)

// Sink is the export interface. Implementations deliver reports to stdout,
// a webhook, a directory, the archive store or an in-process callback.
type Sink interface {
	SendReport(ctx context.Context, r report.Report) error
	Close() error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
