package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/domcensus/report"
)

// Router fans a report out to every sink. One sink error does not block
// the others; errors are logged and the first is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

// Len reports how many sinks the router delivers to.
func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) SendReport(ctx context.Context, rep report.Report) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.SendReport(ctx, rep); err != nil {
			r.logger.Warn("sink: send report failed", "report", rep.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
