// Package clipboard copies exported tables to wherever the user can paste
// them. Strategies are tried in order; the last resort shows the text for
// manual copying.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Strategy is one way of getting text onto a clipboard.
type Strategy interface {
	Name() string
	Available(ctx context.Context) bool
	Copy(ctx context.Context, text string) error
}

// ErrUnavailable is recorded for strategies that reported themselves
// unavailable and were skipped.
var ErrUnavailable = errors.New("clipboard: strategy unavailable")

// Attempt is the outcome of one strategy.
type Attempt struct {
	Method string
	Err    error
}

// ErrExhausted is returned when every strategy failed.
type ErrExhausted struct {
	Attempts []Attempt
}

func (e *ErrExhausted) Error() string {
	if len(e.Attempts) == 0 {
		return "clipboard: no copy strategy configured"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Method, a.Err)
	}
	return "clipboard: all strategies failed (" + strings.Join(parts, "; ") + ")"
}

func (e *ErrExhausted) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// Chain tries strategies in order until one succeeds.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewChain creates a Chain. nil strategies are dropped.
func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chain{logger: logger}
	for _, s := range strategies {
		if s != nil {
			c.strategies = append(c.strategies, s)
		}
	}
	return c
}

// Methods lists the strategy names in order.
func (c *Chain) Methods() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Copy returns the name of the strategy that succeeded. A cancelled
// context stops the chain without trying the remaining strategies.
func (c *Chain) Copy(ctx context.Context, text string) (string, error) {
	var attempts []Attempt
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !s.Available(ctx) {
			attempts = append(attempts, Attempt{Method: s.Name(), Err: ErrUnavailable})
			continue
		}
		if err := s.Copy(ctx, text); err != nil {
			c.logger.Warn("clipboard: strategy failed, falling back",
				"method", s.Name(), "error", err)
			attempts = append(attempts, Attempt{Method: s.Name(), Err: err})
			continue
		}
		c.logger.Info("clipboard: copied", "method", s.Name(), "bytes", len(text))
		return s.Name(), nil
	}
	return "", &ErrExhausted{Attempts: attempts}
}

// Select picks strategies from available by name, in the order given.
// Unknown names are an error.
func Select(names []string, available map[string]Strategy) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		s, ok := available[n]
		if !ok {
			return nil, fmt.Errorf("clipboard: unknown method %q", n)
		}
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}
