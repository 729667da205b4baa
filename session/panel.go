// Package session is the census panel: it owns the current snapshot and the
// sort selection, and exposes the panel's events (selection change,
// recalculate, header click, reset, export, copy) to the HTTP, MCP and
// terminal front ends.
//
// The panel is either in the no-selection state or holds exactly one
// snapshot. A selection change replaces the snapshot wholesale; a header
// click only re-projects it. The sort selection outlives every snapshot.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/hazyhaar/domcensus/census"
	"github.com/hazyhaar/domcensus/internal/idgen"
	"github.com/hazyhaar/domcensus/internal/sink"
	"github.com/hazyhaar/domcensus/projection"
	"github.com/hazyhaar/domcensus/report"
)

// ErrNoSelection is returned by data-dependent actions while nothing is
// selected.
var ErrNoSelection = errors.New("session: no element selected")

// ErrInvalidRequest marks malformed input from a front end.
var ErrInvalidRequest = errors.New("session: invalid request")

// State is the panel state.
type State int

const (
	StateNoSelection State = iota
	StateWithSnapshot
)

func (s State) String() string {
	if s == StateWithSnapshot {
		return "with-snapshot"
	}
	return "no-selection"
}

// Inspector resolves a selector to a census root in the inspected document.
// A nil node means nothing matched, which is a valid outcome.
type Inspector interface {
	Inspect(ctx context.Context, selector string) (census.Node, census.Viewport, error)
}

// Copier hands text to a clipboard and reports the method that worked.
type Copier interface {
	Copy(ctx context.Context, text string) (string, error)
}

// Config configures a Panel.
type Config struct {
	Inspector Inspector
	// Source names the inspected document in reports. Defaults to the
	// inspector's Source() when it has one.
	Source string
	Locale language.Tag
	Sink   sink.Sink
	Copier Copier
	IDGen  idgen.Generator
	Logger *slog.Logger
	Now    func() time.Time
}

func (c *Config) defaults() {
	if c.Source == "" {
		if s, ok := c.Inspector.(interface{ Source() string }); ok {
			c.Source = s.Source()
		}
	}
	if c.Locale == language.Und {
		c.Locale = language.English
	}
	if c.IDGen == nil {
		c.IDGen = idgen.Default
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Panel is one panel session. Its methods are the event handlers; they
// run one at a time.
type Panel struct {
	cfg      Config
	renderer *projection.Renderer

	mu       sync.Mutex
	selector string
	snap     *census.Snapshot
	sort     projection.SortState

	subMu sync.Mutex
	subs  []func(projection.View)
}

// New creates a panel in the no-selection state with the default sort.
func New(cfg Config) *Panel {
	cfg.defaults()
	return &Panel{
		cfg:      cfg,
		renderer: projection.NewRenderer(cfg.Locale),
		sort:     projection.DefaultSort(),
	}
}

// OnChange registers fn to receive the new view after every state change.
// fn runs outside the panel lock.
func (p *Panel) OnChange(fn func(projection.View)) {
	p.subMu.Lock()
	p.subs = append(p.subs, fn)
	p.subMu.Unlock()
}

func (p *Panel) notify(v projection.View) {
	p.subMu.Lock()
	subs := append([]func(projection.View){}, p.subs...)
	p.subMu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}

// Select handles a selection change: the element matching selector is
// censused and its snapshot replaces the current one. A selector matching
// nothing moves the panel to the no-selection state. On inspection errors
// the previous snapshot is kept and the error returned.
func (p *Panel) Select(ctx context.Context, selector string) (projection.View, error) {
	if selector == "" {
		return p.View(), fmt.Errorf("%w: empty selector", ErrInvalidRequest)
	}
	p.mu.Lock()
	v, err := p.censusLocked(ctx, selector)
	p.mu.Unlock()
	if err == nil {
		p.notify(v)
	}
	return v, err
}

// Refresh re-runs the census for the current selector (the recalculate
// action). The page may have changed since the last census.
func (p *Panel) Refresh(ctx context.Context) (projection.View, error) {
	p.mu.Lock()
	if p.selector == "" {
		v := p.viewLocked()
		p.mu.Unlock()
		return v, ErrNoSelection
	}
	v, err := p.censusLocked(ctx, p.selector)
	p.mu.Unlock()
	if err == nil {
		p.notify(v)
	}
	return v, err
}

func (p *Panel) censusLocked(ctx context.Context, selector string) (projection.View, error) {
	log := p.cfg.Logger
	start := time.Now()

	root, vp, err := p.cfg.Inspector.Inspect(ctx, selector)
	if err != nil {
		log.Warn("session: inspect failed, keeping previous snapshot", "selector", selector, "error", err)
		return p.viewLocked(), fmt.Errorf("session: inspect %q: %w", selector, err)
	}

	snap, err := census.TakeContext(ctx, root, vp)
	if err != nil {
		log.Warn("session: census interrupted, keeping previous snapshot", "selector", selector, "error", err)
		return p.viewLocked(), fmt.Errorf("session: census %q: %w", selector, err)
	}

	p.selector = selector
	p.snap = snap
	if snap == nil {
		log.Info("session: selection cleared", "selector", selector)
	} else {
		log.Info("session: census taken",
			"selector", selector,
			"node", snap.CurrentNode.Title(),
			"total", snap.Total,
			"visible", snap.Visible,
			"groups", len(snap.Counts),
			"duration", time.Since(start))
	}
	return p.viewLocked(), nil
}

// Observe installs a snapshot produced elsewhere. nil clears the panel.
func (p *Panel) Observe(snap *census.Snapshot) projection.View {
	p.mu.Lock()
	p.snap = snap
	v := p.viewLocked()
	p.mu.Unlock()
	p.notify(v)
	return v
}

// Clear drops the snapshot and the selector.
func (p *Panel) Clear() projection.View {
	p.mu.Lock()
	p.snap = nil
	p.selector = ""
	v := p.viewLocked()
	p.mu.Unlock()
	p.notify(v)
	return v
}

// ClickHeader applies a header click and re-projects the current snapshot.
// It never takes a new census.
func (p *Panel) ClickHeader(c projection.Column) projection.View {
	p.mu.Lock()
	p.sort = p.sort.Click(c)
	p.cfg.Logger.Debug("session: sort changed", "sort", p.sort.String())
	v := p.viewLocked()
	p.mu.Unlock()
	p.notify(v)
	return v
}

// ResetSort restores the default sort.
func (p *Panel) ResetSort() projection.View {
	p.mu.Lock()
	p.sort = p.sort.Reset()
	v := p.viewLocked()
	p.mu.Unlock()
	p.notify(v)
	return v
}

// View renders the current state.
func (p *Panel) View() projection.View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

func (p *Panel) viewLocked() projection.View {
	return p.renderer.Render(p.snap, p.sort)
}

// Snapshot returns the current snapshot, nil in the no-selection state.
// Snapshots are never mutated, so the pointer may be kept.
func (p *Panel) Snapshot() *census.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Sort returns the sort selection.
func (p *Panel) Sort() projection.SortState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sort
}

// Selector returns the selector of the last successful selection.
func (p *Panel) Selector() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selector
}

// Source names the inspected document.
func (p *Panel) Source() string { return p.cfg.Source }

// State returns the panel state.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap == nil {
		return StateNoSelection
	}
	return StateWithSnapshot
}

// Artifact is the markdown table of the current projection, the text
// handed to copy and export.
func (p *Panel) Artifact() (string, error) {
	v := p.View()
	if v.Empty {
		return "", ErrNoSelection
	}
	return projection.Markdown(v)
}

// Report builds the export report for the current projection without
// delivering it.
func (p *Panel) Report() (*report.Report, error) {
	p.mu.Lock()
	v := p.viewLocked()
	selector := p.selector
	p.mu.Unlock()

	if v.Empty {
		return nil, ErrNoSelection
	}
	md, err := projection.Markdown(v)
	if err != nil {
		return nil, err
	}
	markup, err := projection.HTML(v)
	if err != nil {
		return nil, err
	}
	return report.FromView(p.cfg.IDGen(), p.cfg.Source, selector, v, md, markup, p.cfg.Now()), nil
}

// Export builds a report and delivers it to the configured sink. A
// delivery failure is returned with the report; panel state is unchanged
// either way.
func (p *Panel) Export(ctx context.Context) (*report.Report, error) {
	r, err := p.Report()
	if err != nil {
		return nil, err
	}
	if p.cfg.Sink == nil {
		return r, nil
	}
	if err := p.cfg.Sink.SendReport(ctx, *r); err != nil {
		p.cfg.Logger.Warn("session: export failed", "report", r.ID, "error", err)
		return r, fmt.Errorf("session: export: %w", err)
	}
	p.cfg.Logger.Info("session: exported", "report", r.ID, "title", r.Title, "rows", len(r.Rows))
	return r, nil
}

// Copy hands the artifact to the clipboard chain and returns the method
// that succeeded.
func (p *Panel) Copy(ctx context.Context) (string, error) {
	text, err := p.Artifact()
	if err != nil {
		return "", err
	}
	if p.cfg.Copier == nil {
		return "", fmt.Errorf("session: copy: no clipboard configured")
	}
	method, err := p.cfg.Copier.Copy(ctx, text)
	if err != nil {
		p.cfg.Logger.Warn("session: copy failed", "error", err)
		return "", fmt.Errorf("session: copy: %w", err)
	}
	return method, nil
}
