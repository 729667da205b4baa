package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/domcensus/census"
)

// censusScript serialises the subtree under the first element matching
// the selector argument. Elements carry their computed display, visibility
// and opacity and their bounding client rect; every node carries nodeType
// and tagName (elements) or nodeName (everything else).
const censusScript = `(sel) => {
	const vp = {width: window.innerWidth, height: window.innerHeight};
	const root = document.querySelector(sel);
	if (!root) {
		return JSON.stringify({found: false, vp: vp});
	}
	const walk = (n) => {
		const out = {k: n.nodeType, n: n.nodeType === 1 ? n.tagName : n.nodeName};
		if (n.nodeType === 1) {
			if (n.id) out.id = n.id;
			if (n.classList && n.classList.length) out.cls = Array.from(n.classList);
			const cs = getComputedStyle(n);
			const r = n.getBoundingClientRect();
			out.b = {
				display: cs.display,
				visibility: cs.visibility,
				opacity: cs.opacity,
				rect: {top: r.top, left: r.left, width: r.width, height: r.height}
			};
		}
		if (n.childNodes.length) {
			out.c = [];
			for (const c of n.childNodes) out.c.push(walk(c));
		}
		return out;
	};
	return JSON.stringify({found: true, vp: vp, root: walk(root)});
}`

type censusResult struct {
	Found    bool            `json:"found"`
	Viewport census.Viewport `json:"vp"`
	Root     *census.MemNode `json:"root"`
}

// decodeCensus turns the script's JSON into a census root. A selector that
// matched nothing yields a nil node.
func decodeCensus(raw string) (census.Node, census.Viewport, error) {
	var res censusResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, census.Viewport{}, fmt.Errorf("browser: decode census: %w", err)
	}
	if !res.Found || res.Root == nil {
		return nil, res.Viewport, nil
	}
	return res.Root, res.Viewport, nil
}

// Inspector reads census roots from a live tab. Each Inspect snapshots the
// DOM and layout at that moment; the page keeps running in between.
type Inspector struct {
	tab    *Tab
	logger *slog.Logger
}

// NewInspector creates an Inspector over tab.
func NewInspector(tab *Tab, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{tab: tab, logger: logger}
}

// Source returns the tab URL.
func (in *Inspector) Source() string { return in.tab.PageURL }

// Inspect evaluates the census script for selector.
func (in *Inspector) Inspect(ctx context.Context, selector string) (census.Node, census.Viewport, error) {
	res, err := in.tab.Page.Context(ctx).Eval(censusScript, selector)
	if err != nil {
		return nil, census.Viewport{}, fmt.Errorf("browser: census %q: %w", selector, err)
	}
	node, vp, err := decodeCensus(res.Value.Str())
	if err != nil {
		return nil, vp, err
	}
	if node == nil {
		in.logger.Debug("browser: selector matched nothing", "url", in.tab.PageURL, "selector", selector)
	}
	return node, vp, nil
}
