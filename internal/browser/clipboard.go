package browser

import (
	"context"
	"fmt"
)

const copyScript = `async (text) => {
	try {
		await navigator.clipboard.writeText(text);
		return "clipboard";
	} catch (e) {}
	const ta = document.createElement("textarea");
	ta.value = text;
	ta.style.position = "fixed";
	ta.style.opacity = "0";
	document.body.appendChild(ta);
	ta.select();
	const ok = document.execCommand("copy");
	ta.remove();
	if (!ok) throw new Error("execCommand copy refused");
	return "execCommand";
}`

// PageClipboard copies through the inspected page: the async clipboard
// API first, then a hidden textarea and execCommand.
type PageClipboard struct {
	tab *Tab
}

// NewPageClipboard creates a copy strategy bound to tab.
func NewPageClipboard(tab *Tab) *PageClipboard {
	return &PageClipboard{tab: tab}
}

func (p *PageClipboard) Name() string { return "page" }

func (p *PageClipboard) Available(ctx context.Context) bool {
	return p != nil && p.tab != nil && p.tab.Page != nil
}

func (p *PageClipboard) Copy(ctx context.Context, text string) error {
	if !p.Available(ctx) {
		return fmt.Errorf("browser: no page to copy through")
	}
	if _, err := p.tab.Page.Context(ctx).Eval(copyScript, text); err != nil {
		return fmt.Errorf("browser: page copy: %w", err)
	}
	return nil
}
