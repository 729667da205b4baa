package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Tab is the inspected page.
type Tab struct {
	Page    *rod.Page
	PageURL string

	router   *rod.HijackRouter
	attached bool
}

// OpenTab creates a stealth tab, applies resource blocking and the
// viewport, and navigates to pageURL.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	tab := &Tab{Page: page, PageURL: pageURL}

	if blocked := blockSet(mgr.cfg.ResourceBlocking, mgr.cfg.Logger); len(blocked) > 0 {
		tab.router = applyResourceBlocking(page, blocked)
	}
	if err := tab.setViewport(mgr); err != nil {
		mgr.cfg.Logger.Warn("browser: set viewport failed", "error", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, mgr.cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		tab.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	return tab, nil
}

// AttachTab reuses an open tab whose URL starts with pageURL, so a page the
// user is already working in can be inspected as-is. The tab is not closed
// by Close.
func AttachTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}
	pages, err := b.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("browser: list tabs: %w", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if strings.HasPrefix(info.URL, pageURL) {
			mgr.cfg.Logger.Info("browser: attached to tab", "url", info.URL, "title", info.Title)
			return &Tab{Page: p, PageURL: info.URL, attached: true}, nil
		}
	}
	return nil, fmt.Errorf("browser: no open tab matches %s", pageURL)
}

func (t *Tab) setViewport(mgr *Manager) error {
	vp := mgr.cfg.Viewport
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil
	}
	return t.Page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             int(vp.Width),
		Height:            int(vp.Height),
		DeviceScaleFactor: 1,
	})
}

// Close stops request interception and closes the tab unless it was
// attached.
func (t *Tab) Close() error {
	if t.router != nil {
		t.router.Stop()
		t.router = nil
	}
	if t.Page != nil && !t.attached {
		return t.Page.Close()
	}
	return nil
}
