package browser

import (
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// layoutResources decide what gets laid out and where. Failing them would
// make visibility counts disagree with the page a user sees.
var layoutResources = map[string]bool{
	"document":   true,
	"stylesheet": true,
	"script":     true,
	"image":      true,
}

// resourceType maps a configuration name to a CDP resource type.
func resourceType(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "images":
		return "image"
	case "fonts":
		return "font"
	case "stylesheets":
		return "stylesheet"
	case "scripts":
		return "script"
	default:
		return n
	}
}

// blockSet resolves configured names to the CDP types to fail. Layout
// resources are refused with a warning.
func blockSet(names []string, log *slog.Logger) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		t := resourceType(name)
		if t == "" {
			continue
		}
		if layoutResources[t] {
			log.Warn("browser: not blocking layout resource", "type", name)
			continue
		}
		set[t] = true
	}
	return set
}

// applyResourceBlocking fails requests whose CDP type is in blocked.
func applyResourceBlocking(page *rod.Page, blocked map[string]bool) *rod.HijackRouter {
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if blocked[strings.ToLower(string(h.Request.Type()))] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
