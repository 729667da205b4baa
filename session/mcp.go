package session

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domcensus/internal/kit"
)

// RegisterMCP registers the panel's tools on an MCP server.
func (p *Panel) RegisterMCP(srv *mcp.Server) {
	noArgs := kit.InputSchema(map[string]any{}, nil)

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domcensus_view",
		Description: "Show the current census table: selected element, rows in display order, totals and sort state.",
		InputSchema: noArgs,
	}, p.viewEndpoint(), kit.DecodeJSON[emptyRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domcensus_select",
		Description: "Select an element by CSS selector and count its descendants by tag, with how many are visible in the viewport.",
		InputSchema: kit.InputSchema(map[string]any{
			"selector": map[string]any{"type": "string", "description": "CSS selector of the element to census (first match)"},
		}, []string{"selector"}),
	}, p.selectEndpoint(), kit.DecodeJSON[selectRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domcensus_refresh",
		Description: "Recalculate the census for the current selection.",
		InputSchema: noArgs,
	}, p.refreshEndpoint(), kit.DecodeJSON[emptyRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domcensus_sort",
		Description: "Click a column header. Clicking the active column toggles its direction; another column starts ascending for name, descending for counts.",
		InputSchema: kit.InputSchema(map[string]any{
			"column": map[string]any{"type": "string", "enum": []any{"name", "count", "visible"}, "description": "Column header to click"},
		}, []string{"column"}),
	}, p.sortEndpoint(), kit.DecodeJSON[sortRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domcensus_reset_sort",
		Description: "Restore the default order (count descending).",
		InputSchema: noArgs,
	}, p.resetSortEndpoint(), kit.DecodeJSON[emptyRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domcensus_export",
		Description: "Export the table as displayed to the configured report sinks and return its markdown.",
		InputSchema: noArgs,
	}, p.exportEndpoint(), kit.DecodeJSON[emptyRequest]())
}
