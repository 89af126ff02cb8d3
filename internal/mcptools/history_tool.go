package mcptools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/crmpulse/crmpulse/internal/history"
)

// HistoryLister lists recorded audit runs.
type HistoryLister interface {
	List(portal string, limit int) ([]history.Entry, error)
}

// HistoryTool handles the crm_audit_history MCP tool.
type HistoryTool struct {
	store HistoryLister
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(store HistoryLister) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for crm_audit_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("crm_audit_history",
		mcp.WithDescription(
			"List earlier crm_audit runs, newest first, with score, severity and "+
				"per-signal missingness. Use this to tell whether data quality is improving.",
		),
		mcp.WithString("portal",
			mcp.Description("Only show runs for this portal (default: all portals)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max runs (default: 10, max: 100)"),
		),
	)
}

// Handle processes the crm_audit_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	portal := req.GetString("portal", "")
	limit := intArg(req, "limit", 10)
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := t.store.List(portal, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing history: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No audit runs recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d audit runs:\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "### %s  %s  %d/100 (%s)\n", e.GeneratedAt, e.Portal, e.Score, e.Severity)
		fmt.Fprintf(&b, "%s\n", e.PrimaryRiskDriver)
		fmt.Fprintf(&b, "Records: %d contacts, %d companies, %d deals\n", e.Contacts, e.Companies, e.Deals)

		keys := make([]string, 0, len(e.Signals))
		for k := range e.Signals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %.1f%%\n", k, e.Signals[k])
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
