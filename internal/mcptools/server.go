// Package mcptools exposes the audit engine to agents as MCP tools.
package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/crmpulse/crmpulse/internal/history"
	"github.com/crmpulse/crmpulse/pkg/audit"
)

// NewServer builds an MCP server with the audit tools registered.
// store may be nil, in which case runs are not recorded and the history
// tool is not offered.
func NewServer(engine *audit.Engine, store *history.Store, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"crmpulse",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions(store != nil)),
	)

	auditTool := NewAuditTool(engine)
	if store != nil {
		auditTool.WithRecorder(store)
	}
	s.AddTool(auditTool.Definition(), auditTool.Handle)

	if store != nil {
		historyTool := NewHistoryTool(store)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	return s
}

func instructions(withHistory bool) string {
	text := "crmpulse audits CRM data (contacts, companies, deals) for missing fields. " +
		"Call crm_audit with a dataset to get a 0-100 health score, per-signal missingness " +
		"and a ranked list of remediation actions. Results are deterministic: the same " +
		"dataset always produces the same score and actions."
	if withHistory {
		text += " Call crm_audit_history to compare against earlier runs for a portal."
	}
	return text
}
