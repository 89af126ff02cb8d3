package mcptools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/crmpulse/crmpulse/pkg/audit"
	"github.com/crmpulse/crmpulse/pkg/crm"
	"github.com/crmpulse/crmpulse/pkg/surface"
)

// Recorder persists completed audits.
type Recorder interface {
	Record(portal string, result *audit.Result, reportRef string) (int64, error)
}

// AuditTool handles the crm_audit MCP tool.
type AuditTool struct {
	engine   *audit.Engine
	recorder Recorder
}

// NewAuditTool creates an AuditTool. A nil engine uses the default tables.
func NewAuditTool(engine *audit.Engine) *AuditTool {
	if engine == nil {
		engine = audit.NewEngine()
	}
	return &AuditTool{engine: engine}
}

// WithRecorder makes the tool record every successful run.
func (t *AuditTool) WithRecorder(r Recorder) *AuditTool {
	t.recorder = r
	return t
}

// Definition returns the MCP tool definition for crm_audit.
func (t *AuditTool) Definition() mcp.Tool {
	return mcp.NewTool("crm_audit",
		mcp.WithDescription(
			"Audit a CRM dataset for missing fields. Returns the overall health score, "+
				"severity, primary risk driver, every signal and the prioritized remediation actions. "+
				"Provide the dataset inline or as a path to a JSON file.",
		),
		mcp.WithString("dataset",
			mcp.Description(`Dataset as JSON: {"contacts":[...],"companies":[...],"deals":[...]}, each record {"id":"...","properties":{...}}`),
		),
		mcp.WithString("path",
			mcp.Description("Path to a dataset JSON file (used when 'dataset' is empty)"),
		),
		mcp.WithString("portal",
			mcp.Description("Portal name to record the run under (default: default)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json (default) or markdown"),
		),
	)
}

// Handle processes the crm_audit tool call.
func (t *AuditTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inline := req.GetString("dataset", "")
	path := req.GetString("path", "")
	portal := req.GetString("portal", "default")
	format := req.GetString("format", "json")

	if format != "json" && format != "markdown" {
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q: use json or markdown", format)), nil
	}

	var ds crm.Dataset
	switch {
	case inline != "":
		if err := json.Unmarshal([]byte(inline), &ds); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid dataset JSON: %v", err)), nil
		}
	case path != "":
		loaded, err := crm.LoadDataset(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading dataset: %v", err)), nil
		}
		ds = *loaded
	default:
		return mcp.NewToolResultError("one of 'dataset' or 'path' is required"), nil
	}

	result := t.engine.Audit(ds)

	if t.recorder != nil {
		if _, err := t.recorder.Record(portal, result, ""); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("recording audit: %v", err)), nil
		}
	}

	renderer, err := surface.ForFormat(format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, result); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rendering result: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
