package mcptools

import "github.com/mark3labs/mcp-go/mcp"

// intArg reads a numeric argument. JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}
