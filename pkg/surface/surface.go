// Package surface defines output rendering for crmpulse audit results.
// Implementations handle different output targets: terminal, JSON, Markdown.
package surface

import (
	"fmt"
	"io"

	"github.com/crmpulse/crmpulse/pkg/audit"
)

// Renderer produces formatted output from an audit Result.
type Renderer interface {
	// Render writes the formatted audit result to the writer.
	Render(w io.Writer, result *audit.Result) error
}

// ForFormat returns the renderer for an output format name.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
