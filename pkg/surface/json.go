package surface

import (
	"encoding/json"
	"io"

	"github.com/crmpulse/crmpulse/pkg/audit"
)

// JSONRenderer marshals the audit Result to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, result *audit.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
