package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/crmpulse/crmpulse/pkg/audit"
)

// maxBriefActions caps the actions listed in a Markdown brief.
const maxBriefActions = 5

// MarkdownRenderer produces a Markdown audit brief, suitable for pasting into
// a ticket or feeding to a narrative writer.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, result *audit.Result) error {
	_, err := io.WriteString(w, BuildMarkdownBrief(result))
	return err
}

// BuildMarkdownBrief formats the result as a Markdown document.
func BuildMarkdownBrief(result *audit.Result) string {
	var sb strings.Builder
	h := result.OverallHealth

	sb.WriteString(fmt.Sprintf("## CRM Health: %d/100 (%s)\n\n", h.Score, severityLabel(h.Severity)))
	sb.WriteString(fmt.Sprintf("> %s\n\n", h.PrimaryRiskDriver))

	c := result.Metadata.RecordCounts
	sb.WriteString("### Records\n\n")
	sb.WriteString("| Object | Count |\n|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Contacts | %d |\n", c.Contacts))
	sb.WriteString(fmt.Sprintf("| Companies | %d |\n", c.Companies))
	sb.WriteString(fmt.Sprintf("| Deals | %d |\n", c.Deals))
	sb.WriteString("\n")

	sb.WriteString("### Signals\n\n")
	sb.WriteString("| | Signal | Missing | Severity | Criticality |\n|---|--------|---------|----------|-------------|\n")
	for _, s := range result.Signals {
		sb.WriteString(fmt.Sprintf("| %s | %s | %.1f%% | %s | %s |\n",
			severityIcon(s.Severity), s.Label, s.Value, severityLabel(s.Severity), s.Criticality))
	}
	sb.WriteString("\n")

	if len(result.PrioritizedActions) > 0 {
		sb.WriteString("### Prioritized Actions\n\n")
		for i, a := range result.PrioritizedActions {
			if i >= maxBriefActions {
				sb.WriteString(fmt.Sprintf("_... and %d more actions_\n", len(result.PrioritizedActions)-maxBriefActions))
				break
			}
			sb.WriteString(fmt.Sprintf("%d. **%s** (%s, %s effort, ~%d days)\n",
				a.Priority, a.Action, a.OwnerRole, a.Effort, a.TimeToValueDays))
			sb.WriteString(fmt.Sprintf("   - %s\n", a.Why))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("_Generated %s_\n", result.Metadata.GeneratedAt))
	return sb.String()
}

func severityIcon(sev audit.Severity) string {
	switch sev {
	case audit.SeverityHigh:
		return ":red_circle:"
	case audit.SeverityMedium:
		return ":orange_circle:"
	case audit.SeverityLow:
		return ":green_circle:"
	default:
		return ":white_circle:"
	}
}

func severityLabel(sev audit.Severity) string {
	switch sev {
	case audit.SeverityHigh:
		return "HIGH"
	case audit.SeverityMedium:
		return "MEDIUM"
	case audit.SeverityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}
