package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crmpulse/crmpulse/pkg/audit"
)

// TerminalRenderer renders an audit Result as colored terminal output.
type TerminalRenderer struct {
	// NoColor disables ANSI codes even when NO_COLOR is unset.
	NoColor bool
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func severityColor(sev audit.Severity) string {
	switch sev {
	case audit.SeverityHigh:
		return colorRed
	case audit.SeverityMedium:
		return colorYellow
	case audit.SeverityLow:
		return colorGreen
	}
	return ""
}

func scoreColor(score int) string {
	switch {
	case score >= 70:
		return colorGreen
	case score >= 40:
		return colorYellow
	default:
		return colorRed
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func (r *TerminalRenderer) plain() bool {
	return r.NoColor || noColor()
}

func (r *TerminalRenderer) bold(s string) string {
	if r.plain() {
		return s
	}
	return colorBold + s + colorReset
}

func (r *TerminalRenderer) dim(s string) string {
	if r.plain() {
		return s
	}
	return colorDim + s + colorReset
}

func (r *TerminalRenderer) colored(s, color string) string {
	if r.plain() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, result *audit.Result) error {
	h := result.OverallHealth

	// Header
	fmt.Fprintf(w, "%s\n",
		r.bold(fmt.Sprintf("CRM Health: %s/100 (%s)",
			r.colored(fmt.Sprintf("%d", h.Score), scoreColor(h.Score)),
			r.colored(strings.ToUpper(string(h.Severity)), severityColor(h.Severity)))))
	for _, line := range wrapText(h.PrimaryRiskDriver, 76) {
		fmt.Fprintf(w, "%s\n", line)
	}
	fmt.Fprintln(w)

	counts := result.Metadata.RecordCounts
	fmt.Fprintf(w, "Analyzed: %d contacts / %d companies / %d deals\n\n",
		counts.Contacts, counts.Companies, counts.Deals)

	// Signals
	fmt.Fprintln(w, "Signals:")
	groups := []struct {
		name    string
		signals []audit.SignalResult
	}{
		{"Deals", result.SignalsByObject.Deals},
		{"Companies", result.SignalsByObject.Companies},
		{"Contacts", result.SignalsByObject.Contacts},
	}
	for _, g := range groups {
		if len(g.signals) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s\n", r.bold(g.name))
		for _, s := range g.signals {
			fmt.Fprintf(w, "    %s %-36s %5.1f%%  %s\n",
				r.colored("●", severityColor(s.Severity)), s.Label, s.Value,
				r.dim(fmt.Sprintf("%s / %s", s.Severity, s.Criticality)))
		}
	}
	fmt.Fprintln(w)

	// Actions
	if len(result.PrioritizedActions) == 0 {
		fmt.Fprintln(w, "No remediation needed.")
		fmt.Fprintln(w)
		return nil
	}

	var tier audit.Tier
	for _, a := range result.PrioritizedActions {
		if a.Tier != tier {
			tier = a.Tier
			if tier == audit.TierPrimary {
				fmt.Fprintln(w, "Fix first:")
			} else {
				fmt.Fprintln(w, "Then:")
			}
		}
		fmt.Fprintf(w, "  %d. %s\n", a.Priority, r.bold(a.Action))
		for _, line := range wrapText(a.Why, 70) {
			fmt.Fprintf(w, "     %s\n", r.dim(line))
		}
		fmt.Fprintf(w, "     %s\n", r.dim(fmt.Sprintf("owner: %s · effort: %s · ~%d days", a.OwnerRole, a.Effort, a.TimeToValueDays)))
	}
	fmt.Fprintln(w)

	return nil
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
