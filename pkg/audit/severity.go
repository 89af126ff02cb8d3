package audit

const (
	highThresholdPct   = 30.0
	mediumThresholdPct = 10.0
)

// ClassifySeverity maps a missingness percentage to a severity tier.
// Critical signals escalate to high at the same threshold as everything
// else; criticality never lowers a severity.
func ClassifySeverity(pct float64, c Criticality) Severity {
	if c == CriticalityCritical && pct > highThresholdPct {
		return SeverityHigh
	}
	switch {
	case pct > highThresholdPct:
		return SeverityHigh
	case pct > mediumThresholdPct:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
