package audit

import (
	"fmt"
	"math"
	"strings"
)

const acceptableRiskDriver = "Data quality is acceptable; only minor improvements are recommended."

// driverRule is one step of the risk driver fallback chain. match returns
// the signals the rule applies to, or false to fall through.
type driverRule struct {
	name   string
	match  func(signals []SignalResult) ([]SignalResult, bool)
	format func(matched []SignalResult) string
}

// riskDriverRules are evaluated in order; the first match wins.
var riskDriverRules = []driverRule{
	{name: "critical_deal_failures", match: matchCriticalDealFailures, format: formatCriticalDealFailures},
	{name: "largest_high_severity", match: matchLargestHighSeverity, format: formatSingleSignal},
	{name: "acceptable", match: matchAlways, format: func([]SignalResult) string { return acceptableRiskDriver }},
}

// DeriveRiskDriver returns the single sentence naming the dominant risk.
func DeriveRiskDriver(signals []SignalResult) string {
	for _, rule := range riskDriverRules {
		if matched, ok := rule.match(signals); ok {
			return rule.format(matched)
		}
	}
	return acceptableRiskDriver
}

func matchCriticalDealFailures(signals []SignalResult) ([]SignalResult, bool) {
	var deals []SignalResult
	for _, s := range signals {
		if s.Criticality == CriticalityCritical && s.Severity == SeverityHigh && isDealSignal(s.Key) {
			deals = append(deals, s)
		}
	}
	return deals, len(deals) > 0
}

func formatCriticalDealFailures(matched []SignalResult) string {
	if len(matched) == 1 {
		return formatSingleSignal(matched)
	}

	var sum float64
	for _, s := range matched {
		sum += s.Value
	}
	avg := roundPct(sum / float64(len(matched)))
	return fmt.Sprintf("Revenue forecasting is compromised: on average %d%% of deals are missing close dates or amounts, so forecast timing and pipeline value cannot be trusted.", avg)
}

// matchLargestHighSeverity picks the high-severity signal with the largest
// value. Ties keep the earlier signal.
func matchLargestHighSeverity(signals []SignalResult) ([]SignalResult, bool) {
	var best *SignalResult
	for i := range signals {
		s := &signals[i]
		if s.Severity != SeverityHigh {
			continue
		}
		if best == nil || s.Value > best.Value {
			best = s
		}
	}
	if best == nil {
		return nil, false
	}
	return []SignalResult{*best}, true
}

func matchAlways(signals []SignalResult) ([]SignalResult, bool) {
	return nil, true
}

func formatSingleSignal(matched []SignalResult) string {
	s := matched[0]
	sentence := fmt.Sprintf("%d%% of %s.", roundPct(s.Value), normalizeLabel(s.Label))
	if impact := firstImpact(s.Impacts); impact != "" {
		sentence += " " + impact + "."
	}
	return sentence
}

func isDealSignal(key SignalKey) bool {
	return strings.HasPrefix(string(key), "deals_")
}

func roundPct(v float64) int {
	return int(math.Round(v))
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func firstImpact(impacts []string) string {
	if len(impacts) == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSpace(impacts[0]), ".")
}
