package audit_test

import (
	"testing"

	"github.com/crmpulse/crmpulse/pkg/audit"
)

func TestDeriveRiskDriver(t *testing.T) {
	tests := []struct {
		name    string
		signals []audit.SignalResult
		want    string
	}{
		{
			name: "two critical deal failures",
			signals: []audit.SignalResult{
				signal(audit.SignalDealsMissingCloseDate, 50, audit.SeverityHigh, audit.CriticalityCritical),
				signal(audit.SignalDealsMissingAmount, 41, audit.SeverityHigh, audit.CriticalityCritical),
			},
			want: "Revenue forecasting is compromised: on average 46% of deals are missing close dates or amounts, so forecast timing and pipeline value cannot be trusted.",
		},
		{
			name: "single critical deal failure outranks larger non-critical",
			signals: []audit.SignalResult{
				signal(audit.SignalContactsMissingEmail, 95, audit.SeverityHigh, audit.CriticalityHigh),
				signal(audit.SignalDealsMissingAmount, 35, audit.SeverityHigh, audit.CriticalityCritical),
			},
			want: "35% of deals missing amount. Pipeline value and weighted forecast are understated.",
		},
		{
			name: "largest high signal",
			signals: []audit.SignalResult{
				signal(audit.SignalContactsMissingEmail, 40, audit.SeverityHigh, audit.CriticalityHigh),
				signal(audit.SignalCompaniesMissingDomain, 72.6, audit.SeverityHigh, audit.CriticalityHigh),
				signal(audit.SignalDealsMissingCloseDate, 20, audit.SeverityMedium, audit.CriticalityCritical),
			},
			want: "73% of companies missing domain. Contacts cannot be auto-associated with their company.",
		},
		{
			name: "tie keeps earlier signal",
			signals: []audit.SignalResult{
				signal(audit.SignalCompaniesMissingIndustry, 60, audit.SeverityHigh, audit.CriticalityMedium),
				signal(audit.SignalContactsMissingEmail, 60, audit.SeverityHigh, audit.CriticalityHigh),
			},
			want: "60% of companies missing industry. Territory and vertical segmentation is unreliable.",
		},
		{
			name: "no high signals",
			signals: []audit.SignalResult{
				signal(audit.SignalContactsMissingEmail, 20, audit.SeverityMedium, audit.CriticalityHigh),
			},
			want: "Data quality is acceptable; only minor improvements are recommended.",
		},
		{
			name:    "empty",
			signals: nil,
			want:    "Data quality is acceptable; only minor improvements are recommended.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := audit.DeriveRiskDriver(tc.signals); got != tc.want {
				t.Errorf("DeriveRiskDriver =\n  %q\nwant\n  %q", got, tc.want)
			}
		})
	}
}

func TestDeriveRiskDriver_NoImpacts(t *testing.T) {
	signals := []audit.SignalResult{{
		Key:         audit.SignalContactsMissingEmail,
		Label:       "Contacts Missing Email",
		Value:       45,
		Severity:    audit.SeverityHigh,
		Criticality: audit.CriticalityHigh,
	}}
	want := "45% of contacts missing email."
	if got := audit.DeriveRiskDriver(signals); got != want {
		t.Errorf("DeriveRiskDriver = %q, want %q", got, want)
	}
}
