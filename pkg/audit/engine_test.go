package audit_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/crmpulse/crmpulse/pkg/audit"
	"github.com/crmpulse/crmpulse/pkg/crm"
)

func findSignal(t *testing.T, result *audit.Result, key audit.SignalKey) audit.SignalResult {
	t.Helper()
	for _, s := range result.Signals {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("signal %s not found", key)
	return audit.SignalResult{}
}

func TestEngineAudit_CloseDateScenario(t *testing.T) {
	ds := crm.Dataset{
		Deals: makeDeals(10, map[string]int{crm.PropCloseDate: 5}),
	}

	result := audit.NewEngine(audit.WithClock(fixedClock)).Audit(ds)

	if len(result.Signals) != 7 {
		t.Fatalf("expected 7 signals, got %d", len(result.Signals))
	}

	closeDate := findSignal(t, result, audit.SignalDealsMissingCloseDate)
	if closeDate.Value != 50 {
		t.Errorf("close date value = %f, want 50", closeDate.Value)
	}
	if closeDate.Severity != audit.SeverityHigh {
		t.Errorf("close date severity = %s, want high", closeDate.Severity)
	}
	if got := closeDate.Severity.Penalty() * closeDate.Criticality.Weight(); got != 60 {
		t.Errorf("close date penalty = %d, want 60", got)
	}

	// 60 (close date) + 10 (amount, critical low) + 5*5 (other lows) = 95
	if got := audit.TotalPenalty(result.Signals); got != 95 {
		t.Errorf("TotalPenalty = %d, want 95", got)
	}
	if result.OverallHealth.Score != 10 {
		t.Errorf("score = %d, want floor 10", result.OverallHealth.Score)
	}
	if result.OverallHealth.Severity != audit.SeverityHigh {
		t.Errorf("overall severity = %s, want high", result.OverallHealth.Severity)
	}

	wantDriver := "50% of deals missing close date. Forecast timing is unreliable because deals cannot be placed in a period."
	if result.OverallHealth.PrimaryRiskDriver != wantDriver {
		t.Errorf("driver = %q, want %q", result.OverallHealth.PrimaryRiskDriver, wantDriver)
	}

	if len(result.PrioritizedActions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(result.PrioritizedActions))
	}
	a := result.PrioritizedActions[0]
	if a.Priority != 1 || a.SignalKey != audit.SignalDealsMissingCloseDate || a.Tier != audit.TierPrimary {
		t.Errorf("unexpected action %+v", a)
	}
	if !strings.HasPrefix(a.Why, "50% of deals missing close date affected.") {
		t.Errorf("why = %q", a.Why)
	}

	if result.Metadata.GeneratedAt != "2026-03-14T09:30:00Z" {
		t.Errorf("generated_at = %q", result.Metadata.GeneratedAt)
	}
	if result.Metadata.RecordCounts.Deals != 10 {
		t.Errorf("deal count = %d, want 10", result.Metadata.RecordCounts.Deals)
	}
}

func TestEngineAudit_EmptyDataset(t *testing.T) {
	result := audit.NewEngine().Audit(crm.Dataset{})

	for _, s := range result.Signals {
		if s.Value != 0 {
			t.Errorf("signal %s value = %f, want 0", s.Key, s.Value)
		}
		if s.Severity != audit.SeverityLow {
			t.Errorf("signal %s severity = %s, want low", s.Key, s.Severity)
		}
	}
	if result.OverallHealth.Score != 0 {
		t.Errorf("score = %d, want 0 for zero deals", result.OverallHealth.Score)
	}
	if result.OverallHealth.Severity != audit.SeverityLow {
		t.Errorf("severity = %s, want low", result.OverallHealth.Severity)
	}
	if !strings.Contains(result.OverallHealth.PrimaryRiskDriver, "acceptable") {
		t.Errorf("driver = %q, want acceptable sentence", result.OverallHealth.PrimaryRiskDriver)
	}
	if len(result.PrioritizedActions) != 0 {
		t.Errorf("expected no actions, got %d", len(result.PrioritizedActions))
	}
}

func TestEngineAudit_ZeroDealsForcesZeroScore(t *testing.T) {
	ds := crm.Dataset{
		Contacts:  makeContacts(20, nil),
		Companies: makeCompanies(20, nil),
	}
	result := audit.NewEngine().Audit(ds)
	if result.OverallHealth.Score != 0 {
		t.Errorf("score = %d, want 0 with no deals", result.OverallHealth.Score)
	}
}

func TestEngineAudit_CleanDataset(t *testing.T) {
	ds := crm.Dataset{
		Contacts:  makeContacts(10, nil),
		Companies: makeCompanies(10, nil),
		Deals:     makeDeals(10, nil),
	}
	result := audit.NewEngine().Audit(ds)

	// two critical lows at 10 plus five lows at 5
	if result.OverallHealth.Score != 55 {
		t.Errorf("score = %d, want 55", result.OverallHealth.Score)
	}
	if result.OverallHealth.Severity != audit.SeverityLow {
		t.Errorf("severity = %s, want low", result.OverallHealth.Severity)
	}
	if len(result.PrioritizedActions) != 0 {
		t.Errorf("expected no actions for a clean dataset, got %d", len(result.PrioritizedActions))
	}
}

func TestEngineAudit_AllHighForcesZero(t *testing.T) {
	ds := crm.Dataset{
		Contacts:  makeContacts(4, map[string]int{crm.PropEmail: 4, crm.PropLifecycleStage: 4}),
		Companies: makeCompanies(4, map[string]int{crm.PropDomain: 4, crm.PropIndustry: 4}),
		Deals:     makeDeals(4, map[string]int{crm.PropCloseDate: 4, crm.PropAmount: 4, crm.PropPipeline: 4}),
	}
	result := audit.NewEngine().Audit(ds)

	if result.OverallHealth.Score != 0 {
		t.Errorf("score = %d, want 0 when every signal is high", result.OverallHealth.Score)
	}
	if len(result.PrioritizedActions) != 7 {
		t.Fatalf("expected 7 actions, got %d", len(result.PrioritizedActions))
	}
	for i, a := range result.PrioritizedActions {
		if a.Priority != i+1 {
			t.Errorf("action %d has priority %d", i, a.Priority)
		}
		wantTier := audit.TierSecondary
		if a.Priority <= 5 {
			wantTier = audit.TierPrimary
		}
		if a.Tier != wantTier {
			t.Errorf("priority %d tier = %s, want %s", a.Priority, a.Tier, wantTier)
		}
		if len(a.Impacts) > 2 {
			t.Errorf("priority %d has %d impacts", a.Priority, len(a.Impacts))
		}
	}
	if result.PrioritizedActions[0].SignalKey != audit.SignalDealsMissingCloseDate {
		t.Errorf("top action = %s, want close date", result.PrioritizedActions[0].SignalKey)
	}
	if !strings.Contains(result.OverallHealth.PrimaryRiskDriver, "on average 100%") {
		t.Errorf("driver = %q, want synthesized forecasting sentence", result.OverallHealth.PrimaryRiskDriver)
	}
}

func TestEngineAudit_MediumVote(t *testing.T) {
	ds := crm.Dataset{
		Contacts:  makeContacts(10, map[string]int{crm.PropEmail: 2, crm.PropLifecycleStage: 2}),
		Companies: makeCompanies(10, nil),
		Deals:     makeDeals(10, nil),
	}
	result := audit.NewEngine().Audit(ds)

	if result.OverallHealth.Severity != audit.SeverityMedium {
		t.Errorf("severity = %s, want medium", result.OverallHealth.Severity)
	}
	// 15 + 15 + 2*10 + 3*5
	if result.OverallHealth.Score != 35 {
		t.Errorf("score = %d, want 35", result.OverallHealth.Score)
	}
	if len(result.PrioritizedActions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(result.PrioritizedActions))
	}
	if result.PrioritizedActions[0].SignalKey != audit.SignalContactsMissingEmail {
		t.Errorf("first action = %s, want contacts email", result.PrioritizedActions[0].SignalKey)
	}
}

func TestEngineAudit_GroupsByObject(t *testing.T) {
	result := audit.NewEngine().Audit(crm.Dataset{Deals: makeDeals(1, nil)})

	g := result.SignalsByObject
	if len(g.Deals) != 3 || len(g.Companies) != 2 || len(g.Contacts) != 2 {
		t.Errorf("unexpected grouping: deals=%d companies=%d contacts=%d", len(g.Deals), len(g.Companies), len(g.Contacts))
	}
	for _, s := range g.Deals {
		if !strings.HasPrefix(string(s.Key), "deals_") {
			t.Errorf("non-deal signal %s in deals bucket", s.Key)
		}
	}
}

func TestEngineAudit_Deterministic(t *testing.T) {
	ds := crm.Dataset{
		Contacts:  makeContacts(7, map[string]int{crm.PropEmail: 3}),
		Companies: makeCompanies(3, map[string]int{crm.PropIndustry: 1}),
		Deals:     makeDeals(9, map[string]int{crm.PropAmount: 4, crm.PropDealStage: 2}),
	}
	engine := audit.NewEngine(audit.WithClock(fixedClock))

	first, err := json.Marshal(engine.Audit(ds))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(engine.Audit(ds))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("audit output differs between identical runs:\n%s\n%s", first, second)
	}
}

func TestEngineAudit_JSONContract(t *testing.T) {
	result := audit.NewEngine().Audit(crm.Dataset{})
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"overall_health", "signals", "signals_by_object", "prioritized_actions", "metadata"} {
		if _, ok := tree[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}
	if tree["prioritized_actions"] == nil {
		t.Error("prioritized_actions should serialize as [], not null")
	}
	health := tree["overall_health"].(map[string]any)
	if _, ok := health["primary_risk_driver"]; !ok {
		t.Error("missing overall_health.primary_risk_driver")
	}
	meta := tree["metadata"].(map[string]any)
	if _, ok := meta["generated_at"].(string); !ok {
		t.Error("metadata.generated_at should be a string")
	}
}

func TestEngineAudit_RegistryDesyncDropsSignal(t *testing.T) {
	def, _ := audit.DefaultRegistry().Lookup(audit.SignalDealsMissingCloseDate)
	engine := audit.NewEngine(audit.WithRegistry(audit.NewRegistry(def)))

	result := engine.Audit(crm.Dataset{Deals: makeDeals(4, map[string]int{crm.PropCloseDate: 4, crm.PropAmount: 4})})

	if len(result.Signals) != 1 {
		t.Fatalf("expected only the registered signal, got %d", len(result.Signals))
	}
	if result.Signals[0].Key != audit.SignalDealsMissingCloseDate {
		t.Errorf("unexpected signal %s", result.Signals[0].Key)
	}
	// the lone signal is high, so the all-high override applies
	if result.OverallHealth.Score != 0 {
		t.Errorf("score = %d, want 0", result.OverallHealth.Score)
	}
}

func TestEngineAudit_MissingCatalogEntryOmitsAction(t *testing.T) {
	engine := audit.NewEngine(audit.WithCatalog(audit.NewCatalog(nil)))
	result := engine.Audit(crm.Dataset{Deals: makeDeals(2, map[string]int{crm.PropCloseDate: 2})})

	if len(result.PrioritizedActions) != 0 {
		t.Errorf("expected no actions without templates, got %d", len(result.PrioritizedActions))
	}
	if len(result.Signals) != 7 {
		t.Errorf("signals should be unaffected by the catalog, got %d", len(result.Signals))
	}
}

func TestScoreHealth_Bounds(t *testing.T) {
	signals := []audit.SignalResult{
		{Severity: audit.SeverityHigh, Criticality: audit.CriticalityCritical},
		{Severity: audit.SeverityHigh, Criticality: audit.CriticalityCritical},
		{Severity: audit.SeverityLow, Criticality: audit.CriticalityMedium},
	}
	if got := audit.ScoreHealth(signals, 5); got != 10 {
		t.Errorf("ScoreHealth = %d, want floor 10", got)
	}
	if got := audit.ScoreHealth(signals, 0); got != 0 {
		t.Errorf("ScoreHealth with no deals = %d, want 0", got)
	}
	if got := audit.ScoreHealth(nil, 5); got != 100 {
		t.Errorf("ScoreHealth with no signals = %d, want 100", got)
	}
}

func TestOverallSeverity(t *testing.T) {
	sig := func(sev audit.Severity, crit audit.Criticality) audit.SignalResult {
		return audit.SignalResult{Severity: sev, Criticality: crit}
	}

	tests := []struct {
		name    string
		signals []audit.SignalResult
		want    audit.Severity
	}{
		{"all low", []audit.SignalResult{sig(audit.SeverityLow, audit.CriticalityHigh)}, audit.SeverityLow},
		{"one medium", []audit.SignalResult{sig(audit.SeverityMedium, audit.CriticalityHigh)}, audit.SeverityLow},
		{"two medium", []audit.SignalResult{sig(audit.SeverityMedium, audit.CriticalityHigh), sig(audit.SeverityMedium, audit.CriticalityMedium)}, audit.SeverityMedium},
		{"one non-critical high", []audit.SignalResult{sig(audit.SeverityHigh, audit.CriticalityHigh)}, audit.SeverityLow},
		{"two high", []audit.SignalResult{sig(audit.SeverityHigh, audit.CriticalityHigh), sig(audit.SeverityHigh, audit.CriticalityMedium)}, audit.SeverityHigh},
		{"one critical high", []audit.SignalResult{sig(audit.SeverityHigh, audit.CriticalityCritical)}, audit.SeverityHigh},
		{"critical medium does not escalate", []audit.SignalResult{sig(audit.SeverityMedium, audit.CriticalityCritical)}, audit.SeverityLow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := audit.OverallSeverity(tc.signals); got != tc.want {
				t.Errorf("OverallSeverity = %s, want %s", got, tc.want)
			}
		})
	}
}
