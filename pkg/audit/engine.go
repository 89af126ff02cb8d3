package audit

import (
	"time"

	"github.com/crmpulse/crmpulse/pkg/crm"
)

// minReportedScore is the floor applied to arithmetic-only low scores.
const minReportedScore = 10

// Engine runs the fixed signal rules against a dataset and produces a Result.
// An Engine only reads immutable tables and is safe for concurrent use.
type Engine struct {
	rules    []SignalRule
	registry Registry
	catalog  Catalog
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the signal registry. Rules whose key is not in the
// registry are skipped.
func WithRegistry(r Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithCatalog replaces the remediation action catalog.
func WithCatalog(c Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithClock sets the clock used for metadata.generated_at.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine over the default rules, registry and catalog.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:    DefaultRules(),
		registry: DefaultRegistry(),
		catalog:  DefaultCatalog(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Audit evaluates every signal and assembles the complete Result.
func (e *Engine) Audit(ds crm.Dataset) *Result {
	signals := e.evaluateSignals(ds)

	return &Result{
		OverallHealth: OverallHealth{
			Score:             ScoreHealth(signals, len(ds.Deals)),
			Severity:          OverallSeverity(signals),
			PrimaryRiskDriver: DeriveRiskDriver(signals),
		},
		Signals:            signals,
		SignalsByObject:    GroupByObject(signals),
		PrioritizedActions: PrioritizeActions(signals, e.catalog),
		Metadata: Metadata{
			RecordCounts: ds.Counts(),
			GeneratedAt:  e.now().UTC().Format(time.RFC3339),
		},
	}
}

func (e *Engine) evaluateSignals(ds crm.Dataset) []SignalResult {
	signals := make([]SignalResult, 0, len(e.rules))
	for _, rule := range e.rules {
		def, ok := e.registry.Lookup(rule.Key)
		if !ok {
			continue
		}
		value := rule.Evaluate(ds)
		signals = append(signals, SignalResult{
			Key:         rule.Key,
			Label:       def.Label,
			Value:       value,
			Severity:    ClassifySeverity(value, def.Criticality),
			Criticality: def.Criticality,
			Impacts:     def.Impacts,
		})
	}
	return signals
}

// TotalPenalty sums the criticality-weighted severity penalties.
func TotalPenalty(signals []SignalResult) int {
	total := 0
	for _, s := range signals {
		total += s.Severity.Penalty() * s.Criticality.Weight()
	}
	return total
}

// ScoreHealth derives the 0-100 health score. A dataset with no deals, or
// whose signals are all high, scores 0. Otherwise the score never drops
// below minReportedScore.
func ScoreHealth(signals []SignalResult, dealCount int) int {
	if dealCount == 0 || allHigh(signals) {
		return 0
	}

	score := 100 - TotalPenalty(signals)
	if score < minReportedScore {
		return minReportedScore
	}
	return score
}

// OverallSeverity votes across signals: two medium signals make the dataset
// medium, two high signals make it high, and any critical signal at high
// severity makes it high regardless of the vote.
func OverallSeverity(signals []SignalResult) Severity {
	var medium, high int
	criticalHigh := false
	for _, s := range signals {
		switch s.Severity {
		case SeverityHigh:
			high++
			if s.Criticality == CriticalityCritical {
				criticalHigh = true
			}
		case SeverityMedium:
			medium++
		case SeverityLow:
		}
	}

	sev := SeverityLow
	if medium >= 2 {
		sev = SeverityMedium
	}
	if high >= 2 {
		sev = SeverityHigh
	}
	if criticalHigh {
		sev = SeverityHigh
	}
	return sev
}

func allHigh(signals []SignalResult) bool {
	if len(signals) == 0 {
		return false
	}
	for _, s := range signals {
		if s.Severity != SeverityHigh {
			return false
		}
	}
	return true
}
