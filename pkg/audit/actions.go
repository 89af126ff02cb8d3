package audit

import (
	"fmt"
	"sort"
)

const (
	primaryTierSize   = 5
	highSeverityBoost = 10
	maxActionImpacts  = 2
)

// ActionTemplate is the remediation playbook for one signal.
type ActionTemplate struct {
	Action          string
	Effort          Effort
	TimeToValueDays int
	Domain          string
	OwnerRole       string
	OrderWeight     int // higher ranks first; revenue forecasting highest
}

// Catalog maps signal keys to action templates. Immutable after construction.
type Catalog struct {
	templates map[SignalKey]ActionTemplate
}

// NewCatalog builds a catalog from the given templates.
func NewCatalog(templates map[SignalKey]ActionTemplate) Catalog {
	c := Catalog{templates: make(map[SignalKey]ActionTemplate, len(templates))}
	for k, t := range templates {
		c.templates[k] = t
	}
	return c
}

// Lookup returns the template for key.
func (c Catalog) Lookup(key SignalKey) (ActionTemplate, bool) {
	t, ok := c.templates[key]
	return t, ok
}

var defaultCatalog = NewCatalog(map[SignalKey]ActionTemplate{
	SignalDealsMissingCloseDate: {
		Action:          "Make close date required on deal creation and backfill open deals",
		Effort:          EffortLow,
		TimeToValueDays: 7,
		Domain:          "revenue forecasting",
		OwnerRole:       "Sales Operations",
		OrderWeight:     100,
	},
	SignalDealsMissingAmount: {
		Action:          "Require deal amount before stage advancement and backfill open pipeline",
		Effort:          EffortLow,
		TimeToValueDays: 7,
		Domain:          "revenue forecasting",
		OwnerRole:       "Sales Operations",
		OrderWeight:     85,
	},
	SignalDealsMissingPipelineOrStage: {
		Action:          "Assign every deal to a pipeline and stage and archive orphaned deals",
		Effort:          EffortMedium,
		TimeToValueDays: 14,
		Domain:          "pipeline management",
		OwnerRole:       "Revenue Operations",
		OrderWeight:     70,
	},
	SignalContactsMissingEmail: {
		Action:          "Enrich contacts without email and require email on forms and imports",
		Effort:          EffortMedium,
		TimeToValueDays: 21,
		Domain:          "outreach",
		OwnerRole:       "Marketing Operations",
		OrderWeight:     55,
	},
	SignalCompaniesMissingDomain: {
		Action:          "Backfill company domains from associated contact emails and enrichment",
		Effort:          EffortMedium,
		TimeToValueDays: 14,
		Domain:          "account data",
		OwnerRole:       "Revenue Operations",
		OrderWeight:     40,
	},
	SignalContactsMissingLifecycleStage: {
		Action:          "Set a default lifecycle stage by workflow and backfill unstaged contacts",
		Effort:          EffortLow,
		TimeToValueDays: 7,
		Domain:          "funnel reporting",
		OwnerRole:       "Marketing Operations",
		OrderWeight:     25,
	},
	SignalCompaniesMissingIndustry: {
		Action:          "Enrich company industry from a firmographic data provider",
		Effort:          EffortHigh,
		TimeToValueDays: 30,
		Domain:          "segmentation",
		OwnerRole:       "Marketing Operations",
		OrderWeight:     10,
	},
})

// DefaultCatalog returns the process-wide action catalog.
func DefaultCatalog() Catalog {
	return defaultCatalog
}

// PrioritizeActions turns actionable signals into a ranked remediation plan.
// Low-severity signals and signals without a template are omitted.
// Priorities are dense, starting at 1.
func PrioritizeActions(signals []SignalResult, catalog Catalog) []ActionRecommendation {
	type candidate struct {
		signal   SignalResult
		template ActionTemplate
		score    int
	}

	var candidates []candidate
	for _, s := range signals {
		if s.Severity == SeverityLow {
			continue
		}
		tmpl, ok := catalog.Lookup(s.Key)
		if !ok {
			continue
		}
		score := tmpl.OrderWeight
		if s.Severity == SeverityHigh {
			score += highSeverityBoost
		}
		candidates = append(candidates, candidate{signal: s, template: tmpl, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	actions := make([]ActionRecommendation, 0, len(candidates))
	for i, c := range candidates {
		priority := i + 1
		tier := TierSecondary
		if priority <= primaryTierSize {
			tier = TierPrimary
		}
		actions = append(actions, ActionRecommendation{
			Priority:        priority,
			Action:          c.template.Action,
			SignalKey:       c.signal.Key,
			Why:             actionWhy(c.signal),
			Effort:          c.template.Effort,
			TimeToValueDays: c.template.TimeToValueDays,
			OwnerRole:       c.template.OwnerRole,
			Impacts:         capImpacts(c.signal.Impacts, maxActionImpacts),
			Criticality:     c.signal.Criticality,
			Severity:        c.signal.Severity,
			Tier:            tier,
		})
	}

	return actions
}

func actionWhy(s SignalResult) string {
	why := fmt.Sprintf("%d%% of %s affected.", roundPct(s.Value), normalizeLabel(s.Label))
	if impact := firstImpact(s.Impacts); impact != "" {
		why += " " + impact + "."
	}
	return why
}

func capImpacts(impacts []string, n int) []string {
	if len(impacts) > n {
		impacts = impacts[:n]
	}
	return append([]string{}, impacts...)
}
