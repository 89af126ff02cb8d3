package audit

// Registry maps signal keys to their definitions. It is immutable after
// construction; Lookup hands out copies.
type Registry struct {
	defs  map[SignalKey]SignalDefinition
	order []SignalKey
}

// NewRegistry builds a registry. The first definition for a key wins.
func NewRegistry(defs ...SignalDefinition) Registry {
	r := Registry{defs: make(map[SignalKey]SignalDefinition, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.Key]; dup {
			continue
		}
		d.Impacts = append([]string(nil), d.Impacts...)
		r.defs[d.Key] = d
		r.order = append(r.order, d.Key)
	}
	return r
}

// Lookup returns the definition for key.
func (r Registry) Lookup(key SignalKey) (SignalDefinition, bool) {
	d, ok := r.defs[key]
	if !ok {
		return SignalDefinition{}, false
	}
	d.Impacts = append([]string{}, d.Impacts...)
	return d, true
}

// Keys returns the registered keys in registration order.
func (r Registry) Keys() []SignalKey {
	return append([]SignalKey(nil), r.order...)
}

// Len returns the number of registered signals.
func (r Registry) Len() int { return len(r.order) }

var defaultRegistry = NewRegistry(
	SignalDefinition{
		Key:         SignalContactsMissingEmail,
		Label:       "Contacts missing email",
		Criticality: CriticalityHigh,
		Domain:      "outreach",
		Impacts: []string{
			"Contacts without an email cannot be enrolled in sequences or marketing campaigns",
			"Duplicate detection falls back to weaker matching keys",
			"Email engagement attribution is lost",
		},
	},
	SignalDefinition{
		Key:         SignalContactsMissingLifecycleStage,
		Label:       "Contacts missing lifecycle stage",
		Criticality: CriticalityMedium,
		Domain:      "funnel reporting",
		Impacts: []string{
			"Funnel conversion reports undercount leads and MQLs",
			"Lead routing and nurture workflows skip unstaged contacts",
		},
	},
	SignalDefinition{
		Key:         SignalCompaniesMissingDomain,
		Label:       "Companies missing domain",
		Criticality: CriticalityHigh,
		Domain:      "account data",
		Impacts: []string{
			"Contacts cannot be auto-associated with their company",
			"Enrichment providers cannot match the account",
			"Duplicate company records accumulate",
		},
	},
	SignalDefinition{
		Key:         SignalCompaniesMissingIndustry,
		Label:       "Companies missing industry",
		Criticality: CriticalityMedium,
		Domain:      "segmentation",
		Impacts: []string{
			"Territory and vertical segmentation is unreliable",
			"ICP and market analysis is skewed",
		},
	},
	SignalDefinition{
		Key:         SignalDealsMissingCloseDate,
		Label:       "Deals missing close date",
		Criticality: CriticalityCritical,
		Domain:      "revenue forecasting",
		Impacts: []string{
			"Forecast timing is unreliable because deals cannot be placed in a period",
			"Pipeline velocity and slippage cannot be measured",
		},
	},
	SignalDefinition{
		Key:         SignalDealsMissingAmount,
		Label:       "Deals missing amount",
		Criticality: CriticalityCritical,
		Domain:      "revenue forecasting",
		Impacts: []string{
			"Pipeline value and weighted forecast are understated",
			"Quota coverage ratios are inaccurate",
		},
	},
	SignalDefinition{
		Key:         SignalDealsMissingPipelineOrStage,
		Label:       "Deals missing pipeline or stage",
		Criticality: CriticalityHigh,
		Domain:      "pipeline management",
		Impacts: []string{
			"Deals are invisible in pipeline boards and stage reports",
			"Stage conversion rates cannot be computed",
		},
	},
)

// DefaultRegistry returns the process-wide signal registry.
func DefaultRegistry() Registry {
	return defaultRegistry
}
