package audit

import "github.com/crmpulse/crmpulse/pkg/crm"

// SignalRule measures one signal against a dataset. A record counts as
// missing when any of Props is missing.
type SignalRule struct {
	Key    SignalKey
	Object crm.ObjectType
	Props  []string
}

// Evaluate returns the rule's missingness percentage for ds.
func (r SignalRule) Evaluate(ds crm.Dataset) float64 {
	return MissingAnyPct(ds.Records(r.Object), r.Props...)
}

var defaultRules = []SignalRule{
	{Key: SignalContactsMissingEmail, Object: crm.ObjectContacts, Props: []string{crm.PropEmail}},
	{Key: SignalContactsMissingLifecycleStage, Object: crm.ObjectContacts, Props: []string{crm.PropLifecycleStage}},
	{Key: SignalCompaniesMissingDomain, Object: crm.ObjectCompanies, Props: []string{crm.PropDomain}},
	{Key: SignalCompaniesMissingIndustry, Object: crm.ObjectCompanies, Props: []string{crm.PropIndustry}},
	{Key: SignalDealsMissingCloseDate, Object: crm.ObjectDeals, Props: []string{crm.PropCloseDate}},
	{Key: SignalDealsMissingAmount, Object: crm.ObjectDeals, Props: []string{crm.PropAmount}},
	{Key: SignalDealsMissingPipelineOrStage, Object: crm.ObjectDeals, Props: []string{crm.PropDealStage, crm.PropPipeline}},
}

// DefaultRules returns the fixed signal rules in evaluation order.
func DefaultRules() []SignalRule {
	rules := make([]SignalRule, len(defaultRules))
	for i, r := range defaultRules {
		r.Props = append([]string(nil), r.Props...)
		rules[i] = r
	}
	return rules
}
