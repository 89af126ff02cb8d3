// Package audit implements the crmpulse data-quality scoring engine.
// It measures missing-field rates across CRM record collections and turns
// them into severities, a single health score, a primary risk driver and a
// ranked remediation plan. The engine performs no I/O.
package audit

import (
	"strings"

	"github.com/crmpulse/crmpulse/pkg/crm"
)

// SignalKey identifies one fixed data-quality signal.
type SignalKey string

const (
	SignalContactsMissingEmail          SignalKey = "contacts_missing_email_pct"
	SignalContactsMissingLifecycleStage SignalKey = "contacts_missing_lifecycle_stage_pct"
	SignalCompaniesMissingDomain        SignalKey = "companies_missing_domain_pct"
	SignalCompaniesMissingIndustry      SignalKey = "companies_missing_industry_pct"
	SignalDealsMissingCloseDate         SignalKey = "deals_missing_close_date_pct"
	SignalDealsMissingAmount            SignalKey = "deals_missing_amount_pct"
	SignalDealsMissingPipelineOrStage   SignalKey = "deals_missing_pipeline_or_stage_pct"
)

// Object returns the CRM object collection a signal belongs to, derived
// from the key prefix. Unknown prefixes return "".
func (k SignalKey) Object() crm.ObjectType {
	for _, obj := range []crm.ObjectType{crm.ObjectDeals, crm.ObjectCompanies, crm.ObjectContacts} {
		if strings.HasPrefix(string(k), string(obj)+"_") {
			return obj
		}
	}
	return ""
}

// Criticality is the static, registry-assigned importance of a signal.
type Criticality string

const (
	CriticalityCritical Criticality = "critical"
	CriticalityHigh     Criticality = "high"
	CriticalityMedium   Criticality = "medium"
)

// Weight is the penalty multiplier applied to a signal of this criticality.
func (c Criticality) Weight() int {
	switch c {
	case CriticalityCritical:
		return 2
	case CriticalityHigh, CriticalityMedium:
		return 1
	}
	return 1
}

// Severity is the computed risk tier of a signal's measured value.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Penalty is the unweighted score deduction for a signal at this severity.
func (s Severity) Penalty() int {
	switch s {
	case SeverityHigh:
		return 30
	case SeverityMedium:
		return 15
	case SeverityLow:
		return 5
	}
	return 0
}

// SignalDefinition is the registry metadata for a signal.
type SignalDefinition struct {
	Key         SignalKey
	Label       string
	Criticality Criticality
	Domain      string
	Impacts     []string // most important first
}

// SignalResult is one computed signal. Immutable once built.
type SignalResult struct {
	Key         SignalKey   `json:"key"`
	Label       string      `json:"label"`
	Value       float64     `json:"value"` // missingness percentage, 0-100
	Severity    Severity    `json:"severity"`
	Criticality Criticality `json:"criticality"`
	Impacts     []string    `json:"impacts"`
}

// OverallHealth summarizes the whole dataset.
type OverallHealth struct {
	Score             int      `json:"score"`
	Severity          Severity `json:"severity"`
	PrimaryRiskDriver string   `json:"primary_risk_driver"`
}

// Effort is the relative cost of carrying out a remediation action.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Tier groups ranked actions for presentation.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
)

// ActionRecommendation is one ranked remediation step.
type ActionRecommendation struct {
	Priority        int         `json:"priority"`
	Action          string      `json:"action"`
	SignalKey       SignalKey   `json:"signal_key"`
	Why             string      `json:"why"`
	Effort          Effort      `json:"effort"`
	TimeToValueDays int         `json:"time_to_value_days"`
	OwnerRole       string      `json:"owner_role"`
	Impacts         []string    `json:"impacts"`
	Criticality     Criticality `json:"criticality"`
	Severity        Severity    `json:"severity"`
	Tier            Tier        `json:"tier"`
}

// SignalsByObject partitions signals by CRM object for display.
type SignalsByObject struct {
	Deals     []SignalResult `json:"deals"`
	Companies []SignalResult `json:"companies"`
	Contacts  []SignalResult `json:"contacts"`
}

// Metadata describes the audit run itself.
type Metadata struct {
	RecordCounts crm.Counts `json:"record_counts"`
	GeneratedAt  string     `json:"generated_at"` // RFC 3339, UTC
}

// Result is the complete output of one audit run.
type Result struct {
	OverallHealth      OverallHealth          `json:"overall_health"`
	Signals            []SignalResult         `json:"signals"`
	SignalsByObject    SignalsByObject        `json:"signals_by_object"`
	PrioritizedActions []ActionRecommendation `json:"prioritized_actions"`
	Metadata           Metadata               `json:"metadata"`
}
