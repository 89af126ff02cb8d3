// Package crm defines the record model consumed by the audit engine.
// Records arrive from a CRM export or fetch client and are treated as
// read-only for the lifetime of an audit run.
package crm

// ObjectType names one of the audited CRM object collections.
type ObjectType string

const (
	ObjectContacts  ObjectType = "contacts"
	ObjectCompanies ObjectType = "companies"
	ObjectDeals     ObjectType = "deals"
)

// Well-known property names read by the default signal rules.
const (
	PropEmail          = "email"
	PropLifecycleStage = "lifecyclestage"
	PropDomain         = "domain"
	PropIndustry       = "industry"
	PropCloseDate      = "closedate"
	PropAmount         = "amount"
	PropDealStage      = "dealstage"
	PropPipeline       = "pipeline"
)

// Record is a single CRM entity (contact, company or deal).
// A property whose value is nil was explicitly null; a property missing
// from the map was never returned by the CRM.
type Record struct {
	ID         string             `json:"id,omitempty"`
	Properties map[string]*string `json:"properties"`
}

// NewRecord builds a record from plain string properties. Empty strings are
// kept as empty strings, not converted to null.
func NewRecord(id string, props map[string]string) Record {
	r := Record{ID: id, Properties: make(map[string]*string, len(props))}
	for k, v := range props {
		r.Properties[k] = &v
	}
	return r
}

// Value returns the property value and whether it is present and non-null.
func (r Record) Value(prop string) (string, bool) {
	v, ok := r.Properties[prop]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Missing reports whether the property is absent, null or the empty string.
func (r Record) Missing(prop string) bool {
	v, ok := r.Value(prop)
	return !ok || v == ""
}

// Dataset is the full set of record collections for one audit run.
type Dataset struct {
	Contacts  []Record `json:"contacts"`
	Companies []Record `json:"companies"`
	Deals     []Record `json:"deals"`
}

// Records returns the collection for the given object type.
func (d Dataset) Records(obj ObjectType) []Record {
	switch obj {
	case ObjectContacts:
		return d.Contacts
	case ObjectCompanies:
		return d.Companies
	case ObjectDeals:
		return d.Deals
	default:
		return nil
	}
}

// Counts holds per-object record counts.
type Counts struct {
	Contacts  int `json:"contacts"`
	Companies int `json:"companies"`
	Deals     int `json:"deals"`
}

// Counts returns the number of records in each collection.
func (d Dataset) Counts() Counts {
	return Counts{
		Contacts:  len(d.Contacts),
		Companies: len(d.Companies),
		Deals:     len(d.Deals),
	}
}
