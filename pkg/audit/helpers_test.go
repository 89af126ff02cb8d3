package audit_test

import (
	"time"

	"github.com/crmpulse/crmpulse/pkg/crm"
)

var fixedTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

// makeRecords returns n records with every prop set, then blanks prop on the
// first missing[prop] records.
func makeRecords(n int, props []string, missing map[string]int) []crm.Record {
	records := make([]crm.Record, 0, n)
	for i := 0; i < n; i++ {
		values := make(map[string]string, len(props))
		for _, p := range props {
			values[p] = "value"
		}
		r := crm.NewRecord("", values)
		for p, count := range missing {
			if i < count {
				delete(r.Properties, p)
			}
		}
		records = append(records, r)
	}
	return records
}

func makeDeals(n int, missing map[string]int) []crm.Record {
	return makeRecords(n, []string{crm.PropCloseDate, crm.PropAmount, crm.PropDealStage, crm.PropPipeline}, missing)
}

func makeContacts(n int, missing map[string]int) []crm.Record {
	return makeRecords(n, []string{crm.PropEmail, crm.PropLifecycleStage}, missing)
}

func makeCompanies(n int, missing map[string]int) []crm.Record {
	return makeRecords(n, []string{crm.PropDomain, crm.PropIndustry}, missing)
}
