package audit

import "github.com/crmpulse/crmpulse/pkg/crm"

// MissingPct returns the percentage (0-100) of records whose prop is absent,
// null or empty. An empty collection yields 0.
func MissingPct(records []crm.Record, prop string) float64 {
	return MissingAnyPct(records, prop)
}

// MissingAnyPct returns the percentage of records missing at least one of
// props. Each record is counted at most once.
func MissingAnyPct(records []crm.Record, props ...string) float64 {
	if len(records) == 0 {
		return 0
	}

	missing := 0
	for _, r := range records {
		for _, p := range props {
			if r.Missing(p) {
				missing++
				break
			}
		}
	}

	return float64(missing) / float64(len(records)) * 100
}
