package audit

import "github.com/crmpulse/crmpulse/pkg/crm"

// GroupByObject partitions signals into per-object buckets, preserving order.
// Signals with an unrecognised key prefix are left out.
func GroupByObject(signals []SignalResult) SignalsByObject {
	g := SignalsByObject{
		Deals:     []SignalResult{},
		Companies: []SignalResult{},
		Contacts:  []SignalResult{},
	}
	for _, s := range signals {
		switch s.Key.Object() {
		case crm.ObjectDeals:
			g.Deals = append(g.Deals, s)
		case crm.ObjectCompanies:
			g.Companies = append(g.Companies, s)
		case crm.ObjectContacts:
			g.Contacts = append(g.Contacts, s)
		}
	}
	return g
}
