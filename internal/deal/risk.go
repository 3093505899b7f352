package deal

import "fmt"

// riskRule is one entry in the ordered risk table. message is only called
// when check returns true.
type riskRule struct {
	name    string
	check   func(s Snapshot, m Metrics) bool
	message func(s Snapshot, m Metrics) string
}

// riskRules is evaluated top to bottom. The order is the priority order of
// the resulting signals; the first signal doubles as the fallback
// recommendation.
var riskRules = []riskRule{
	{
		name:  "stale_contact",
		check: func(_ Snapshot, m Metrics) bool { return knownAbove(m.DaysSinceContact, 14) },
		message: func(_ Snapshot, m Metrics) string {
			return fmt.Sprintf("No contact in %d days", m.DaysSinceContact.Or(0))
		},
	},
	{
		name:    "no_contact_date",
		check:   func(_ Snapshot, m Metrics) bool { return !m.DaysSinceContact.Known() },
		message: func(Snapshot, Metrics) string { return "No contact date recorded" },
	},
	{
		name:  "close_overdue",
		check: func(_ Snapshot, m Metrics) bool { return knownBelow(m.DaysToClose, 0) },
		message: func(_ Snapshot, m Metrics) string {
			return fmt.Sprintf("Close date overdue by %d days", -m.DaysToClose.Or(0))
		},
	},
	{
		name:  "close_imminent",
		check: func(_ Snapshot, m Metrics) bool { return knownWithin(m.DaysToClose, 0, 3) },
		message: func(_ Snapshot, m Metrics) string {
			return fmt.Sprintf("Close date is in %d days", m.DaysToClose.Or(0))
		},
	},
	{
		name:  "stuck",
		check: func(_ Snapshot, m Metrics) bool { return knownAbove(m.DaysSinceModified, 30) },
		message: func(_ Snapshot, m Metrics) string {
			return fmt.Sprintf("Deal unchanged for %d days — may be stuck", m.DaysSinceModified.Or(0))
		},
	},
	{
		name:    "no_amount",
		check:   func(s Snapshot, _ Metrics) bool { return s.AmountMissing() },
		message: func(Snapshot, Metrics) string { return "No deal amount set" },
	},
	{
		name: "no_owner",
		check: func(s Snapshot, _ Metrics) bool {
			_, ok := s.Get(PropOwnerID)
			return !ok
		},
		message: func(Snapshot, Metrics) string { return "No deal owner assigned" },
	},
	{
		name:    "no_contacts",
		check:   func(s Snapshot, _ Metrics) bool { return s.ContactsMissing() },
		message: func(Snapshot, Metrics) string { return "No contacts associated with deal" },
	},
	{
		name:  "aging",
		check: func(s Snapshot, m Metrics) bool { return m.DealAge > 90 && !s.Closed() },
		message: func(_ Snapshot, m Metrics) string {
			return fmt.Sprintf("Deal is %d days old — review if still active", m.DealAge)
		},
	},
}

// EvaluateRisks returns the risk signals that fire for s, in rule order.
// The result is nil when nothing fires.
func EvaluateRisks(s Snapshot, m Metrics) []string {
	var risks []string
	for _, r := range riskRules {
		if r.check(s, m) {
			risks = append(risks, r.message(s, m))
		}
	}
	return risks
}
