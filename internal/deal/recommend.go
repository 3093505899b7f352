package deal

import "fmt"

// HealthyRecommendation is returned when no risk signal fires.
const HealthyRecommendation = "Deal looks healthy. Keep the cadence going and work toward the next stage."

type recommendationRule struct {
	check   func(s Snapshot, m Metrics) bool
	message func(m Metrics) string
}

// recommendationRules re-checks a subset of the risk conditions with its own
// wording. It intentionally does not map risk signals one to one.
// TODO: fold into riskRules once the analyze-deal golden outputs are pinned
// by the tool handler tests.
var recommendationRules = []recommendationRule{
	{
		check: func(_ Snapshot, m Metrics) bool { return knownAbove(m.DaysSinceContact, 14) },
		message: func(m Metrics) string {
			return fmt.Sprintf("Reach out today. There has been no contact in %d days and the deal is at risk of going cold.", m.DaysSinceContact.Or(0))
		},
	},
	{
		check: func(_ Snapshot, m Metrics) bool { return knownBelow(m.DaysToClose, 0) },
		message: func(Metrics) string {
			return "Close date has passed. Confirm the buyer's timeline and update the close date."
		},
	},
	{
		check: func(s Snapshot, _ Metrics) bool { return s.AmountMissing() },
		message: func(Metrics) string {
			return "Set a deal amount so the deal can be forecast accurately."
		},
	},
	{
		check: func(_ Snapshot, m Metrics) bool { return knownAbove(m.DaysSinceModified, 30) },
		message: func(m Metrics) string {
			return fmt.Sprintf("Deal has not changed in %d days. Re-engage the buyer or close it out.", m.DaysSinceModified.Or(0))
		},
	},
}

// SelectRecommendation picks the single most important action for a deal
// given its risk signals.
func SelectRecommendation(risks []string, m Metrics, s Snapshot) string {
	if len(risks) == 0 {
		return HealthyRecommendation
	}
	for _, r := range recommendationRules {
		if r.check(s, m) {
			return r.message(m)
		}
	}
	return "Address the following: " + risks[0]
}
