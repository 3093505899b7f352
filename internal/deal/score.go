package deal

import "math"

const defaultBaseScore = 50.0

// adjustment is one additive score modifier. Every adjustment is applied
// independently; none short-circuits another.
type adjustment struct {
	name  string
	delta float64
	check func(s Snapshot, m Metrics) bool
}

var scoreAdjustments = []adjustment{
	{name: "recent_contact", delta: 10, check: func(_ Snapshot, m Metrics) bool {
		v, ok := m.DaysSinceContact.Get()
		return ok && v <= 7
	}},
	{name: "stale_contact", delta: -20, check: func(_ Snapshot, m Metrics) bool {
		return knownAbove(m.DaysSinceContact, 21)
	}},
	{name: "close_overdue", delta: -15, check: func(_ Snapshot, m Metrics) bool {
		return knownBelow(m.DaysToClose, 0)
	}},
	{name: "no_amount", delta: -10, check: func(s Snapshot, _ Metrics) bool {
		return s.AmountMissing()
	}},
	{name: "multi_threaded", delta: 5, check: func(s Snapshot, _ Metrics) bool {
		n, ok := s.Int(PropContactCount)
		return ok && n >= 2
	}},
}

// ComputeScore returns the win score for s in [0, 100]. The base is the
// stage probability as a percentage, or 50 when unknown. Halves round away
// from zero.
func ComputeScore(s Snapshot, m Metrics) int {
	score := baseScore(m)
	for _, a := range scoreAdjustments {
		if a.check(s, m) {
			score += a.delta
		}
	}
	return int(math.Round(clamp(score, 0, 100)))
}

func baseScore(m Metrics) float64 {
	if p, ok := m.StageProbability.Get(); ok {
		return p * 100
	}
	return defaultBaseScore
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
