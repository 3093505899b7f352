package deal

import "time"

const msPerDay = 86_400_000

// Metrics holds time-derived values computed from a Snapshot.
type Metrics struct {
	DaysSinceContact  Days
	DaysToClose       Days // negative when the close date has passed
	DealAge           int  // zero when the created date is absent
	DaysSinceModified Days
	StageProbability  Fraction
}

// DeriveMetrics computes Metrics for s as of now. Malformed values are
// treated as absent.
func DeriveMetrics(s Snapshot, now time.Time) Metrics {
	m := Metrics{
		DaysSinceContact:  daysSince(s, PropLastContacted, now),
		DaysSinceModified: daysSince(s, PropLastModified, now),
		DealAge:           daysSince(s, PropCreatedDate, now).Or(0),
	}

	if closeDate, ok := s.Time(PropCloseDate); ok {
		m.DaysToClose = Some(elapsedDays(now, closeDate))
	}

	if p, ok := s.Float(PropStageProbability); ok && p >= 0 && p <= 1 {
		m.StageProbability = Some(p)
	}

	return m
}

func daysSince(s Snapshot, key string, now time.Time) Days {
	t, ok := s.Time(key)
	if !ok {
		return None[int]()
	}
	return Some(elapsedDays(t, now))
}

// elapsedDays floors the millisecond delta from a to b into whole days,
// rounding toward negative infinity.
func elapsedDays(a, b time.Time) int {
	delta := b.UnixMilli() - a.UnixMilli()
	q := delta / msPerDay
	if delta%msPerDay != 0 && delta < 0 {
		q--
	}
	return int(q)
}
