package deal

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// amountPrinter is pinned to US English so output does not depend on the
// host locale.
var amountPrinter = message.NewPrinter(language.AmericanEnglish)

// BuildSummary renders the three-line health summary for s.
func BuildSummary(s Snapshot, m Metrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Deal: %s | Amount: %s | Stage: %s\n",
		s.GetOr(PropName, "Unnamed"),
		formatAmount(s),
		s.GetOr(PropStage, "Unknown"),
	)
	fmt.Fprintf(&b, "Age: %d days | Last contact: %s | Close date: %s\n",
		m.DealAge,
		formatLastContact(m.DaysSinceContact),
		formatCloseDate(m.DaysToClose),
	)
	fmt.Fprintf(&b, "Probability: %s | Contacts: %s | Notes: %s",
		formatProbability(m.StageProbability),
		s.GetOr(PropContactCount, "0"),
		s.GetOr(PropNoteCount, "0"),
	)

	return b.String()
}

func formatAmount(s Snapshot) string {
	raw, ok := s.Get(PropAmount)
	if !ok {
		return "Not set"
	}
	v, ok := s.Float(PropAmount)
	if !ok || math.IsInf(v, 0) || math.IsNaN(v) {
		return raw
	}
	if v == math.Trunc(v) {
		return amountPrinter.Sprintf("$%.0f", v)
	}
	return amountPrinter.Sprintf("$%.2f", v)
}

func formatLastContact(d Days) string {
	v, ok := d.Get()
	if !ok {
		return "Never"
	}
	return fmt.Sprintf("%d days ago", v)
}

func formatCloseDate(d Days) string {
	v, ok := d.Get()
	switch {
	case !ok:
		return "Not set"
	case v < 0:
		return fmt.Sprintf("%d days overdue", -v)
	default:
		return fmt.Sprintf("in %d days", v)
	}
}

func formatProbability(f Fraction) string {
	v, ok := f.Get()
	if !ok {
		return "Unknown"
	}
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}
