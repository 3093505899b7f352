package deal

import (
	"fmt"
	"strings"
	"time"
)

// Urgency controls due-date offsets and task priority.
type Urgency string

// Urgency tiers.
const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency maps free text onto an Urgency tier, defaulting to medium.
func ParseUrgency(v string) Urgency {
	switch Urgency(strings.ToLower(strings.TrimSpace(v))) {
	case UrgencyHigh:
		return UrgencyHigh
	case UrgencyLow:
		return UrgencyLow
	default:
		return UrgencyMedium
	}
}

// DueInDays returns the due offset in days: 1 for high, 7 for low and 3 for
// medium.
func (u Urgency) DueInDays() int {
	switch u {
	case UrgencyHigh:
		return 1
	case UrgencyLow:
		return 7
	default:
		return 3
	}
}

// DueAt returns the due time for a task created at now.
func (u Urgency) DueAt(now time.Time) time.Time {
	return now.AddDate(0, 0, u.DueInDays())
}

// Priority returns the CRM task priority label.
func (u Urgency) Priority() string {
	switch u {
	case UrgencyHigh:
		return "HIGH"
	case UrgencyLow:
		return "LOW"
	default:
		return "MEDIUM"
	}
}

func (u Urgency) window() string {
	if n := u.DueInDays(); n != 1 {
		return fmt.Sprintf("within %d days", n)
	}
	return "within 1 day"
}

// Plan is the ordered three-step action plan for a deal.
type Plan struct {
	Steps       [3]string
	TaskSummary string
	Urgency     Urgency
}

// stepBranch is one candidate text for a step. The first branch whose check
// passes wins; a nil check always passes.
type stepBranch struct {
	check func(s Snapshot, m Metrics) bool
	text  func(s Snapshot, m Metrics, u Urgency) string
}

var contactStep = []stepBranch{
	{
		check: func(_ Snapshot, m Metrics) bool {
			return !m.DaysSinceContact.Known() || knownAbove(m.DaysSinceContact, 7)
		},
		text: func(_ Snapshot, m Metrics, u Urgency) string {
			last := "No contact has been recorded."
			if v, ok := m.DaysSinceContact.Get(); ok {
				last = fmt.Sprintf("Last contact was %d days ago.", v)
			}
			return fmt.Sprintf("1. Reach out: Call or email the primary contact %s to re-open the conversation and confirm their timeline. %s", u.window(), last)
		},
	},
	{
		text: func(_ Snapshot, m Metrics, u Urgency) string {
			return fmt.Sprintf("1. Maintain momentum: Send a recap of the last conversation %s and lock in the next meeting. Last contact was %d days ago.", u.window(), m.DaysSinceContact.Or(0))
		},
	},
}

var completenessStep = []stepBranch{
	{
		check: func(s Snapshot, _ Metrics) bool { return s.AmountMissing() },
		text: func(Snapshot, Metrics, Urgency) string {
			return "2. Set the deal amount: Confirm budget with the buyer and record the expected amount so the deal can be forecast."
		},
	},
	{
		check: func(_ Snapshot, m Metrics) bool { return knownBelow(m.DaysToClose, 0) },
		text: func(_ Snapshot, m Metrics, _ Urgency) string {
			return fmt.Sprintf("2. Update the close date: The close date passed %d days ago. Agree on a realistic date with the buyer and update the deal.", -m.DaysToClose.Or(0))
		},
	},
	{
		check: func(s Snapshot, _ Metrics) bool { return s.ContactsMissing() },
		text: func(Snapshot, Metrics, Urgency) string {
			return "2. Add contacts: Associate the decision maker and other stakeholders with this deal."
		},
	},
	{
		text: func(s Snapshot, _ Metrics, _ Urgency) string {
			return fmt.Sprintf("2. Advance the stage: Identify what the buyer needs to move the deal beyond %s and schedule that conversation.", s.GetOr(PropStage, "its current stage"))
		},
	},
}

var strategicStep = []stepBranch{
	{
		check: func(_ Snapshot, m Metrics) bool { return knownAbove(m.DaysSinceModified, 21) },
		text: func(_ Snapshot, m Metrics, _ Urgency) string {
			return fmt.Sprintf("3. Review deal viability: Nothing has changed in %d days. Decide whether to re-qualify the opportunity or close it out.", m.DaysSinceModified.Or(0))
		},
	},
	{
		check: func(_ Snapshot, m Metrics) bool { return knownWithin(m.DaysToClose, 0, 7) },
		text: func(_ Snapshot, m Metrics, _ Urgency) string {
			return fmt.Sprintf("3. Prepare for close: The deal is due to close in %d days. Send the final proposal and confirm signing logistics.", m.DaysToClose.Or(0))
		},
	},
	{
		text: func(Snapshot, Metrics, Urgency) string {
			return "3. Map the decision process: Confirm who signs and which approvals stand between this deal and a close."
		},
	},
}

// BuildNextSteps synthesizes the three-step plan for s. It always returns
// exactly three steps.
func BuildNextSteps(s Snapshot, m Metrics, u Urgency) Plan {
	u = ParseUrgency(string(u))
	p := Plan{
		Steps: [3]string{
			pickStep(contactStep, s, m, u),
			pickStep(completenessStep, s, m, u),
			pickStep(strategicStep, s, m, u),
		},
		Urgency: u,
	}
	p.TaskSummary = summarizeStep(p.Steps[0])
	return p
}

func pickStep(branches []stepBranch, s Snapshot, m Metrics, u Urgency) string {
	for _, b := range branches {
		if b.check == nil || b.check(s, m) {
			return b.text(s, m, u)
		}
	}
	return ""
}

// summarizeStep keeps the first sentence after the step's leading label.
func summarizeStep(step string) string {
	_, rest, found := strings.Cut(step, ":")
	if !found {
		rest = step
	}
	rest = strings.TrimSpace(rest)
	if i := strings.IndexAny(rest, ".!?"); i >= 0 {
		rest = rest[:i+1]
	}
	return rest
}

// Text joins the steps with a blank line between each.
func (p Plan) Text() string {
	return strings.Join(p.Steps[:], "\n\n")
}
