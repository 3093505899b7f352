package deal

import (
	"strconv"
	"strings"
	"time"
)

// NoRisksSentinel is reported in place of an empty risk list.
const NoRisksSentinel = "No significant risks identified"

// Analysis is the full health assessment of one deal.
type Analysis struct {
	DealID         string
	Metrics        Metrics
	Risks          []string
	Score          int
	Summary        string
	Recommendation string
}

// Analyze runs metric derivation, risk evaluation, scoring, summary and
// recommendation for s as of now.
func Analyze(s Snapshot, now time.Time) Analysis {
	m := DeriveMetrics(s, now)
	risks := EvaluateRisks(s, m)
	return Analysis{
		DealID:         s.ID(),
		Metrics:        m,
		Risks:          risks,
		Score:          ComputeScore(s, m),
		Summary:        BuildSummary(s, m),
		Recommendation: SelectRecommendation(risks, m, s),
	}
}

// RiskText joins the risk signals with "; ", or returns NoRisksSentinel.
func (a Analysis) RiskText() string {
	if len(a.Risks) == 0 {
		return NoRisksSentinel
	}
	return strings.Join(a.Risks, "; ")
}

// Fields returns the analysis as string-valued output fields.
func (a Analysis) Fields() map[string]string {
	return map[string]string{
		"win_score":      strconv.Itoa(a.Score),
		"risk_signals":   a.RiskText(),
		"health_summary": a.Summary,
		"recommendation": a.Recommendation,
	}
}

// Fields returns the plan as string-valued output fields.
func (p Plan) Fields() map[string]string {
	return map[string]string{
		"task_summary": p.TaskSummary,
		"next_steps":   p.Text(),
	}
}
