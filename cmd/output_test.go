//go:build !integration

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealpilot/internal/deal"
	"github.com/sells-group/dealpilot/internal/tools"
)

func sampleAnalysis() deal.Analysis {
	return deal.Analysis{
		DealID:         "123",
		Score:          62,
		Risks:          []string{"No contact in 21 days", "Close date has passed"},
		Summary:        "Acme Renewal ($50,000).",
		Recommendation: "Reach out today.",
	}
}

func TestPrintAnalysis_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printAnalysis(&buf, sampleAnalysis(), false))

	out := buf.String()
	assert.Contains(t, out, "Win score:      62\n")
	assert.Contains(t, out, "  - No contact in 21 days\n")
	assert.Contains(t, out, "  - Close date has passed\n")
	assert.Contains(t, out, "Recommendation: Reach out today.\n")
}

func TestPrintAnalysis_NoRisks(t *testing.T) {
	a := sampleAnalysis()
	a.Risks = nil

	var buf bytes.Buffer
	require.NoError(t, printAnalysis(&buf, a, false))
	assert.Contains(t, buf.String(), deal.NoRisksSentinel)
}

func TestPrintAnalysis_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printAnalysis(&buf, sampleAnalysis(), true))

	var got struct {
		OutputFields map[string]string `json:"outputFields"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "62", got.OutputFields["win_score"])
	assert.Equal(t, "No contact in 21 days; Close date has passed", got.OutputFields["risk_signals"])
}

func TestPrintNextSteps(t *testing.T) {
	n := tools.NextSteps{
		Plan: deal.Plan{
			Steps:       [3]string{"Call the champion.", "Add the amount.", "Book a demo."},
			TaskSummary: "Call the champion.",
			Urgency:     deal.UrgencyHigh,
		},
		TaskID: "task-9",
	}

	tests := []struct {
		name          string
		taskID        string
		taskRequested bool
		want          string
		notWant       string
	}{
		{name: "created", taskID: "task-9", taskRequested: true, want: "Task: task-9"},
		{name: "failed", taskID: "", taskRequested: true, want: "Task: not created"},
		{name: "not requested", taskID: "", taskRequested: false, notWant: "Task:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n.TaskID = tt.taskID
			var buf bytes.Buffer
			printNextSteps(&buf, n, tt.taskRequested)

			out := buf.String()
			assert.Contains(t, out, "Urgency: high (due in 1 days, priority HIGH)")
			assert.Contains(t, out, "1. Call the champion.\n2. Add the amount.\n3. Book a demo.\n")
			if tt.want != "" {
				assert.Contains(t, out, tt.want)
			}
			if tt.notWant != "" {
				assert.NotContains(t, out, tt.notWant)
			}
		})
	}
}
