package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/dealpilot/internal/tools"
)

var (
	nextStepsUrgency    string
	nextStepsCreateTask bool
	nextStepsPortal     int64
)

var nextStepsCmd = &cobra.Command{
	Use:   "next-steps <deal-id>",
	Short: "Plan three next steps for a deal, optionally recording a CRM task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initTools("tools", false)
		if err != nil {
			return err
		}

		n, err := env.Service.PlanNextSteps(cmd.Context(), nextStepsPortal, args[0], nextStepsUrgency, nextStepsCreateTask)
		if err != nil {
			return err
		}
		printNextSteps(cmd.OutOrStdout(), n, nextStepsCreateTask)
		return nil
	},
}

func printNextSteps(w io.Writer, n tools.NextSteps, taskRequested bool) {
	fmt.Fprintf(w, "Urgency: %s (due in %d days, priority %s)\n", n.Plan.Urgency, n.Plan.Urgency.DueInDays(), n.Plan.Urgency.Priority())
	fmt.Fprintf(w, "Summary: %s\n\n", n.Plan.TaskSummary)
	for i, step := range n.Plan.Steps {
		fmt.Fprintf(w, "%d. %s\n", i+1, step)
	}
	switch {
	case !taskRequested:
	case n.TaskID == "":
		fmt.Fprintln(w, "\nTask: not created (see logs)")
	default:
		fmt.Fprintf(w, "\nTask: %s\n", n.TaskID)
	}
}

func init() {
	nextStepsCmd.Flags().StringVar(&nextStepsUrgency, "urgency", "medium", "urgency tier: low, medium or high")
	nextStepsCmd.Flags().BoolVar(&nextStepsCreateTask, "create-task", false, "record the plan as a CRM task")
	nextStepsCmd.Flags().Int64Var(&nextStepsPortal, "portal", 0, "HubSpot portal id (default uses the private app token)")
	rootCmd.AddCommand(nextStepsCmd)
}
