package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/dealpilot/internal/deal"
)

var (
	analyzeJSON   bool
	analyzePortal int64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <deal-id>",
	Short: "Score a deal's health and print its risks and recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initTools("tools", false)
		if err != nil {
			return err
		}

		a, err := env.Service.Analyze(cmd.Context(), analyzePortal, args[0])
		if err != nil {
			return err
		}
		return printAnalysis(cmd.OutOrStdout(), a, analyzeJSON)
	},
}

func printAnalysis(w io.Writer, a deal.Analysis, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"outputFields": a.Fields()})
	}

	fmt.Fprintf(w, "Deal:           %s\n", a.DealID)
	fmt.Fprintf(w, "Win score:      %d\n", a.Score)
	fmt.Fprintf(w, "Summary:        %s\n", a.Summary)
	fmt.Fprintf(w, "Recommendation: %s\n", a.Recommendation)
	if len(a.Risks) == 0 {
		fmt.Fprintf(w, "Risks:          %s\n", deal.NoRisksSentinel)
		return nil
	}
	fmt.Fprintln(w, "Risks:")
	for _, r := range a.Risks {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(r))
	}
	return nil
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the workflow outputFields as JSON")
	analyzeCmd.Flags().Int64Var(&analyzePortal, "portal", 0, "HubSpot portal id (default uses the private app token)")
	rootCmd.AddCommand(analyzeCmd)
}
