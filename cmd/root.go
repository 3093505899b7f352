package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealpilot/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dealpilot",
	Short: "Deal health scoring and next-step planning for HubSpot workflows",
	Long:  "Serves HubSpot workflow actions that score deal health, plan next steps with a CRM task, and draft follow-up emails. The same engine is available from the command line.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
