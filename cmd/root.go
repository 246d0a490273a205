package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stratmap",
	Short: "Sales-territory dataset reconciliation engine",
	Long:  "Merges CRM exports into the territory dashboard's account datasets: field mapping, fuzzy entity matching, geocoding, and index-backed lookups.",
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
