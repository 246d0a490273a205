package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edia/stratmap/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset and index summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		fmt.Printf("Dataset version %d\n", env.store.Version())
		fmt.Printf("  strategic: %d account(s)\n", env.store.Len(model.VariantStrategic))
		fmt.Printf("  customers: %d account(s)\n", env.store.Len(model.VariantCustomers))

		idx := env.store.Index()
		fmt.Printf("  overlap (strategic accounts that are customers): %d\n", idx.OverlapCount())

		fmt.Println("Teams:")
		for _, team := range idx.TeamNames() {
			fmt.Printf("  %-12s %d rep(s), %d account(s)\n",
				team, len(env.roster.RepsFor(team)), len(idx.AccountsForTeam(team)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
