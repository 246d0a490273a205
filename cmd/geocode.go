package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/export"
	"github.com/edia/stratmap/internal/geo"
	"github.com/edia/stratmap/internal/model"
	"github.com/edia/stratmap/pkg/geocode"
)

var geocodeVariant string

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Backfill coordinates for accounts that lack them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if geocodeVariant != string(model.VariantStrategic) && geocodeVariant != string(model.VariantCustomers) {
			return eris.Errorf("geocode: unknown variant %q", geocodeVariant)
		}
		variant := model.Variant(geocodeVariant)

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		baseVersion := env.store.Version()
		accounts := env.store.Snapshot(variant)

		opts := []geocode.BatcherOption{
			geocode.WithProgress(func(done, total int, name string) {
				fmt.Printf("\rGeocoding %d/%d: %s\x1b[K", done, total, name)
			}),
		}
		if centroids, err := geo.LoadCentroids(cfg.Geocode.CentroidPath); err == nil {
			opts = append(opts, geocode.WithStateCentroids(centroids))
		} else {
			zap.L().Debug("geocode: no offline centroid table", zap.Error(err))
		}

		report, err := geocode.NewBatcher(env.geocoder, opts...).Run(ctx, accounts)
		fmt.Println()
		if err != nil {
			return err
		}

		fmt.Printf("Attempted %d, geocoded %d (%d approximate), %d failed.\n",
			report.Attempted, report.Geocoded, report.Approximate, report.Failed)
		for _, w := range report.Warnings {
			fmt.Printf("  %s\n", w)
		}
		if report.Geocoded == 0 {
			return nil
		}

		if _, err := export.WriteDatasetFile(cfg.Data.Dir, variant, accounts); err != nil {
			return err
		}
		if _, err := env.store.Commit(variant, accounts, baseVersion); err != nil {
			return eris.Wrap(err, "geocode: commit")
		}
		return nil
	},
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeVariant, "variant", "strategic", "dataset variant: strategic or customers")
	rootCmd.AddCommand(geocodeCmd)
}
