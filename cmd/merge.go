package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/export"
	"github.com/edia/stratmap/internal/fetcher"
	"github.com/edia/stratmap/internal/geo"
	"github.com/edia/stratmap/internal/importer"
	"github.com/edia/stratmap/internal/model"
	"github.com/edia/stratmap/pkg/geocode"
)

var (
	mergeVariant     string
	mergeCommit      bool
	mergeSkipGeocode bool
	mergeMaxChanges  int
)

var mergeCmd = &cobra.Command{
	Use:   "merge <file>",
	Short: "Merge a CRM export into the account dataset",
	Long:  "Parses a CSV/XLSX export, matches rows against existing accounts (exact, normalized, state-scoped fuzzy), and previews the merge. With --commit, geocodes new records and replaces the dataset.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if mergeVariant != string(model.VariantStrategic) && mergeVariant != string(model.VariantCustomers) {
			return eris.Errorf("merge: unknown variant %q", mergeVariant)
		}

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rows, report, err := fetcher.ReadFile(args[0])
		if err != nil {
			return err
		}
		if report.RowsSkipped > 0 {
			fmt.Printf("Skipped %d malformed row(s); first samples:\n", report.RowsSkipped)
			for _, s := range report.Samples {
				fmt.Printf("  line %d: expected %d columns, got %d: %s\n", s.Line, s.Expected, s.Got, s.Preview)
			}
		}

		variant := importer.DetectVariant(rows, model.Variant(mergeVariant))
		if string(variant) != mergeVariant {
			fmt.Printf("Column signals identify this as a %s export; merging into %s.\n", variant, variant)
		}

		reconciler := importer.NewReconciler(env.notes)
		pending, err := reconciler.Reconcile(ctx, variant, env.store.Snapshot(variant), rows, env.store.Version())
		if err != nil {
			return err
		}

		printMergeSummary(pending)
		if !mergeCommit {
			fmt.Println("\nPreview only; re-run with --commit to apply.")
			return nil
		}

		if !mergeSkipGeocode {
			if err := geocodePending(ctx, env, pending); err != nil {
				return err
			}
		}

		// Write the seed file before swapping the in-memory dataset; a write
		// failure leaves the canonical dataset untouched.
		path, err := export.WriteDatasetFile(cfg.Data.Dir, variant, pending.Accounts)
		if err != nil {
			return err
		}
		if _, err := env.store.Commit(variant, pending.Accounts, pending.BaseVersion); err != nil {
			return eris.Wrap(err, "merge: commit")
		}

		fmt.Printf("\nCommitted %d record(s) to %s.\n", len(pending.Accounts), path)
		return nil
	},
}

// geocodePending fills coordinates for pending records that lack them.
func geocodePending(ctx context.Context, env *appEnv, pending *model.PendingMerge) error {
	opts := []geocode.BatcherOption{
		geocode.WithProgress(func(done, total int, name string) {
			fmt.Printf("\rGeocoding %d/%d: %s\x1b[K", done, total, name)
		}),
	}
	if centroids, err := geo.LoadCentroids(cfg.Geocode.CentroidPath); err == nil {
		opts = append(opts, geocode.WithStateCentroids(centroids))
	} else {
		zap.L().Debug("merge: no offline centroid table", zap.Error(err))
	}

	report, err := geocode.NewBatcher(env.geocoder, opts...).Run(ctx, pending.Accounts)
	fmt.Println()
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		fmt.Printf("%d record(s) left ungeocoded:\n", report.Failed)
		for _, w := range report.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}
	return nil
}

func printMergeSummary(pending *model.PendingMerge) {
	s := pending.Stats
	fmt.Printf("Merge preview (%s): %d row(s) in, %d new, %d updated, %d skipped without a name, %d account(s) with notes\n",
		pending.Variant, s.Total, s.NewRecords, s.UpdatedRecords, s.SkippedNoName, s.NotesPreserved)

	shown := 0
	for _, change := range s.Changes {
		if mergeMaxChanges > 0 && shown >= mergeMaxChanges {
			fmt.Printf("  ... and %d more\n", len(s.Changes)-shown)
			break
		}
		line := fmt.Sprintf("  [%s] %s", change.Action, change.Name)
		if len(change.Fields) > 0 {
			line += fmt.Sprintf(" (%d field(s))", len(change.Fields))
		}
		if change.Warning != "" {
			line += " — " + change.Warning
		}
		fmt.Fprintln(os.Stdout, line)
		shown++
	}
}

func init() {
	mergeCmd.Flags().StringVar(&mergeVariant, "variant", "strategic", "dataset variant: strategic or customers")
	mergeCmd.Flags().BoolVar(&mergeCommit, "commit", false, "apply the merge instead of previewing")
	mergeCmd.Flags().BoolVar(&mergeSkipGeocode, "skip-geocode", false, "skip geocoding new records on commit")
	mergeCmd.Flags().IntVar(&mergeMaxChanges, "max-changes", 25, "max change lines to print (0 = all)")
	rootCmd.AddCommand(mergeCmd)
}
