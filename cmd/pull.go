package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/edia/stratmap/internal/export"
	"github.com/edia/stratmap/internal/importer"
	"github.com/edia/stratmap/internal/model"
	"github.com/edia/stratmap/pkg/salesforce"
)

var (
	pullVariant     string
	pullCommit      bool
	pullSkipGeocode bool
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull accounts and open opportunities from Salesforce",
	Long:  "Queries Salesforce over SOQL and merges the result into the dataset through the same reconciliation path as a file upload.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if pullVariant != string(model.VariantStrategic) && pullVariant != string(model.VariantCustomers) {
			return eris.Errorf("pull: unknown variant %q", pullVariant)
		}
		variant := model.Variant(pullVariant)

		client, err := newSalesforceClient()
		if err != nil {
			return err
		}

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := salesforce.PullRows(ctx, client, cfg.Salesforce.RecordType)
		if err != nil {
			return err
		}
		fmt.Printf("Pulled %d row(s) from Salesforce.\n", len(rows))

		reconciler := importer.NewReconciler(env.notes)
		pending, err := reconciler.Reconcile(ctx, variant, env.store.Snapshot(variant), rows, env.store.Version())
		if err != nil {
			return err
		}

		printMergeSummary(pending)
		if !pullCommit {
			fmt.Println("\nPreview only; re-run with --commit to apply.")
			return nil
		}

		if !pullSkipGeocode {
			if err := geocodePending(ctx, env, pending); err != nil {
				return err
			}
		}

		path, err := export.WriteDatasetFile(cfg.Data.Dir, variant, pending.Accounts)
		if err != nil {
			return err
		}
		if _, err := env.store.Commit(variant, pending.Accounts, pending.BaseVersion); err != nil {
			return eris.Wrap(err, "pull: commit")
		}

		fmt.Printf("\nCommitted %d record(s) to %s.\n", len(pending.Accounts), path)
		return nil
	},
}

// newSalesforceClient authenticates with the JWT bearer flow using the
// consumer key and private key from config.
func newSalesforceClient() (salesforce.Client, error) {
	if cfg.Salesforce.ClientID == "" || cfg.Salesforce.Username == "" || cfg.Salesforce.KeyPath == "" {
		return nil, eris.New("pull: salesforce client_id, username, and key_path must be configured")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "pull: read salesforce JWT private key")
	}

	sf, err := gosf.Init(gosf.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "pull: salesforce auth")
	}

	return salesforce.NewClient(sf, salesforce.WithRateLimit(cfg.Salesforce.RateLimit)), nil
}

func init() {
	pullCmd.Flags().StringVar(&pullVariant, "variant", "strategic", "dataset variant: strategic or customers")
	pullCmd.Flags().BoolVar(&pullCommit, "commit", false, "apply the merge instead of previewing")
	pullCmd.Flags().BoolVar(&pullSkipGeocode, "skip-geocode", false, "skip geocoding new records on commit")
	rootCmd.AddCommand(pullCmd)
}
