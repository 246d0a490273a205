package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/edia/stratmap/internal/export"
	"github.com/edia/stratmap/internal/model"
)

var (
	exportVariant string
	exportFormat  string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a dataset variant as JSON or GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportVariant != string(model.VariantStrategic) && exportVariant != string(model.VariantCustomers) {
			return eris.Errorf("export: unknown variant %q", exportVariant)
		}
		variant := model.Variant(exportVariant)

		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		var w io.Writer = os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrapf(err, "export: create %s", exportOut)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		accounts := env.store.Snapshot(variant)
		switch exportFormat {
		case "json":
			return export.WriteDataset(w, accounts)
		case "geojson":
			return export.WriteGeoJSON(w, accounts)
		default:
			return eris.Errorf("export: unknown format %q (json or geojson)", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportVariant, "variant", "strategic", "dataset variant: strategic or customers")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or geojson")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
