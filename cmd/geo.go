package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/edia/stratmap/internal/geo"
)

var geoOut string

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Manage offline geography data",
}

var geoLoadStatesCmd = &cobra.Command{
	Use:   "load-states <shapefile>",
	Short: "Build the state centroid table from a states shapefile",
	Long:  "Reads a Census states shapefile, computes each state's polygon centroid, and writes the centroid table the geocoder falls back to when the network service misses.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		centroids, err := geo.LoadStatesShapefile(args[0])
		if err != nil {
			return err
		}

		out := geoOut
		if out == "" {
			out = cfg.Geocode.CentroidPath
		}
		if err := centroids.SaveCentroids(out); err != nil {
			return err
		}
		fmt.Printf("Wrote centroids for %d state(s) to %s.\n", len(centroids), out)
		return nil
	},
}

var geoURL string

var geoFetchStatesCmd = &cobra.Command{
	Use:   "fetch-states",
	Short: "Download the Census states shapefile and build the centroid table",
	RunE: func(cmd *cobra.Command, args []string) error {
		tempDir, err := os.MkdirTemp("", "stratmap-states-*")
		if err != nil {
			return eris.Wrap(err, "geo: create temp dir")
		}
		defer os.RemoveAll(tempDir) //nolint:errcheck

		centroids, err := geo.FetchStatesShapefile(cmd.Context(), nil, geoURL, tempDir)
		if err != nil {
			return err
		}

		out := geoOut
		if out == "" {
			out = cfg.Geocode.CentroidPath
		}
		if err := centroids.SaveCentroids(out); err != nil {
			return err
		}
		fmt.Printf("Wrote centroids for %d state(s) to %s.\n", len(centroids), out)
		return nil
	},
}

func init() {
	geoLoadStatesCmd.Flags().StringVarP(&geoOut, "out", "o", "", "output path (default from config)")
	geoFetchStatesCmd.Flags().StringVarP(&geoOut, "out", "o", "", "output path (default from config)")
	geoFetchStatesCmd.Flags().StringVar(&geoURL, "url", "", "shapefile ZIP URL (default Census TIGER states)")
	geoCmd.AddCommand(geoLoadStatesCmd, geoFetchStatesCmd)
	rootCmd.AddCommand(geoCmd)
}
