// Package export writes the canonical dataset in the formats the map
// front end consumes: the variant seed JSON it boots from, and a GeoJSON
// FeatureCollection for mapping tools.
package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/model"
)

// WriteDataset serializes accounts as the variant seed JSON (an array of
// account objects, indented the way the checked-in seed files are).
func WriteDataset(w io.Writer, accounts []model.Account) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if accounts == nil {
		accounts = []model.Account{}
	}
	return eris.Wrap(enc.Encode(accounts), "export: write dataset")
}

// WriteDatasetFile writes the variant seed file into dir, replacing any
// previous file atomically (write-then-rename) so a failed write never
// truncates the seed the dashboard is serving.
func WriteDatasetFile(dir string, variant model.Variant, accounts []model.Account) (string, error) {
	path := filepath.Join(dir, variant.FileName())
	tmp, err := os.CreateTemp(dir, variant.FileName()+".*")
	if err != nil {
		return "", eris.Wrapf(err, "export: create temp for %s", path)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := WriteDataset(tmp, accounts); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrapf(err, "export: close temp for %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", eris.Wrapf(err, "export: rename into %s", path)
	}

	zap.L().Info("export: dataset written",
		zap.String("path", path),
		zap.Int("records", len(accounts)),
	)
	return path, nil
}

// WriteGeoJSON serializes accounts with coordinates as a GeoJSON
// FeatureCollection of points. Accounts without coordinates are skipped —
// GeoJSON is strictly for the map layer.
func WriteGeoJSON(w io.Writer, accounts []model.Account) error {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, acct := range accounts {
		lat, lng, ok := acct.Coordinates()
		if !ok {
			continue
		}

		props := make(map[string]any, len(acct))
		for k, v := range acct {
			if k == "lat" || k == "lng" {
				continue
			}
			props[k] = v
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{lng, lat}),
			Properties: props,
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "export: marshal geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}
