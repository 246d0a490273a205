// Package geo supplies offline state-centroid lookups for the geocoding
// fallback path, loaded from a YAML table that the load-states command
// generates out of a TIGER/Line states shapefile.
package geo

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Point is one centroid coordinate pair.
type Point struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// Centroids maps uppercased state codes to their approximate centroid. It
// implements the geocoder's StateLocator.
type Centroids map[string]Point

// StateCentroid returns the centroid for a state code, case-insensitively.
func (c Centroids) StateCentroid(state string) (lat, lng float64, ok bool) {
	p, ok := c[strings.ToUpper(strings.TrimSpace(state))]
	return p.Lat, p.Lng, ok
}

// States returns the covered state codes in sorted order.
func (c Centroids) States() []string {
	out := make([]string, 0, len(c))
	for state := range c {
		out = append(out, state)
	}
	sort.Strings(out)
	return out
}

// LoadCentroids reads a centroid table from a YAML file.
func LoadCentroids(path string) (Centroids, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: read centroids %s", path)
	}
	var raw map[string]Point
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "geo: parse centroids %s", path)
	}

	out := make(Centroids, len(raw))
	for state, p := range raw {
		out[strings.ToUpper(strings.TrimSpace(state))] = p
	}
	return out, nil
}

// SaveCentroids writes a centroid table to a YAML file.
func (c Centroids) SaveCentroids(path string) error {
	data, err := yaml.Marshal(map[string]Point(c))
	if err != nil {
		return eris.Wrap(err, "geo: marshal centroids")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "geo: write centroids %s", path)
	}
	return nil
}
