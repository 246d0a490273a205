package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// stateCodeFields lists the attribute names a TIGER/Line states shapefile
// may carry the two-letter state code under, most common first.
var stateCodeFields = []string{"STUSPS", "STUSPS10", "STATE_ABBR", "STATE"}

// LoadStatesShapefile reads a states shapefile and computes one centroid per
// state polygon. Records without a recognizable state code or a usable
// polygon are skipped.
func LoadStatesShapefile(path string) (Centroids, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := -1
	for i, f := range reader.Fields() {
		name := strings.ToUpper(strings.TrimRight(f.String(), "\x00"))
		for _, candidate := range stateCodeFields {
			if name == candidate {
				fieldIdx = i
				break
			}
		}
		if fieldIdx >= 0 {
			break
		}
	}
	if fieldIdx < 0 {
		return nil, eris.Errorf("geo: no state-code attribute in %s", path)
	}

	out := make(Centroids)
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		state := strings.ToUpper(strings.TrimSpace(strings.TrimRight(reader.Attribute(fieldIdx), "\x00")))
		if state == "" {
			skipped++
			continue
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		lat, lng, ok := polygonCentroid(poly)
		if !ok {
			skipped++
			continue
		}
		out[state] = Point{Lat: lat, Lng: lng}
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped shapefile records", zap.Int("skipped", skipped))
	}
	if len(out) == 0 {
		return nil, eris.Errorf("geo: no usable state polygons in %s", path)
	}

	zap.L().Info("geo: state centroids loaded",
		zap.String("path", path),
		zap.Int("states", len(out)),
	)
	return out, nil
}

// polygonCentroid computes the areal centroid of the polygon's outer rings.
func polygonCentroid(p *shp.Polygon) (lat, lng float64, ok bool) {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return 0, 0, false
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			continue
		}
	}
	if mp.NumPolygons() == 0 {
		return 0, 0, false
	}

	centroid, err := xy.Centroid(mp)
	if err != nil {
		return 0, 0, false
	}
	// Shapefiles are X=longitude, Y=latitude.
	return centroid.Y(), centroid.X(), true
}
