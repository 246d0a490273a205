// Package proximity answers "is this point within N miles of any customer"
// without an O(n) scan per query: customers are bucketed into a coarse
// lat/lng grid sized so a query only ever has to inspect its own cell and
// the eight neighbors.
package proximity

import (
	"fmt"
	"math"

	"github.com/edia/stratmap/internal/model"
)

const earthRadiusMiles = 3959

// Grid is an immutable spatial bucket index over customer coordinates,
// built for one search radius. Rebuild when the radius or the customer
// dataset changes.
type Grid struct {
	cells    map[string][]point
	cellSize float64
	radius   float64
}

type point struct {
	lat, lng float64
}

// NewGrid buckets every customer with coordinates into cells. Cell size
// scales with the radius (one degree per 50 miles, floored at one degree)
// so the 3x3 neighborhood always covers the search circle.
func NewGrid(customers []model.Account, radiusMiles float64) *Grid {
	g := &Grid{
		cells:    make(map[string][]point),
		cellSize: math.Max(1, radiusMiles/50),
		radius:   radiusMiles,
	}
	for _, c := range customers {
		lat, lng, ok := c.Coordinates()
		if !ok {
			continue
		}
		key := g.key(lat, lng)
		g.cells[key] = append(g.cells[key], point{lat: lat, lng: lng})
	}
	return g
}

// Radius returns the search radius the grid was built for.
func (g *Grid) Radius() float64 { return g.radius }

// Near reports whether the point lies within the grid's radius of any
// customer.
func (g *Grid) Near(lat, lng float64) bool {
	gx := math.Floor(lng / g.cellSize)
	gy := math.Floor(lat / g.cellSize)

	for dx := -1.0; dx <= 1; dx++ {
		for dy := -1.0; dy <= 1; dy++ {
			cell := g.cells[cellKey(gx+dx, gy+dy)]
			for _, p := range cell {
				if Haversine(lat, lng, p.lat, p.lng) <= g.radius {
					return true
				}
			}
		}
	}
	return false
}

func (g *Grid) key(lat, lng float64) string {
	return cellKey(math.Floor(lng/g.cellSize), math.Floor(lat/g.cellSize))
}

func cellKey(gx, gy float64) string {
	return fmt.Sprintf("%.0f:%.0f", gx, gy)
}

// Haversine returns the great-circle distance between two points in miles.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Pow(math.Sin(dLng/2), 2)
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
