package proximity

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edia/stratmap/internal/model"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// Dallas to Fort Worth is roughly 31 miles.
	d := Haversine(32.7767, -96.7970, 32.7555, -97.3308)
	assert.InDelta(t, 31, d, 2)
}

func TestGrid_Near(t *testing.T) {
	customers := []model.Account{
		{"name": "Fort Worth ISD", "lat": 32.7555, "lng": -97.3308},
	}
	g := NewGrid(customers, 50)

	// Dallas is ~31 miles from Fort Worth: inside a 50-mile radius.
	assert.True(t, g.Near(32.7767, -96.7970))

	// Chicago is not.
	assert.False(t, g.Near(41.8781, -87.6298))
}

func TestGrid_RadiusBoundary(t *testing.T) {
	customers := []model.Account{
		{"name": "Fort Worth ISD", "lat": 32.7555, "lng": -97.3308},
	}
	// Shrink the radius below the Dallas-Fort Worth distance.
	g := NewGrid(customers, 20)
	assert.False(t, g.Near(32.7767, -96.7970))
}

func TestGrid_SkipsCustomersWithoutCoordinates(t *testing.T) {
	customers := []model.Account{
		{"name": "Unlocated ISD"},
	}
	g := NewGrid(customers, 50)
	assert.False(t, g.Near(32.7767, -96.7970))
}

// The grid must answer exactly like a brute-force haversine scan; the
// bucketing is purely an access-path optimization.
func TestGrid_MatchesBruteForce(t *testing.T) {
	// Below ~40°N a one-degree cell is wider than the 50-mile radius in both
	// axes, so the 3x3 neighborhood is exhaustive.
	rng := rand.New(rand.NewSource(7))
	var customers []model.Account
	for i := 0; i < 200; i++ {
		customers = append(customers, model.Account{
			"lat": 25 + rng.Float64()*15,
			"lng": -124 + rng.Float64()*57,
		})
	}

	const radius = 50
	g := NewGrid(customers, radius)

	for i := 0; i < 500; i++ {
		lat := 25 + rng.Float64()*15
		lng := -124 + rng.Float64()*57

		brute := false
		for _, c := range customers {
			cLat, cLng, _ := c.Coordinates()
			if Haversine(lat, lng, cLat, cLng) <= radius {
				brute = true
				break
			}
		}
		assert.Equal(t, brute, g.Near(lat, lng), "point (%f, %f)", lat, lng)
	}
}
