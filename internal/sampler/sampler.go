// Package sampler draws uniform random candidate points inside a city boundary.
package sampler

import (
	"math/rand/v2"
	"sync"

	"github.com/homescore/homescore/internal/geo"
)

// AttemptsPerPoint bounds rejection sampling: at most count*AttemptsPerPoint
// draws are made before giving up.
const AttemptsPerPoint = 20

// Sampler performs rejection sampling over a polygon's bounding box.
// It is safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a sampler drawing from src.
func New(src rand.Source) *Sampler {
	return &Sampler{rng: rand.New(src)}
}

// NewSeeded creates a deterministic sampler.
func NewSeeded(seed uint64) *Sampler {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sample returns up to count points strictly inside poly, in draw order.
// Fewer points are returned when the attempt budget runs out, and none when
// the polygon is empty or count is not positive.
func (s *Sampler) Sample(poly *geo.Polygon, count int) []geo.Coordinate {
	if count <= 0 || poly.IsEmpty() {
		return nil
	}

	bounds := poly.Bounds()
	if bounds.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	points := make([]geo.Coordinate, 0, count)
	for attempts := 0; attempts < count*AttemptsPerPoint && len(points) < count; attempts++ {
		c := geo.Coordinate{
			Lat: bounds.MinLat + s.rng.Float64()*(bounds.MaxLat-bounds.MinLat),
			Lon: bounds.MinLon + s.rng.Float64()*(bounds.MaxLon-bounds.MinLon),
		}
		if poly.Contains(c) {
			points = append(points, c)
		}
	}
	return points
}
