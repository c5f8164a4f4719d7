// Package area labels candidate points with the nearest named neighbourhood.
package area

import "github.com/homescore/homescore/internal/geo"

// Unknown is returned when no named area is available.
const Unknown = "Unknown Area"

// Area is a named place such as a suburb or neighbourhood.
type Area struct {
	Name     string         `json:"name"`
	Location geo.Coordinate `json:"location"`
}

// Resolver answers nearest-area lookups against a fixed area list.
type Resolver struct {
	areas  []Area
	points []geo.Coordinate
}

// NewResolver indexes areas for repeated lookups.
func NewResolver(areas []Area) *Resolver {
	points := make([]geo.Coordinate, len(areas))
	for i, a := range areas {
		points[i] = a.Location
	}
	return &Resolver{areas: areas, points: points}
}

// Nearest returns the name of the area closest to point by great-circle
// distance, or Unknown. The first of equally near areas wins.
func (r *Resolver) Nearest(point geo.Coordinate) string {
	idx, _ := geo.NearestIndexBy(point, r.points, geo.HaversineMeters)
	if idx < 0 {
		return Unknown
	}
	return r.areas[idx].Name
}

// Nearest is a one-off lookup over areas.
func Nearest(point geo.Coordinate, areas []Area) string {
	return NewResolver(areas).Nearest(point)
}
