// Package osm defines the OpenStreetMap-backed collaborators (city
// boundaries, amenities, named areas) and their cache decorators.
package osm

import (
	"context"
	"errors"
	"strings"

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/area"
	"github.com/homescore/homescore/internal/geo"
)

var (
	// ErrCityNotFound indicates the city name did not resolve to a boundary.
	ErrCityNotFound = errors.New("city not found")
	// ErrProviderUnavailable indicates an OSM service failed.
	ErrProviderUnavailable = errors.New("osm provider unavailable")
)

// BoundaryProvider resolves a city name to its administrative boundary.
type BoundaryProvider interface {
	Boundary(ctx context.Context, city string) (*geo.Polygon, error)
}

// AmenityProvider lists the amenities of one category in a city.
type AmenityProvider interface {
	Amenities(ctx context.Context, city string, category amenity.Category) ([]amenity.Amenity, error)
}

// AreaProvider lists named neighbourhoods inside a bounding box.
type AreaProvider interface {
	Areas(ctx context.Context, box geo.BoundingBox) ([]area.Area, error)
}

// CityKey normalises a city name for cache keys.
func CityKey(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), " ")
}

// PrimaryName returns the part of a city query before the first comma,
// e.g. "Cardiff" for "Cardiff, UK".
func PrimaryName(city string) string {
	head, _, _ := strings.Cut(city, ",")
	return strings.TrimSpace(head)
}
