// Package transit scores public-transport accessibility of a point from
// GTFS stop and route data.
package transit

import (
	"context"
	"errors"

	"github.com/homescore/homescore/internal/geo"
)

var (
	// ErrRepositoryUnavailable indicates the stop data store could not be queried.
	ErrRepositoryUnavailable = errors.New("transit repository unavailable")
)

// Stop is a GTFS stop.
type Stop struct {
	ID       string
	Name     string
	Location geo.Coordinate
}

// Route is a GTFS route.
type Route struct {
	ID        string
	ShortName string
	LongName  string
}

// DisplayName returns the long name, falling back to "Route <short name>".
func (r Route) DisplayName() string {
	if r.LongName != "" {
		return r.LongName
	}
	if r.ShortName != "" {
		return "Route " + r.ShortName
	}
	return "Route " + r.ID
}

// RouteRef is a route reachable from the nearest stop.
type RouteRef struct {
	ID        string `json:"route_id"`
	ShortName string `json:"route_short_name,omitempty"`
	Name      string `json:"route_name"`
}

// Score is the transit accessibility of a point on a 0..100 scale.
type Score struct {
	Score            float64
	AccessibleRoutes []RouteRef
	// NearestStop is nil when no stop is within range.
	NearestStop        *Stop
	StopDistanceMeters float64
}

// Repository reads GTFS data.
type Repository interface {
	// StopsWithin returns the stops inside a bounding box.
	StopsWithin(ctx context.Context, box geo.BoundingBox) ([]Stop, error)
	// RoutesForStop returns the distinct routes serving a stop.
	RoutesForStop(ctx context.Context, stopID string) ([]Route, error)
}
