package transit

import (
	"context"
	"sync"

	"github.com/homescore/homescore/internal/geo"
)

// MemoryRepository is an in-memory Repository for tests and for running
// without a GTFS database. An empty repository scores every point 0.
type MemoryRepository struct {
	mu         sync.RWMutex
	stops      []Stop
	stopRoutes map[string][]Route
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{stopRoutes: make(map[string][]Route)}
}

// AddStop adds a stop served by the given routes.
func (r *MemoryRepository) AddStop(stop Stop, routes ...Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops = append(r.stops, stop)
	r.stopRoutes[stop.ID] = append(r.stopRoutes[stop.ID], routes...)
}

// StopsWithin implements Repository.
func (r *MemoryRepository) StopsWithin(_ context.Context, box geo.BoundingBox) ([]Stop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Stop
	for _, s := range r.stops {
		if box.Contains(s.Location) {
			out = append(out, s)
		}
	}
	return out, nil
}

// RoutesForStop implements Repository.
func (r *MemoryRepository) RoutesForStop(_ context.Context, stopID string) ([]Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []Route
	for _, route := range r.stopRoutes[stopID] {
		if !seen[route.ID] {
			seen[route.ID] = true
			out = append(out, route)
		}
	}
	return out, nil
}
