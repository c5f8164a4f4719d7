package transit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/homescore/homescore/internal/geo"
)

const (
	// DefaultMaxStopDistance is the walking radius within which a stop counts.
	DefaultMaxStopDistance = 500.0

	pointsPerRoute   = 10.0
	maxRoutePoints   = 70.0
	maxProximityPts  = 30.0
	metersPerDegLat  = 111195.0
	defaultRoutesTTL = 6 * time.Hour
)

// ServiceConfig configures the transit scorer.
type ServiceConfig struct {
	Repository Repository

	// MaxStopDistance is in metres. Zero uses DefaultMaxStopDistance.
	MaxStopDistance float64

	// RoutesTTL controls how long per-stop route lists are cached.
	RoutesTTL time.Duration

	Logger zerolog.Logger
}

// Service computes transit scores. It caches the route list of each stop.
type Service struct {
	repo        Repository
	maxDistance float64
	routesTTL   time.Duration
	logger      zerolog.Logger

	mu     sync.RWMutex
	routes map[string]*routesEntry
}

type routesEntry struct {
	routes    []Route
	expiresAt time.Time
}

// NewService creates a transit scoring service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.MaxStopDistance <= 0 {
		cfg.MaxStopDistance = DefaultMaxStopDistance
	}
	if cfg.RoutesTTL <= 0 {
		cfg.RoutesTTL = defaultRoutesTTL
	}

	return &Service{
		repo:        cfg.Repository,
		maxDistance: cfg.MaxStopDistance,
		routesTTL:   cfg.RoutesTTL,
		logger:      cfg.Logger,
		routes:      make(map[string]*routesEntry),
	}
}

// Score rates transit access at point. Routes contribute 10 points each up
// to 70, and proximity of the nearest stop up to 30. No stop in range, or
// a nearest stop that no route serves, scores 0.
func (s *Service) Score(ctx context.Context, point geo.Coordinate) (*Score, error) {
	stops, err := s.repo.StopsWithin(ctx, s.searchBox(point))
	if err != nil {
		return nil, fmt.Errorf("loading stops: %w", err)
	}

	stop, dist, ok := s.nearestStop(point, stops)
	if !ok {
		return &Score{AccessibleRoutes: []RouteRef{}}, nil
	}

	routes, err := s.routesForStop(ctx, stop.ID)
	if err != nil {
		return nil, fmt.Errorf("loading routes for stop %s: %w", stop.ID, err)
	}
	if len(routes) == 0 {
		return &Score{
			AccessibleRoutes:   []RouteRef{},
			NearestStop:        &stop,
			StopDistanceMeters: dist,
		}, nil
	}

	refs := make([]RouteRef, 0, len(routes))
	for _, r := range routes {
		refs = append(refs, RouteRef{ID: r.ID, ShortName: r.ShortName, Name: r.DisplayName()})
	}

	routeScore := math.Min(float64(len(routes))*pointsPerRoute, maxRoutePoints)
	proximity := math.Max(maxProximityPts*(1-dist/s.maxDistance), 0)

	s.logger.Debug().
		Str("stop_id", stop.ID).
		Float64("stop_distance_m", dist).
		Int("routes", len(routes)).
		Msg("scored transit access")

	return &Score{
		Score:              math.Round((routeScore+proximity)*10) / 10,
		AccessibleRoutes:   refs,
		NearestStop:        &stop,
		StopDistanceMeters: dist,
	}, nil
}

func (s *Service) nearestStop(point geo.Coordinate, stops []Stop) (Stop, float64, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, st := range stops {
		d := geo.HaversineMeters(point, st.Location)
		if d <= s.maxDistance && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Stop{}, 0, false
	}
	return stops[best], bestDist, true
}

// searchBox returns a box that encloses the search radius around point.
func (s *Service) searchBox(point geo.Coordinate) geo.BoundingBox {
	dLat := s.maxDistance / metersPerDegLat
	cosLat := math.Max(math.Cos(point.Lat*math.Pi/180), 0.01)
	dLon := s.maxDistance / (metersPerDegLat * cosLat)
	return geo.BoundingBox{
		MinLat: point.Lat - dLat,
		MaxLat: point.Lat + dLat,
		MinLon: point.Lon - dLon,
		MaxLon: point.Lon + dLon,
	}
}

func (s *Service) routesForStop(ctx context.Context, stopID string) ([]Route, error) {
	now := time.Now()

	s.mu.RLock()
	entry, ok := s.routes[stopID]
	s.mu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.routes, nil
	}

	routes, err := s.repo.RoutesForStop(ctx, stopID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.routes[stopID] = &routesEntry{routes: routes, expiresAt: now.Add(s.routesTTL)}
	s.mu.Unlock()

	return routes, nil
}

// InvalidateCache drops all cached route lists.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = make(map[string]*routesEntry)
}
