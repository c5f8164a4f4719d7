package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/osm"
)

// Warm-up stages reported in WarmError.
const (
	StageBoundary = "boundary"
	StageAreas    = "areas"
	StageAmenity  = "amenities"
)

// ErrNoProviders is returned by Check when the job has nothing to warm.
var ErrNoProviders = errors.New("worker: no providers configured")

// WarmJob prefetches the city data the scoring engine needs through the
// cached OSM providers, so scoring requests hit a warm cache.
type WarmJob struct {
	config     WarmConfig
	logger     zerolog.Logger
	boundaries osm.BoundaryProvider
	areas      osm.AreaProvider
	amenities  osm.AmenityProvider

	metrics *WarmMetrics
}

// WarmMetrics tracks warm job statistics.
type WarmMetrics struct {
	mu sync.RWMutex

	TotalRuns      int64
	CitiesWarmed   int64
	CitiesFailed   int64
	AmenityFetches int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// WarmJobConfig holds configuration for creating a WarmJob. Boundaries is
// required for anything to be warmed.
type WarmJobConfig struct {
	Config     WarmConfig
	Logger     zerolog.Logger
	Boundaries osm.BoundaryProvider
	Areas      osm.AreaProvider
	Amenities  osm.AmenityProvider
}

// NewWarmJob creates a new warm job.
func NewWarmJob(cfg WarmJobConfig) *WarmJob {
	return &WarmJob{
		config:     cfg.Config.withDefaults(),
		logger:     cfg.Logger,
		boundaries: cfg.Boundaries,
		areas:      cfg.Areas,
		amenities:  cfg.Amenities,
		metrics:    &WarmMetrics{},
	}
}

// WarmResult contains the result of a warm run.
type WarmResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalCities int
	Successful  int
	Failed      int
	Errors      []WarmError
}

// WarmError is one failed fetch.
type WarmError struct {
	City     string
	Stage    string
	Category amenity.Category
	Error    string
}

type cityResult struct {
	errors         []WarmError
	amenityFetches int
}

// Run warms the given cities, or the configured ones when none are given.
func (j *WarmJob) Run(ctx context.Context, cities ...string) *WarmResult {
	if len(cities) == 0 {
		cities = j.config.Cities
	}

	startTime := time.Now()
	result := &WarmResult{
		StartTime:   startTime,
		TotalCities: len(cities),
	}

	j.logger.Info().
		Int("cities", len(cities)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache warm job")

	results := make([]cityResult, len(cities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)
	for i, city := range cities {
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = cityResult{errors: []WarmError{{City: city, Stage: StageBoundary, Error: gctx.Err().Error()}}}
				return nil
			}
			results[i] = j.warmCity(gctx, city)
			return nil
		})
	}
	_ = g.Wait()

	amenityFetches := 0
	for _, cr := range results {
		if len(cr.errors) == 0 {
			result.Successful++
		} else {
			result.Failed++
		}
		amenityFetches += cr.amenityFetches
		result.Errors = append(result.Errors, cr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result, amenityFetches)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("cache warm job completed")

	return result
}

func (j *WarmJob) warmCity(ctx context.Context, city string) cityResult {
	cityCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	logger := j.logger.With().Str("city", city).Logger()

	if j.boundaries == nil {
		return cityResult{errors: []WarmError{{City: city, Stage: StageBoundary, Error: ErrNoProviders.Error()}}}
	}
	poly, err := j.boundaries.Boundary(cityCtx, city)
	if err != nil {
		logger.Warn().Err(err).Msg("boundary warm failed")
		return cityResult{errors: []WarmError{{City: city, Stage: StageBoundary, Error: err.Error()}}}
	}

	var (
		mu     sync.Mutex
		result cityResult
	)
	fail := func(e WarmError) {
		mu.Lock()
		result.errors = append(result.errors, e)
		mu.Unlock()
	}

	var g errgroup.Group
	if j.areas != nil {
		g.Go(func() error {
			if _, err := j.areas.Areas(cityCtx, poly.Bounds()); err != nil {
				logger.Warn().Err(err).Msg("area warm failed")
				fail(WarmError{City: city, Stage: StageAreas, Error: err.Error()})
			}
			return nil
		})
	}
	if j.amenities != nil {
		for _, cat := range j.config.Categories {
			g.Go(func() error {
				if _, err := j.amenities.Amenities(cityCtx, city, cat); err != nil {
					logger.Warn().Err(err).Str("category", string(cat)).Msg("amenity warm failed")
					fail(WarmError{City: city, Stage: StageAmenity, Category: cat, Error: err.Error()})
					return nil
				}
				mu.Lock()
				result.amenityFetches++
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	return result
}

// Check resolves the boundary of the first configured city to verify the
// OSM providers are reachable.
func (j *WarmJob) Check(ctx context.Context) error {
	if j.boundaries == nil {
		return ErrNoProviders
	}
	city := j.config.Cities[0]

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()
	if _, err := j.boundaries.Boundary(ctx, city); err != nil {
		return fmt.Errorf("resolving %s boundary: %w", city, err)
	}
	return nil
}

func (j *WarmJob) updateMetrics(result *WarmResult, amenityFetches int) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.CitiesWarmed += int64(result.Successful)
	j.metrics.CitiesFailed += int64(result.Failed)
	j.metrics.AmenityFetches += int64(amenityFetches)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmJob) GetMetrics() WarmMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		CitiesWarmed:    j.metrics.CitiesWarmed,
		CitiesFailed:    j.metrics.CitiesFailed,
		AmenityFetches:  j.metrics.AmenityFetches,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *WarmJob) MetricsSnapshot() map[string]any {
	m := j.GetMetrics()
	return map[string]any{
		"total_runs":        m.TotalRuns,
		"cities_warmed":     m.CitiesWarmed,
		"cities_failed":     m.CitiesFailed,
		"amenity_fetches":   m.AmenityFetches,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
