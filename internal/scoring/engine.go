// Package scoring ranks candidate residential locations in a city by
// amenity proximity, transit access and commute burden.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/area"
	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/osm"
	"github.com/homescore/homescore/internal/routing"
	"github.com/homescore/homescore/internal/sampler"
	"github.com/homescore/homescore/internal/transit"
)

// ErrMissingDependency indicates NewEngine was given an incomplete config.
var ErrMissingDependency = errors.New("missing scoring dependency")

// Geocoder resolves a postcode to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, postcode string) (geo.Coordinate, error)
}

// TransitScorer rates public-transport access at a point.
type TransitScorer interface {
	Score(ctx context.Context, point geo.Coordinate) (*transit.Score, error)
}

// TravelResolver resolves commute times.
type TravelResolver interface {
	Resolve(ctx context.Context, origin, dest geo.Coordinate, mode routing.Mode) (*routing.Result, error)
}

// Sampler draws candidate points inside a boundary.
type Sampler interface {
	Sample(poly *geo.Polygon, count int) []geo.Coordinate
}

// EngineConfig wires the engine's collaborators. Boundaries and Amenities
// are required. A nil Areas labels every location area.Unknown, a nil
// Transit scores transit 0 and a nil Travel skips commute scoring.
type EngineConfig struct {
	Boundaries osm.BoundaryProvider
	Amenities  osm.AmenityProvider
	Areas      osm.AreaProvider
	Geocoder   Geocoder
	Transit    TransitScorer
	Travel     TravelResolver

	// Sampler defaults to a time-seeded sampler.
	Sampler Sampler
	// Locator defaults to one without a top-rated school index.
	Locator *amenity.Locator

	Scoring Config
	Logger  zerolog.Logger
}

// Engine scores locations. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	boundaries osm.BoundaryProvider
	amenities  osm.AmenityProvider
	areas      osm.AreaProvider
	geocoder   Geocoder
	transit    TransitScorer
	travel     TravelResolver
	sampler    Sampler
	locator    *amenity.Locator

	cfg     Config
	logger  zerolog.Logger
	tracer  trace.Tracer
	metrics *metrics
}

// NewEngine creates a scoring engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Boundaries == nil {
		return nil, fmt.Errorf("%w: boundary provider", ErrMissingDependency)
	}
	if cfg.Amenities == nil {
		return nil, fmt.Errorf("%w: amenity provider", ErrMissingDependency)
	}
	if cfg.Sampler == nil {
		cfg.Sampler = sampler.NewSeeded(uint64(time.Now().UnixNano()))
	}
	if cfg.Locator == nil {
		cfg.Locator = amenity.NewLocator(nil)
	}

	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("creating scoring metrics: %w", err)
	}

	return &Engine{
		boundaries: cfg.Boundaries,
		amenities:  cfg.Amenities,
		areas:      cfg.Areas,
		geocoder:   cfg.Geocoder,
		transit:    cfg.Transit,
		travel:     cfg.Travel,
		sampler:    cfg.Sampler,
		locator:    cfg.Locator,
		cfg:        cfg.Scoring.withDefaults(),
		logger:     cfg.Logger,
		tracer:     otel.Tracer(instrumentationName),
		metrics:    m,
	}, nil
}

// Config returns the effective scoring configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// referenceData is fetched once per request and shared read-only by every
// candidate.
type referenceData struct {
	amenities map[amenity.Category][]amenity.Amenity
	areas     *area.Resolver
}

// destination is a travel preference with its coordinate resolved.
type destination struct {
	label     string
	point     geo.Coordinate
	frequency int
	mode      routing.Mode
}

// Score runs the scoring pipeline for req and returns the top locations.
// It never fails: an unresolvable city yields no locations and missing data
// degrades the affected component to zero, with a warning.
func (e *Engine) Score(ctx context.Context, req Request) *Result {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "scoring.Score", trace.WithAttributes(attribute.String("city", req.City)))
	defer span.End()

	if e.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Deadline)
		defer cancel()
	}

	logger := e.logger.With().Str("city", req.City).Logger()
	warn := newWarnings()
	result := &Result{City: req.City, Locations: []ScoredLocation{}}

	poly, err := e.boundaries.Boundary(ctx, req.City)
	if err != nil || poly.IsEmpty() {
		logger.Warn().Err(err).Msg("city boundary unavailable")
		e.metrics.recordDegraded(ctx, componentBoundary)
		warn.add(fmt.Sprintf("could not resolve a boundary for %q", req.City))
		result.Warnings = warn.list()
		e.metrics.recordRequest(ctx, start, 0)
		return result
	}

	weights := req.Weights
	if weights == nil {
		weights = DefaultWeights()
	}
	active, activeSum := weights.Active()

	var (
		data  *referenceData
		dests []destination
		g     errgroup.Group
	)
	g.Go(func() error {
		data = e.fetchReference(ctx, req.City, poly, active, warn, logger)
		return nil
	})
	g.Go(func() error {
		dests = e.destinations(ctx, req, warn, logger)
		return nil
	})
	_ = g.Wait()

	if len(dests) > 0 && e.travel == nil {
		warn.add("travel times are unavailable")
		dests = nil
	}

	points := e.sampler.Sample(poly, e.cfg.CandidateCount)
	span.SetAttributes(attribute.Int("candidates", len(points)))
	if len(points) == 0 {
		logger.Warn().Msg("no candidate points could be sampled")
		warn.add("no candidate locations could be generated")
		result.Warnings = warn.list()
		e.metrics.recordRequest(ctx, start, 0)
		return result
	}

	scored := make([]*ScoredLocation, len(points))
	pool := new(errgroup.Group)
	pool.SetLimit(e.cfg.Concurrency)
	for i, p := range points {
		pool.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			loc := e.scoreCandidate(ctx, i, p, data, dests, weights, active, activeSum, logger)
			scored[i] = &loc
			return nil
		})
	}
	_ = pool.Wait()

	locations := make([]ScoredLocation, 0, len(points))
	for _, loc := range scored {
		if loc != nil {
			locations = append(locations, *loc)
		}
	}
	scoredCount := len(locations)
	if scoredCount < len(points) {
		logger.Warn().
			Int("scored", scoredCount).
			Int("candidates", len(points)).
			Msg("scoring deadline reached")
		warn.add(fmt.Sprintf("time limit reached, %d of %d candidates scored", scoredCount, len(points)))
	}

	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].FinalScore > locations[j].FinalScore
	})
	if len(locations) > e.cfg.TopN {
		locations = locations[:e.cfg.TopN]
	}

	for _, loc := range locations {
		for _, w := range loc.Warnings {
			warn.add(w)
		}
	}

	result.Locations = locations
	result.Warnings = warn.list()

	e.metrics.recordRequest(ctx, start, scoredCount)
	logger.Info().
		Int("candidates", len(points)).
		Int("returned", len(locations)).
		Dur("duration", time.Since(start)).
		Msg("scored locations")

	return result
}

func (e *Engine) fetchReference(
	ctx context.Context,
	city string,
	poly *geo.Polygon,
	active []amenity.Category,
	warn *warnings,
	logger zerolog.Logger,
) *referenceData {
	var (
		mu    sync.Mutex
		byCat = make(map[amenity.Category][]amenity.Amenity, len(active))
		areas []area.Area
		g     errgroup.Group
	)

	for _, cat := range active {
		g.Go(func() error {
			list, err := e.amenities.Amenities(ctx, city, cat)
			if err != nil {
				logger.Warn().Err(err).Str("category", string(cat)).Msg("amenity data unavailable")
				e.metrics.recordDegraded(ctx, componentAmenity)
				warn.add(fmt.Sprintf("%s data is unavailable", cat))
				return nil
			}
			mu.Lock()
			byCat[cat] = list
			mu.Unlock()
			return nil
		})
	}

	if e.areas != nil {
		g.Go(func() error {
			list, err := e.areas.Areas(ctx, poly.Bounds())
			if err != nil {
				logger.Warn().Err(err).Msg("area names unavailable")
				e.metrics.recordDegraded(ctx, componentArea)
				return nil
			}
			areas = list
			return nil
		})
	}

	_ = g.Wait()
	return &referenceData{amenities: byCat, areas: area.NewResolver(areas)}
}

// destinations resolves travel preferences to coordinates. Labels are made
// unique so each destination keeps its own travel score.
func (e *Engine) destinations(ctx context.Context, req Request, warn *warnings, logger zerolog.Logger) []destination {
	out := make([]destination, 0, len(req.Preferences))
	seen := make(map[string]int, len(req.Preferences))

	for i, pref := range req.Preferences {
		label := strings.TrimSpace(pref.Label)
		if label == "" {
			label = fmt.Sprintf("Destination %d", i+1)
		}
		if n := seen[label]; n > 0 {
			seen[label] = n + 1
			label = fmt.Sprintf("%s (%d)", label, n+1)
		} else {
			seen[label] = 1
		}

		point, ok := e.locate(ctx, pref, logger)
		if !ok {
			e.metrics.recordDegraded(ctx, componentGeocode)
			warn.add(fmt.Sprintf("could not locate destination %q", label))
			continue
		}

		freq := pref.FrequencyPerWeek
		if freq < 0 {
			freq = 0
		}

		mode := pref.Mode
		if req.ModeOverride != "" && req.ModeOverride != routing.ModeAuto {
			mode = req.ModeOverride
		}
		if mode == "" {
			mode = routing.ModeAuto
		}

		out = append(out, destination{label: label, point: point, frequency: freq, mode: mode})
	}
	return out
}

func (e *Engine) locate(ctx context.Context, pref TravelPreference, logger zerolog.Logger) (geo.Coordinate, bool) {
	if pref.Destination != nil {
		if err := pref.Destination.Validate(); err != nil {
			logger.Debug().Err(err).Str("label", pref.Label).Msg("invalid destination coordinate")
			return geo.Coordinate{}, false
		}
		return *pref.Destination, true
	}
	if pref.Postcode == "" || e.geocoder == nil {
		return geo.Coordinate{}, false
	}

	point, err := e.geocoder.Geocode(ctx, pref.Postcode)
	if err != nil {
		logger.Warn().Err(err).Str("postcode", pref.Postcode).Msg("destination geocoding failed")
		return geo.Coordinate{}, false
	}
	return point, true
}

func (e *Engine) scoreCandidate(
	ctx context.Context,
	index int,
	point geo.Coordinate,
	data *referenceData,
	dests []destination,
	weights Weights,
	active []amenity.Category,
	activeSum int,
	logger zerolog.Logger,
) ScoredLocation {
	loc := ScoredLocation{
		Location:     point,
		AreaName:     data.areas.Nearest(point),
		Amenities:    make(map[amenity.Category]AmenityResult, len(active)),
		TravelScores: make(map[string]TravelScore, len(dests)),
		MapLink:      MapLink(point),
		Transit:      TransitResult{AccessibleRoutes: []transit.RouteRef{}},
	}
	loc.Breakdown.Amenities.ByCategory = make(map[amenity.Category]float64, len(active))

	for _, cat := range active {
		nearest, ok := e.locator.Nearest(point, data.amenities[cat])
		if !ok {
			continue
		}
		points := AmenityPoints(e.cfg.Decay, nearest.DistanceKm(), e.cfg.ReferenceKm[cat], weights[cat])
		loc.Amenities[cat] = AmenityResult{
			Name:           nearest.Amenity.Name,
			Category:       cat,
			Location:       nearest.Amenity.Location,
			DistanceMeters: nearest.DistanceMeters,
			Score:          points,
			Level:          nearest.Amenity.Level,
			Rating:         nearest.Rating,
		}
		loc.Breakdown.Amenities.ByCategory[cat] = points
		loc.Breakdown.Amenities.Total += points
	}

	var (
		transitScore *transit.Score
		transitErr   error
		trips        = make([]*routing.Result, len(dests))
		tripErrs     = make([]error, len(dests))
		g            errgroup.Group
	)
	if e.transit != nil {
		g.Go(func() error {
			transitScore, transitErr = e.transit.Score(ctx, point)
			return nil
		})
	}
	for i, d := range dests {
		g.Go(func() error {
			trips[i], tripErrs[i] = e.travel.Resolve(ctx, point, d.point, d.mode)
			return nil
		})
	}
	_ = g.Wait()

	raw := 0.0
	switch {
	case e.transit == nil:
	case transitErr != nil || transitScore == nil:
		logger.Warn().Err(transitErr).Int("candidate_index", index).Msg("transit score unavailable")
		e.metrics.recordDegraded(ctx, componentTransit)
		loc.Warnings = append(loc.Warnings, "transit data is unavailable")
	default:
		raw = transitScore.Score
		loc.Transit.Score = transitScore.Score
		if transitScore.AccessibleRoutes != nil {
			loc.Transit.AccessibleRoutes = transitScore.AccessibleRoutes
		}
	}
	loc.Breakdown.Transit = TransitBreakdown{Raw: raw, Weighted: TransitPoints(raw, e.cfg.TransitWeight)}

	if len(dests) > 0 {
		resolved := make([]tripMinutes, 0, len(dests))
		for i, d := range dests {
			if tripErrs[i] != nil || trips[i] == nil {
				logger.Debug().
					Err(tripErrs[i]).
					Int("candidate_index", index).
					Str("destination", d.label).
					Str("mode", string(d.mode)).
					Msg("no travel time")
				if d.mode == routing.ModeBus {
					e.metrics.recordDegraded(ctx, componentTransit)
					loc.Warnings = append(loc.Warnings,
						fmt.Sprintf("public transit is unavailable to %q and no road route was found", d.label))
					continue
				}
				loc.Warnings = append(loc.Warnings, fmt.Sprintf("no route found to %q", d.label))
				continue
			}

			r := trips[i]
			loc.TravelScores[d.label] = TravelScore{
				Minutes:            r.Minutes,
				Mode:               r.Mode,
				Requested:          d.mode,
				Frequency:          d.frequency,
				AllModeMinutes:     r.AllModeMinutes,
				TransitUnavailable: r.TransitUnavailable,
			}
			if r.TransitUnavailable {
				loc.Warnings = append(loc.Warnings,
					fmt.Sprintf("no public transit route to %q, %s time used instead", d.label, r.Mode))
			}
			resolved = append(resolved, tripMinutes{minutes: r.Minutes, frequency: d.frequency})
		}

		if len(resolved) == 0 {
			e.metrics.recordDegraded(ctx, componentTravel)
		}
		if penalty, ok := travelPenalty(resolved); ok {
			travel := TravelPoints(penalty, e.cfg.MaxAcceptableMinutes, e.cfg.TravelWeight)
			loc.Breakdown.Travel = &travel
			loc.Breakdown.TravelPenaltyMinutes = &penalty
		}
	}

	loc.FinalScore = FinalScore(loc.Breakdown, activeSum)
	return loc
}

// warnings is an ordered set of messages, safe for concurrent use.
type warnings struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	items []string
}

func newWarnings() *warnings {
	return &warnings{seen: make(map[string]struct{})}
}

func (w *warnings) add(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[msg]; ok {
		return
	}
	w.seen[msg] = struct{}{}
	w.items = append(w.items, msg)
}

func (w *warnings) list() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string{}, w.items...)
}
