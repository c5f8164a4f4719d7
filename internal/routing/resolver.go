package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/homescore/homescore/internal/geo"
)

const (
	// DefaultRoadTimeout bounds a single driving, cycling or walking lookup.
	DefaultRoadTimeout = 10 * time.Second
	// DefaultTransitTimeout bounds a single transit lookup.
	DefaultTransitTimeout = 15 * time.Second
)

// ResolverConfig configures the travel-time resolver.
type ResolverConfig struct {
	// Providers serve the profiles they declare. Later providers do not
	// replace earlier ones for the same profile.
	Providers []Provider

	RoadTimeout    time.Duration
	TransitTimeout time.Duration

	// Memo is shared across requests. Nil creates a private one.
	Memo *Memo

	Now    func() time.Time
	Logger zerolog.Logger
}

// Result is a resolved travel time.
type Result struct {
	// Minutes is the travel time of Mode.
	Minutes float64
	// Mode is the mode that produced Minutes.
	Mode Mode
	// Requested is the mode the caller asked for.
	Requested Mode
	// AllModeMinutes holds every successful mode of an auto lookup.
	AllModeMinutes map[Mode]float64
	// TransitUnavailable is set when bus was requested and no transit route
	// was found, so Mode is a road fallback.
	TransitUnavailable bool
}

// Resolver resolves travel times. Each provider call is a single attempt
// bounded by a timeout; any failure is treated as "no route" for that mode.
type Resolver struct {
	providers      map[RouteProfile]Provider
	roadTimeout    time.Duration
	transitTimeout time.Duration
	memo           *Memo
	now            func() time.Time
	logger         zerolog.Logger
}

// NewResolver creates a resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.RoadTimeout <= 0 {
		cfg.RoadTimeout = DefaultRoadTimeout
	}
	if cfg.TransitTimeout <= 0 {
		cfg.TransitTimeout = DefaultTransitTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Memo == nil {
		cfg.Memo = NewMemo(MemoConfig{Now: cfg.Now})
	}

	providers := make(map[RouteProfile]Provider)
	for _, p := range cfg.Providers {
		for _, profile := range p.SupportedProfiles() {
			if _, taken := providers[profile]; !taken {
				providers[profile] = p
			}
		}
	}

	return &Resolver{
		providers:      providers,
		roadTimeout:    cfg.RoadTimeout,
		transitTimeout: cfg.TransitTimeout,
		memo:           cfg.Memo,
		now:            cfg.Now,
		logger:         cfg.Logger,
	}
}

// Resolve returns the travel time from origin to dest. Auto compares every
// concrete mode and picks the fastest; bus falls back to driving, cycling
// then walking. ErrNoRouteFound is returned when nothing resolves.
func (r *Resolver) Resolve(ctx context.Context, origin, dest geo.Coordinate, mode Mode) (*Result, error) {
	if origin.Validate() != nil || dest.Validate() != nil {
		return nil, ErrInvalidCoordinates
	}

	switch mode {
	case ModeAuto, "":
		return r.resolveAuto(ctx, origin, dest)
	case ModeBus:
		return r.resolveBus(ctx, origin, dest)
	case ModeDriving, ModeCycling, ModeWalking:
		minutes, err := r.query(ctx, origin, dest, mode)
		if err != nil {
			return nil, err
		}
		return &Result{Minutes: minutes, Mode: mode, Requested: mode}, nil
	default:
		return nil, fmt.Errorf("unknown transport mode %q", mode)
	}
}

func (r *Resolver) resolveAuto(ctx context.Context, origin, dest geo.Coordinate) (*Result, error) {
	var (
		mu  sync.Mutex
		all = make(map[Mode]float64, len(ConcreteModes))
		g   errgroup.Group
	)

	for _, m := range ConcreteModes {
		g.Go(func() error {
			minutes, err := r.query(ctx, origin, dest, m)
			if err != nil {
				return nil
			}
			mu.Lock()
			all[m] = minutes
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{Requested: ModeAuto, AllModeMinutes: all}
	found := false
	for _, m := range ConcreteModes {
		minutes, ok := all[m]
		if ok && (!found || minutes < result.Minutes) {
			result.Minutes = minutes
			result.Mode = m
			found = true
		}
	}
	if !found {
		return nil, ErrNoRouteFound
	}
	return result, nil
}

func (r *Resolver) resolveBus(ctx context.Context, origin, dest geo.Coordinate) (*Result, error) {
	if minutes, err := r.query(ctx, origin, dest, ModeBus); err == nil {
		return &Result{Minutes: minutes, Mode: ModeBus, Requested: ModeBus}, nil
	}

	for _, m := range busFallback {
		minutes, err := r.query(ctx, origin, dest, m)
		if err != nil {
			continue
		}
		r.logger.Info().
			Str("fallback_mode", string(m)).
			Msg("no transit route, using fallback mode")
		return &Result{Minutes: minutes, Mode: m, Requested: ModeBus, TransitUnavailable: true}, nil
	}

	return nil, ErrNoRouteFound
}

// query performs one memoized provider lookup for a concrete mode.
func (r *Resolver) query(ctx context.Context, origin, dest geo.Coordinate, mode Mode) (float64, error) {
	profile := mode.Profile()
	provider, ok := r.providers[profile]
	if !ok {
		return 0, fmt.Errorf("%w: no provider for %s", ErrProviderUnavailable, profile)
	}

	timeout := r.roadTimeout
	if mode == ModeBus {
		timeout = r.transitTimeout
	}

	return r.memo.Do(r.memo.Key(profile, origin, dest), func() (float64, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := provider.GetDirections(callCtx, DirectionsRequest{
			Origin:      origin,
			Destination: dest,
			Profile:     profile,
			DepartAt:    r.now(),
		})
		if err != nil {
			r.logger.Warn().Err(err).
				Str("provider", provider.Name()).
				Str("mode", string(mode)).
				Msg("travel time lookup failed")
			return 0, err
		}

		fastest, ok := resp.Fastest()
		if !ok {
			return 0, ErrNoRouteFound
		}
		return float64(fastest.DurationSeconds) / 60, nil
	})
}
