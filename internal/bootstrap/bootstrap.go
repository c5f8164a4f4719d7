// Package bootstrap builds the collaborator graph shared by the API server,
// the worker and the CLI from a loaded configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/api/handler"
	"github.com/homescore/homescore/internal/cache"
	"github.com/homescore/homescore/internal/config"
	"github.com/homescore/homescore/internal/database"
	"github.com/homescore/homescore/internal/geocode/postcodesio"
	"github.com/homescore/homescore/internal/osm"
	"github.com/homescore/homescore/internal/osm/nominatim"
	"github.com/homescore/homescore/internal/osm/overpass"
	"github.com/homescore/homescore/internal/provider/resilience"
	"github.com/homescore/homescore/internal/routing"
	"github.com/homescore/homescore/internal/routing/openrouteservice"
	"github.com/homescore/homescore/internal/routing/otp"
	"github.com/homescore/homescore/internal/scoring"
	"github.com/homescore/homescore/internal/transit"
)

// Services is the wired collaborator graph.
type Services struct {
	Registry *resilience.Registry
	Cache    cache.Store

	Boundaries osm.BoundaryProvider
	Amenities  osm.AmenityProvider
	Areas      osm.AreaProvider
	Geocoder   scoring.Geocoder
	Transit    *transit.Service
	Travel     *routing.Resolver
	Memo       *routing.Memo
	Engine     *scoring.Engine

	// Checks probe the internal dependencies for readiness.
	Checks []handler.DependencyCheck

	closers []func()
}

// New wires every collaborator from cfg. Redis and PostgreSQL are optional:
// an unreachable Redis falls back to the in-process cache, a disabled
// database leaves transit scoring with an empty stop set.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Services, error) {
	s := &Services{Registry: resilience.NewRegistry()}

	s.Cache = s.newCache(ctx, cfg, logger)
	cacheCfg := osm.CacheConfig{Store: s.Cache, TTL: cfg.Cache.TTL, Logger: logger}

	nominatimClient := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:           cfg.Nominatim.BaseURL,
		UserAgent:         cfg.Nominatim.UserAgent,
		RequestsPerSecond: cfg.OSM.RequestsPerSecond,
		Registry:          s.Registry,
		Logger:            logger,
	})
	overpassClient := overpass.NewClient(overpass.ClientConfig{
		BaseURL:           cfg.Overpass.BaseURL,
		RequestsPerSecond: cfg.OSM.RequestsPerSecond,
		Timeout:           cfg.Overpass.Timeout,
		Registry:          s.Registry,
		Logger:            logger,
	})
	s.Boundaries = osm.NewCachedBoundaries(nominatimClient, cacheCfg)
	s.Amenities = osm.NewCachedAmenities(overpassClient, cacheCfg)
	s.Areas = osm.NewCachedAreas(overpassClient, cacheCfg)

	postcodes := postcodesio.NewClient(postcodesio.ClientConfig{
		BaseURL:  cfg.Postcodes.BaseURL,
		Registry: s.Registry,
		Logger:   logger,
	})
	s.Geocoder = postcodesio.NewCachedGeocoder(postcodes, s.Cache, cfg.Cache.TTL, logger)

	repo, err := s.newTransitRepository(ctx, cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Transit = transit.NewService(transit.ServiceConfig{
		Repository:      repo,
		MaxStopDistance: cfg.Transit.MaxStopDistance,
		RoutesTTL:       cfg.Transit.RoutesTTL,
		Logger:          logger,
	})

	s.Memo = routing.NewMemo(routing.MemoConfig{TimeBucket: cfg.Routing.TimeBucket})
	s.Travel = routing.NewResolver(routing.ResolverConfig{
		Providers:      s.routingProviders(cfg, logger),
		RoadTimeout:    cfg.ORS.Timeout,
		TransitTimeout: cfg.OTP.Timeout,
		Memo:           s.Memo,
		Logger:         logger,
	})

	topRated, err := loadTopRated(cfg.Schools.TopRatedFile, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Engine, err = scoring.NewEngine(scoring.EngineConfig{
		Boundaries: s.Boundaries,
		Amenities:  s.Amenities,
		Areas:      s.Areas,
		Geocoder:   s.Geocoder,
		Transit:    s.Transit,
		Travel:     s.Travel,
		Locator:    amenity.NewLocator(topRated),
		Scoring:    cfg.Scoring.Engine(),
		Logger:     logger,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating scoring engine: %w", err)
	}

	return s, nil
}

// Close releases the cache and database connections.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (s *Services) newCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) cache.Store {
	if cfg.Redis.Addr == "" {
		return cache.NewLRU(cfg.Cache.Size)
	}

	r, err := cache.NewRedis(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, using in-process cache")
		return cache.NewLRU(cfg.Cache.Size)
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis cache connected")
	s.closers = append(s.closers, func() { _ = r.Close() })
	s.Checks = append(s.Checks, handler.DependencyCheck{Name: "redis", Check: r.Ping})
	return r
}

func (s *Services) newTransitRepository(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (transit.Repository, error) {
	if !cfg.Database.Enabled {
		logger.Warn().Msg("database disabled, transit scores will be zero")
		return transit.NewMemoryRepository(), nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("database connected")

	s.closers = append(s.closers, pool.Close)
	s.Checks = append(s.Checks, handler.DependencyCheck{Name: "postgres", Check: pool.Ping})
	return transit.NewPostgresRepository(pool), nil
}

func (s *Services) routingProviders(cfg *config.Config, logger zerolog.Logger) []routing.Provider {
	providers := []routing.Provider{
		openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:   cfg.ORS.APIKey,
			BaseURL:  cfg.ORS.BaseURL,
			Timeout:  cfg.ORS.Timeout,
			Registry: s.Registry,
			Logger:   logger,
		}),
	}
	if cfg.OTP.BaseURL != "" {
		providers = append(providers, otp.NewClient(otp.ClientConfig{
			BaseURL:  cfg.OTP.BaseURL,
			Router:   cfg.OTP.Router,
			Timeout:  cfg.OTP.Timeout,
			Registry: s.Registry,
			Logger:   logger,
		}))
	} else {
		logger.Warn().Msg("otp.base_url not set, bus travel falls back to road modes")
	}
	return providers
}

func loadTopRated(path string, logger zerolog.Logger) (*amenity.TopRated, error) {
	if path == "" {
		return nil, nil
	}
	topRated, err := amenity.LoadTopRatedFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading top-rated schools: %w", err)
	}
	logger.Info().Int("schools", topRated.Len()).Str("file", path).Msg("top-rated schools loaded")
	return topRated, nil
}
