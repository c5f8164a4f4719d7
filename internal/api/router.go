// Package api provides the HTTP API for HomeScore.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/homescore/homescore/internal/api/handler"
	"github.com/homescore/homescore/internal/api/middleware"
	"github.com/homescore/homescore/internal/osm"
	"github.com/homescore/homescore/internal/provider/resilience"
	"github.com/homescore/homescore/internal/scoring"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version    string
	BuildTime  string
	Logger     zerolog.Logger
	Metrics    *middleware.Metrics
	RequireTLS bool

	Scorer    handler.Scorer
	Amenities osm.AmenityProvider
	Travel    scoring.TravelResolver
	Geocoder  scoring.Geocoder
	Transit   scoring.TransitScorer

	Registry *resilience.Registry
	Checks   []handler.DependencyCheck
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing()) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.Checks...)
	locationsHandler := handler.NewLocationsHandler(cfg.Scorer, cfg.Logger)
	lookupHandler := handler.NewLookupHandler(handler.LookupConfig{
		Amenities: cfg.Amenities,
		Travel:    cfg.Travel,
		Geocoder:  cfg.Geocoder,
		Transit:   cfg.Transit,
		Logger:    cfg.Logger,
	})

	scoringRateLimit := middleware.RateLimitByIP(middleware.ScoringRateLimit) // 30 req/min
	lookupRateLimit := middleware.RateLimitByIP(middleware.LookupRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Scoring fans out to every provider - strict rate limiting
		if cfg.Scorer != nil {
			r.With(scoringRateLimit).Get("/locations", locationsHandler.ListLocations)
		}

		r.Group(func(r chi.Router) {
			r.Use(lookupRateLimit)
			r.Get("/amenities", lookupHandler.ListAmenities)
			r.Get("/transport-comparison", lookupHandler.CompareTransport)
			r.Get("/postcodes/{postcode}", lookupHandler.GetPostcode)
			r.Get("/transit/score", lookupHandler.GetTransitScore)
		})
	})

	// Legacy scoring path kept for older clients
	if cfg.Scorer != nil {
		r.With(scoringRateLimit).Get("/amenities", locationsHandler.ListLocations)
	}

	return r
}
