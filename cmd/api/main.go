// Package main provides the entrypoint for the HomeScore API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/homescore/homescore/internal/api"
	"github.com/homescore/homescore/internal/api/middleware"
	"github.com/homescore/homescore/internal/bootstrap"
	"github.com/homescore/homescore/internal/config"
	"github.com/homescore/homescore/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "homescore-api"

	cfg, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so report with a bare one.
		fallback := config.NewLogger(config.LogConfig{}, os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := config.NewLogger(cfg.Log, os.Stdout).
		With().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Server.Env).
		Msg("starting HomeScore API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Server.Env,
		OTLPEndpoint:   cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTel.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTel.Endpoint).
			Float64("sample_ratio", cfg.OTel.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	svc, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to wire services")
		os.Exit(1)
	}
	defer svc.Close()

	router := api.NewRouter(api.RouterConfig{
		Version:    Version,
		BuildTime:  BuildTime,
		Logger:     log,
		Metrics:    metrics,
		RequireTLS: cfg.Server.Env == "production",
		Scorer:     svc.Engine,
		Amenities:  svc.Amenities,
		Travel:     svc.Travel,
		Geocoder:   svc.Geocoder,
		Transit:    svc.Transit,
		Registry:   svc.Registry,
		Checks:     svc.Checks,
	})

	// WriteTimeout leaves headroom over the scoring deadline so a partial
	// result can still be written.
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Scoring.Deadline + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
