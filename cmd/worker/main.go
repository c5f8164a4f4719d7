// Package main provides the entrypoint for the HomeScore cache-warm worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/homescore/homescore/internal/bootstrap"
	"github.com/homescore/homescore/internal/config"
	"github.com/homescore/homescore/internal/telemetry"
	"github.com/homescore/homescore/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "homescore-worker"

	cfg, err := config.Load()
	if err != nil {
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
		Msg("starting HomeScore worker")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	svc, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to wire services")
		return
	}
	defer svc.Close()

	job := worker.NewWarmJob(worker.WarmJobConfig{
		Config: worker.WarmConfig{
			Cities:      cfg.Worker.Cities,
			Concurrency: cfg.Worker.Concurrency,
			Timeout:     cfg.Worker.Timeout,
		},
		Logger:     log,
		Boundaries: svc.Boundaries,
		Areas:      svc.Areas,
		Amenities:  svc.Amenities,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Worker.HealthPort),
		Handler:      healthHandler(job),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if cfg.PubSub.ProjectID != "" {
		runSubscriber(ctx, cfg, job, log)
	} else {
		runTicker(ctx, cfg.Worker.Interval, job, log)
	}

	log.Info().Msg("shutting down worker")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// runSubscriber processes warm jobs from Pub/Sub until ctx is cancelled.
func runSubscriber(ctx context.Context, cfg *config.Config, job *worker.WarmJob, log zerolog.Logger) {
	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.PubSub.ProjectID,
		SubscriptionName: cfg.PubSub.Subscription,
		WarmJob:          job,
		Logger:           log,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create pubsub handler")
		return
	}
	defer func() {
		if err := handler.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub client")
		}
	}()

	if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("pubsub receive stopped")
	}
}

// runTicker warms the configured cities at startup and then every interval.
func runTicker(ctx context.Context, interval time.Duration, job *worker.WarmJob, log zerolog.Logger) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	log.Info().Dur("interval", interval).Msg("pubsub not configured, warming on a schedule")

	job.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job.Run(ctx)
		}
	}
}

func healthHandler(job *worker.WarmJob) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "healthy",
			"version": Version,
			"metrics": job.MetricsSnapshot(),
		})
	})
	return mux
}
