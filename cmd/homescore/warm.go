package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/homescore/homescore/internal/bootstrap"
	"github.com/homescore/homescore/internal/worker"
)

var warmCmd = &cobra.Command{
	Use:   "warm [city...]",
	Short: "Prefetch OSM data for cities into the cache",
	Long: `Runs one cache-warm pass, the same job the worker runs on a schedule.
With no arguments the configured worker cities are warmed. Warming only
helps later requests when the cache is shared, so configure redis.addr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, err := bootstrap.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		job := worker.NewWarmJob(worker.WarmJobConfig{
			Config: worker.WarmConfig{
				Cities:      cfg.Worker.Cities,
				Concurrency: cfg.Worker.Concurrency,
				Timeout:     cfg.Worker.Timeout,
			},
			Logger:     logger,
			Boundaries: svc.Boundaries,
			Areas:      svc.Areas,
			Amenities:  svc.Amenities,
		})

		result := job.Run(ctx, args...)
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d cities failed to warm", result.Failed, result.TotalCities)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(warmCmd)
}
