package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/homescore/homescore/internal/api/models"
	"github.com/homescore/homescore/internal/bootstrap"
	"github.com/homescore/homescore/internal/routing"
)

var travelCmd = &cobra.Command{
	Use:   "travel",
	Short: "Resolve the travel time between two points",
	Long: `Resolves a travel time through the configured routing providers. In auto
mode every transport mode is tried and the fastest is reported.

Example:
  homescore travel --from 51.4816,-3.1791 --to 51.5074,-0.1278`,
	RunE: runTravel,
}

func init() {
	f := travelCmd.Flags()
	f.String("from", "", "origin as lat,lon (required)")
	f.String("to", "", "destination as lat,lon (required)")
	f.String("mode", "auto", "transport mode (auto, driving, cycling, walking, bus)")
	_ = travelCmd.MarkFlagRequired("from")
	_ = travelCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(travelCmd)
}

func runTravel(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	modeFlag, _ := cmd.Flags().GetString("mode")

	from, err := parseCoordinate(fromFlag)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parseCoordinate(toFlag)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	mode, ok := routing.ParseMode(modeFlag)
	if !ok {
		return fmt.Errorf("unknown transport mode %q", modeFlag)
	}

	svc, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.Travel.Resolve(ctx, from, to, mode)
	if err != nil {
		return fmt.Errorf("resolve travel time: %w", err)
	}

	return printJSON(cmd.OutOrStdout(), models.NewTransportComparisonResponse(
		models.Point{Lat: from.Lat, Lon: from.Lon},
		models.Point{Lat: to.Lat, Lon: to.Lon},
		res,
	))
}
