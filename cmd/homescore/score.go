package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/homescore/homescore/internal/api/handler"
	"github.com/homescore/homescore/internal/api/models"
	"github.com/homescore/homescore/internal/bootstrap"
	"github.com/homescore/homescore/internal/routing"
	"github.com/homescore/homescore/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank candidate locations in a city",
	Long: `Runs one scoring request and prints the ranked locations as JSON, in the
same shape as GET /v1/locations.

Examples:
  # Default amenity weights
  homescore score --city Cardiff

  # Custom weights and commute destinations
  homescore score --city Cardiff --weights school=20,cafe=5 --preferences prefs.json

  # Force every commute to cycling
  homescore score --city Leeds --preferences prefs.json --mode cycling`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("city", "", "city to score (required)")
	f.String("preferences", "", "JSON file of travel preferences")
	f.String("weights", "", "comma-separated amenity weights, e.g. school=15,hospital=15")
	f.String("mode", "", "transport mode applied to every preference (auto, driving, cycling, walking, bus)")
	_ = scoreCmd.MarkFlagRequired("city")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	city, _ := cmd.Flags().GetString("city")
	prefsFile, _ := cmd.Flags().GetString("preferences")
	weightsFlag, _ := cmd.Flags().GetString("weights")
	modeFlag, _ := cmd.Flags().GetString("mode")

	mode, ok := routing.ParseMode(modeFlag)
	if !ok {
		return fmt.Errorf("unknown transport mode %q", modeFlag)
	}

	rawWeights, err := parseWeights(weightsFlag)
	if err != nil {
		return err
	}
	var (
		weights  scoring.Weights
		warnings []string
	)
	if rawWeights != nil {
		weights, warnings = scoring.ParseWeights(rawWeights)
	}

	var prefs []scoring.TravelPreference
	if prefsFile != "" {
		data, err := os.ReadFile(prefsFile)
		if err != nil {
			return fmt.Errorf("read preferences: %w", err)
		}
		var prefWarnings []string
		prefs, prefWarnings = handler.ParseTravelPreferences(string(data))
		warnings = append(warnings, prefWarnings...)
	}
	for _, w := range warnings {
		logger.Warn().Msg(w)
	}

	svc, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	res := svc.Engine.Score(ctx, scoring.Request{
		City:         city,
		Preferences:  prefs,
		Weights:      weights,
		ModeOverride: mode,
	})

	logger.Info().
		Str("city", city).
		Int("locations", len(res.Locations)).
		Msg("scoring complete")

	return printJSON(cmd.OutOrStdout(), models.NewLocationsResponse(res))
}
