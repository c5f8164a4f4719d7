// Package main provides the homescore command-line tool for scoring cities
// and probing the routing and geocoding providers from a terminal.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/homescore/homescore/internal/config"
)

var (
	cfg        *config.Config
	logger     zerolog.Logger
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "homescore",
	Short: "Score residential locations in a city",
	Long: `Samples candidate locations inside a city boundary and ranks them by
nearby amenities, public-transport access and travel time to the places
you visit regularly.

Configuration is read from ./config.yaml (or --config) and HOMESCORE_
environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		// Logs go to stderr so stdout carries only JSON results.
		logger = config.NewLogger(cfg.Log, os.Stderr).
			With().
			Str("command", cmd.Name()).
			Logger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (default ./config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
