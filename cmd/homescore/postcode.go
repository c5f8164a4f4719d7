package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/homescore/homescore/internal/api/models"
	"github.com/homescore/homescore/internal/bootstrap"
	"github.com/homescore/homescore/internal/geocode"
)

var postcodeCmd = &cobra.Command{
	Use:   "postcode <postcode>",
	Short: "Geocode a UK postcode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		postcode := geocode.CleanPostcode(args[0])

		svc, err := bootstrap.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		c, err := svc.Geocoder.Geocode(ctx, postcode)
		if err != nil {
			return fmt.Errorf("geocode %s: %w", postcode, err)
		}

		return printJSON(cmd.OutOrStdout(), models.PostcodeResponse{
			Postcode: postcode,
			Lat:      c.Lat,
			Lon:      c.Lon,
		})
	},
}

func init() {
	rootCmd.AddCommand(postcodeCmd)
}
