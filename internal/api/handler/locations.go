// Package handler provides HTTP handlers for the HomeScore API.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/homescore/homescore/internal/api/models"
	"github.com/homescore/homescore/internal/api/response"
	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/routing"
	"github.com/homescore/homescore/internal/scoring"
)

// Scorer ranks the locations of a city.
type Scorer interface {
	Score(ctx context.Context, req scoring.Request) *scoring.Result
}

// LocationsHandler handles the scoring endpoint.
type LocationsHandler struct {
	scorer Scorer
	logger zerolog.Logger
}

// NewLocationsHandler creates a new LocationsHandler.
func NewLocationsHandler(scorer Scorer, logger zerolog.Logger) *LocationsHandler {
	return &LocationsHandler{scorer: scorer, logger: logger}
}

// ListLocations handles GET /v1/locations - rank candidate locations in a city.
func (h *LocationsHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.LocationsQuery{
		City:              strings.TrimSpace(q.Get("city")),
		TravelPreferences: strings.TrimSpace(q.Get("travel_preferences")),
		AmenityWeights:    strings.TrimSpace(q.Get("amenity_weights")),
		TransportMode:     strings.TrimSpace(q.Get("transport_mode")),
	}
	if errs := validateStruct(query); errs != nil {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	var warnings []string
	prefs, prefWarnings := ParseTravelPreferences(query.TravelPreferences)
	warnings = append(warnings, prefWarnings...)
	weights, weightWarnings := ParseAmenityWeights(query.AmenityWeights)
	warnings = append(warnings, weightWarnings...)
	mode, ok := routing.ParseMode(query.TransportMode)
	if !ok {
		mode = routing.ModeAuto
		warnings = append(warnings, fmt.Sprintf("transport_mode %q is not recognised, auto used", query.TransportMode))
	}

	res := h.scorer.Score(r.Context(), scoring.Request{
		City:         query.City,
		Preferences:  prefs,
		Weights:      weights,
		ModeOverride: mode,
	})

	h.logger.Debug().
		Str("city", query.City).
		Int("preferences", len(prefs)).
		Int("locations", len(res.Locations)).
		Msg("scored city")

	resp := models.NewLocationsResponse(res)
	resp.Warnings = mergeWarnings(warnings, resp.Warnings)
	response.JSON(w, r, http.StatusOK, resp)
}

// ParseTravelPreferences decodes the travel_preferences parameter. It accepts
// an array or a single object. Invalid items are dropped with a warning.
func ParseTravelPreferences(raw string) ([]scoring.TravelPreference, []string) {
	if raw == "" {
		return nil, nil
	}

	var inputs []models.TravelPreferenceInput
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		var single models.TravelPreferenceInput
		if err := json.Unmarshal([]byte(raw), &single); err != nil {
			return nil, []string{"travel_preferences could not be decoded and was ignored"}
		}
		inputs = []models.TravelPreferenceInput{single}
	}

	var (
		prefs    []scoring.TravelPreference
		warnings []string
	)
	for i, in := range inputs {
		pref, err := travelPreference(in)
		if err != "" {
			warnings = append(warnings, fmt.Sprintf("travel preference %d was ignored: %s", i+1, err))
			continue
		}
		prefs = append(prefs, pref)
	}
	return prefs, warnings
}

func travelPreference(in models.TravelPreferenceInput) (scoring.TravelPreference, string) {
	if errs := validateStruct(in); errs != nil {
		return scoring.TravelPreference{}, errs[0].Field + " " + errs[0].Message
	}

	pref := scoring.TravelPreference{
		Label:            strings.TrimSpace(in.DisplayLabel()),
		Postcode:         strings.TrimSpace(in.Postcode),
		FrequencyPerWeek: int(math.Round(in.Frequency)),
	}
	pref.Mode, _ = routing.ParseMode(in.TransportMode)

	switch {
	case in.Lat != nil && in.Lon != nil:
		pref.Destination = &geo.Coordinate{Lat: *in.Lat, Lon: *in.Lon}
	case pref.Postcode == "":
		return scoring.TravelPreference{}, "a postcode or lat and lon is required"
	}
	return pref, ""
}

// ParseAmenityWeights decodes the amenity_weights parameter. An absent or
// malformed payload yields nil, which selects the default weights.
func ParseAmenityWeights(raw string) (scoring.Weights, []string) {
	if raw == "" {
		return nil, nil
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, []string{"amenity_weights is not valid JSON, default weights used"}
	}
	return scoring.ParseWeights(values)
}

// mergeWarnings concatenates warning lists, dropping duplicates.
func mergeWarnings(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, w := range list {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}
