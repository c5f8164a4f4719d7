package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/api/models"
	"github.com/homescore/homescore/internal/api/response"
	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/geocode"
	"github.com/homescore/homescore/internal/osm"
	"github.com/homescore/homescore/internal/routing"
	"github.com/homescore/homescore/internal/scoring"
)

// LookupHandler serves the single-collaborator lookups: amenity listings,
// transport comparison, postcodes and transit scores.
type LookupHandler struct {
	amenities osm.AmenityProvider
	travel    scoring.TravelResolver
	geocoder  scoring.Geocoder
	transit   scoring.TransitScorer
	logger    zerolog.Logger
}

// LookupConfig wires a LookupHandler. A nil collaborator disables its endpoint
// with 503.
type LookupConfig struct {
	Amenities osm.AmenityProvider
	Travel    scoring.TravelResolver
	Geocoder  scoring.Geocoder
	Transit   scoring.TransitScorer
	Logger    zerolog.Logger
}

// NewLookupHandler creates a new LookupHandler.
func NewLookupHandler(cfg LookupConfig) *LookupHandler {
	return &LookupHandler{
		amenities: cfg.Amenities,
		travel:    cfg.Travel,
		geocoder:  cfg.Geocoder,
		transit:   cfg.Transit,
		logger:    cfg.Logger,
	}
}

// ListAmenities handles GET /v1/amenities - list the amenities of a city.
func (h *LookupHandler) ListAmenities(w http.ResponseWriter, r *http.Request) {
	if h.amenities == nil {
		response.ServiceUnavailable(w, r, "amenity data is not configured")
		return
	}

	q := r.URL.Query()
	query := models.AmenitiesQuery{
		City:     strings.TrimSpace(q.Get("city")),
		Category: strings.ToLower(strings.TrimSpace(q.Get("category"))),
	}
	if errs := validateStruct(query); errs != nil {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	categories := amenity.Categories
	if query.Category != "" {
		categories = []amenity.Category{amenity.Category(query.Category)}
	}

	found := make([][]amenity.Amenity, len(categories))
	failed := make([]bool, len(categories))
	g, ctx := errgroup.WithContext(r.Context())
	for i, cat := range categories {
		g.Go(func() error {
			list, err := h.amenities.Amenities(ctx, query.City, cat)
			if err != nil {
				h.logger.Warn().Err(err).Str("city", query.City).Str("category", string(cat)).Msg("amenity lookup failed")
				failed[i] = true
				return nil
			}
			found[i] = list
			return nil
		})
	}
	_ = g.Wait()

	resp := models.AmenityListResponse{City: query.City, Amenities: []models.AmenityListItem{}}
	for i, list := range found {
		if failed[i] {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s data is unavailable", categories[i]))
			continue
		}
		for _, a := range list {
			resp.Amenities = append(resp.Amenities, models.NewAmenityListItem(a))
		}
	}
	resp.Count = len(resp.Amenities)
	response.JSON(w, r, http.StatusOK, resp)
}

// CompareTransport handles GET /v1/transport-comparison - travel time by every mode.
func (h *LookupHandler) CompareTransport(w http.ResponseWriter, r *http.Request) {
	if h.travel == nil {
		response.ServiceUnavailable(w, r, "travel times are not configured")
		return
	}

	q := r.URL.Query()
	query := models.TransportComparisonQuery{ToPostcode: strings.TrimSpace(q.Get("to_postcode"))}
	if errs := floatParams(q, map[string]**float64{
		"from_lat": &query.FromLat,
		"from_lon": &query.FromLon,
		"to_lat":   &query.ToLat,
		"to_lon":   &query.ToLon,
	}); errs != nil {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}
	if errs := validateStruct(query); errs != nil {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	from := geo.Coordinate{Lat: *query.FromLat, Lon: *query.FromLon}
	to, ok := h.comparisonDestination(w, r, query)
	if !ok {
		return
	}

	res, err := h.travel.Resolve(r.Context(), from, to, routing.ModeAuto)
	if err != nil {
		if errors.Is(err, routing.ErrNoRouteFound) {
			response.NotFound(w, r, "no route found between the given points")
			return
		}
		h.logger.Error().Err(err).Msg("transport comparison failed")
		response.BadGateway(w, r, "routing providers failed")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewTransportComparisonResponse(
		models.Point{Lat: from.Lat, Lon: from.Lon},
		models.Point{Lat: to.Lat, Lon: to.Lon},
		res,
	))
}

func (h *LookupHandler) comparisonDestination(w http.ResponseWriter, r *http.Request, query models.TransportComparisonQuery) (geo.Coordinate, bool) {
	if query.ToLat != nil && query.ToLon != nil {
		return geo.Coordinate{Lat: *query.ToLat, Lon: *query.ToLon}, true
	}
	coord, ok := h.geocode(w, r, query.ToPostcode)
	return coord, ok
}

// GetPostcode handles GET /v1/postcodes/{postcode} - geocode a postcode.
func (h *LookupHandler) GetPostcode(w http.ResponseWriter, r *http.Request) {
	postcode := geocode.CleanPostcode(chi.URLParam(r, "postcode"))
	coord, ok := h.geocode(w, r, postcode)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, models.PostcodeResponse{
		Postcode: postcode,
		Lat:      coord.Lat,
		Lon:      coord.Lon,
	})
}

// geocode resolves a postcode, writing the error response on failure.
func (h *LookupHandler) geocode(w http.ResponseWriter, r *http.Request, postcode string) (geo.Coordinate, bool) {
	if h.geocoder == nil {
		response.ServiceUnavailable(w, r, "geocoding is not configured")
		return geo.Coordinate{}, false
	}
	if postcode == "" {
		response.BadRequest(w, r, "postcode is required", nil)
		return geo.Coordinate{}, false
	}

	coord, err := h.geocoder.Geocode(r.Context(), postcode)
	switch {
	case err == nil:
		return coord, true
	case errors.Is(err, geocode.ErrInvalidPostcode):
		response.BadRequest(w, r, "postcode is invalid", nil)
	case errors.Is(err, geocode.ErrPostcodeNotFound):
		response.NotFound(w, r, "postcode not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		response.ServiceUnavailable(w, r, "geocoding timed out")
	default:
		h.logger.Error().Err(err).Str("postcode", postcode).Msg("geocoding failed")
		response.BadGateway(w, r, "geocoding provider failed")
	}
	return geo.Coordinate{}, false
}

// GetTransitScore handles GET /v1/transit/score - transit accessibility of a point.
func (h *LookupHandler) GetTransitScore(w http.ResponseWriter, r *http.Request) {
	if h.transit == nil {
		response.ServiceUnavailable(w, r, "transit data is not configured")
		return
	}

	q := r.URL.Query()
	var query models.TransitScoreQuery
	if errs := floatParams(q, map[string]**float64{"lat": &query.Lat, "lon": &query.Lon}); errs != nil {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}
	if errs := validateStruct(query); errs != nil {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	point := geo.Coordinate{Lat: *query.Lat, Lon: *query.Lon}
	score, err := h.transit.Score(r.Context(), point)
	if err != nil {
		h.logger.Error().Err(err).Msg("transit score failed")
		response.ServiceUnavailable(w, r, "transit data is unavailable")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewTransitScoreResponse(models.Point{Lat: point.Lat, Lon: point.Lon}, score))
}
