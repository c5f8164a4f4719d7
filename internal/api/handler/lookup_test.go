package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/api/models"
	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/geocode"
	"github.com/homescore/homescore/internal/routing"
	"github.com/homescore/homescore/internal/transit"
)

type fakeAmenities struct {
	mu     sync.Mutex
	byCat  map[amenity.Category][]amenity.Amenity
	failOn amenity.Category
	asked  []amenity.Category
}

func (f *fakeAmenities) Amenities(_ context.Context, _ string, cat amenity.Category) ([]amenity.Amenity, error) {
	f.mu.Lock()
	f.asked = append(f.asked, cat)
	f.mu.Unlock()
	if cat == f.failOn {
		return nil, errors.New("overpass down")
	}
	return f.byCat[cat], nil
}

type fakeTravel struct {
	result *routing.Result
	err    error
	dest   geo.Coordinate
}

func (f *fakeTravel) Resolve(_ context.Context, _, dest geo.Coordinate, _ routing.Mode) (*routing.Result, error) {
	f.dest = dest
	return f.result, f.err
}

type fakeGeocoder map[string]geo.Coordinate

func (f fakeGeocoder) Geocode(_ context.Context, postcode string) (geo.Coordinate, error) {
	c, ok := f[postcode]
	if !ok {
		return geo.Coordinate{}, geocode.ErrPostcodeNotFound
	}
	return c, nil
}

type fakeTransit struct {
	score *transit.Score
	err   error
}

func (f fakeTransit) Score(context.Context, geo.Coordinate) (*transit.Score, error) {
	return f.score, f.err
}

func serveLookup(h *LookupHandler, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/v1/amenities", h.ListAmenities)
	r.Get("/v1/transport-comparison", h.CompareTransport)
	r.Get("/v1/postcodes/{postcode}", h.GetPostcode)
	r.Get("/v1/transit/score", h.GetTransitScore)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rec
}

func TestListAmenities(t *testing.T) {
	provider := &fakeAmenities{
		byCat: map[amenity.Category][]amenity.Amenity{
			amenity.CategorySchool: {{
				Name:     "Cathays High School",
				Category: amenity.CategorySchool,
				Location: geo.Coordinate{Lat: 51.49, Lon: -3.18},
				Level:    amenity.LevelSecondary,
			}},
			amenity.CategoryCafe: {{
				Name:     "Corner Cafe",
				Category: amenity.CategoryCafe,
				Location: geo.Coordinate{Lat: 51.48, Lon: -3.17},
			}},
		},
		failOn: amenity.CategoryHospital,
	}
	h := NewLookupHandler(LookupConfig{Amenities: provider, Logger: zerolog.Nop()})

	rec := serveLookup(h, "/v1/amenities?city=Cardiff")

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.AmenityListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Cardiff", body.City)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"hospital data is unavailable"}, body.Warnings)

	school := body.Amenities[0]
	assert.Equal(t, "Cathays High School", school.Name)
	assert.Equal(t, "Secondary", school.Level)
	assert.Equal(t, "Great for families with kids", school.Reason)
	assert.Equal(t, "https://www.google.com/maps?q=51.490000,-3.180000", school.GoogleMapsLink)
	assert.Equal(t, "cafe", body.Amenities[1].Category)
	assert.Len(t, provider.asked, len(amenity.Categories))
}

func TestListAmenities_SingleCategory(t *testing.T) {
	provider := &fakeAmenities{}
	h := NewLookupHandler(LookupConfig{Amenities: provider})

	rec := serveLookup(h, "/v1/amenities?city=Cardiff&category=Supermarket")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []amenity.Category{amenity.CategorySupermarket}, provider.asked)
	assert.JSONEq(t, `{"city":"Cardiff","count":0,"amenities":[]}`, rec.Body.String())
}

func TestListAmenities_Validation(t *testing.T) {
	h := NewLookupHandler(LookupConfig{Amenities: &fakeAmenities{}})

	assert.Equal(t, http.StatusBadRequest, serveLookup(h, "/v1/amenities").Code)
	assert.Equal(t, http.StatusBadRequest, serveLookup(h, "/v1/amenities?city=Cardiff&category=pub").Code)
}

func TestCompareTransport(t *testing.T) {
	travel := &fakeTravel{result: &routing.Result{
		Minutes:   12.34,
		Mode:      routing.ModeDriving,
		Requested: routing.ModeAuto,
		AllModeMinutes: map[routing.Mode]float64{
			routing.ModeDriving: 12.34,
			routing.ModeWalking: 61.06,
		},
	}}
	h := NewLookupHandler(LookupConfig{Travel: travel})

	rec := serveLookup(h, "/v1/transport-comparison?from_lat=51.48&from_lon=-3.18&to_lat=51.5&to_lon=-3.2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"from": {"lat": 51.48, "lon": -3.18},
		"to": {"lat": 51.5, "lon": -3.2},
		"fastest_mode": "driving",
		"fastest_minutes": 12.3,
		"modes": {"driving": 12.3, "walking": 61.1}
	}`, rec.Body.String())
}

func TestCompareTransport_GeocodesPostcode(t *testing.T) {
	travel := &fakeTravel{result: &routing.Result{Mode: routing.ModeWalking, Minutes: 5}}
	h := NewLookupHandler(LookupConfig{
		Travel:   travel,
		Geocoder: fakeGeocoder{"CF101EP": {Lat: 51.47, Lon: -3.17}},
	})

	rec := serveLookup(h, "/v1/transport-comparison?from_lat=51.48&from_lon=-3.18&to_postcode=CF101EP")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, geo.Coordinate{Lat: 51.47, Lon: -3.17}, travel.dest)
}

func TestCompareTransport_Errors(t *testing.T) {
	tests := []struct {
		name   string
		travel *fakeTravel
		target string
		status int
	}{
		{
			name:   "missing origin",
			travel: &fakeTravel{},
			target: "/v1/transport-comparison?to_lat=51.5&to_lon=-3.2",
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed number",
			travel: &fakeTravel{},
			target: "/v1/transport-comparison?from_lat=north&from_lon=-3.18&to_lat=51.5&to_lon=-3.2",
			status: http.StatusBadRequest,
		},
		{
			name:   "missing destination",
			travel: &fakeTravel{},
			target: "/v1/transport-comparison?from_lat=51.48&from_lon=-3.18",
			status: http.StatusBadRequest,
		},
		{
			name:   "no route",
			travel: &fakeTravel{err: routing.ErrNoRouteFound},
			target: "/v1/transport-comparison?from_lat=51.48&from_lon=-3.18&to_lat=51.5&to_lon=-3.2",
			status: http.StatusNotFound,
		},
		{
			name:   "provider failure",
			travel: &fakeTravel{err: routing.ErrProviderUnavailable},
			target: "/v1/transport-comparison?from_lat=51.48&from_lon=-3.18&to_lat=51.5&to_lon=-3.2",
			status: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLookupHandler(LookupConfig{Travel: tt.travel, Logger: zerolog.Nop()})
			assert.Equal(t, tt.status, serveLookup(h, tt.target).Code)
		})
	}
}

func TestGetPostcode(t *testing.T) {
	h := NewLookupHandler(LookupConfig{Geocoder: fakeGeocoder{"CF101EP": {Lat: 51.4749, Lon: -3.1794}}})

	rec := serveLookup(h, "/v1/postcodes/cf10%201ep")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"postcode":"CF101EP","lat":51.4749,"lon":-3.1794}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, serveLookup(h, "/v1/postcodes/ZZ99ZZ").Code)
}

func TestGetPostcode_NotConfigured(t *testing.T) {
	h := NewLookupHandler(LookupConfig{})
	assert.Equal(t, http.StatusServiceUnavailable, serveLookup(h, "/v1/postcodes/CF101EP").Code)
}

func TestGetTransitScore(t *testing.T) {
	h := NewLookupHandler(LookupConfig{Transit: fakeTransit{score: &transit.Score{
		Score:            56.4,
		AccessibleRoutes: []transit.RouteRef{{ID: "r1", ShortName: "6", Name: "Bay Car"}},
		NearestStop: &transit.Stop{
			ID:       "s1",
			Name:     "Central Station",
			Location: geo.Coordinate{Lat: 51.476, Lon: -3.179},
		},
		StopDistanceMeters: 120.4,
	}}})

	rec := serveLookup(h, "/v1/transit/score?lat=51.475&lon=-3.18")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"lat": 51.475, "lon": -3.18, "score": 56.4,
		"accessible_routes": [{"route_id":"r1","route_short_name":"6","route_name":"Bay Car"}],
		"nearest_stop": {"stop_id":"s1","stop_name":"Central Station","lat":51.476,"lon":-3.179,"distance_m":120}
	}`, rec.Body.String())
}

func TestGetTransitScore_Errors(t *testing.T) {
	h := NewLookupHandler(LookupConfig{Transit: fakeTransit{err: transit.ErrRepositoryUnavailable}, Logger: zerolog.Nop()})

	assert.Equal(t, http.StatusBadRequest, serveLookup(h, "/v1/transit/score?lat=51.475").Code)
	assert.Equal(t, http.StatusBadRequest, serveLookup(h, "/v1/transit/score?lat=100&lon=0").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serveLookup(h, "/v1/transit/score?lat=51.475&lon=-3.18").Code)
}
