package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore/internal/api"
	"github.com/homescore/homescore/internal/api/models"
	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/scoring"
)

type stubScorer struct {
	requests []scoring.Request
}

func (s *stubScorer) Score(_ context.Context, req scoring.Request) *scoring.Result {
	s.requests = append(s.requests, req)
	loc := geo.Coordinate{Lat: 51.4816, Lon: -3.1791}
	travel := 38.0
	penalty := 30.0
	return &scoring.Result{
		City: req.City,
		Locations: []scoring.ScoredLocation{{
			Location: loc,
			AreaName: "Cathays",
			Transit:  scoring.TransitResult{Score: 50},
			Breakdown: scoring.ScoreBreakdown{
				Transit:              scoring.TransitBreakdown{Raw: 50, Weighted: 10},
				Travel:               &travel,
				TravelPenaltyMinutes: &penalty,
			},
			FinalScore: 48,
			MapLink:    scoring.MapLink(loc),
		}},
	}
}

func newTestRouter(scorer *stubScorer) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2024-01-01T00:00:00Z",
		Logger:    zerolog.New(io.Discard),
		Scorer:    scorer,
	})
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(&stubScorer{})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.False(t, health.Time.Time().IsZero())
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter(&stubScorer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SystemStatus(t *testing.T) {
	router := newTestRouter(&stubScorer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
}

func TestRouter_Locations(t *testing.T) {
	scorer := &stubScorer{}
	router := newTestRouter(scorer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/locations?city=Cardiff", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, scorer.requests, 1)
	assert.Equal(t, "Cardiff", scorer.requests[0].City)

	assert.JSONEq(t, `{
		"city": "Cardiff",
		"locations": [{
			"lat": 51.4816,
			"lon": -3.1791,
			"score": 48,
			"area_name": "Cathays",
			"amenities": {},
			"transit": {"score": 50, "accessible_routes": []},
			"travel_scores": {},
			"score_breakdown": {
				"amenities": {"total": 0, "by_category": {}},
				"transit": {"raw": 50, "score": 10},
				"travel": 38,
				"travel_penalty_minutes": 30
			},
			"google_maps_link": "https://www.google.com/maps?q=51.481600,-3.179100"
		}]
	}`, w.Body.String())
}

func TestRouter_LegacyAmenitiesPath(t *testing.T) {
	scorer := &stubScorer{}
	router := newTestRouter(scorer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/amenities?city=Bristol", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, scorer.requests, 1)
	assert.Equal(t, "Bristol", scorer.requests[0].City)
}

func TestRouter_LocationsMissingCity(t *testing.T) {
	router := newTestRouter(&stubScorer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/locations", http.NoBody))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.Equal(t, "/v1/locations", problem.Instance)
	assert.Equal(t, w.Header().Get("X-Request-Id"), problem.TraceID)
}

func TestRouter_LookupsWithoutCollaborators(t *testing.T) {
	router := newTestRouter(&stubScorer{})

	for _, path := range []string{
		"/v1/amenities?city=Cardiff",
		"/v1/transport-comparison?from_lat=1&from_lon=1&to_lat=2&to_lon=2",
		"/v1/postcodes/CF101EP",
		"/v1/transit/score?lat=1&lon=1",
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestRouter_ScoringRateLimit(t *testing.T) {
	router := newTestRouter(&stubScorer{})

	var last *httptest.ResponseRecorder
	for range 31 {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/locations?city=Cardiff", http.NoBody)
		req.RemoteAddr = "203.0.113.7:5555"
		router.ServeHTTP(last, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}

func TestRouter_RequireTLS(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{Logger: zerolog.Nop(), RequireTLS: true})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Forwarded-Proto", "http")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(&stubScorer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/unknown", http.NoBody))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
