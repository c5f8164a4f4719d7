package otp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/routing"
)

var (
	origin = geo.Coordinate{Lat: 51.4816, Lon: -3.1791}
	dest   = geo.Coordinate{Lat: 51.5200, Lon: -3.2100}
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return b
}

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{BaseURL: url, HTTPClient: http.DefaultClient, Logger: zerolog.Nop()})
}

func TestClient_GetDirections(t *testing.T) {
	body := fixture(t, "plan_response.json")
	departAt := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/otp/routers/default/plan", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "51.481600,-3.179100", q.Get("fromPlace"))
		assert.Equal(t, "51.520000,-3.210000", q.Get("toPlace"))
		assert.Equal(t, "TRANSIT,WALK", q.Get("mode"))
		assert.Equal(t, "2026-03-02", q.Get("date"))
		assert.Equal(t, "08:30", q.Get("time"))
		_, _ = w.Write(body)
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      origin,
		Destination: dest,
		Profile:     routing.ProfileTransit,
		DepartAt:    departAt,
	})
	require.NoError(t, err)
	require.Len(t, resp.Routes, 2)
	assert.Equal(t, "BUS 61 > RAIL", resp.Routes[0].Summary)
	assert.Equal(t, 1, resp.Routes[0].Transfers)

	fastest, ok := resp.Fastest()
	require.True(t, ok)
	assert.Equal(t, 1860, fastest.DurationSeconds)
	assert.Equal(t, "BUS X59", fastest.Summary)
}

func TestClient_PlanError(t *testing.T) {
	body := fixture(t, "plan_error.json")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetDirections(context.Background(), routing.DirectionsRequest{
		Origin: origin, Destination: dest, Profile: routing.ProfileTransit,
	})
	require.ErrorIs(t, err, routing.ErrNoRouteFound)

	var rerr *routing.Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "PLAN_404", rerr.Code)
	assert.Contains(t, rerr.Message, "No trip found")
}

func TestClient_FailureModes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"no itineraries", http.StatusOK, `{"plan":{"itineraries":[]}}`, routing.ErrNoRouteFound},
		{"server error", http.StatusInternalServerError, `boom`, routing.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).GetDirections(context.Background(), routing.DirectionsRequest{
				Origin: origin, Destination: dest, Profile: routing.ProfileTransit,
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_ServesOnlyTransit(t *testing.T) {
	c := newTestClient("http://localhost:8080/")
	assert.Equal(t, []routing.RouteProfile{routing.ProfileTransit}, c.SupportedProfiles())
	assert.Equal(t, "http://localhost:8080", c.baseURL)
}
