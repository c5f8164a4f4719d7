package openrouteservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/routing"
)

var (
	origin = geo.Coordinate{Lat: 51.4816, Lon: -3.1791}
	dest   = geo.Coordinate{Lat: 51.5200, Lon: -3.2100}
)

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    url,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	})
}

func TestClient_GetDirections_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/directions_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "mock123" {
			t.Errorf("expected Authorization header 'mock123', got '%s'", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/v2/directions/driving-car" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var body orsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(body.Coordinates) != 2 || body.Coordinates[0][0] != origin.Lon || body.Coordinates[0][1] != origin.Lat {
			t.Errorf("coordinates not in lon,lat order: %v", body.Coordinates)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(respBody)
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      origin,
		Destination: dest,
		Profile:     routing.ProfileDriving,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(resp.Routes))
	}
	route := resp.Routes[0]
	if route.DurationSeconds != 742 {
		t.Errorf("expected duration 742, got %d", route.DurationSeconds)
	}
	if route.DistanceMeters != 5234 {
		t.Errorf("expected distance 5234, got %d", route.DistanceMeters)
	}
	if route.Summary != "North Road" {
		t.Errorf("expected summary 'North Road', got %q", route.Summary)
	}
	if resp.Provider != ProviderName {
		t.Errorf("expected provider %s, got %s", ProviderName, resp.Provider)
	}
}

func TestClient_GetDirections_Errors(t *testing.T) {
	notFound, err := os.ReadFile("testdata/error_route_not_found.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	tests := []struct {
		name    string
		status  int
		body    []byte
		wantErr error
	}{
		{"route not found code", http.StatusNotFound, notFound, routing.ErrNoRouteFound},
		{"route not found on 400", http.StatusBadRequest, notFound, routing.ErrNoRouteFound},
		{"rate limited", http.StatusTooManyRequests, []byte(`{}`), routing.ErrRateLimitExceeded},
		{"forbidden", http.StatusForbidden, []byte(`{"error":{"code":0,"message":"denied"}}`), routing.ErrProviderUnavailable},
		{"bad request", http.StatusBadRequest, []byte(`{"error":{"code":2003,"message":"bad"}}`), routing.ErrInvalidCoordinates},
		{"server error", http.StatusBadGateway, []byte(`oops`), routing.ErrProviderUnavailable},
		{"empty routes", http.StatusOK, []byte(`{"routes":[]}`), routing.ErrNoRouteFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write(tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).GetDirections(context.Background(), routing.DirectionsRequest{
				Origin:      origin,
				Destination: dest,
				Profile:     routing.ProfileWalking,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			var rerr *routing.Error
			if !errors.As(err, &rerr) || rerr.Provider != ProviderName {
				t.Errorf("expected routing.Error from %s, got %T", ProviderName, err)
			}
		})
	}
}

func TestClient_GetDirections_InvalidCoordinates(t *testing.T) {
	c := newTestClient("http://unused")
	_, err := c.GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      geo.Coordinate{Lat: 95},
		Destination: dest,
		Profile:     routing.ProfileCycling,
	})
	if !errors.Is(err, routing.ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).GetDirections(context.Background(), routing.DirectionsRequest{
		Origin: origin, Destination: dest, Profile: routing.ProfileDriving,
	})
	if !errors.Is(err, routing.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_SupportedProfiles(t *testing.T) {
	c := newTestClient("")
	if c.Name() != ProviderName {
		t.Errorf("unexpected name %s", c.Name())
	}
	profiles := c.SupportedProfiles()
	if len(profiles) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(profiles))
	}
	for _, p := range profiles {
		if p == routing.ProfileTransit {
			t.Error("ORS must not claim the transit profile")
		}
	}
}
