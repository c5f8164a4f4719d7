// Package otp provides a transit routing provider backed by the
// OpenTripPlanner plan API.
package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/homescore/homescore/internal/provider/resilience"
	"github.com/homescore/homescore/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "opentripplanner"

	// DefaultRouter is the OTP router id.
	DefaultRouter = "default"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 15 * time.Second

	defaultMaxWalkMeters = 1000
	defaultItineraries   = 3
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures the OTP client.
type ClientConfig struct {
	// BaseURL is the OTP server root, e.g. http://localhost:8080 (required).
	BaseURL string

	// Router defaults to DefaultRouter.
	Router string

	// MaxWalkMeters caps walking legs. Default: 1000.
	MaxWalkMeters int

	HTTPClient HTTPDoer
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client queries OpenTripPlanner for public transport journeys.
type Client struct {
	baseURL    string
	router     string
	maxWalk    int
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates an OTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Router == "" {
		cfg.Router = DefaultRouter
	}
	if cfg.MaxWalkMeters <= 0 {
		cfg.MaxWalkMeters = defaultMaxWalkMeters
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.SingleAttemptConfig(ProviderName, cfg.Timeout)
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		router:     cfg.Router,
		maxWalk:    cfg.MaxWalkMeters,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SupportedProfiles returns the transit profile.
func (c *Client) SupportedProfiles() []routing.RouteProfile {
	return []routing.RouteProfile{routing.ProfileTransit}
}

// GetDirections plans a transit journey. Each itinerary becomes a route.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	if req.Origin.Validate() != nil || req.Destination.Validate() != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_COORDINATES",
			Message:  "invalid coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}

	departAt := req.DepartAt
	if departAt.IsZero() {
		departAt = time.Now()
	}

	q := url.Values{}
	q.Set("fromPlace", fmt.Sprintf("%f,%f", req.Origin.Lat, req.Origin.Lon))
	q.Set("toPlace", fmt.Sprintf("%f,%f", req.Destination.Lat, req.Destination.Lon))
	q.Set("mode", "TRANSIT,WALK")
	q.Set("maxWalkDistance", fmt.Sprintf("%d", c.maxWalk))
	q.Set("numItineraries", fmt.Sprintf("%d", defaultItineraries))
	q.Set("date", departAt.Format("2006-01-02"))
	q.Set("time", departAt.Format("15:04"))

	endpoint := fmt.Sprintf("%s/otp/routers/%s/plan?%s", c.baseURL, url.PathEscape(c.router), q.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach transit planner",
			Err:      fmt.Errorf("%w: %w", routing.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  fmt.Sprintf("transit planner returned status %d", resp.StatusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	var pr planResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}

	if pr.Error != nil {
		msg := pr.Error.Message
		if msg == "" {
			msg = pr.Error.Msg
		}
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("PLAN_%d", pr.Error.ID),
			Message:  msg,
			Err:      routing.ErrNoRouteFound,
		}
	}
	if pr.Plan == nil || len(pr.Plan.Itineraries) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ITINERARY",
			Message:  "no transit itinerary found",
			Err:      routing.ErrNoRouteFound,
		}
	}

	routes := make([]routing.Route, 0, len(pr.Plan.Itineraries))
	for _, it := range pr.Plan.Itineraries {
		routes = append(routes, routing.Route{
			DurationSeconds: int(it.Duration),
			DistanceMeters:  int(legDistance(it.Legs)),
			Summary:         transitSummary(it.Legs),
			Transfers:       it.Transfers,
		})
	}

	c.logger.Debug().
		Int("itineraries", len(routes)).
		Msg("received transit plan")

	return &routing.DirectionsResponse{
		Routes:    routes,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}, nil
}

func legDistance(legs []leg) float64 {
	var total float64
	for _, l := range legs {
		total += l.Distance
	}
	return total
}

// transitSummary lists the non-walking legs, e.g. "BUS 61 > RAIL".
func transitSummary(legs []leg) string {
	var parts []string
	for _, l := range legs {
		if l.Mode == "WALK" {
			continue
		}
		if l.Route != "" {
			parts = append(parts, l.Mode+" "+l.Route)
		} else {
			parts = append(parts, l.Mode)
		}
	}
	return strings.Join(parts, " > ")
}
