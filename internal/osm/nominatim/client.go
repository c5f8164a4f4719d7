// Package nominatim resolves city names to boundary polygons with the
// Nominatim search API.
package nominatim

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
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/osm"
	"github.com/homescore/homescore/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the service, as the usage policy requires.
	DefaultUserAgent = "homescore/1.0"

	// DefaultRequestsPerSecond follows the public usage policy.
	DefaultRequestsPerSecond = 1.0
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures the Nominatim client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string

	// RequestsPerSecond limits the default HTTP client. Zero uses
	// DefaultRequestsPerSecond, negative disables limiting.
	RequestsPerSecond float64

	HTTPClient HTTPDoer
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client is a Nominatim search client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

type searchResult struct {
	DisplayName string          `json:"display_name"`
	OSMType     string          `json:"osm_type"`
	GeoJSON     json.RawMessage `json:"geojson"`
}

// NewClient creates a Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		switch {
		case cfg.RequestsPerSecond == 0:
			clientCfg.RequestsPerSecond = DefaultRequestsPerSecond
		case cfg.RequestsPerSecond > 0:
			clientCfg.RequestsPerSecond = cfg.RequestsPerSecond
		}
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Boundary returns the boundary of the best match for city. Results whose
// geometry is not polygonal yield osm.ErrCityNotFound.
func (c *Client) Boundary(ctx context.Context, city string) (*geo.Polygon, error) {
	if strings.TrimSpace(city) == "" {
		return nil, osm.ErrCityNotFound
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("format", "jsonv2")
	q.Set("polygon_geojson", "1")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", osm.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: nominatim returned status %d", osm.ErrProviderUnavailable, resp.StatusCode)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decoding search results: %w", err)
	}
	if len(results) == 0 || len(results[0].GeoJSON) == 0 {
		return nil, fmt.Errorf("%w: %q", osm.ErrCityNotFound, city)
	}

	var g geom.T
	if err := geojson.Unmarshal(results[0].GeoJSON, &g); err != nil {
		return nil, fmt.Errorf("decoding boundary geometry: %w", err)
	}

	poly, err := geo.FromGeom(g)
	if err != nil {
		return nil, fmt.Errorf("%w: %q has no polygon boundary: %w", osm.ErrCityNotFound, city, err)
	}

	c.logger.Debug().
		Str("city", city).
		Str("match", results[0].DisplayName).
		Msg("resolved city boundary")

	return poly, nil
}
