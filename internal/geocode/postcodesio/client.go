// Package postcodesio geocodes UK postcodes with the postcodes.io API.
package postcodesio

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

	"github.com/homescore/homescore/internal/cache"
	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/geocode"
	"github.com/homescore/homescore/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoder.
	ProviderName = "postcodes.io"

	// DefaultBaseURL is the public postcodes.io API.
	DefaultBaseURL = "https://api.postcodes.io"
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures the postcodes.io client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient HTTPDoer
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client is a postcodes.io API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

type postcodeResponse struct {
	Status int `json:"status"`
	Result *struct {
		Postcode  string   `json:"postcode"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"result"`
	Error string `json:"error"`
}

// NewClient creates a postcodes.io client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Geocode returns the centroid of a postcode.
func (c *Client) Geocode(ctx context.Context, postcode string) (geo.Coordinate, error) {
	clean := geocode.CleanPostcode(postcode)
	if clean == "" {
		return geo.Coordinate{}, geocode.ErrInvalidPostcode
	}

	endpoint := fmt.Sprintf("%s/postcodes/%s", c.baseURL, url.PathEscape(clean))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %w", geocode.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return geo.Coordinate{}, fmt.Errorf("%w: %s", geocode.ErrPostcodeNotFound, clean)
	case resp.StatusCode == http.StatusBadRequest:
		return geo.Coordinate{}, fmt.Errorf("%w: %s", geocode.ErrInvalidPostcode, clean)
	case resp.StatusCode != http.StatusOK:
		return geo.Coordinate{}, fmt.Errorf("%w: status %d", geocode.ErrProviderUnavailable, resp.StatusCode)
	}

	var pr postcodeResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return geo.Coordinate{}, fmt.Errorf("decoding response: %w", err)
	}
	// terminated postcodes come back without coordinates
	if pr.Result == nil || pr.Result.Latitude == nil || pr.Result.Longitude == nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %s has no coordinates", geocode.ErrPostcodeNotFound, clean)
	}

	c.logger.Debug().Str("postcode", clean).Msg("geocoded postcode")

	return geo.Coordinate{Lat: *pr.Result.Latitude, Lon: *pr.Result.Longitude}, nil
}

// Geocoder resolves postcodes.
type Geocoder interface {
	Geocode(ctx context.Context, postcode string) (geo.Coordinate, error)
}

// CachedGeocoder memoizes successful lookups in a cache.Store.
type CachedGeocoder struct {
	next   Geocoder
	store  cache.Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedGeocoder wraps next with store.
func NewCachedGeocoder(next Geocoder, store cache.Store, ttl time.Duration, logger zerolog.Logger) *CachedGeocoder {
	return &CachedGeocoder{next: next, store: store, ttl: ttl, logger: logger}
}

// Geocode implements Geocoder.
func (c *CachedGeocoder) Geocode(ctx context.Context, postcode string) (geo.Coordinate, error) {
	key := "postcode:" + geocode.CleanPostcode(postcode)

	var coord geo.Coordinate
	if err := cache.GetJSON(ctx, c.store, key, &coord); err == nil {
		return coord, nil
	}

	coord, err := c.next.Geocode(ctx, postcode)
	if err != nil {
		return geo.Coordinate{}, err
	}

	if err := cache.SetJSON(ctx, c.store, key, coord, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to cache postcode")
	}
	return coord, nil
}
