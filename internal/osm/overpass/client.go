// Package overpass queries the Overpass API for amenities and named places.
package overpass

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

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/area"
	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/osm"
	"github.com/homescore/homescore/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "overpass"

	// DefaultBaseURL is the main public Overpass instance.
	DefaultBaseURL = "https://overpass-api.de"

	// DefaultTimeout covers slow area queries on large cities.
	DefaultTimeout = 60 * time.Second

	// DefaultRequestsPerSecond keeps below the public slot allowance.
	DefaultRequestsPerSecond = 0.5

	unnamed = "Unknown"
)

// tag is a single key=value OSM filter.
type tag struct {
	Key   string
	Value string
}

// categoryTags maps each category to the tags that identify it. A feature
// matching any of them belongs to the category.
var categoryTags = map[amenity.Category][]tag{
	amenity.CategorySchool:      {{"amenity", "school"}},
	amenity.CategoryHospital:    {{"amenity", "hospital"}, {"healthcare", "hospital"}},
	amenity.CategorySupermarket: {{"shop", "supermarket"}, {"amenity", "supermarket"}},
	amenity.CategoryCafe:        {{"amenity", "cafe"}},
	amenity.CategoryRestaurant:  {{"amenity", "restaurant"}},
}

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig configures the Overpass client.
type ClientConfig struct {
	BaseURL string

	// RequestsPerSecond limits the default HTTP client. Zero uses
	// DefaultRequestsPerSecond, negative disables limiting.
	RequestsPerSecond float64

	HTTPClient HTTPDoer
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client is an Overpass API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// location returns the element position: node coordinates, or the centre
// computed by "out center" for ways and relations.
func (e element) location() (geo.Coordinate, bool) {
	if e.Lat != nil && e.Lon != nil {
		return geo.Coordinate{Lat: *e.Lat, Lon: *e.Lon}, true
	}
	if e.Center != nil {
		return geo.Coordinate{Lat: e.Center.Lat, Lon: e.Center.Lon}, true
	}
	return geo.Coordinate{}, false
}

// NewClient creates an Overpass client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = DefaultTimeout
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
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// AmenityQuery builds the Overpass QL for one category inside the named
// administrative area.
func AmenityQuery(city string, category amenity.Category) (string, error) {
	tags, ok := categoryTags[category]
	if !ok {
		return "", fmt.Errorf("unknown amenity category %q", category)
	}

	var b strings.Builder
	b.WriteString("[out:json][timeout:50];\n")
	fmt.Fprintf(&b, "area[\"name\"=%s][\"boundary\"=\"administrative\"]->.searchArea;\n", quote(osm.PrimaryName(city)))
	b.WriteString("(\n")
	for _, t := range tags {
		fmt.Fprintf(&b, "  nwr[%s=%s](area.searchArea);\n", quote(t.Key), quote(t.Value))
	}
	b.WriteString(");\nout center;\n")
	return b.String(), nil
}

// AreaQuery builds the Overpass QL for named places inside box.
func AreaQuery(box geo.BoundingBox) string {
	return fmt.Sprintf(
		"[out:json][timeout:50];\nnode[\"place\"~\"^(suburb|neighbourhood|quarter)$\"](%f,%f,%f,%f);\nout;\n",
		box.MinLat, box.MinLon, box.MaxLat, box.MaxLon,
	)
}

// Amenities returns every feature of category within city. Features are
// deduplicated by OSM type and id; unnamed features are labelled "Unknown".
func (c *Client) Amenities(ctx context.Context, city string, category amenity.Category) ([]amenity.Amenity, error) {
	query, err := AmenityQuery(city, category)
	if err != nil {
		return nil, err
	}

	elements, err := c.run(ctx, query)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(elements))
	out := make([]amenity.Amenity, 0, len(elements))
	for _, e := range elements {
		key := fmt.Sprintf("%s/%d", e.Type, e.ID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		loc, ok := e.location()
		if !ok {
			continue
		}

		name := strings.TrimSpace(e.Tags["name"])
		if name == "" {
			name = unnamed
		}

		a := amenity.Amenity{Name: name, Category: category, Location: loc}
		if category == amenity.CategorySchool {
			a.Level = amenity.ClassifySchool(name)
		}
		out = append(out, a)
	}

	c.logger.Debug().
		Str("city", city).
		Str("category", string(category)).
		Int("count", len(out)).
		Msg("fetched amenities")

	return out, nil
}

// Areas returns named suburbs, neighbourhoods and quarters inside box.
func (c *Client) Areas(ctx context.Context, box geo.BoundingBox) ([]area.Area, error) {
	elements, err := c.run(ctx, AreaQuery(box))
	if err != nil {
		return nil, err
	}

	out := make([]area.Area, 0, len(elements))
	for _, e := range elements {
		name := strings.TrimSpace(e.Tags["name"])
		if name == "" {
			continue
		}
		loc, ok := e.location()
		if !ok {
			continue
		}
		out = append(out, area.Area{Name: name, Location: loc})
	}
	return out, nil
}

func (c *Client) run(ctx context.Context, query string) ([]element, error) {
	form := url.Values{}
	form.Set("data", query)
	payload := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/interpreter", strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
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
		return nil, fmt.Errorf("%w: overpass returned status %d", osm.ErrProviderUnavailable, resp.StatusCode)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}
	return r.Elements, nil
}

// quote renders s as an Overpass string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
