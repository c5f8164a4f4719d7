package osm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/area"
	"github.com/homescore/homescore/internal/cache"
	"github.com/homescore/homescore/internal/geo"
)

// CacheConfig is shared by the cache decorators.
type CacheConfig struct {
	Store  cache.Store
	TTL    time.Duration
	Logger zerolog.Logger
}

// CachedBoundaries caches boundaries as GeoJSON.
type CachedBoundaries struct {
	next BoundaryProvider
	cfg  CacheConfig
}

// NewCachedBoundaries wraps next.
func NewCachedBoundaries(next BoundaryProvider, cfg CacheConfig) *CachedBoundaries {
	return &CachedBoundaries{next: next, cfg: cfg}
}

// Boundary implements BoundaryProvider.
func (c *CachedBoundaries) Boundary(ctx context.Context, city string) (*geo.Polygon, error) {
	key := "boundary:" + CityKey(city)

	if raw, err := c.cfg.Store.Get(ctx, key); err == nil {
		var g geom.T
		if err := geojson.Unmarshal(raw, &g); err == nil {
			if poly, err := geo.FromGeom(g); err == nil {
				c.cfg.Logger.Debug().Str("key", key).Msg("boundary cache hit")
				return poly, nil
			}
		}
		c.cfg.Logger.Warn().Str("key", key).Msg("discarding undecodable cached boundary")
	}

	poly, err := c.next.Boundary(ctx, city)
	if err != nil {
		return nil, err
	}

	raw, err := geojson.Marshal(poly.Geom())
	if err == nil {
		err = c.cfg.Store.Set(ctx, key, raw, c.cfg.TTL)
	}
	if err != nil {
		c.cfg.Logger.Warn().Err(err).Str("key", key).Msg("failed to cache boundary")
	}
	return poly, nil
}

// CachedAmenities caches amenity lists per city and category.
type CachedAmenities struct {
	next AmenityProvider
	cfg  CacheConfig
}

// NewCachedAmenities wraps next.
func NewCachedAmenities(next AmenityProvider, cfg CacheConfig) *CachedAmenities {
	return &CachedAmenities{next: next, cfg: cfg}
}

// Amenities implements AmenityProvider.
func (c *CachedAmenities) Amenities(ctx context.Context, city string, category amenity.Category) ([]amenity.Amenity, error) {
	key := fmt.Sprintf("amenities:%s:%s", category, CityKey(city))

	var cached []amenity.Amenity
	if err := cache.GetJSON(ctx, c.cfg.Store, key, &cached); err == nil {
		return cached, nil
	}

	fetched, err := c.next.Amenities(ctx, city, category)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, c.cfg.Store, key, fetched, c.cfg.TTL); err != nil {
		c.cfg.Logger.Warn().Err(err).Str("key", key).Msg("failed to cache amenities")
	}
	return fetched, nil
}

// CachedAreas caches area lists per bounding box.
type CachedAreas struct {
	next AreaProvider
	cfg  CacheConfig
}

// NewCachedAreas wraps next.
func NewCachedAreas(next AreaProvider, cfg CacheConfig) *CachedAreas {
	return &CachedAreas{next: next, cfg: cfg}
}

// Areas implements AreaProvider.
func (c *CachedAreas) Areas(ctx context.Context, box geo.BoundingBox) ([]area.Area, error) {
	key := fmt.Sprintf("areas:%.3f,%.3f,%.3f,%.3f", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon)

	var cached []area.Area
	if err := cache.GetJSON(ctx, c.cfg.Store, key, &cached); err == nil {
		return cached, nil
	}

	fetched, err := c.next.Areas(ctx, box)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, c.cfg.Store, key, fetched, c.cfg.TTL); err != nil {
		c.cfg.Logger.Warn().Err(err).Str("key", key).Msg("failed to cache areas")
	}
	return fetched, nil
}
