// Package worker provides background job processing for HomeScore: warming
// the OSM caches for frequently scored cities.
package worker

import (
	"time"

	"github.com/homescore/homescore/internal/amenity"
)

// WarmConfig holds configuration for the cache-warm job.
type WarmConfig struct {
	// Cities are warmed when a job names none.
	// If empty, uses DefaultCities.
	Cities []string

	// Categories are the amenity categories fetched per city.
	// Default: every known category
	Categories []amenity.Category

	// Concurrency is the number of cities warmed at once.
	// Default: 2
	Concurrency int

	// Timeout bounds the warm-up of one city.
	// Default: 2 minutes
	Timeout time.Duration
}

// DefaultWarmConfig returns the default warm configuration.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		Cities:      DefaultCities(),
		Categories:  amenity.Categories,
		Concurrency: 2,
		Timeout:     2 * time.Minute,
	}
}

// DefaultCities returns the cities warmed by default, the largest UK cities
// served by postcodes.io.
func DefaultCities() []string {
	return []string{
		"London",
		"Birmingham",
		"Manchester",
		"Leeds",
		"Glasgow",
		"Bristol",
		"Cardiff",
		"Edinburgh",
	}
}

func (c WarmConfig) withDefaults() WarmConfig {
	def := DefaultWarmConfig()
	if len(c.Cities) == 0 {
		c.Cities = def.Cities
	}
	if len(c.Categories) == 0 {
		c.Categories = def.Categories
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
