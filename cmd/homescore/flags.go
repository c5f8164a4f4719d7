package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/homescore/homescore/internal/geo"
)

var errCoordinateFormat = errors.New(`expected "lat,lon"`)

// parseCoordinate reads a "lat,lon" flag value.
func parseCoordinate(s string) (geo.Coordinate, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Coordinate{}, fmt.Errorf("%q: %w", s, errCoordinateFormat)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%q: latitude: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%q: longitude: %w", s, err)
	}
	c := geo.Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return geo.Coordinate{}, fmt.Errorf("%q: %w", s, err)
	}
	return c, nil
}

// parseWeights reads a "school=15,hospital=10" flag value into the raw form
// scoring.ParseWeights expects. Values that are not numbers are passed
// through as strings so they fall back to the category default.
func parseWeights(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	out := make(map[string]any)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("weight %q: expected category=value", pair)
		}
		value = strings.TrimSpace(value)
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			out[key] = f
		} else {
			out[key] = value
		}
	}
	return out, nil
}
