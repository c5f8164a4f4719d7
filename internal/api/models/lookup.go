package models

import (
	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/routing"
	"github.com/homescore/homescore/internal/scoring"
	"github.com/homescore/homescore/internal/transit"
)

// AmenitiesQuery is the query of GET /v1/amenities.
type AmenitiesQuery struct {
	City     string `query:"city" validate:"required,max=200"`
	Category string `query:"category" validate:"omitempty,amenity_category"`
}

// AmenityListItem is one amenity of a listing.
type AmenityListItem struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Level          string  `json:"level,omitempty"`
	Reason         string  `json:"reason"`
	GoogleMapsLink string  `json:"google_maps_link"`
}

// AmenityListResponse is the body of GET /v1/amenities.
type AmenityListResponse struct {
	City      string            `json:"city"`
	Count     int               `json:"count"`
	Amenities []AmenityListItem `json:"amenities"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// NewAmenityListItem converts an amenity to its listing form.
func NewAmenityListItem(a amenity.Amenity) AmenityListItem {
	return AmenityListItem{
		Name:           a.Name,
		Category:       string(a.Category),
		Lat:            a.Location.Lat,
		Lon:            a.Location.Lon,
		Level:          string(a.Level),
		Reason:         a.Category.Reason(),
		GoogleMapsLink: scoring.MapLink(a.Location),
	}
}

// TransportComparisonQuery is the query of GET /v1/transport-comparison.
type TransportComparisonQuery struct {
	FromLat *float64 `query:"from_lat" validate:"required,gte=-90,lte=90"`
	FromLon *float64 `query:"from_lon" validate:"required,gte=-180,lte=180"`
	ToLat   *float64 `query:"to_lat" validate:"required_without=ToPostcode,omitempty,gte=-90,lte=90"`
	ToLon   *float64 `query:"to_lon" validate:"required_without=ToPostcode,omitempty,gte=-180,lte=180"`
	// ToPostcode is geocoded when the destination coordinates are absent.
	ToPostcode string `query:"to_postcode" validate:"max=10"`
}

// TransportComparisonResponse compares every mode between two points.
type TransportComparisonResponse struct {
	From           Point              `json:"from"`
	To             Point              `json:"to"`
	FastestMode    string             `json:"fastest_mode"`
	FastestMinutes float64            `json:"fastest_minutes"`
	Modes          map[string]float64 `json:"modes"`
}

// NewTransportComparisonResponse converts an auto travel-time result.
func NewTransportComparisonResponse(from, to Point, res *routing.Result) TransportComparisonResponse {
	return TransportComparisonResponse{
		From:           from,
		To:             to,
		FastestMode:    string(res.Mode),
		FastestMinutes: round(res.Minutes, 1),
		Modes:          modeMinutes(res.AllModeMinutes),
	}
}

// PostcodeResponse is the body of GET /v1/postcodes/{postcode}.
type PostcodeResponse struct {
	Postcode string  `json:"postcode"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// TransitScoreQuery is the query of GET /v1/transit/score.
type TransitScoreQuery struct {
	Lat *float64 `query:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `query:"lon" validate:"required,gte=-180,lte=180"`
}

// NearestStopResponse is the closest transit stop to a point.
type NearestStopResponse struct {
	ID             string  `json:"stop_id"`
	Name           string  `json:"stop_name"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	DistanceMeters float64 `json:"distance_m"`
}

// TransitScoreResponse is the body of GET /v1/transit/score.
type TransitScoreResponse struct {
	Lat              float64              `json:"lat"`
	Lon              float64              `json:"lon"`
	Score            float64              `json:"score"`
	AccessibleRoutes []transit.RouteRef   `json:"accessible_routes"`
	NearestStop      *NearestStopResponse `json:"nearest_stop,omitempty"`
}

// NewTransitScoreResponse converts a transit score at a point.
func NewTransitScoreResponse(p Point, s *transit.Score) TransitScoreResponse {
	resp := TransitScoreResponse{
		Lat:              p.Lat,
		Lon:              p.Lon,
		Score:            s.Score,
		AccessibleRoutes: s.AccessibleRoutes,
	}
	if resp.AccessibleRoutes == nil {
		resp.AccessibleRoutes = []transit.RouteRef{}
	}
	if s.NearestStop != nil {
		resp.NearestStop = &NearestStopResponse{
			ID:             s.NearestStop.ID,
			Name:           s.NearestStop.Name,
			Lat:            s.NearestStop.Location.Lat,
			Lon:            s.NearestStop.Location.Lon,
			DistanceMeters: round(s.StopDistanceMeters, 0),
		}
	}
	return resp
}
