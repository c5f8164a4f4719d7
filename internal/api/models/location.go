package models

import (
	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/routing"
	"github.com/homescore/homescore/internal/scoring"
	"github.com/homescore/homescore/internal/transit"
)

// LocationsQuery is the query of GET /v1/locations. An unrecognised
// transport_mode is not rejected; the handler falls back to auto.
type LocationsQuery struct {
	City              string `query:"city" validate:"required,max=200"`
	TravelPreferences string `query:"travel_preferences" validate:"max=10000"`
	AmenityWeights    string `query:"amenity_weights" validate:"max=2000"`
	TransportMode     string `query:"transport_mode" validate:"max=50"`
}

// TravelPreferenceInput is one element of the travel_preferences JSON array.
// The original clients send "type" where newer ones send "label".
type TravelPreferenceInput struct {
	Label         string   `json:"label" validate:"max=100"`
	Type          string   `json:"type" validate:"max=100"`
	Postcode      string   `json:"postcode" validate:"max=10"`
	Lat           *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon           *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
	Frequency     float64  `json:"frequency" validate:"lte=1000"`
	TransportMode string   `json:"transport_mode" validate:"omitempty,transport_mode"`
}

// DisplayLabel returns Label, falling back to Type.
func (p TravelPreferenceInput) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Type
}

// LocationsResponse is the body of GET /v1/locations.
type LocationsResponse struct {
	City      string             `json:"city"`
	Locations []LocationResponse `json:"locations"`
	Warnings  []string           `json:"warnings,omitempty"`
}

// LocationResponse is one ranked location.
type LocationResponse struct {
	Lat            float64                    `json:"lat"`
	Lon            float64                    `json:"lon"`
	Score          float64                    `json:"score"`
	AreaName       string                     `json:"area_name"`
	Amenities      map[string]AmenityResponse `json:"amenities"`
	Transit        TransitResponse            `json:"transit"`
	TravelScores   map[string]TravelResponse  `json:"travel_scores"`
	ScoreBreakdown BreakdownResponse          `json:"score_breakdown"`
	GoogleMapsLink string                     `json:"google_maps_link"`
	Warnings       []string                   `json:"warnings,omitempty"`
}

// AmenityResponse is the nearest amenity of a category.
type AmenityResponse struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm float64 `json:"distance_km"`
	Score      float64 `json:"score"`
	Level      string  `json:"level,omitempty"`
	IsTopRated bool    `json:"is_top_rated"`
	Rank       int     `json:"rank,omitempty"`
	Rating     string  `json:"rating,omitempty"`
}

// TransitResponse is the transit accessibility of a location.
type TransitResponse struct {
	Score            float64            `json:"score"`
	AccessibleRoutes []transit.RouteRef `json:"accessible_routes"`
}

// TravelResponse is the commute to one destination.
type TravelResponse struct {
	TravelTimeMinutes  float64            `json:"travel_time_minutes"`
	TransportMode      string             `json:"transport_mode"`
	RequestedMode      string             `json:"requested_mode"`
	Frequency          int                `json:"frequency"`
	AllModes           map[string]float64 `json:"all_modes,omitempty"`
	TransitUnavailable bool               `json:"transit_unavailable,omitempty"`
}

// BreakdownResponse is each component's contribution to the score.
type BreakdownResponse struct {
	Amenities            AmenityBreakdownResponse `json:"amenities"`
	Transit              TransitBreakdownResponse `json:"transit"`
	Travel               *float64                 `json:"travel"`
	TravelPenaltyMinutes *float64                 `json:"travel_penalty_minutes"`
}

// AmenityBreakdownResponse is the amenity component.
type AmenityBreakdownResponse struct {
	Total      float64            `json:"total"`
	ByCategory map[string]float64 `json:"by_category"`
}

// TransitBreakdownResponse is the transit component.
type TransitBreakdownResponse struct {
	Raw   float64 `json:"raw"`
	Score float64 `json:"score"`
}

// NewLocationsResponse converts a scoring result to its wire form.
func NewLocationsResponse(res *scoring.Result) LocationsResponse {
	out := LocationsResponse{
		City:      res.City,
		Locations: make([]LocationResponse, 0, len(res.Locations)),
		Warnings:  res.Warnings,
	}
	for _, loc := range res.Locations {
		out.Locations = append(out.Locations, newLocationResponse(loc))
	}
	return out
}

func newLocationResponse(loc scoring.ScoredLocation) LocationResponse {
	amenities := make(map[string]AmenityResponse, len(loc.Amenities))
	for cat, a := range loc.Amenities {
		amenities[string(cat)] = newAmenityResponse(a)
	}

	travel := make(map[string]TravelResponse, len(loc.TravelScores))
	for label, ts := range loc.TravelScores {
		travel[label] = newTravelResponse(ts)
	}

	byCategory := make(map[string]float64, len(loc.Breakdown.Amenities.ByCategory))
	for cat, v := range loc.Breakdown.Amenities.ByCategory {
		byCategory[string(cat)] = round(v, 2)
	}

	routes := loc.Transit.AccessibleRoutes
	if routes == nil {
		routes = []transit.RouteRef{}
	}

	return LocationResponse{
		Lat:          loc.Location.Lat,
		Lon:          loc.Location.Lon,
		Score:        loc.FinalScore,
		AreaName:     loc.AreaName,
		Amenities:    amenities,
		Transit:      TransitResponse{Score: loc.Transit.Score, AccessibleRoutes: routes},
		TravelScores: travel,
		ScoreBreakdown: BreakdownResponse{
			Amenities: AmenityBreakdownResponse{
				Total:      round(loc.Breakdown.Amenities.Total, 2),
				ByCategory: byCategory,
			},
			Transit: TransitBreakdownResponse{
				Raw:   loc.Breakdown.Transit.Raw,
				Score: round(loc.Breakdown.Transit.Weighted, 2),
			},
			Travel:               roundPtr(loc.Breakdown.Travel, 2),
			TravelPenaltyMinutes: roundPtr(loc.Breakdown.TravelPenaltyMinutes, 1),
		},
		GoogleMapsLink: loc.MapLink,
		Warnings:       loc.Warnings,
	}
}

func newAmenityResponse(a scoring.AmenityResult) AmenityResponse {
	resp := AmenityResponse{
		Name:       a.Name,
		Lat:        a.Location.Lat,
		Lon:        a.Location.Lon,
		DistanceKm: round(a.DistanceMeters/1000, 2),
		Score:      round(a.Score, 2),
	}
	if a.Category == amenity.CategorySchool {
		resp.Level = string(a.Level)
	}
	if a.Rating != nil {
		resp.IsTopRated = true
		resp.Rank = a.Rating.Rank
		resp.Rating = a.Rating.Rating
	}
	return resp
}

func newTravelResponse(ts scoring.TravelScore) TravelResponse {
	resp := TravelResponse{
		TravelTimeMinutes:  round(ts.Minutes, 1),
		TransportMode:      string(ts.Mode),
		RequestedMode:      string(ts.Requested),
		Frequency:          ts.Frequency,
		TransitUnavailable: ts.TransitUnavailable,
	}
	if len(ts.AllModeMinutes) > 0 {
		resp.AllModes = modeMinutes(ts.AllModeMinutes)
	}
	return resp
}

func modeMinutes(m map[routing.Mode]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for mode, minutes := range m {
		out[string(mode)] = round(minutes, 1)
	}
	return out
}

func roundPtr(v *float64, decimals int) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, decimals)
	return &r
}
