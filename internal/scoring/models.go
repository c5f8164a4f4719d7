package scoring

import (
	"fmt"

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/routing"
	"github.com/homescore/homescore/internal/transit"
)

// TravelPreference is a frequently visited destination.
type TravelPreference struct {
	Label string
	// Postcode is geocoded when Destination is nil.
	Postcode    string
	Destination *geo.Coordinate
	// FrequencyPerWeek weights the destination against the others.
	FrequencyPerWeek int
	Mode             routing.Mode
}

// Request is a single scoring run.
type Request struct {
	City        string
	Preferences []TravelPreference
	// Weights nil means DefaultWeights.
	Weights Weights
	// ModeOverride replaces every preference's mode unless empty or auto.
	ModeOverride routing.Mode
}

// AmenityResult is the nearest amenity of one category to a location.
type AmenityResult struct {
	Name           string
	Category       amenity.Category
	Location       geo.Coordinate
	DistanceMeters float64
	// Score is the weighted contribution of this category.
	Score float64
	Level amenity.SchoolLevel
	// Rating is set for top-rated schools.
	Rating *amenity.Rating
}

// TransitResult is the transit accessibility of a location.
type TransitResult struct {
	Score            float64
	AccessibleRoutes []transit.RouteRef
}

// TravelScore is the commute to one destination.
type TravelScore struct {
	Minutes   float64
	Mode      routing.Mode
	Requested routing.Mode
	Frequency int
	// AllModeMinutes is set for auto lookups.
	AllModeMinutes     map[routing.Mode]float64
	TransitUnavailable bool
}

// AmenityBreakdown is the amenity component of a score.
type AmenityBreakdown struct {
	Total      float64
	ByCategory map[amenity.Category]float64
}

// TransitBreakdown is the transit component of a score.
type TransitBreakdown struct {
	Raw      float64
	Weighted float64
}

// ScoreBreakdown records each component's contribution to a final score.
// Travel fields are nil when travel was not scored.
type ScoreBreakdown struct {
	Amenities            AmenityBreakdown
	Transit              TransitBreakdown
	Travel               *float64
	TravelPenaltyMinutes *float64
}

// ScoredLocation is one ranked candidate.
type ScoredLocation struct {
	Location     geo.Coordinate
	AreaName     string
	Amenities    map[amenity.Category]AmenityResult
	Transit      TransitResult
	TravelScores map[string]TravelScore
	Breakdown    ScoreBreakdown
	FinalScore   float64
	MapLink      string
	Warnings     []string
}

// Result is the outcome of a scoring run. Locations is never nil.
type Result struct {
	City      string
	Locations []ScoredLocation
	Warnings  []string
}

// MapLink returns a Google Maps link for c.
func MapLink(c geo.Coordinate) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", c.Lat, c.Lon)
}
