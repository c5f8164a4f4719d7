package scoring

import "math"

// AmenityPoints is the weighted proximity contribution of one amenity.
func AmenityPoints(decay DecayFunc, distanceKm, referenceKm float64, weight int) float64 {
	return decay(distanceKm, referenceKm) * float64(weight)
}

// TransitPoints scales a 0..100 transit score onto a point budget.
func TransitPoints(raw, budget float64) float64 {
	return clamp(raw, 0, 100) / 100 * budget
}

// TravelPoints scales a weekly commute penalty onto a point budget. A zero
// penalty earns the whole budget and maxMinutes or more earns nothing.
func TravelPoints(penaltyMinutes, maxMinutes, budget float64) float64 {
	if maxMinutes <= 0 {
		return 0
	}
	return math.Max(0, (maxMinutes-penaltyMinutes)/maxMinutes) * budget
}

// tripMinutes is a resolved commute time with its visit frequency.
type tripMinutes struct {
	minutes   float64
	frequency int
}

// travelPenalty is the frequency-weighted commute time across trips, in
// minutes. It reports false when the total frequency is zero.
func travelPenalty(trips []tripMinutes) (float64, bool) {
	total := 0
	for _, t := range trips {
		total += t.frequency
	}
	if total <= 0 {
		return 0, false
	}

	var penalty float64
	for _, t := range trips {
		penalty += float64(t.frequency) / float64(total) * t.minutes
	}
	return penalty, true
}

// FinalScore combines the components. With no active amenity weight only
// transit and travel count. Components arrive already scaled to their point
// budgets, so neither branch rescales.
func FinalScore(b ScoreBreakdown, activeWeightSum int) float64 {
	travel := 0.0
	if b.Travel != nil {
		travel = *b.Travel
	}
	if activeWeightSum == 0 {
		return round1(b.Transit.Weighted + travel)
	}
	return round1(b.Amenities.Total + b.Transit.Weighted + travel)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
