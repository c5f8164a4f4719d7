package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/homescore/homescore/internal/amenity"
)

// Defaults for Config.
const (
	DefaultCandidateCount       = 20
	DefaultTopN                 = 5
	DefaultTransitWeight        = 20.0
	DefaultTravelWeight         = 40.0
	DefaultMaxAcceptableMinutes = 600.0
	DefaultConcurrency          = 4
	DefaultDeadline             = 25 * time.Second

	// MaxWeight is the largest accepted amenity weight.
	MaxWeight = 100
)

// DecayFunc maps a distance to a proximity factor in [0, 1].
type DecayFunc func(distanceKm, referenceKm float64) float64

// LinearDecay falls from 1 at the amenity to 0 at referenceKm and beyond.
func LinearDecay(distanceKm, referenceKm float64) float64 {
	if referenceKm <= 0 {
		return 0
	}
	return math.Max(0, 1-distanceKm/referenceKm)
}

// DefaultReferenceKm returns the distance at which each category stops
// contributing.
func DefaultReferenceKm() map[amenity.Category]float64 {
	return map[amenity.Category]float64{
		amenity.CategorySchool:      2,
		amenity.CategoryHospital:    3,
		amenity.CategorySupermarket: 1,
		amenity.CategoryCafe:        1,
		amenity.CategoryRestaurant:  1,
	}
}

// Config tunes the engine. Zero fields take their defaults.
type Config struct {
	// CandidateCount is the number of points sampled per request.
	CandidateCount int
	// TopN is the number of locations returned.
	TopN int

	// TransitWeight is the point budget of the transit component.
	TransitWeight float64
	// TravelWeight is the point budget of the travel component.
	TravelWeight float64
	// MaxAcceptableMinutes is the weekly commute burden that scores zero.
	MaxAcceptableMinutes float64

	ReferenceKm map[amenity.Category]float64
	Decay       DecayFunc

	// Concurrency bounds the candidates scored in parallel.
	Concurrency int
	// Deadline bounds a whole scoring run. Negative disables it.
	Deadline time.Duration
}

func (c Config) withDefaults() Config {
	if c.CandidateCount <= 0 {
		c.CandidateCount = DefaultCandidateCount
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.TransitWeight <= 0 {
		c.TransitWeight = DefaultTransitWeight
	}
	if c.TravelWeight <= 0 {
		c.TravelWeight = DefaultTravelWeight
	}
	if c.MaxAcceptableMinutes <= 0 {
		c.MaxAcceptableMinutes = DefaultMaxAcceptableMinutes
	}
	refs := DefaultReferenceKm()
	for cat, km := range c.ReferenceKm {
		if km > 0 {
			refs[cat] = km
		}
	}
	c.ReferenceKm = refs
	if c.Decay == nil {
		c.Decay = LinearDecay
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Deadline == 0 {
		c.Deadline = DefaultDeadline
	}
	return c
}

// Weights assigns each amenity category a point budget in 0..100.
type Weights map[amenity.Category]int

// DefaultWeights returns the standard amenity weighting.
func DefaultWeights() Weights {
	return Weights{
		amenity.CategorySchool:      15,
		amenity.CategoryHospital:    15,
		amenity.CategorySupermarket: 10,
	}
}

// Active returns the categories with a positive weight, in reporting order,
// and the sum of their weights.
func (w Weights) Active() ([]amenity.Category, int) {
	var (
		cats []amenity.Category
		sum  int
	)
	for _, c := range amenity.Categories {
		if w[c] > 0 {
			cats = append(cats, c)
			sum += w[c]
		}
	}
	return cats, sum
}

// ParseWeights reads caller-supplied weights, such as a decoded JSON object.
// The supplied set replaces the defaults: categories it omits weigh 0. A
// value that is not a number in 0..100 falls back to the category default.
// Unknown categories are ignored. Each recovery adds a warning.
func ParseWeights(raw map[string]any) (Weights, []string) {
	if raw == nil {
		return DefaultWeights(), nil
	}

	defaults := DefaultWeights()
	out := make(Weights, len(raw))
	var warnings []string

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := raw[key]
		cat := amenity.Category(strings.ToLower(strings.TrimSpace(key)))
		if !cat.Valid() {
			warnings = append(warnings, fmt.Sprintf("ignored weight for unknown amenity %q", key))
			continue
		}
		w, ok := weightValue(v)
		if !ok {
			out[cat] = defaults[cat]
			warnings = append(warnings, fmt.Sprintf("invalid weight for %s, using default %d", cat, defaults[cat]))
			continue
		}
		out[cat] = w
	}
	return out, warnings
}

func weightValue(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || f < 0 || f > MaxWeight {
		return 0, false
	}
	return int(math.Round(f)), true
}
