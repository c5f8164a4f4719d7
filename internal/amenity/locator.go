package amenity

import "github.com/homescore/homescore/internal/geo"

// Nearest is the closest amenity of a category to a point.
type Nearest struct {
	Amenity        Amenity
	DistanceMeters float64
	// Rating is set when the amenity is a top-rated school.
	Rating *Rating
}

// DistanceKm returns the distance in kilometres.
func (n Nearest) DistanceKm() float64 {
	return n.DistanceMeters / 1000
}

// IsTopRated reports whether the amenity matched the top-rated index.
func (n Nearest) IsTopRated() bool {
	return n.Rating != nil
}

// Locator finds nearest amenities and annotates schools.
type Locator struct {
	topRated *TopRated
}

// NewLocator creates a locator. topRated may be nil.
func NewLocator(topRated *TopRated) *Locator {
	return &Locator{topRated: topRated}
}

// Nearest returns the amenity closest to point, or false when none exist or
// no distance can be computed.
func (l *Locator) Nearest(point geo.Coordinate, amenities []Amenity) (Nearest, bool) {
	if len(amenities) == 0 {
		return Nearest{}, false
	}

	points := make([]geo.Coordinate, len(amenities))
	for i, a := range amenities {
		points[i] = a.Location
	}

	idx, dist := geo.NearestIndex(point, points)
	if idx < 0 {
		return Nearest{}, false
	}
	found := amenities[idx]
	if found.Category == CategorySchool && found.Level == "" {
		found.Level = ClassifySchool(found.Name)
	}

	n := Nearest{Amenity: found, DistanceMeters: dist}
	if found.Category == CategorySchool {
		if r, ok := l.topRated.Lookup(found.Name); ok {
			n.Rating = &r
		}
	}
	return n, true
}
