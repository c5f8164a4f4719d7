// Package amenity models points of interest and the nearest-amenity lookup
// used for proximity scoring.
package amenity

import "github.com/homescore/homescore/internal/geo"

// Category is an amenity kind.
type Category string

const (
	CategorySchool      Category = "school"
	CategoryHospital    Category = "hospital"
	CategorySupermarket Category = "supermarket"
	CategoryCafe        Category = "cafe"
	CategoryRestaurant  Category = "restaurant"
)

// Categories lists every known category in reporting order.
var Categories = []Category{
	CategorySchool,
	CategoryHospital,
	CategorySupermarket,
	CategoryCafe,
	CategoryRestaurant,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Reason is the short description shown next to amenity listings.
func (c Category) Reason() string {
	switch c {
	case CategorySchool:
		return "Great for families with kids"
	case CategoryHospital:
		return "Essential for healthcare access"
	case CategorySupermarket:
		return "Convenient for daily shopping"
	case CategoryCafe:
		return "Nice for a coffee break"
	case CategoryRestaurant:
		return "Good for dining out"
	default:
		return ""
	}
}

// SchoolLevel is the education stage of a school.
type SchoolLevel string

const (
	LevelPrimary   SchoolLevel = "Primary"
	LevelSecondary SchoolLevel = "Secondary"
	LevelUnknown   SchoolLevel = "Unknown"
)

// Amenity is a single named point of interest.
type Amenity struct {
	Name     string         `json:"name"`
	Category Category       `json:"category"`
	Location geo.Coordinate `json:"location"`
	// Level is set for schools only.
	Level SchoolLevel `json:"level,omitempty"`
}
