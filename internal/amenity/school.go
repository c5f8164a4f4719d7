package amenity

import "strings"

var (
	primaryKeywords   = []string{"primary", "elementary", "infant", "junior"}
	secondaryKeywords = []string{"secondary", "high", "college", "academy"}
)

// ClassifySchool infers the school level from its name. Primary keywords
// take precedence, so "Junior and Senior College" is Primary.
func ClassifySchool(name string) SchoolLevel {
	lower := strings.ToLower(name)
	for _, kw := range primaryKeywords {
		if strings.Contains(lower, kw) {
			return LevelPrimary
		}
	}
	for _, kw := range secondaryKeywords {
		if strings.Contains(lower, kw) {
			return LevelSecondary
		}
	}
	return LevelUnknown
}
