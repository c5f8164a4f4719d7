// Package geocode resolves postcodes to coordinates.
package geocode

import (
	"errors"
	"strings"
)

var (
	// ErrPostcodeNotFound indicates the postcode does not exist.
	ErrPostcodeNotFound = errors.New("postcode not found")
	// ErrInvalidPostcode indicates an empty or malformed postcode.
	ErrInvalidPostcode = errors.New("invalid postcode")
	// ErrProviderUnavailable indicates the geocoding service failed.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
)

// CleanPostcode strips whitespace and upper-cases a postcode.
func CleanPostcode(postcode string) string {
	return strings.ToUpper(strings.Join(strings.Fields(postcode), ""))
}
