// Package routing resolves travel times between points across transport
// modes, with fallback and memoization over pluggable routing providers.
package routing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/homescore/homescore/internal/geo"
)

var (
	// ErrProviderUnavailable indicates the provider is down or its breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no route exists between the points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the provider quota was exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates coordinates outside WGS84 range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Mode is a caller-facing transport mode.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeDriving Mode = "driving"
	ModeCycling Mode = "cycling"
	ModeWalking Mode = "walking"
	ModeBus     Mode = "bus"
)

// ConcreteModes lists the modes auto resolution compares, in tie-break order.
var ConcreteModes = []Mode{ModeDriving, ModeCycling, ModeWalking, ModeBus}

// busFallback is tried in order when no transit route exists.
var busFallback = []Mode{ModeDriving, ModeCycling, ModeWalking}

// ParseMode maps user input to a Mode. Unknown input reports false.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, true
	case "driving", "drive", "car":
		return ModeDriving, true
	case "cycling", "cycle", "bike", "bicycle":
		return ModeCycling, true
	case "walking", "walk", "foot":
		return ModeWalking, true
	case "bus", "transit", "public_transport":
		return ModeBus, true
	default:
		return "", false
	}
}

// Profile returns the routing profile serving a concrete mode.
func (m Mode) Profile() RouteProfile {
	switch m {
	case ModeDriving:
		return ProfileDriving
	case ModeCycling:
		return ProfileCycling
	case ModeWalking:
		return ProfileWalking
	case ModeBus:
		return ProfileTransit
	default:
		return ""
	}
}

// RouteProfile is a provider-level routing profile.
type RouteProfile string

const (
	ProfileDriving RouteProfile = "driving-car"
	ProfileCycling RouteProfile = "cycling-regular"
	ProfileWalking RouteProfile = "foot-walking"
	ProfileTransit RouteProfile = "transit"
)

// Provider defines the interface for routing providers.
type Provider interface {
	// GetDirections returns routes between two points for one profile.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
	// SupportedProfiles returns the profiles this provider serves.
	SupportedProfiles() []RouteProfile
}

// DirectionsRequest is a single routing query.
type DirectionsRequest struct {
	Origin      geo.Coordinate
	Destination geo.Coordinate
	Profile     RouteProfile
	// DepartAt is used by schedule-based providers.
	DepartAt time.Time
}

// DirectionsResponse is the provider's answer. Routes are ordered by
// provider preference.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is a single route option.
type Route struct {
	DistanceMeters  int
	DurationSeconds int
	Summary         string
	Transfers       int
}

// Fastest returns the route with the lowest duration.
func (r *DirectionsResponse) Fastest() (Route, bool) {
	if r == nil || len(r.Routes) == 0 {
		return Route{}, false
	}
	best := r.Routes[0]
	for _, route := range r.Routes[1:] {
		if route.DurationSeconds < best.DurationSeconds {
			best = route
		}
	}
	return best, true
}

// Error provides detailed error information from a routing provider.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports transient failures.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
