package openrouteservice

// orsRequest is the directions request body.
type orsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
	Geometry     bool        `json:"geometry"`
	Units        string      `json:"units"`
}

// orsResponse is the JSON directions response.
type orsResponse struct {
	Routes []orsRoute `json:"routes"`
}

type orsRoute struct {
	Summary  routeSummary   `json:"summary"`
	Segments []routeSegment `json:"segments,omitempty"`
}

type routeSummary struct {
	Distance float64 `json:"distance"` // metres
	Duration float64 `json:"duration"` // seconds
}

type routeSegment struct {
	Steps []routeStep `json:"steps,omitempty"`
}

type routeStep struct {
	Distance float64 `json:"distance"`
	Name     string  `json:"name"`
}

type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ORS error codes that mean the points cannot be connected.
const (
	orsErrorCodeRouteNotFound = 2009
	orsErrorCodePointNotFound = 2010
)
