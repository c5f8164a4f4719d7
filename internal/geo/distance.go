package geo

import "math"

const (
	// EarthRadiusMeters is the mean Earth radius used by Haversine.
	EarthRadiusMeters = 6371000.0

	// mercatorRadius is the sphere radius of EPSG:3857.
	mercatorRadius = 6378137.0

	// mercatorMaxLat is the latitude where EPSG:3857 is clipped.
	mercatorMaxLat = 85.05112878
)

// HaversineMeters returns the great-circle distance between a and b.
func HaversineMeters(a, b Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// HaversineKm is HaversineMeters in kilometres.
func HaversineKm(a, b Coordinate) float64 {
	return HaversineMeters(a, b) / 1000
}

// Mercator returns the EPSG:3857 projection of c in metres.
func Mercator(c Coordinate) (x, y float64) {
	lat := math.Max(-mercatorMaxLat, math.Min(mercatorMaxLat, c.Lat))
	x = mercatorRadius * toRadians(c.Lon)
	y = mercatorRadius * math.Log(math.Tan(math.Pi/4+toRadians(lat)/2))
	return x, y
}

// PlanarMeters measures the distance between two points in Web Mercator,
// rescaled by the projection's scale factor at the reference latitude so
// the result approximates ground metres at city scale.
func PlanarMeters(ref, target Coordinate) float64 {
	x1, y1 := Mercator(ref)
	x2, y2 := Mercator(target)
	return math.Hypot(x2-x1, y2-y1) * math.Cos(toRadians(ref.Lat))
}

// NearestIndex returns the index of the target closest to point by planar
// distance, and that distance in metres. The first of equally near targets
// wins. It returns -1 when targets is empty.
func NearestIndex(point Coordinate, targets []Coordinate) (int, float64) {
	return NearestIndexBy(point, targets, PlanarMeters)
}

// NearestIndexBy is NearestIndex under the distance function dist. Targets
// whose distance is NaN are never chosen.
func NearestIndexBy(point Coordinate, targets []Coordinate, dist func(a, b Coordinate) float64) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i, t := range targets {
		if d := dist(point, t); d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestDist
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
