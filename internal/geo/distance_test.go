package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	cardiff = Coordinate{Lat: 51.4816, Lon: -3.1791}
	london  = Coordinate{Lat: 51.5074, Lon: -0.1278}
	paris   = Coordinate{Lat: 48.8566, Lon: 2.3522}
)

func TestHaversineMeters(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Coordinate
		wantKm float64
		tolKm  float64
	}{
		{"same point", cardiff, cardiff, 0, 0},
		{"london paris", london, paris, 343.5, 1},
		{"cardiff london", cardiff, london, 211.5, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			assert.InDelta(t, tt.wantKm, got, tt.tolKm)
		})
	}
}

func TestHaversineSymmetric(t *testing.T) {
	points := []Coordinate{cardiff, london, paris, {Lat: -33.86, Lon: 151.2}, {Lat: 0, Lon: 179.9}}
	for _, a := range points {
		for _, b := range points {
			ab := HaversineMeters(a, b)
			ba := HaversineMeters(b, a)
			if math.Abs(ab-ba) > 1e-6 {
				t.Errorf("haversine(%v,%v)=%f but reverse=%f", a, b, ab, ba)
			}
			if ab < 0 {
				t.Errorf("negative distance %f", ab)
			}
		}
	}
}

func TestPlanarMetersApproximatesGround(t *testing.T) {
	// 500 m north and 500 m east of central Cardiff
	north := Coordinate{Lat: cardiff.Lat + 500.0/111195, Lon: cardiff.Lon}
	east := Coordinate{Lat: cardiff.Lat, Lon: cardiff.Lon + 500.0/(111195*math.Cos(cardiff.Lat*math.Pi/180))}

	for _, target := range []Coordinate{north, east} {
		planar := PlanarMeters(cardiff, target)
		ground := HaversineMeters(cardiff, target)
		assert.InEpsilon(t, ground, planar, 0.01)
	}
}

func TestMercatorOrigin(t *testing.T) {
	x, y := Mercator(Coordinate{})
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)

	_, yPole := Mercator(Coordinate{Lat: 90})
	assert.False(t, math.IsInf(yPole, 0), "latitude is clipped")
}

func TestNearestIndex(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		idx, d := NearestIndex(cardiff, nil)
		assert.Equal(t, -1, idx)
		assert.Zero(t, d)
	})

	t.Run("closest wins", func(t *testing.T) {
		targets := []Coordinate{london, {Lat: 51.49, Lon: -3.18}, paris}
		idx, d := NearestIndex(cardiff, targets)
		assert.Equal(t, 1, idx)
		assert.Less(t, d, 1500.0)
	})

	t.Run("first of equals wins", func(t *testing.T) {
		p := Coordinate{Lat: 51.49, Lon: -3.18}
		idx, _ := NearestIndex(cardiff, []Coordinate{london, p, p})
		assert.Equal(t, 1, idx)
	})
}

func TestNearestIndexBy(t *testing.T) {
	t.Run("uses the given metric", func(t *testing.T) {
		far := func(a, b Coordinate) float64 { return -HaversineMeters(a, b) }
		idx, _ := NearestIndexBy(cardiff, []Coordinate{{Lat: 51.49, Lon: -3.18}, paris, london}, far)
		assert.Equal(t, 1, idx)
	})

	t.Run("NaN distances are skipped", func(t *testing.T) {
		nan := Coordinate{Lat: math.NaN(), Lon: math.NaN()}
		idx, d := NearestIndexBy(nan, []Coordinate{london, paris}, HaversineMeters)
		assert.Equal(t, -1, idx)
		assert.Zero(t, d)
	})
}
