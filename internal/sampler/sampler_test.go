package sampler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/sampler"
)

func cityPolygon(t *testing.T) *geo.Polygon {
	t.Helper()
	poly, err := geo.NewPolygon([]geo.Coordinate{
		{Lat: 51.44, Lon: -3.25},
		{Lat: 51.44, Lon: -3.10},
		{Lat: 51.54, Lon: -3.10},
		{Lat: 51.54, Lon: -3.25},
	})
	require.NoError(t, err)
	return poly
}

// A thin triangle covering a small share of its bounding box.
func sliverPolygon(t *testing.T) *geo.Polygon {
	t.Helper()
	poly, err := geo.NewPolygon([]geo.Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 1, Lon: 1},
		{Lat: 1, Lon: 0.99},
	})
	require.NoError(t, err)
	return poly
}

func TestSampleInsidePolygon(t *testing.T) {
	poly := cityPolygon(t)
	s := sampler.NewSeeded(42)

	for _, count := range []int{1, 5, 20, 100} {
		points := s.Sample(poly, count)
		assert.LessOrEqual(t, len(points), count)
		for _, p := range points {
			assert.True(t, poly.Contains(p), "point %v outside polygon", p)
		}
	}
}

func TestSampleFillsConvexPolygon(t *testing.T) {
	points := sampler.NewSeeded(7).Sample(cityPolygon(t), 20)
	assert.Len(t, points, 20)
}

func TestSampleBudgetExhausted(t *testing.T) {
	poly := sliverPolygon(t)
	points := sampler.NewSeeded(1).Sample(poly, 50)

	assert.Less(t, len(points), 50)
	for _, p := range points {
		assert.True(t, poly.Contains(p))
	}
}

func TestSampleDeterministicForSeed(t *testing.T) {
	poly := cityPolygon(t)
	a := sampler.NewSeeded(99).Sample(poly, 10)
	b := sampler.NewSeeded(99).Sample(poly, 10)
	assert.Equal(t, a, b)
}

func TestSampleDegenerateInput(t *testing.T) {
	s := sampler.NewSeeded(3)
	assert.Empty(t, s.Sample(nil, 10))
	assert.Empty(t, s.Sample(cityPolygon(t), 0))
	assert.Empty(t, s.Sample(cityPolygon(t), -1))
}
