package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore/internal/amenity"
	"github.com/homescore/homescore/internal/area"
	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/osm"
	"github.com/homescore/homescore/internal/worker"
)

type fakeOSM struct {
	mu         sync.Mutex
	boundaries []string
	areaBoxes  []geo.BoundingBox
	amenities  map[string][]amenity.Category

	missingCity string
	failCat     amenity.Category
}

func newFakeOSM() *fakeOSM {
	return &fakeOSM{amenities: make(map[string][]amenity.Category)}
}

func (f *fakeOSM) Boundary(_ context.Context, city string) (*geo.Polygon, error) {
	f.mu.Lock()
	f.boundaries = append(f.boundaries, city)
	f.mu.Unlock()
	if city == f.missingCity {
		return nil, osm.ErrCityNotFound
	}
	return geo.NewPolygon([]geo.Coordinate{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 1, Lon: 0},
	})
}

func (f *fakeOSM) Areas(_ context.Context, box geo.BoundingBox) ([]area.Area, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.areaBoxes = append(f.areaBoxes, box)
	return nil, nil
}

func (f *fakeOSM) Amenities(_ context.Context, city string, cat amenity.Category) ([]amenity.Amenity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amenities[city] = append(f.amenities[city], cat)
	if cat == f.failCat {
		return nil, osm.ErrProviderUnavailable
	}
	return nil, nil
}

func newJob(f *fakeOSM, cfg worker.WarmConfig) *worker.WarmJob {
	return worker.NewWarmJob(worker.WarmJobConfig{
		Config:     cfg,
		Logger:     zerolog.Nop(),
		Boundaries: f,
		Areas:      f,
		Amenities:  f,
	})
}

func TestDefaultWarmConfig(t *testing.T) {
	cfg := worker.DefaultWarmConfig()

	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, amenity.Categories, cfg.Categories)
	assert.Contains(t, cfg.Cities, "Cardiff")
}

func TestWarmJob_Run(t *testing.T) {
	f := newFakeOSM()
	job := newJob(f, worker.WarmConfig{Cities: []string{"Cardiff", "Bristol"}})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.TotalCities)
	assert.Equal(t, 2, result.Successful)
	assert.Zero(t, result.Failed)
	assert.Empty(t, result.Errors)
	assert.ElementsMatch(t, []string{"Cardiff", "Bristol"}, f.boundaries)
	assert.Len(t, f.areaBoxes, 2)
	assert.Equal(t, geo.BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}, f.areaBoxes[0])
	assert.ElementsMatch(t, amenity.Categories, f.amenities["Cardiff"])

	m := job.GetMetrics()
	assert.Equal(t, int64(1), m.TotalRuns)
	assert.Equal(t, int64(2), m.CitiesWarmed)
	assert.Equal(t, int64(2*len(amenity.Categories)), m.AmenityFetches)
	assert.Equal(t, int64(2), job.MetricsSnapshot()["cities_warmed"])
}

func TestWarmJob_Run_ExplicitCities(t *testing.T) {
	f := newFakeOSM()
	job := newJob(f, worker.WarmConfig{Cities: []string{"Cardiff"}})

	result := job.Run(context.Background(), "Leeds")

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, []string{"Leeds"}, f.boundaries)
}

func TestWarmJob_Run_Failures(t *testing.T) {
	f := newFakeOSM()
	f.missingCity = "Atlantis"
	f.failCat = amenity.CategoryCafe
	job := newJob(f, worker.WarmConfig{
		Cities:     []string{"Atlantis", "Cardiff"},
		Categories: []amenity.Category{amenity.CategorySchool, amenity.CategoryCafe},
	})

	result := job.Run(context.Background())

	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, worker.WarmError{City: "Atlantis", Stage: worker.StageBoundary, Error: osm.ErrCityNotFound.Error()}, result.Errors[0])
	assert.Equal(t, worker.StageAmenity, result.Errors[1].Stage)
	assert.Equal(t, amenity.CategoryCafe, result.Errors[1].Category)

	// Areas and amenities are not fetched without a boundary.
	assert.Empty(t, f.amenities["Atlantis"])
}

func TestWarmJob_Run_CancelledContext(t *testing.T) {
	f := newFakeOSM()
	job := newJob(f, worker.WarmConfig{Cities: []string{"Cardiff"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := job.Run(ctx)

	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, f.boundaries)
}

func TestWarmJob_Check(t *testing.T) {
	f := newFakeOSM()
	job := newJob(f, worker.WarmConfig{Cities: []string{"Cardiff"}})
	require.NoError(t, job.Check(context.Background()))

	f.missingCity = "Cardiff"
	err := job.Check(context.Background())
	assert.ErrorIs(t, err, osm.ErrCityNotFound)

	empty := worker.NewWarmJob(worker.WarmJobConfig{})
	assert.ErrorIs(t, empty.Check(context.Background()), worker.ErrNoProviders)
	assert.Equal(t, 1, empty.Run(context.Background(), "Cardiff").Failed)
}

func TestProcessor_Process(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		missing string
		wantAck bool
	}{
		{name: "cache warm", data: `{"job_type":"cache_warm","cities":["Cardiff"]}`, wantAck: true},
		{name: "cache warm failure", data: `{"job_type":"cache_warm","cities":["Atlantis"]}`, missing: "Atlantis", wantAck: false},
		{name: "health check", data: `{"job_type":"health_check"}`, wantAck: true},
		{name: "health check failure", data: `{"job_type":"health_check"}`, missing: "Cardiff", wantAck: false},
		{name: "unknown job", data: `{"job_type":"reindex"}`, wantAck: true},
		{name: "malformed", data: `{`, wantAck: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeOSM()
			f.missingCity = tt.missing
			p := worker.NewProcessor(newJob(f, worker.WarmConfig{Cities: []string{"Cardiff"}}), zerolog.Nop())

			assert.Equal(t, tt.wantAck, p.Process(context.Background(), []byte(tt.data)))
		})
	}
}

func TestProcessor_WarmUsesMessageCities(t *testing.T) {
	f := newFakeOSM()
	p := worker.NewProcessor(newJob(f, worker.WarmConfig{Cities: []string{"Cardiff"}}), zerolog.Nop())

	require.True(t, p.Process(context.Background(), []byte(`{"job_type":"cache_warm","cities":["Bristol","Leeds"]}`)))
	assert.ElementsMatch(t, []string{"Bristol", "Leeds"}, f.boundaries)
}
