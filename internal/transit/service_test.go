package transit_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore/internal/geo"
	"github.com/homescore/homescore/internal/transit"
)

var origin = geo.Coordinate{Lat: 51.4816, Lon: -3.1791}

// north returns a point meters north of origin.
func north(meters float64) geo.Coordinate {
	return geo.Coordinate{Lat: origin.Lat + meters/111194.93, Lon: origin.Lon}
}

func routes(n int) []transit.Route {
	out := make([]transit.Route, n)
	for i := range out {
		out[i] = transit.Route{ID: fmt.Sprintf("r%d", i), ShortName: fmt.Sprintf("%d", i+1)}
	}
	return out
}

func newService(repo transit.Repository) *transit.Service {
	return transit.NewService(transit.ServiceConfig{Repository: repo, Logger: zerolog.Nop()})
}

func TestServiceScore(t *testing.T) {
	tests := []struct {
		name       string
		stopAt     float64
		routeCount int
		want       float64
		wantRoutes int
	}{
		{"adjacent stop three routes", 0, 3, 60, 3},
		{"mid distance many routes capped", 250, 8, 85, 8},
		{"edge of range", 499, 1, 10.1, 1},
		{"out of range", 600, 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := transit.NewMemoryRepository()
			repo.AddStop(transit.Stop{ID: "s1", Name: "Queen Street", Location: north(tt.stopAt)}, routes(tt.routeCount)...)

			score, err := newService(repo).Score(context.Background(), origin)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, score.Score, 0.05)
			assert.Len(t, score.AccessibleRoutes, tt.wantRoutes)
			assert.GreaterOrEqual(t, score.Score, 0.0)
			assert.LessOrEqual(t, score.Score, 100.0)
		})
	}
}

func TestServiceScoreEmptyRepository(t *testing.T) {
	score, err := newService(transit.NewMemoryRepository()).Score(context.Background(), origin)
	require.NoError(t, err)
	assert.Zero(t, score.Score)
	assert.Nil(t, score.NearestStop)
	assert.NotNil(t, score.AccessibleRoutes)
}

func TestServiceScoreUnservedStop(t *testing.T) {
	repo := transit.NewMemoryRepository()
	repo.AddStop(transit.Stop{ID: "s1", Name: "Disused Halt", Location: origin})

	score, err := newService(repo).Score(context.Background(), origin)
	require.NoError(t, err)
	assert.Zero(t, score.Score)
	assert.NotNil(t, score.AccessibleRoutes)
	assert.Empty(t, score.AccessibleRoutes)
	require.NotNil(t, score.NearestStop)
	assert.Equal(t, "s1", score.NearestStop.ID)
}

func TestServiceScorePicksNearestStop(t *testing.T) {
	repo := transit.NewMemoryRepository()
	repo.AddStop(transit.Stop{ID: "far", Location: north(400)}, routes(7)...)
	repo.AddStop(transit.Stop{ID: "near", Location: north(50)}, transit.Route{ID: "x", LongName: "Cardiff Bay Express"})

	score, err := newService(repo).Score(context.Background(), origin)
	require.NoError(t, err)
	require.NotNil(t, score.NearestStop)
	assert.Equal(t, "near", score.NearestStop.ID)
	require.Len(t, score.AccessibleRoutes, 1)
	assert.Equal(t, "Cardiff Bay Express", score.AccessibleRoutes[0].Name)
	assert.InDelta(t, 37.0, score.Score, 0.05)
}

type countingRepo struct {
	*transit.MemoryRepository
	routeCalls int
	stopsErr   error
}

func (c *countingRepo) StopsWithin(ctx context.Context, box geo.BoundingBox) ([]transit.Stop, error) {
	if c.stopsErr != nil {
		return nil, c.stopsErr
	}
	return c.MemoryRepository.StopsWithin(ctx, box)
}

func (c *countingRepo) RoutesForStop(ctx context.Context, id string) ([]transit.Route, error) {
	c.routeCalls++
	return c.MemoryRepository.RoutesForStop(ctx, id)
}

func TestServiceCachesRoutesPerStop(t *testing.T) {
	repo := &countingRepo{MemoryRepository: transit.NewMemoryRepository()}
	repo.AddStop(transit.Stop{ID: "s1", Location: north(10)}, routes(2)...)
	svc := newService(repo)

	for i := 0; i < 3; i++ {
		_, err := svc.Score(context.Background(), origin)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.routeCalls)

	svc.InvalidateCache()
	_, err := svc.Score(context.Background(), origin)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.routeCalls)
}

func TestServiceRepositoryError(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &countingRepo{MemoryRepository: transit.NewMemoryRepository(), stopsErr: boom}

	_, err := newService(repo).Score(context.Background(), origin)
	assert.ErrorIs(t, err, boom)
}

func TestRouteDisplayName(t *testing.T) {
	assert.Equal(t, "City Circle", transit.Route{ID: "1", ShortName: "C1", LongName: "City Circle"}.DisplayName())
	assert.Equal(t, "Route 61", transit.Route{ID: "1", ShortName: "61"}.DisplayName())
	assert.Equal(t, "Route abc", transit.Route{ID: "abc"}.DisplayName())
}
