package transit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/homescore/homescore/internal/geo"
)

// Querier is the subset of pgxpool.Pool used by the repository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository reads a GTFS feed imported into PostgreSQL using the
// standard table layout (stops, routes, trips, stop_times).
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository creates a repository over db.
func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// StopsWithin implements Repository.
func (r *PostgresRepository) StopsWithin(ctx context.Context, box geo.BoundingBox) ([]Stop, error) {
	query := `
		SELECT stop_id, COALESCE(stop_name, ''), stop_lat, stop_lon
		FROM stops
		WHERE stop_lat BETWEEN $1 AND $2
		  AND stop_lon BETWEEN $3 AND $4
	`

	rows, err := r.db.Query(ctx, query, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepositoryUnavailable, err)
	}
	defer rows.Close()

	var stops []Stop
	for rows.Next() {
		var s Stop
		if err := rows.Scan(&s.ID, &s.Name, &s.Location.Lat, &s.Location.Lon); err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stops: %w", err)
	}

	return stops, nil
}

// RoutesForStop implements Repository.
func (r *PostgresRepository) RoutesForStop(ctx context.Context, stopID string) ([]Route, error) {
	query := `
		SELECT DISTINCT r.route_id, COALESCE(r.route_short_name, ''), COALESCE(r.route_long_name, '')
		FROM routes r
		JOIN trips t ON t.route_id = r.route_id
		JOIN stop_times st ON st.trip_id = t.trip_id
		WHERE st.stop_id = $1
		ORDER BY r.route_id
	`

	rows, err := r.db.Query(ctx, query, stopID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepositoryUnavailable, err)
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var route Route
		if err := rows.Scan(&route.ID, &route.ShortName, &route.LongName); err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating routes: %w", err)
	}

	return routes, nil
}

// EnsureIndexes creates the lookup indexes the queries above rely on.
func (r *PostgresRepository) EnsureIndexes(ctx context.Context) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_stops_lat_lon ON stops (stop_lat, stop_lon)`,
		`CREATE INDEX IF NOT EXISTS idx_stop_times_stop_id ON stop_times (stop_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trips_route_id ON trips (route_id)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}
