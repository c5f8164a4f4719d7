package scoring

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/homescore/homescore/internal/scoring"

// Component names used in degraded-component metrics.
const (
	componentBoundary = "boundary"
	componentAmenity  = "amenity"
	componentArea     = "area"
	componentGeocode  = "geocode"
	componentTransit  = "transit"
	componentTravel   = "travel"
)

type metrics struct {
	requestDuration  metric.Float64Histogram
	candidatesScored metric.Int64Counter
	degraded         metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"scoring.request.duration",
		metric.WithDescription("Duration of location scoring runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	candidatesScored, err := meter.Int64Counter(
		"scoring.candidates.scored",
		metric.WithDescription("Number of candidate locations scored"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return nil, err
	}

	degraded, err := meter.Int64Counter(
		"scoring.component.degraded",
		metric.WithDescription("Score components omitted because their data was unavailable"),
		metric.WithUnit("{component}"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		requestDuration:  requestDuration,
		candidatesScored: candidatesScored,
		degraded:         degraded,
	}, nil
}

func (m *metrics) recordRequest(ctx context.Context, start time.Time, scored int) {
	m.requestDuration.Record(ctx, time.Since(start).Seconds())
	m.candidatesScored.Add(ctx, int64(scored))
}

func (m *metrics) recordDegraded(ctx context.Context, component string) {
	m.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("component", component)))
}
