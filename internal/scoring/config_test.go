package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/homescore/homescore/internal/amenity"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{ReferenceKm: map[amenity.Category]float64{amenity.CategorySchool: 5, amenity.CategoryHospital: -1}}.withDefaults()

	assert.Equal(t, DefaultCandidateCount, cfg.CandidateCount)
	assert.Equal(t, DefaultTopN, cfg.TopN)
	assert.Equal(t, DefaultTransitWeight, cfg.TransitWeight)
	assert.Equal(t, DefaultTravelWeight, cfg.TravelWeight)
	assert.Equal(t, DefaultMaxAcceptableMinutes, cfg.MaxAcceptableMinutes)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, DefaultDeadline, cfg.Deadline)
	assert.NotNil(t, cfg.Decay)

	assert.Equal(t, 5.0, cfg.ReferenceKm[amenity.CategorySchool])
	assert.Equal(t, 3.0, cfg.ReferenceKm[amenity.CategoryHospital])
	assert.Equal(t, 1.0, cfg.ReferenceKm[amenity.CategorySupermarket])
}

func TestConfig_NegativeDeadlineDisables(t *testing.T) {
	cfg := Config{Deadline: -time.Second}.withDefaults()
	assert.Negative(t, cfg.Deadline)
}

func TestWeights_Active(t *testing.T) {
	cats, sum := DefaultWeights().Active()
	assert.Equal(t, []amenity.Category{amenity.CategorySchool, amenity.CategoryHospital, amenity.CategorySupermarket}, cats)
	assert.Equal(t, 40, sum)

	cats, sum = Weights{amenity.CategorySchool: 0}.Active()
	assert.Empty(t, cats)
	assert.Zero(t, sum)
}

func TestParseWeights(t *testing.T) {
	tests := []struct {
		name         string
		raw          map[string]any
		want         Weights
		wantWarnings int
	}{
		{
			name: "nil uses defaults",
			raw:  nil,
			want: DefaultWeights(),
		},
		{
			name: "supplied set replaces defaults",
			raw:  map[string]any{"school": 30.0, "cafe": 5.0},
			want: Weights{amenity.CategorySchool: 30, amenity.CategoryCafe: 5},
		},
		{
			name:         "non numeric falls back to category default",
			raw:          map[string]any{"hospital": "lots", "school": "20"},
			want:         Weights{amenity.CategoryHospital: 15, amenity.CategorySchool: 20},
			wantWarnings: 1,
		},
		{
			name:         "out of range falls back",
			raw:          map[string]any{"supermarket": 250.0, "school": -1.0},
			want:         Weights{amenity.CategorySupermarket: 10, amenity.CategorySchool: 15},
			wantWarnings: 2,
		},
		{
			name:         "unknown category ignored",
			raw:          map[string]any{"pub": 50.0, "School ": 10.0},
			want:         Weights{amenity.CategorySchool: 10},
			wantWarnings: 1,
		},
		{
			name:         "unsupported type falls back",
			raw:          map[string]any{"school": true},
			want:         Weights{amenity.CategorySchool: 15},
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := ParseWeights(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Len(t, warnings, tt.wantWarnings)
		})
	}
}
