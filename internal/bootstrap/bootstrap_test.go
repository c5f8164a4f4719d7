package bootstrap_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore/internal/bootstrap"
	"github.com/homescore/homescore/internal/config"
	"github.com/homescore/homescore/internal/scoring"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	s, err := bootstrap.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.NotNil(t, s.Engine)
	assert.NotNil(t, s.Travel)
	assert.NotNil(t, s.Transit)
	assert.Empty(t, s.Checks)

	// nominatim, overpass, postcodes.io and openrouteservice; OTP is off by default.
	assert.Equal(t, 4, s.Registry.ProviderCount())
	assert.Equal(t, scoring.DefaultCandidateCount, s.Engine.Config().CandidateCount)
}

func TestNew_WithTransitRouting(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.OTP.BaseURL = "http://otp.invalid"

	s, err := bootstrap.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 5, s.Registry.ProviderCount())
}

func TestNew_MissingTopRatedFile(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Schools.TopRatedFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err = bootstrap.New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
