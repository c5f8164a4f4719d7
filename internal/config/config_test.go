package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescore/homescore/internal/scoring"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10*time.Second, cfg.ORS.Timeout)
	assert.Equal(t, 15*time.Second, cfg.OTP.Timeout)
	assert.Equal(t, "default", cfg.OTP.Router)
	assert.Equal(t, "https://api.postcodes.io", cfg.Postcodes.BaseURL)
	assert.InDelta(t, 1.0, cfg.OSM.RequestsPerSecond, 1e-9)
	assert.Equal(t, 1024, cfg.Cache.Size)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, scoring.DefaultCandidateCount, cfg.Scoring.CandidateCount)
	assert.Equal(t, scoring.DefaultDeadline, cfg.Scoring.Deadline)
	assert.Equal(t, time.Hour, cfg.Routing.TimeBucket)
	assert.InDelta(t, 500.0, cfg.Transit.MaxStopDistance, 1e-9)
	assert.Equal(t, 6*time.Hour, cfg.Worker.Interval)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
scoring:
  candidate_count: 40
  deadline: 5s
worker:
  cities:
    - Cardiff, UK
    - Bristol, UK
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 40, cfg.Scoring.CandidateCount)
	assert.Equal(t, 5*time.Second, cfg.Scoring.Deadline)
	assert.Equal(t, []string{"Cardiff, UK", "Bristol, UK"}, cfg.Worker.Cities)
	assert.Equal(t, scoring.DefaultTopN, cfg.Scoring.TopN)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("HOMESCORE_SERVER_PORT", "7070")
	t.Setenv("HOMESCORE_ORS_API_KEY", "ors-key")
	t.Setenv("HOMESCORE_REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "ors-key", cfg.ORS.APIKey)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestScoringConfig_Engine(t *testing.T) {
	cfg := ScoringConfig{CandidateCount: 30, TopN: 3, Deadline: time.Second}.Engine()
	assert.Equal(t, 30, cfg.CandidateCount)
	assert.Equal(t, 3, cfg.TopN)
	assert.Equal(t, time.Second, cfg.Deadline)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("city", "Cardiff").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"city":"Cardiff"`)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNewLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
