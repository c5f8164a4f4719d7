// Package config loads service configuration from an optional config.yaml
// and HOMESCORE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/homescore/homescore/internal/database"
	"github.com/homescore/homescore/internal/scoring"
)

// EnvPrefix prefixes every environment override, e.g. HOMESCORE_SERVER_PORT.
const EnvPrefix = "HOMESCORE"

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	ORS       ORSConfig       `mapstructure:"ors"`
	OTP       OTPConfig       `mapstructure:"otp"`
	Postcodes PostcodesConfig `mapstructure:"postcodes"`
	Nominatim NominatimConfig `mapstructure:"nominatim"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	OSM       OSMConfig       `mapstructure:"osm"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  database.Config `mapstructure:"database"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Transit   TransitConfig   `mapstructure:"transit"`
	Schools   SchoolsConfig   `mapstructure:"schools"`
	OTel      OTelConfig      `mapstructure:"otel"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ORSConfig configures OpenRouteService road routing.
type ORSConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OTPConfig configures OpenTripPlanner transit routing. An empty BaseURL
// disables bus routing, so bus preferences fall back to road modes.
type OTPConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Router  string        `mapstructure:"router"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PostcodesConfig configures postcodes.io.
type PostcodesConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// NominatimConfig configures city boundary lookups.
type NominatimConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// OverpassConfig configures amenity and area lookups.
type OverpassConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OSMConfig holds settings shared by the OpenStreetMap clients.
type OSMConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// CacheConfig configures the lookup cache.
type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// RedisConfig configures the shared cache. An empty Addr keeps caching
// in-process.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// ScoringConfig tunes the scoring engine.
type ScoringConfig struct {
	CandidateCount       int           `mapstructure:"candidate_count"`
	TopN                 int           `mapstructure:"top_n"`
	TransitWeight        float64       `mapstructure:"transit_weight"`
	TravelWeight         float64       `mapstructure:"travel_weight"`
	MaxAcceptableMinutes float64       `mapstructure:"max_acceptable_minutes"`
	Concurrency          int           `mapstructure:"concurrency"`
	Deadline             time.Duration `mapstructure:"deadline"`
}

// Engine converts the settings to a scoring.Config. Non-positive values
// take the engine defaults.
func (s ScoringConfig) Engine() scoring.Config {
	return scoring.Config{
		CandidateCount:       s.CandidateCount,
		TopN:                 s.TopN,
		TransitWeight:        s.TransitWeight,
		TravelWeight:         s.TravelWeight,
		MaxAcceptableMinutes: s.MaxAcceptableMinutes,
		Concurrency:          s.Concurrency,
		Deadline:             s.Deadline,
	}
}

// RoutingConfig configures travel-time resolution.
type RoutingConfig struct {
	TimeBucket time.Duration `mapstructure:"time_bucket"`
}

// TransitConfig configures transit accessibility scoring.
type TransitConfig struct {
	MaxStopDistance float64       `mapstructure:"max_stop_distance"`
	RoutesTTL       time.Duration `mapstructure:"routes_ttl"`
}

// SchoolsConfig locates the top-rated school list.
type SchoolsConfig struct {
	TopRatedFile string `mapstructure:"top_rated_file"`
}

// OTelConfig configures OpenTelemetry export.
type OTelConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	// SampleRatio is the fraction of root spans recorded.
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// PubSubConfig configures the worker's job subscription.
type PubSubConfig struct {
	ProjectID    string `mapstructure:"project_id"`
	Subscription string `mapstructure:"subscription"`
}

// WorkerConfig configures cache warming.
type WorkerConfig struct {
	Cities      []string      `mapstructure:"cities"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Interval    time.Duration `mapstructure:"interval"`
	HealthPort  int           `mapstructure:"health_port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ors.base_url", "https://api.openrouteservice.org")
	v.SetDefault("ors.api_key", "")
	v.SetDefault("ors.timeout", "10s")
	v.SetDefault("otp.base_url", "")
	v.SetDefault("otp.router", "default")
	v.SetDefault("otp.timeout", "15s")
	v.SetDefault("postcodes.base_url", "https://api.postcodes.io")
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "homescore/1.0")
	v.SetDefault("overpass.base_url", "https://overpass-api.de")
	v.SetDefault("overpass.timeout", "60s")
	v.SetDefault("osm.requests_per_second", 1.0)

	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "homescore:")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "homescore")
	v.SetDefault("database.password", "localdev")
	v.SetDefault("database.name", "homescore")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("scoring.candidate_count", scoring.DefaultCandidateCount)
	v.SetDefault("scoring.top_n", scoring.DefaultTopN)
	v.SetDefault("scoring.transit_weight", scoring.DefaultTransitWeight)
	v.SetDefault("scoring.travel_weight", scoring.DefaultTravelWeight)
	v.SetDefault("scoring.max_acceptable_minutes", scoring.DefaultMaxAcceptableMinutes)
	v.SetDefault("scoring.concurrency", scoring.DefaultConcurrency)
	v.SetDefault("scoring.deadline", scoring.DefaultDeadline.String())

	v.SetDefault("routing.time_bucket", "1h")
	v.SetDefault("transit.max_stop_distance", 500.0)
	v.SetDefault("transit.routes_ttl", "6h")
	v.SetDefault("schools.top_rated_file", "")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4317")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.subscription", "homescore-jobs")

	v.SetDefault("worker.cities", []string{})
	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.timeout", "2m")
	v.SetDefault("worker.interval", "6h")
	v.SetDefault("worker.health_port", 8081)
}

// Load reads ./config.yaml when present, then environment overrides.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path, or from ./config.yaml when path
// is empty. A missing default file is not an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &cfg, nil
}
