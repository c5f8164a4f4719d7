package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/homescore/homescore/internal/api/models"
)

// RateLimitConfig is a request budget per client over a window.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

var (
	// ScoringRateLimit applies to location scoring, which fans out to every
	// provider (30 req/min).
	ScoringRateLimit = RateLimitConfig{RequestLimit: 30, WindowLength: time.Minute}

	// LookupRateLimit applies to single-provider lookups such as postcodes
	// and travel comparisons (100 req/min).
	LookupRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP. Run it after chi's RealIP so
// forwarded addresses are honoured.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceeded(cfg.WindowLength)),
	)
}

func limitExceeded(window time.Duration) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", retryAfter)
		models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.").
			WithInstance(r.URL.Path).
			Write(w)
	}
}
