package routing

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/homescore/homescore/internal/geo"
)

// MemoConfig configures the travel-time memo.
type MemoConfig struct {
	// TimeBucket groups departure times that share a cached duration.
	// Default: 1 hour.
	TimeBucket time.Duration

	// GridSize quantizes coordinates in degrees. Default: 0.0001 (~11 m).
	GridSize float64

	// CleanupInterval is how often expired buckets are dropped. Default: 10 minutes.
	CleanupInterval time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Memo caches provider durations for the process lifetime with
// compute-once semantics: concurrent lookups of the same key share a single
// provider call. Successes and definitive "no route" answers are cached;
// transient failures are not.
type Memo struct {
	group           singleflight.Group
	bucket          time.Duration
	gridSize        float64
	cleanupInterval time.Duration
	now             func() time.Time

	mu          sync.RWMutex
	entries     map[string]memoEntry
	lastCleanup time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type memoEntry struct {
	minutes   float64
	err       error
	expiresAt time.Time
}

// NewMemo creates a travel-time memo.
func NewMemo(cfg MemoConfig) *Memo {
	if cfg.TimeBucket <= 0 {
		cfg.TimeBucket = time.Hour
	}
	if cfg.GridSize <= 0 {
		cfg.GridSize = 0.0001
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Memo{
		bucket:          cfg.TimeBucket,
		gridSize:        cfg.GridSize,
		cleanupInterval: cfg.CleanupInterval,
		now:             cfg.Now,
		entries:         make(map[string]memoEntry),
		lastCleanup:     cfg.Now(),
	}
}

// Key builds the memo key for a profile, coordinate pair and the current
// time bucket. Coordinates are keyed by grid cell index, so any grid size
// yields distinct keys for distinct cells.
func (m *Memo) Key(profile RouteProfile, origin, dest geo.Coordinate) string {
	return fmt.Sprintf("%s:%d,%d:%d,%d:%d",
		profile,
		m.cell(origin.Lat), m.cell(origin.Lon),
		m.cell(dest.Lat), m.cell(dest.Lon),
		m.now().Truncate(m.bucket).Unix(),
	)
}

// Do returns the cached duration for key, computing it with fetch at most
// once across concurrent callers.
func (m *Memo) Do(key string, fetch func() (float64, error)) (float64, error) {
	if e, ok := m.lookup(key); ok {
		m.hits.Add(1)
		return e.minutes, e.err
	}

	v, _, _ := m.group.Do(key, func() (any, error) {
		if e, ok := m.lookup(key); ok {
			return e, nil
		}
		m.misses.Add(1)

		minutes, err := fetch()
		e := memoEntry{minutes: minutes, err: err}
		if err == nil || errors.Is(err, ErrNoRouteFound) {
			m.store(key, e)
		}
		return e, nil
	})

	e := v.(memoEntry)
	return e.minutes, e.err
}

func (m *Memo) lookup(key string) (memoEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expiresAt) {
		return memoEntry{}, false
	}
	return e, true
}

func (m *Memo) store(key string, e memoEntry) {
	now := m.now()
	e.expiresAt = now.Truncate(m.bucket).Add(m.bucket)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e

	if now.Sub(m.lastCleanup) < m.cleanupInterval {
		return
	}
	m.lastCleanup = now
	for k, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// cell returns the index of the grid cell containing v.
func (m *Memo) cell(v float64) int64 {
	return int64(math.Round(v / m.gridSize))
}

// MemoStats reports memo usage.
type MemoStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// Stats returns current memo statistics.
func (m *Memo) Stats() MemoStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MemoStats{
		Entries: len(m.entries),
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
	}
}
