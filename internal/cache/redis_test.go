package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to REDIS_ADDR (default localhost:6379) and skips
// the test when Redis is not reachable.
func newTestRedis(t *testing.T) *Redis {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	r, err := NewRedis(ctx, RedisConfig{Addr: addr, Prefix: "homescore-test:" + uuid.NewString() + ":"})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRedis_GetSet(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	_, err := r.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, r.Set(ctx, "boundary:cardiff", []byte(`{"type":"Polygon"}`), time.Minute))
	got, err := r.Get(ctx, "boundary:cardiff")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Polygon"}`, string(got))
}

func TestRedis_TTL(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "short", []byte("x"), 100*time.Millisecond))
	time.Sleep(250 * time.Millisecond)

	_, err := r.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := NewRedis(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
