package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultLRUSize is the entry bound used when none is configured.
const DefaultLRUSize = 1024

// LRU is a bounded in-memory Store. The least recently used entry is
// evicted once the size bound is reached. It is safe for concurrent use.
type LRU struct {
	mu      sync.Mutex
	size    int
	ll      *list.List
	entries map[string]*list.Element
	now     func() time.Time
}

type lruEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewLRU creates an LRU holding at most size entries.
func NewLRU(size int) *LRU {
	if size <= 0 {
		size = DefaultLRUSize
	}
	return &LRU{
		size:    size,
		ll:      list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get implements Store.
func (c *LRU) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	e := el.Value.(*lruEntry)
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.remove(el)
		return nil, ErrCacheMiss
	}
	c.ll.MoveToFront(el)
	return e.value, nil
}

// Set implements Store. A non-positive ttl never expires.
func (c *LRU) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*lruEntry)
		e.value = value
		e.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return nil
	}

	c.entries[key] = c.ll.PushFront(&lruEntry{key: key, value: value, expiresAt: expiresAt})
	for c.ll.Len() > c.size {
		c.remove(c.ll.Back())
	}
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *LRU) remove(el *list.Element) {
	c.ll.Remove(el)
	delete(c.entries, el.Value.(*lruEntry).key)
}
