package blame

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/source"
)

// CacheStats reports cache activity since the last Reset.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Fills  int64 `json:"fills"`
}

// Cache memoizes parsed attributions keyed by (revision, path).
//
// Thread-safety: Get may be called from any goroutine. Concurrent misses
// on the same key are collapsed into one source call via singleflight.
// Returned slices are shared and must not be modified.
type Cache struct {
	src source.AttributionSource

	mu      sync.RWMutex
	entries map[ir.RevPath][]ir.AttributionLine
	flight  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	fills  atomic.Int64
}

// NewCache creates an empty cache over src.
func NewCache(src source.AttributionSource) *Cache {
	return &Cache{
		src:     src,
		entries: make(map[ir.RevPath][]ir.AttributionLine),
	}
}

// Get returns the attribution of the file at.Path at revision at.Rev.
//
// Source errors are returned unchanged and are not cached, so a later call
// asks the source again. Parse errors are wrapped with the key.
func (c *Cache) Get(ctx context.Context, at ir.RevPath) ([]ir.AttributionLine, error) {
	if lines, ok := c.lookup(at); ok {
		c.hits.Add(1)
		return lines, nil
	}
	c.misses.Add(1)

	v, err, _ := c.flight.Do(at.FlightKey(), func() (interface{}, error) {
		// Another flight may have filled the key between lookup and Do.
		if lines, ok := c.lookup(at); ok {
			return lines, nil
		}

		text, err := c.src.Blame(ctx, at)
		if err != nil {
			return nil, err
		}
		lines, err := Parse(strings.NewReader(text))
		if err != nil {
			return nil, fmt.Errorf("parse blame of %s: %w", at, err)
		}

		c.mu.Lock()
		c.entries[at] = lines
		c.mu.Unlock()
		c.fills.Add(1)
		return lines, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ir.AttributionLine), nil
}

// Reset drops every entry and zeroes the stats.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[ir.RevPath][]ir.AttributionLine)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
	c.fills.Store(0)
}

// Len returns the number of cached attributions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Fills:  c.fills.Load(),
	}
}

func (c *Cache) lookup(at ir.RevPath) ([]ir.AttributionLine, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lines, ok := c.entries[at]
	return lines, ok
}
