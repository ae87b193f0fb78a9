package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/hyperblame/internal/blame"
	"github.com/roach88/hyperblame/internal/diffparse"
	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/source"
)

// hunkCache memoizes parsed hunks per (old, new) file pair.
// Same fill-once contract as blame.Cache.
type hunkCache struct {
	src source.DiffSource

	mu      sync.RWMutex
	entries map[ir.HunkKey][]ir.Hunk
	flight  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	fills  atomic.Int64
}

func newHunkCache(src source.DiffSource) *hunkCache {
	return &hunkCache{
		src:     src,
		entries: make(map[ir.HunkKey][]ir.Hunk),
	}
}

func (c *hunkCache) get(ctx context.Context, key ir.HunkKey) ([]ir.Hunk, error) {
	if hunks, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return hunks, nil
	}
	c.misses.Add(1)

	v, err, _ := c.flight.Do(key.FlightKey(), func() (interface{}, error) {
		if hunks, ok := c.lookup(key); ok {
			return hunks, nil
		}

		text, err := c.src.Diff(ctx, key.Old, key.New)
		if err != nil {
			return nil, err
		}
		hunks, err := diffparse.ParseHunks(text)
		if err != nil {
			return nil, fmt.Errorf("parse diff %s..%s: %w", key.Old, key.New, err)
		}

		c.mu.Lock()
		c.entries[key] = hunks
		c.mu.Unlock()
		c.fills.Add(1)
		return hunks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ir.Hunk), nil
}

func (c *hunkCache) lookup(key ir.HunkKey) ([]ir.Hunk, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hunks, ok := c.entries[key]
	return hunks, ok
}

func (c *hunkCache) Reset() {
	c.mu.Lock()
	c.entries = make(map[ir.HunkKey][]ir.Hunk)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
	c.fills.Store(0)
}

func (c *hunkCache) Stats() blame.CacheStats {
	return blame.CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Fills:  c.fills.Load(),
	}
}

// MapLine approximates where line of the file from ends up in the file to.
//
// Identical endpoints map every line to itself without consulting the
// diff source.
func (e *Engine) MapLine(ctx context.Context, from, to ir.RevPath, line int) (int, error) {
	if from == to {
		return line, nil
	}
	hunks, err := e.hunks.get(ctx, ir.HunkKey{Old: from, New: to})
	if err != nil {
		return 0, err
	}
	return ApproximateLine(hunks, line), nil
}

// ApproximateLine moves line across hunks.
//
// Hunks entirely before the line shift it by their net length change. A
// line inside a hunk keeps its distance from the hunk start, clamped into
// the new range; if the hunk deleted everything, the line lands on the
// insertion point left behind. The first hunk starting after the line ends
// the scan.
//
// A pure insertion (old length 0) sits after old line Start, so it only
// shifts lines greater than Start. Line Start itself keeps its number,
// matching git, where a plain "not before the hunk start" test would shift it.
//
// The result is approximate when a hunk rewrote many lines, but it always
// stays inside the hunk it lands in.
func ApproximateLine(hunks []ir.Hunk, line int) int {
	offset := 0

	for _, h := range hunks {
		if h.Old.Length == 0 {
			if line > h.Old.Start {
				offset += h.Delta()
				continue
			}
			break
		}

		if line >= h.Old.End() {
			// Not there yet.
			offset += h.Delta()
			continue
		}

		if line < h.Old.Start {
			// Gone too far.
			break
		}

		if h.New.Length == 0 {
			// New start may be 0 when the deletion was at the top.
			return max(1, h.New.Start)
		}

		mapped := line + (h.New.Start - h.Old.Start)
		return min(max(mapped, h.New.Start), h.New.Start+h.New.Length-1)
	}

	return line + offset
}
