package engine

import (
	"log/slog"

	"github.com/roach88/hyperblame/internal/blame"
	"github.com/roach88/hyperblame/internal/source"
)

// DefaultWorkers bounds how many modified files LastTouched resolves at once.
const DefaultWorkers = 4

// RenameKey selects which path keys a renamed file in LastTouched results.
type RenameKey string

const (
	// RenameKeyNew keys renamed files by their path after the change.
	RenameKeyNew RenameKey = "new"

	// RenameKeyOld keys renamed files by their path before the change.
	RenameKeyOld RenameKey = "old"
)

// Engine answers provenance queries over one repository.
//
// Thread-safety model:
//   - Reattribute, LastTouched: one top-level call at a time per Engine;
//     each call resets the caches
//   - MapLine: safe from any goroutine
//
// Callers running independent queries in parallel should give each worker
// its own Engine.
type Engine struct {
	blames *blame.Cache
	hunks  *hunkCache

	strict    bool
	workers   int
	filter    *LineFilter
	renameKey RenameKey
	logger    *slog.Logger
}

// Stats reports cache activity of the current call.
type Stats struct {
	Attributions blame.CacheStats `json:"attributions"`
	Hunks        blame.CacheStats `json:"hunks"`
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithStrict makes the first unresolvable line abort the whole call.
// By default failures are isolated per line.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithWorkers sets how many modified files LastTouched handles at once.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.workers = n
		}
	}
}

// WithLineFilter replaces the useless-line filter used by LastTouched.
func WithLineFilter(f *LineFilter) Option {
	return func(e *Engine) {
		if f != nil {
			e.filter = f
		}
	}
}

// WithRenameKey selects how renamed files are keyed by LastTouched.
func WithRenameKey(k RenameKey) Option {
	return func(e *Engine) {
		e.renameKey = k
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine over the given collaborators.
func New(attr source.AttributionSource, diffs source.DiffSource, opts ...Option) *Engine {
	e := &Engine{
		blames:    blame.NewCache(attr),
		hunks:     newHunkCache(diffs),
		workers:   DefaultWorkers,
		filter:    DefaultLineFilter(),
		renameKey: RenameKeyNew,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Reset clears both caches.
func (e *Engine) Reset() {
	e.blames.Reset()
	e.hunks.Reset()
}

// Stats returns cache counters since the last Reset.
func (e *Engine) Stats() Stats {
	return Stats{
		Attributions: e.blames.Stats(),
		Hunks:        e.hunks.Stats(),
	}
}
