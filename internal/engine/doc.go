// Package engine implements the line-provenance engine.
//
// Given attributions from a source.AttributionSource and diffs from a
// source.DiffSource, it answers two questions:
//
//   - Reattribute: who introduced each line of a file, skipping a set of
//     ignored changes (hyper-blame).
//   - LastTouched: which earlier changes introduced the lines a change
//     deleted (SZZ).
//
// ARCHITECTURE:
//
// Components, leaves first:
//  1. Hunk cache + MapLine (approx.go): moves a line number from one
//     (revision, path) to another using the zero-context diff between them.
//  2. Attribution cache (internal/blame): fill-once per (revision, path).
//  3. Walker (reattribute.go): per line, follows "previous" pointers while
//     the origin is ignored.
//  4. Resolver (last_touched.go): maps a change's deleted lines to origins.
//
// Per line the walk is a small state machine:
//
//	Direct -> (origin ignored, not boundary) -> Translating -> Direct(new origin)
//
// repeated until the origin is a boundary or not ignored. The loop is
// iterative with a visited-origin guard, so it visits at most
// len(ignore)+1 origins and never recurses.
//
// CONCURRENCY:
//
// The walk itself is sequential. LastTouched fans out over modified files
// with a bounded errgroup; the caches are fill-once and shared by those
// workers. Caches are reset at the start of each top-level call, so an
// Engine should serve one query at a time.
package engine
