// Package store records provenance query results in SQLite.
//
// The store is a results log, not a cache: the engine never reads from it.
// Each recorded query becomes a run:
//   - runs: the question (kind, path, revision, ignore set) and its
//     content-addressed query id
//   - run_lines: reattribution output, one row per line
//   - run_origins: last-touched output, one row per (path, change)
//
// # Ordering
//
// Runs are stamped with a seq from a logical counter kept in the database.
// All list queries use ORDER BY seq ASC, id ASC COLLATE BINARY, so output
// is identical across machines and time zones.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Query ids are computed by ir.QueryID using canonical JSON and SHA-256
// with domain separation.
package store
