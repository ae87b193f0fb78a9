package store

import (
	"context"
	"database/sql"
	"fmt"
)

const runColumns = `id, seq, query_id, kind, path, revision, ignore_set, strict, unresolved`

// ListRuns returns recorded runs in seq order. A limit of 0 or less
// returns every run; otherwise the most recent limit runs, still in seq
// order.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq ASC, id COLLATE BINARY ASC`
	var args []any
	if limit > 0 {
		query = `SELECT ` + runColumns + ` FROM (
			SELECT * FROM runs ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC, id COLLATE BINARY ASC`
		args = append(args, limit)
	}
	return s.queryRuns(ctx, query, args...)
}

// RunsWithOrigin returns last-touched runs that reported change as the
// origin of some deleted line.
func (s *Store) RunsWithOrigin(ctx context.Context, change string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE id IN (SELECT run_id FROM run_origins WHERE change_id = ?)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, change)
}

// ReadRun retrieves a single run by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ReadRunLines returns the reattributed lines of a run in line order.
func (s *Store) ReadRunLines(ctx context.Context, runID string) ([]RunLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT final_line, change_id, origin_line, origin_path, content, modified, error
		FROM run_lines
		WHERE run_id = ?
		ORDER BY final_line ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run lines: %w", err)
	}
	defer rows.Close()

	lines := []RunLine{}
	for rows.Next() {
		var l RunLine
		var modified int
		if err := rows.Scan(&l.FinalLine, &l.Change, &l.OriginLine, &l.OriginPath, &l.Content, &modified, &l.Error); err != nil {
			return nil, fmt.Errorf("scan run line: %w", err)
		}
		l.Modified = modified != 0
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run lines: %w", err)
	}
	return lines, nil
}

// ReadRunOrigins returns the (path, change) pairs of a run, sorted by
// path then change.
func (s *Store) ReadRunOrigins(ctx context.Context, runID string) ([]RunOrigin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, change_id
		FROM run_origins
		WHERE run_id = ?
		ORDER BY path COLLATE BINARY ASC, change_id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run origins: %w", err)
	}
	defer rows.Close()

	origins := []RunOrigin{}
	for rows.Next() {
		var o RunOrigin
		if err := rows.Scan(&o.Path, &o.Change); err != nil {
			return nil, fmt.Errorf("scan run origin: %w", err)
		}
		origins = append(origins, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run origins: %w", err)
	}
	return origins, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var ignoreJSON string
	var strict int
	err := row.Scan(&run.ID, &run.Seq, &run.QueryID, &run.Kind, &run.Path, &run.Revision,
		&ignoreJSON, &strict, &run.Unresolved)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Ignore, err = unmarshalIgnore(ignoreJSON)
	if err != nil {
		return Run{}, err
	}
	run.Strict = strict != 0
	return run, nil
}
