package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/roach88/hyperblame/internal/ir"
)

// RecordReattribution stores the output of one Reattribute call.
// Each line's walk error, if any, is kept as text.
func (s *Store) RecordReattribution(ctx context.Context, q Query, lines []ir.ReattributedLine) (Run, error) {
	unresolved := 0
	for _, l := range lines {
		if l.Err != nil {
			unresolved++
		}
	}

	var run Run
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		run, err = s.insertRun(ctx, tx, ir.QueryReattribute, q, unresolved)
		if err != nil {
			return err
		}

		for _, l := range lines {
			errText := ""
			if l.Err != nil {
				errText = l.Err.Error()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO run_lines
				(run_id, final_line, change_id, origin_line, origin_path, content, modified, error)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT DO NOTHING
			`,
				run.ID,
				l.FinalLine,
				l.Change,
				l.OriginLine,
				l.Path,
				l.Content,
				boolToInt(l.Modified),
				errText,
			)
			if err != nil {
				return fmt.Errorf("insert line %d: %w", l.FinalLine, err)
			}
		}
		return nil
	})
	if err != nil {
		return Run{}, fmt.Errorf("record reattribution: %w", err)
	}
	return run, nil
}

// RecordLastTouched stores the output of one LastTouched call. q.Revision
// is the change that was analyzed; unresolved counts skipped lines.
func (s *Store) RecordLastTouched(ctx context.Context, q Query, result map[string]ir.ChangeSet, unresolved int) (Run, error) {
	paths := make([]string, 0, len(result))
	for p := range result {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var run Run
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		run, err = s.insertRun(ctx, tx, ir.QueryLastTouched, q, unresolved)
		if err != nil {
			return err
		}

		for _, p := range paths {
			for _, change := range result[p].Sorted() {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO run_origins (run_id, path, change_id)
					VALUES (?, ?, ?)
					ON CONFLICT DO NOTHING
				`, run.ID, p, change)
				if err != nil {
					return fmt.Errorf("insert origin %s %s: %w", p, change, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return Run{}, fmt.Errorf("record last touched: %w", err)
	}
	return run, nil
}

// insertRun stamps a new run with the next seq and a fresh id.
func (s *Store) insertRun(ctx context.Context, tx *sql.Tx, kind string, q Query, unresolved int) (Run, error) {
	ignore := ir.NewChangeSet(q.Ignore...)
	queryID, err := ir.QueryID(kind, ir.RevPath{Rev: q.Revision, Path: q.Path}, ignore)
	if err != nil {
		return Run{}, err
	}
	ignoreJSON, err := marshalIgnore(q.Ignore)
	if err != nil {
		return Run{}, err
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, fmt.Errorf("next seq: %w", err)
	}

	run := Run{
		ID:         s.ids.Generate(),
		Seq:        seq,
		QueryID:    queryID,
		Kind:       kind,
		Path:       q.Path,
		Revision:   q.Revision,
		Ignore:     ignore.Sorted(),
		Strict:     q.Strict,
		Unresolved: unresolved,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, query_id, kind, path, revision, ignore_set, strict, unresolved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.QueryID,
		run.Kind,
		run.Path,
		run.Revision,
		ignoreJSON,
		boolToInt(run.Strict),
		run.Unresolved,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
