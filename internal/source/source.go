// Package source declares the collaborators the provenance engine consumes.
//
// The engine never talks to a repository directly. Attribution, diffs and
// change enumeration arrive through these narrow interfaces, implemented by
// internal/gitcli for real repositories and by internal/testutil for
// fixture-backed tests.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/hyperblame/internal/ir"
)

// AttributionSource returns blame output for a file at a revision.
//
// The result is `git blame --porcelain` text: one header block per origin
// followed by tab-prefixed content lines. Lines the source cannot attribute
// are marked, never omitted.
type AttributionSource interface {
	Blame(ctx context.Context, at ir.RevPath) (string, error)
}

// DiffSource returns the unified diff between two files at two revisions,
// with zero context lines. The two paths may differ when the file was
// renamed in between.
type DiffSource interface {
	Diff(ctx context.Context, from, to ir.RevPath) (string, error)
}

// ChangeSource enumerates the files touched by a change.
type ChangeSource interface {
	Change(ctx context.Context, rev string) (*ir.Change, error)
}

// RevResolver expands abbreviated or symbolic revisions to full change ids.
type RevResolver interface {
	ResolveRevs(ctx context.Context, revs []string) ([]string, error)
}

// SourceUnavailableError reports a collaborator failure, typically the
// underlying tool exiting non-zero. It is propagated unchanged and never
// retried by the engine.
type SourceUnavailableError struct {
	// Op names the operation ("blame", "diff", "change", "rev-parse").
	Op string

	// Target identifies what was asked for, e.g. "HEAD:main.go".
	Target string

	// Err is the underlying failure.
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable: %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable returns true if err is or wraps a *SourceUnavailableError.
func IsUnavailable(err error) bool {
	var se *SourceUnavailableError
	return errors.As(err, &se)
}
