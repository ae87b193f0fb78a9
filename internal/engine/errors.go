package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/hyperblame/internal/ir"
)

// UnresolvableReason categorizes why a walk stopped early.
type UnresolvableReason string

const (
	// ReasonSourceUnavailable means the predecessor's attribution or the
	// diff towards it could not be fetched.
	ReasonSourceUnavailable UnresolvableReason = "SOURCE_UNAVAILABLE"

	// ReasonOutOfRange means the mapped line falls outside the
	// predecessor's line count.
	ReasonOutOfRange UnresolvableReason = "OUT_OF_RANGE"

	// ReasonCycle means an origin was reached twice in one walk.
	ReasonCycle UnresolvableReason = "CYCLE"
)

// UnresolvableOriginError reports a line whose walk could not reach a
// terminal origin.
//
// Path, Revision and Line identify the line in the queried file; Origin is
// the origin the walk was trying to move past.
type UnresolvableOriginError struct {
	Reason   UnresolvableReason
	Path     string
	Revision string
	Line     int
	Origin   ir.Origin

	// Mapped is the computed predecessor line (ReasonOutOfRange only).
	Mapped int

	// Err is the underlying failure, if any.
	Err error
}

func (e *UnresolvableOriginError) Error() string {
	msg := fmt.Sprintf("%s: %s@%s line %d (origin %s:%s)",
		e.Reason, e.Path, e.Revision, e.Line, e.Origin.Change, e.Origin.Path)
	if e.Reason == ReasonOutOfRange {
		msg += fmt.Sprintf(": mapped to line %d", e.Mapped)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnresolvableOriginError) Unwrap() error {
	return e.Err
}

// IsUnresolvable returns true if err is or wraps an UnresolvableOriginError.
// Uses errors.As to handle wrapped errors.
func IsUnresolvable(err error) bool {
	var ue *UnresolvableOriginError
	return errors.As(err, &ue)
}

// UnresolvedLinesError is returned by LastTouched in lenient mode when some
// deleted lines could not be walked. The accompanying result holds every
// line that did resolve.
type UnresolvedLinesError struct {
	Lines []*UnresolvableOriginError
}

func (e *UnresolvedLinesError) Error() string {
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		parts[i] = l.Error()
	}
	return fmt.Sprintf("%d unresolved line(s): %s", len(e.Lines), strings.Join(parts, "; "))
}

// Unwrap exposes each line error to errors.Is and errors.As.
func (e *UnresolvedLinesError) Unwrap() []error {
	errs := make([]error, len(e.Lines))
	for i, l := range e.Lines {
		errs[i] = l
	}
	return errs
}
