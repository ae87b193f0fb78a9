package diffparse

import (
	"errors"
	"fmt"
)

// MalformedDiffError reports a hunk header that does not parse as two
// numeric ranges.
type MalformedDiffError struct {
	// Line is the 1-based line of the diff text holding the header.
	Line int

	// Header is the offending header line.
	Header string

	// Err is the underlying conversion error, if any.
	Err error
}

func (e *MalformedDiffError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed hunk header at line %d: %q: %v", e.Line, e.Header, e.Err)
	}
	return fmt.Sprintf("malformed hunk header at line %d: %q", e.Line, e.Header)
}

func (e *MalformedDiffError) Unwrap() error {
	return e.Err
}

// IsMalformed returns true if err is or wraps a *MalformedDiffError.
func IsMalformed(err error) bool {
	var me *MalformedDiffError
	return errors.As(err, &me)
}
