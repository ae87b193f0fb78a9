package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AssertionError is returned when an expect clause fails.
// It includes the full outcome to help debug the failure.
type AssertionError struct {
	Clause   string  // Expect clause for categorization
	Expected string  // Human-readable expected outcome
	Actual   string  // Human-readable actual outcome
	Outcome  Outcome // Full outcome for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Clause)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Outcome.Lines) > 0 {
		fmt.Fprintf(&buf, "\nLines:\n")
		for _, l := range e.Outcome.Lines {
			fmt.Fprintf(&buf, "  [%d] %s %s:%d modified=%t\n", l.Line, l.Change, l.Path, l.OriginLine, l.Modified)
		}
	}
	if len(e.Outcome.Files) > 0 {
		fmt.Fprintf(&buf, "\nFiles:\n")
		for _, p := range sortedKeys(e.Outcome.Files) {
			fmt.Fprintf(&buf, "  %s: %v\n", p, e.Outcome.Files[p])
		}
	}
	if e.Outcome.Error != "" {
		fmt.Fprintf(&buf, "\nError: %s\n", e.Outcome.Error)
	}

	return buf.String()
}

// EvaluateExpect checks every clause of expect against outcome and returns
// one message per failure.
func EvaluateExpect(outcome Outcome, expect Expect) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	add(assertError(outcome, expect))
	for _, el := range expect.Lines {
		add(assertLine(outcome, el))
	}
	if expect.Files != nil {
		add(assertFiles(outcome, expect.Files))
	}
	if expect.Unresolved != nil && outcome.Unresolved != *expect.Unresolved {
		add(&AssertionError{
			Clause:   "unresolved",
			Expected: fmt.Sprintf("%d unresolved line(s)", *expect.Unresolved),
			Actual:   fmt.Sprintf("%d unresolved line(s)", outcome.Unresolved),
			Outcome:  outcome,
		})
	}

	return errs
}

// assertError checks the query error. No expect.error means the query
// must succeed.
func assertError(outcome Outcome, expect Expect) error {
	switch {
	case expect.Error == "" && outcome.Error == "":
		return nil
	case expect.Error == "":
		return &AssertionError{
			Clause:   "error",
			Expected: "no error",
			Actual:   outcome.Error,
			Outcome:  outcome,
		}
	case !strings.Contains(outcome.Error, expect.Error):
		actual := outcome.Error
		if actual == "" {
			actual = "no error"
		}
		return &AssertionError{
			Clause:   "error",
			Expected: fmt.Sprintf("error containing %q", expect.Error),
			Actual:   actual,
			Outcome:  outcome,
		}
	}
	return nil
}

// assertLine checks one output line. Zero-valued optional fields are not
// compared.
func assertLine(outcome Outcome, el ExpectLine) error {
	fail := func(actual string) error {
		return &AssertionError{
			Clause:   fmt.Sprintf("lines[%d]", el.Line),
			Expected: describeExpectLine(el),
			Actual:   actual,
			Outcome:  outcome,
		}
	}

	if el.Line < 1 || el.Line > len(outcome.Lines) {
		return fail(fmt.Sprintf("output has %d line(s)", len(outcome.Lines)))
	}
	got := outcome.Lines[el.Line-1]
	actual := fmt.Sprintf("change %s at %s:%d modified=%t unresolved=%t",
		got.Change, got.Path, got.OriginLine, got.Modified, got.Unresolved)

	if got.Change != el.Change ||
		(el.OriginLine != 0 && got.OriginLine != el.OriginLine) ||
		(el.Path != "" && got.Path != el.Path) ||
		(el.Modified != nil && got.Modified != *el.Modified) ||
		got.Unresolved != el.Unresolved {
		return fail(actual)
	}
	return nil
}

func describeExpectLine(el ExpectLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "change %s", el.Change)
	if el.Path != "" || el.OriginLine != 0 {
		fmt.Fprintf(&b, " at %s:%d", el.Path, el.OriginLine)
	}
	if el.Modified != nil {
		fmt.Fprintf(&b, " modified=%t", *el.Modified)
	}
	fmt.Fprintf(&b, " unresolved=%t", el.Unresolved)
	return b.String()
}

// assertFiles checks the complete LastTouched result. Change order within
// a file does not matter.
func assertFiles(outcome Outcome, want map[string][]string) error {
	normalized := make(map[string][]string, len(want))
	for p, names := range want {
		sorted := append([]string(nil), names...)
		sort.Strings(sorted)
		normalized[p] = sorted
	}

	got := outcome.Files
	if got == nil {
		got = map[string][]string{}
	}
	if reflect.DeepEqual(normalized, got) {
		return nil
	}
	return &AssertionError{
		Clause:   "files",
		Expected: formatFiles(normalized),
		Actual:   formatFiles(got),
		Outcome:  outcome,
	}
}

func formatFiles(files map[string][]string) string {
	if len(files) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(files))
	for _, p := range sortedKeys(files) {
		parts = append(parts, fmt.Sprintf("%s: [%s]", p, strings.Join(files[p], " ")))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
