package harness

import "github.com/roach88/hyperblame/internal/store"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause matched.
	Pass bool `json:"pass"`

	// Errors contains one message per failed expect clause.
	Errors []string `json:"errors,omitempty"`

	// Outcome is what the query produced, read back from the store.
	Outcome Outcome `json:"outcome"`

	// Run is the recorded run. Zero when the query failed outright.
	Run store.Run `json:"run"`
}

// Outcome is a query result with every change id mapped back to its
// scenario name.
type Outcome struct {
	Kind string `json:"kind"`

	// Lines is set for reattribute queries, in final line order.
	Lines []LineOutcome `json:"lines,omitempty"`

	// Files is set for last_touched queries.
	Files map[string][]string `json:"files,omitempty"`

	Unresolved int `json:"unresolved"`

	// Error is the error the query failed with, if any.
	Error string `json:"error,omitempty"`
}

// LineOutcome is one reattributed line.
type LineOutcome struct {
	Line       int    `json:"line"`
	Change     string `json:"change"`
	OriginLine int    `json:"origin_line"`
	Path       string `json:"path"`
	Content    string `json:"content"`
	Modified   bool   `json:"modified"`
	Unresolved bool   `json:"unresolved,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
