package store

// Run is one recorded query.
type Run struct {
	ID      string `json:"id"`
	Seq     int64  `json:"seq"`
	QueryID string `json:"query_id"`
	Kind    string `json:"kind"`

	// Path is the queried file; empty for last-touched runs.
	Path string `json:"path,omitempty"`

	// Revision is the queried revision, or the change for last-touched runs.
	Revision string `json:"revision"`

	Ignore     []string `json:"ignore"`
	Strict     bool     `json:"strict"`
	Unresolved int      `json:"unresolved"`
}

// RunLine is one reattributed line of a run.
type RunLine struct {
	FinalLine  int    `json:"final_line"`
	Change     string `json:"change"`
	OriginLine int    `json:"origin_line"`
	OriginPath string `json:"origin_path"`
	Content    string `json:"content"`
	Modified   bool   `json:"modified"`
	Error      string `json:"error,omitempty"`
}

// RunOrigin is one (file, change) pair of a last-touched run.
type RunOrigin struct {
	Path   string `json:"path"`
	Change string `json:"change"`
}

// Query describes what a run asked.
type Query struct {
	Path     string
	Revision string
	Ignore   []string
	Strict   bool
}
