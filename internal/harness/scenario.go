package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hyperblame/internal/engine"
	"github.com/roach88/hyperblame/internal/ir"
)

// Scenario defines one provenance query over a fixture history.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Blames holds the attribution of each file at each revision the
	// query may visit.
	Blames []BlameFixture `yaml:"blames"`

	// Diffs holds the unified diffs walked between origins. A missing diff
	// means the two files are identical.
	Diffs []DiffFixture `yaml:"diffs,omitempty"`

	// Changes holds the changes LastTouched may analyze.
	Changes []ChangeFixture `yaml:"changes,omitempty"`

	Query  QueryStep `yaml:"query"`
	Expect Expect    `yaml:"expect"`
}

// BlameFixture is the attribution of Path at Rev.
type BlameFixture struct {
	Rev   string        `yaml:"rev"`
	Path  string        `yaml:"path"`
	Lines []LineFixture `yaml:"lines"`
}

// LineFixture is one attributed line. Lines are numbered in order.
type LineFixture struct {
	Change     string      `yaml:"change"`
	Line       int         `yaml:"line"`
	Content    string      `yaml:"content"`
	Path       string      `yaml:"path,omitempty"`
	Previous   *RefFixture `yaml:"previous,omitempty"`
	Unblamable bool        `yaml:"unblamable,omitempty"`
}

// RefFixture names a file at a change.
type RefFixture struct {
	Change string `yaml:"change"`
	Path   string `yaml:"path"`
}

// DiffFixture is the diff from one file version to another.
type DiffFixture struct {
	From RefFixture `yaml:"from"`
	To   RefFixture `yaml:"to"`
	Text string     `yaml:"text"`
}

// ChangeFixture is a change and the files it touched.
type ChangeFixture struct {
	ID            string                `yaml:"id"`
	Parents       []string              `yaml:"parents,omitempty"`
	Summary       string                `yaml:"summary,omitempty"`
	Modifications []ModificationFixture `yaml:"modifications"`
}

// ModificationFixture is one file touched by a change.
type ModificationFixture struct {
	Type    string `yaml:"type"`
	OldPath string `yaml:"old_path,omitempty"`
	NewPath string `yaml:"new_path,omitempty"`
	Diff    string `yaml:"diff"`
}

// QueryStep is the query a scenario runs.
type QueryStep struct {
	// Kind is "reattribute" or "last_touched".
	Kind string `yaml:"kind"`

	// Path and Rev select the file to reattribute.
	Path string `yaml:"path,omitempty"`
	Rev  string `yaml:"rev,omitempty"`

	// Change selects the change LastTouched analyzes.
	Change string `yaml:"change,omitempty"`

	Ignore    []string `yaml:"ignore,omitempty"`
	Strict    bool     `yaml:"strict,omitempty"`
	RenameKey string   `yaml:"rename_key,omitempty"`
	Workers   int      `yaml:"workers,omitempty"`
}

// Expect lists what the query must produce. Omitted clauses are not
// checked.
type Expect struct {
	// Lines checks reattributed lines by final line number.
	Lines []ExpectLine `yaml:"lines,omitempty"`

	// Files checks the complete LastTouched result: file to change names.
	Files map[string][]string `yaml:"files,omitempty"`

	// Unresolved is the number of lines that could not be resolved.
	Unresolved *int `yaml:"unresolved,omitempty"`

	// Error is a substring of the error the query must fail with.
	Error string `yaml:"error,omitempty"`
}

// ExpectLine is the expected origin of one output line.
type ExpectLine struct {
	Line       int    `yaml:"line"`
	Change     string `yaml:"change"`
	OriginLine int    `yaml:"origin_line,omitempty"`
	Path       string `yaml:"path,omitempty"`
	Modified   *bool  `yaml:"modified,omitempty"`
	Unresolved bool   `yaml:"unresolved,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Query.Kind {
	case ir.QueryReattribute:
		if s.Query.Path == "" || s.Query.Rev == "" {
			return fmt.Errorf("query: reattribute needs path and rev")
		}
	case ir.QueryLastTouched:
		if s.Query.Change == "" {
			return fmt.Errorf("query: last_touched needs change")
		}
	default:
		return fmt.Errorf("query: unknown kind %q", s.Query.Kind)
	}

	switch engine.RenameKey(s.Query.RenameKey) {
	case "", engine.RenameKeyNew, engine.RenameKeyOld:
	default:
		return fmt.Errorf("query: rename_key must be %q or %q", engine.RenameKeyNew, engine.RenameKeyOld)
	}

	for i, b := range s.Blames {
		if b.Rev == "" || b.Path == "" {
			return fmt.Errorf("blames[%d]: rev and path are required", i)
		}
		for j, l := range b.Lines {
			if l.Change == "" {
				return fmt.Errorf("blames[%d].lines[%d]: change is required", i, j)
			}
			if l.Line < 1 {
				return fmt.Errorf("blames[%d].lines[%d]: line must be positive", i, j)
			}
		}
	}

	for i, c := range s.Changes {
		if c.ID == "" {
			return fmt.Errorf("changes[%d]: id is required", i)
		}
		for j, m := range c.Modifications {
			if !validModificationType(m.Type) {
				return fmt.Errorf("changes[%d].modifications[%d]: unknown type %q", i, j, m.Type)
			}
		}
	}

	return nil
}

func validModificationType(t string) bool {
	switch ir.ModificationType(t) {
	case ir.ModificationAdd, ir.ModificationDelete, ir.ModificationRename,
		ir.ModificationCopy, ir.ModificationModify, ir.ModificationUnknown:
		return true
	}
	return false
}
