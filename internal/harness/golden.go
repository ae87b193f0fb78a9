package harness

import (
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hyperblame/internal/ir"
)

// Snapshot captures a scenario outcome for golden comparison.
type Snapshot struct {
	Scenario string   `json:"scenario"`
	RunID    string   `json:"run_id,omitempty"`
	Seq      int64    `json:"seq,omitempty"`
	Ignore   []string `json:"ignore"`
	Strict   bool     `json:"strict"`
	Outcome  Outcome  `json:"outcome"`
}

// NewSnapshot builds the snapshot of one executed scenario.
func NewSnapshot(scenario *Scenario, result *Result) Snapshot {
	ignore := append([]string{}, scenario.Query.Ignore...)
	sort.Strings(ignore)
	return Snapshot{
		Scenario: scenario.Name,
		RunID:    result.Run.ID,
		Seq:      result.Run.Seq,
		Ignore:   ignore,
		Strict:   scenario.Query.Strict,
		Outcome:  result.Outcome,
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s Snapshot) toCanonicalMap() map[string]any {
	outcome := map[string]any{
		"kind":       s.Outcome.Kind,
		"unresolved": s.Outcome.Unresolved,
	}
	if s.Outcome.Lines != nil {
		lines := make([]any, len(s.Outcome.Lines))
		for i, l := range s.Outcome.Lines {
			m := map[string]any{
				"line":        l.Line,
				"change":      l.Change,
				"origin_line": l.OriginLine,
				"path":        l.Path,
				"content":     l.Content,
				"modified":    l.Modified,
			}
			if l.Unresolved {
				m["unresolved"] = true
			}
			lines[i] = m
		}
		outcome["lines"] = lines
	}
	if s.Outcome.Files != nil {
		files := make(map[string]any, len(s.Outcome.Files))
		for p, names := range s.Outcome.Files {
			files[p] = names
		}
		outcome["files"] = files
	}
	if s.Outcome.Error != "" {
		outcome["error"] = s.Outcome.Error
	}

	result := map[string]any{
		"scenario": s.Scenario,
		"ignore":   s.Ignore,
		"strict":   s.Strict,
		"outcome":  outcome,
	}
	if s.RunID != "" {
		result["run_id"] = s.RunID
		result["seq"] = s.Seq
	}
	return result
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also inspect expect failures.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, NewSnapshot(scenario, result)); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a snapshot against the golden file for name.
func AssertGolden(t *testing.T, name string, snapshot Snapshot) error {
	t.Helper()

	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
