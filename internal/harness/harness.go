package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/hyperblame/internal/engine"
	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/store"
	"github.com/roach88/hyperblame/internal/testutil"
)

// Harness executes one scenario.
type Harness struct {
	repo   *testutil.FakeRepo
	engine *engine.Engine
	store  *store.Store
	names  map[string]string
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh fake repository and a fresh in-memory
// database. The recorded run gets the id "run-<name>", so results are
// reproducible.
//
// Execution flow:
//  1. Load the fixture history into a fake repository
//  2. Run the query through the engine
//  3. Record the outcome in the store and read it back
//  4. Evaluate the expect clauses
//
// An error is returned only when the harness itself fails. A query error
// is part of the outcome and checked against expect.error.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:",
		store.WithIDGenerator(store.NewFixedGenerator("run-"+scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		repo:   testutil.NewFakeRepo(),
		store:  st,
		names:  make(map[string]string),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := h.loadHistory(scenario); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	opts := []engine.Option{
		engine.WithStrict(scenario.Query.Strict),
		engine.WithWorkers(scenario.Query.Workers),
		engine.WithLogger(h.logger),
	}
	if scenario.Query.RenameKey != "" {
		opts = append(opts, engine.WithRenameKey(engine.RenameKey(scenario.Query.RenameKey)))
	}
	h.engine = engine.New(h.repo, h.repo, opts...)

	result := NewResult()
	switch scenario.Query.Kind {
	case ir.QueryReattribute:
		err = h.runReattribute(ctx, scenario.Query, result)
	case ir.QueryLastTouched:
		err = h.runLastTouched(ctx, scenario.Query, result)
	default:
		err = fmt.Errorf("unknown query kind %q", scenario.Query.Kind)
	}
	if err != nil {
		return nil, err
	}

	for _, msg := range EvaluateExpect(result.Outcome, scenario.Expect) {
		result.AddError(msg)
	}

	h.logger.Info("scenario complete",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"errors", len(result.Errors))

	return result, nil
}

// id expands a readable name to an object id and remembers the mapping.
func (h *Harness) id(name string) string {
	sha := testutil.SHA(name)
	h.names[sha] = name
	return sha
}

// name maps an object id back to its scenario name. Unknown ids are
// returned unchanged.
func (h *Harness) name(id string) string {
	if n, ok := h.names[id]; ok {
		return n
	}
	return id
}

// nameAll replaces every known object id in text with its name.
func (h *Harness) nameAll(text string) string {
	for id, n := range h.names {
		text = strings.ReplaceAll(text, id, n)
	}
	return text
}

func (h *Harness) ids(names []string) ir.ChangeSet {
	set := ir.NewChangeSet()
	for _, n := range names {
		set.Add(h.id(n))
	}
	return set
}

func (h *Harness) loadHistory(s *Scenario) error {
	for _, b := range s.Blames {
		lines := make([]ir.AttributionLine, len(b.Lines))
		for i, l := range b.Lines {
			var prev *ir.Origin
			if l.Previous != nil {
				prev = testutil.Prev(h.id(l.Previous.Change), l.Previous.Path)
			}
			line := testutil.Line(h.id(l.Change), l.Line, l.Content, prev)
			line.Path = l.Path
			line.Unblamable = l.Unblamable
			lines[i] = line
		}
		h.repo.AddBlame(h.id(b.Rev), b.Path, lines...)
	}

	for _, d := range s.Diffs {
		h.repo.AddDiff(
			ir.RevPath{Rev: h.id(d.From.Change), Path: d.From.Path},
			ir.RevPath{Rev: h.id(d.To.Change), Path: d.To.Path},
			d.Text,
		)
	}

	for _, c := range s.Changes {
		change := &ir.Change{
			ID:      h.id(c.ID),
			Summary: c.Summary,
		}
		for _, p := range c.Parents {
			change.Parents = append(change.Parents, h.id(p))
		}
		for _, m := range c.Modifications {
			change.Modifications = append(change.Modifications, ir.Modification{
				Type:    ir.ModificationType(m.Type),
				OldPath: m.OldPath,
				NewPath: m.NewPath,
				Diff:    m.Diff,
			})
		}
		h.repo.AddChange(change)
	}

	return nil
}

func (h *Harness) runReattribute(ctx context.Context, q QueryStep, result *Result) error {
	result.Outcome.Kind = ir.QueryReattribute
	ignore := h.ids(q.Ignore)
	rev := h.id(q.Rev)

	lines, err := h.engine.Reattribute(ctx, q.Path, rev, ignore)
	if err != nil {
		result.Outcome.Error = h.nameAll(err.Error())
		return nil
	}

	run, err := h.store.RecordReattribution(ctx, store.Query{
		Path:     q.Path,
		Revision: rev,
		Ignore:   ignore.Sorted(),
		Strict:   q.Strict,
	}, lines)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	result.Run = run

	stored, err := h.store.ReadRunLines(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to read run lines: %w", err)
	}
	for _, l := range stored {
		result.Outcome.Lines = append(result.Outcome.Lines, LineOutcome{
			Line:       l.FinalLine,
			Change:     h.name(l.Change),
			OriginLine: l.OriginLine,
			Path:       l.OriginPath,
			Content:    l.Content,
			Modified:   l.Modified,
			Unresolved: l.Error != "",
		})
	}
	result.Outcome.Unresolved = run.Unresolved
	return nil
}

func (h *Harness) runLastTouched(ctx context.Context, q QueryStep, result *Result) error {
	result.Outcome.Kind = ir.QueryLastTouched
	ignore := h.ids(q.Ignore)

	change, err := h.repo.Change(ctx, h.id(q.Change))
	if err != nil {
		result.Outcome.Error = h.nameAll(err.Error())
		return nil
	}

	origins, err := h.engine.LastTouched(ctx, change, ignore)
	unresolved := 0
	var ule *engine.UnresolvedLinesError
	switch {
	case err == nil:
	case errors.As(err, &ule):
		unresolved = len(ule.Lines)
	default:
		result.Outcome.Error = h.nameAll(err.Error())
		return nil
	}

	run, err := h.store.RecordLastTouched(ctx, store.Query{
		Revision: change.ID,
		Ignore:   ignore.Sorted(),
		Strict:   q.Strict,
	}, origins, unresolved)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	result.Run = run

	stored, err := h.store.ReadRunOrigins(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to read run origins: %w", err)
	}
	result.Outcome.Files = make(map[string][]string)
	for _, o := range stored {
		result.Outcome.Files[o.Path] = append(result.Outcome.Files[o.Path], h.name(o.Change))
	}
	for _, names := range result.Outcome.Files {
		sort.Strings(names)
	}
	result.Outcome.Unresolved = run.Unresolved
	return nil
}
