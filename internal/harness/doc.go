// Package harness runs provenance scenarios end to end.
//
// A scenario is a YAML file describing a small repository history (blame
// output per file and revision, diffs between files, changes with their
// modifications) and one query against it. The harness loads the history
// into a testutil.FakeRepo, runs the query through a real engine.Engine,
// records the outcome in a fresh in-memory store and reads it back.
//
// Changes are written with readable names ("A", "HEAD"). The harness
// expands every name to a full object id with testutil.SHA before the
// history reaches the porcelain parser, and maps ids back to names when
// reporting, so expectations and golden snapshots stay readable.
//
// Two kinds of checks are available:
//   - expect clauses in the scenario, evaluated by Run
//   - golden snapshots of the recorded run, compared by RunWithGolden
//
// Golden files live in testdata/golden and are regenerated with
//
//	go test ./internal/harness -update
package harness
