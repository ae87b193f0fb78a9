package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/testutil"
)

var (
	shaA    = testutil.SHA("A")
	shaB    = testutil.SHA("B")
	shaC    = testutil.SHA("C")
	shaF    = testutil.SHA("F")
	shaP    = testutil.SHA("P")
	shaHead = testutil.SHA("HEAD")
	shaFix  = testutil.SHA("FIX")
	shaMove = testutil.SHA("MOVE")
)

// fixtureRepo models a small history:
//
//   - F reformatted lines 2-3 of main.py, written by B and C on top of P
//   - FIX deleted a comment, a statement by B and a blank line of foo.py
//   - MOVE renamed old.py to new.py and edited A's only line
//
// Names resolve through ResolveRevs, so tests can pass "F" or "HEAD".
func fixtureRepo() *testutil.FakeRepo {
	repo := testutil.NewFakeRepo()
	for _, name := range []string{"A", "B", "C", "F", "P", "HEAD", "FIX", "MOVE"} {
		repo.AddRev(name, testutil.SHA(name))
	}

	repo.AddBlame(shaHead, "main.py",
		testutil.Line(shaA, 1, "import os", nil),
		testutil.Line(shaF, 2, "x = 1", testutil.Prev(shaP, "main.py")),
		testutil.Line(shaF, 3, "y = 2", testutil.Prev(shaP, "main.py")),
	)
	repo.AddBlame(shaP, "main.py",
		testutil.Line(shaA, 1, "import os", nil),
		testutil.Line(shaB, 2, "x=1", testutil.Prev(shaA, "main.py")),
		testutil.Line(shaC, 3, "y=2", testutil.Prev(shaA, "main.py")),
	)
	repo.AddDiff(
		ir.RevPath{Rev: shaF, Path: "main.py"},
		ir.RevPath{Rev: shaP, Path: "main.py"},
		"@@ -2,2 +2,2 @@\n-x = 1\n-y = 2\n+x=1\n+y=2\n",
	)

	repo.AddBlame(shaP, "foo.py",
		testutil.Line(shaA, 1, "def run():", nil),
		testutil.Line(shaC, 2, "    # old comment", nil),
		testutil.Line(shaB, 3, "    x = compute()", nil),
		testutil.Line(shaB, 4, "", nil),
		testutil.Line(shaA, 5, "    return x", nil),
	)
	repo.AddChange(&ir.Change{
		ID:      shaFix,
		Parents: []string{shaP},
		Summary: "fix compute",
		Modifications: []ir.Modification{{
			Type:    ir.ModificationModify,
			OldPath: "foo.py",
			NewPath: "foo.py",
			Diff:    "@@ -2,3 +2,1 @@\n-    # old comment\n-    x = compute()\n-\n+    x = fixed()\n",
		}},
	})

	repo.AddBlame(shaP, "old.py",
		testutil.Line(shaA, 1, "a = 1", nil),
	)
	repo.AddChange(&ir.Change{
		ID:      shaMove,
		Parents: []string{shaP},
		Modifications: []ir.Modification{{
			Type:    ir.ModificationRename,
			OldPath: "old.py",
			NewPath: "new.py",
			Diff:    "@@ -1,1 +1,1 @@\n-a = 1\n+a = 2\n",
		}},
	})

	return repo
}

// execResult holds the outcome of one command line.
type execResult struct {
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	err    error
}

// execute runs the root command against repo. The repository directory is
// a fresh temp dir unless args set -C.
func execute(t *testing.T, repo *testutil.FakeRepo, args ...string) execResult {
	t.Helper()

	opts := &RootOptions{
		OpenRepo: func(string, *slog.Logger) Repository { return repo },
	}
	cmd := newRootCommand(opts)

	res := execResult{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	cmd.SetOut(res.stdout)
	cmd.SetErr(res.stderr)
	cmd.SetArgs(append([]string{"-C", t.TempDir()}, args...))
	res.err = cmd.Execute()
	return res
}
