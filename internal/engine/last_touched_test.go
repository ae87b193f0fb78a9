package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/source"
	"github.com/roach88/hyperblame/internal/testutil"
)

var shaFix = testutil.SHA("FIX")

const fooDiff = `diff --git a/foo.py b/foo.py
--- a/foo.py
+++ b/foo.py
@@ -3 +2,0 @@
-# comment
@@ -7 +5,0 @@
-    return x
`

// fooLines is foo.py at P: everything from A except line 7 from B.
func fooLines() []ir.AttributionLine {
	return []ir.AttributionLine{
		testutil.Line(shaA, 1, "import os", nil),
		testutil.Line(shaA, 2, "", nil),
		testutil.Line(shaA, 3, "# comment", nil),
		testutil.Line(shaA, 4, "def f(x):", nil),
		testutil.Line(shaA, 5, "    x += 1", nil),
		testutil.Line(shaA, 6, "", nil),
		testutil.Line(shaB, 7, "    return x", testutil.Prev(shaA, "foo.py")),
	}
}

func fixChange(mods ...ir.Modification) *ir.Change {
	return &ir.Change{ID: shaFix, Parents: []string{shaP}, Modifications: mods}
}

func modify(path, diff string) ir.Modification {
	return ir.Modification{Type: ir.ModificationModify, OldPath: path, NewPath: path, Diff: diff}
}

func TestLastTouched_SkipsCommentLines(t *testing.T) {
	repo := testutil.NewFakeRepo()
	repo.AddBlame(shaP, "foo.py", fooLines()...)
	e := newTestEngine(repo)

	got, err := e.LastTouched(context.Background(), fixChange(modify("foo.py", fooDiff)), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]ir.ChangeSet{"foo.py": ir.NewChangeSet(shaB)}, got)
}

func TestLastTouched_BoundaryLineCounts(t *testing.T) {
	repo := testutil.NewFakeRepo()
	repo.AddBlame(shaP, "foo.py", fooLines()...)
	e := newTestEngine(repo)

	diff := "@@ -4 +3,0 @@\n-def f(x):\n@@ -7 +5,0 @@\n-    return x\n"
	got, err := e.LastTouched(context.Background(), fixChange(modify("foo.py", diff)), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{shaA, shaB}, got["foo.py"].Sorted())
}

func TestLastTouched_SkipsUnblamableLines(t *testing.T) {
	lines := fooLines()
	lines[3] = testutil.Line(shaC, 4, "def f(x):", nil)
	lines[3].Unblamable = true

	repo := testutil.NewFakeRepo()
	repo.AddBlame(shaP, "foo.py", lines...)
	e := newTestEngine(repo)

	diff := "@@ -4 +3,0 @@\n-def f(x):\n@@ -7 +5,0 @@\n-    return x\n"
	got, err := e.LastTouched(context.Background(), fixChange(modify("foo.py", diff)), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{shaB}, got["foo.py"].Sorted())
}

func TestLastTouched_RenameKey(t *testing.T) {
	newRepo := func() *testutil.FakeRepo {
		repo := testutil.NewFakeRepo()
		repo.AddBlame(shaP, "old.py",
			testutil.Line(shaA, 1, "import x", nil),
			testutil.Line(shaB, 2, "a = 1", testutil.Prev(shaA, "old.py")),
		)
		return repo
	}
	mod := ir.Modification{
		Type:    ir.ModificationRename,
		OldPath: "old.py",
		NewPath: "new.py",
		Diff:    "--- a/old.py\n+++ b/new.py\n@@ -2 +2 @@\n-a = 1\n+a = 2\n",
	}

	tests := []struct {
		name string
		opts []Option
		key  string
	}{
		{"default keys by new path", nil, "new.py"},
		{"new", []Option{WithRenameKey(RenameKeyNew)}, "new.py"},
		{"old", []Option{WithRenameKey(RenameKeyOld)}, "old.py"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo()
			e := newTestEngine(repo, tt.opts...)

			got, err := e.LastTouched(context.Background(), fixChange(mod), nil)
			require.NoError(t, err)
			assert.Equal(t, map[string]ir.ChangeSet{tt.key: ir.NewChangeSet(shaB)}, got)
			assert.Equal(t, 1, repo.BlameCalls(shaP, "old.py"), "blame uses the pre-change path")
		})
	}
}

func TestLastTouched_WalksPastIgnoredChanges(t *testing.T) {
	t.Run("reaches earlier origin", func(t *testing.T) {
		lines := fooLines()
		lines[6] = testutil.Line(shaF, 7, "    return x", testutil.Prev(shaG, "foo.py"))

		repo := testutil.NewFakeRepo()
		repo.AddBlame(shaP, "foo.py", lines...)
		repo.AddBlame(shaG, "foo.py", fooLines()...)
		e := newTestEngine(repo)

		got, err := e.LastTouched(context.Background(), fixChange(modify("foo.py", fooDiff)), ir.NewChangeSet(shaF))
		require.NoError(t, err)
		assert.Equal(t, map[string]ir.ChangeSet{"foo.py": ir.NewChangeSet(shaB)}, got)
	})
}

// A walk that ends on an ignored boundary keeps that origin in
// Reattribute, but the deleted line names no change to report.
func TestLastTouched_IgnoredBoundary(t *testing.T) {
	tests := []struct {
		name   string
		ignore ir.ChangeSet
		setup  func(repo *testutil.FakeRepo)
		want   string
	}{
		{
			name:   "direct",
			ignore: ir.NewChangeSet(shaF),
			setup: func(repo *testutil.FakeRepo) {
				lines := fooLines()
				lines[6] = testutil.Line(shaF, 7, "    return x", nil)
				repo.AddBlame(shaP, "foo.py", lines...)
			},
			want: shaF,
		},
		{
			name:   "after walking past an ignored change",
			ignore: ir.NewChangeSet(shaF, shaG),
			setup: func(repo *testutil.FakeRepo) {
				lines := fooLines()
				lines[6] = testutil.Line(shaF, 7, "    return x", testutil.Prev(shaG, "foo.py"))
				repo.AddBlame(shaP, "foo.py", lines...)

				parent := fooLines()
				parent[6] = testutil.Line(shaG, 7, "    return x", nil)
				repo.AddBlame(shaG, "foo.py", parent...)
			},
			want: shaG,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewFakeRepo()
			tt.setup(repo)
			e := newTestEngine(repo)
			ctx := context.Background()

			lines, err := e.Reattribute(ctx, "foo.py", shaP, tt.ignore)
			require.NoError(t, err)
			require.Len(t, lines, 7)
			assert.Equal(t, tt.want, lines[6].Change)
			assert.NoError(t, lines[6].Err)

			got, err := e.LastTouched(ctx, fixChange(modify("foo.py", fooDiff)), tt.ignore)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestLastTouched_RootChange(t *testing.T) {
	repo := testutil.NewFakeRepo()
	e := newTestEngine(repo)

	root := &ir.Change{ID: shaA, Modifications: []ir.Modification{modify("foo.py", fooDiff)}}
	got, err := e.LastTouched(context.Background(), root, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLastTouched_AddedFileNeedsNoAttribution(t *testing.T) {
	repo := testutil.NewFakeRepo()
	e := newTestEngine(repo)

	added := ir.Modification{
		Type:    ir.ModificationAdd,
		NewPath: "new.go",
		Diff:    "--- /dev/null\n+++ b/new.go\n@@ -0,0 +1,2 @@\n+package x\n+var y\n",
	}
	got, err := e.LastTouched(context.Background(), fixChange(added), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, repo.BlameCalls(shaP, "new.go"))
}

func TestLastTouched_MergesFiles(t *testing.T) {
	for _, workers := range []int{1, 2, 8} {
		repo := testutil.NewFakeRepo()
		repo.AddBlame(shaP, "foo.py", fooLines()...)
		repo.AddBlame(shaP, "bar.go",
			testutil.Line(shaC, 1, "package bar", nil),
			testutil.Line(shaC, 2, "// doc", nil),
			testutil.Line(shaG, 3, "func Bar() {}", testutil.Prev(shaC, "bar.go")),
		)
		e := newTestEngine(repo, WithWorkers(workers))

		change := fixChange(
			modify("foo.py", fooDiff),
			modify("bar.go", "@@ -2,2 +1,0 @@\n-// doc\n-func Bar() {}\n"),
		)
		got, err := e.LastTouched(context.Background(), change, nil)
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, map[string]ir.ChangeSet{
			"foo.py": ir.NewChangeSet(shaB),
			"bar.go": ir.NewChangeSet(shaG),
		}, got, "workers=%d", workers)
	}
}

func TestLastTouched_UnresolvedLines(t *testing.T) {
	diff := "@@ -7 +6,0 @@\n-    return x\n@@ -9 +7,0 @@\n-    raise\n"

	t.Run("lenient keeps resolved lines", func(t *testing.T) {
		repo := testutil.NewFakeRepo()
		repo.AddBlame(shaP, "foo.py", fooLines()...)
		e := newTestEngine(repo)

		got, err := e.LastTouched(context.Background(), fixChange(modify("foo.py", diff)), nil)
		require.Error(t, err)
		assert.Equal(t, map[string]ir.ChangeSet{"foo.py": ir.NewChangeSet(shaB)}, got)

		var ule *UnresolvedLinesError
		require.True(t, errors.As(err, &ule))
		require.Len(t, ule.Lines, 1)
		assert.Equal(t, ReasonOutOfRange, ule.Lines[0].Reason)
		assert.Equal(t, 9, ule.Lines[0].Line)
		assert.True(t, IsUnresolvable(err))
	})

	t.Run("strict aborts", func(t *testing.T) {
		repo := testutil.NewFakeRepo()
		repo.AddBlame(shaP, "foo.py", fooLines()...)
		e := newTestEngine(repo, WithStrict(true))

		got, err := e.LastTouched(context.Background(), fixChange(modify("foo.py", diff)), nil)
		require.Error(t, err)
		assert.Nil(t, got)
		assert.True(t, IsUnresolvable(err))
		assert.Contains(t, err.Error(), "foo.py")
	})
}

func TestLastTouched_AttributionUnavailable(t *testing.T) {
	repo := testutil.NewFakeRepo()
	e := newTestEngine(repo)

	got, err := e.LastTouched(context.Background(), fixChange(modify("foo.py", fooDiff)), nil)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, source.IsUnavailable(err))
	assert.ErrorIs(t, err, testutil.ErrNoFixture)
}

func TestLastTouched_SharesParentAttribution(t *testing.T) {
	repo := testutil.NewFakeRepo()
	repo.AddBlame(shaP, "foo.py", fooLines()...)
	e := newTestEngine(repo, WithWorkers(4))

	// The same file listed twice, as a copy source and a modification,
	// is fetched once.
	copied := ir.Modification{Type: ir.ModificationCopy, OldPath: "foo.py", NewPath: "foo.py", Diff: fooDiff}
	got, err := e.LastTouched(context.Background(), fixChange(modify("foo.py", fooDiff), copied), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]ir.ChangeSet{"foo.py": ir.NewChangeSet(shaB)}, got)
	assert.Equal(t, 1, repo.BlameCalls(shaP, "foo.py"))
}
