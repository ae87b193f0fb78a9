package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/testutil"
)

func hunk(oldStart, oldLen, newStart, newLen int) ir.Hunk {
	return ir.Hunk{
		Old: ir.HunkRange{Start: oldStart, Length: oldLen},
		New: ir.HunkRange{Start: newStart, Length: newLen},
	}
}

func TestApproximateLine(t *testing.T) {
	tests := []struct {
		name  string
		hunks []ir.Hunk
		line  int
		want  int
	}{
		{"no hunks", nil, 42, 42},
		{"before shrinking hunk", []ir.Hunk{hunk(10, 5, 10, 2)}, 9, 9},
		{"start of shrinking hunk", []ir.Hunk{hunk(10, 5, 10, 2)}, 10, 10},
		{"middle of shrinking hunk clamps", []ir.Hunk{hunk(10, 5, 10, 2)}, 12, 11},
		{"end of shrinking hunk clamps", []ir.Hunk{hunk(10, 5, 10, 2)}, 14, 11},
		{"after shrinking hunk", []ir.Hunk{hunk(10, 5, 10, 2)}, 16, 13},
		{"pure deletion lands on insertion point", []ir.Hunk{hunk(7, 2, 6, 0)}, 8, 6},
		{"after pure deletion", []ir.Hunk{hunk(7, 2, 6, 0)}, 9, 7},
		{"deletion at top never maps to zero", []ir.Hunk{hunk(1, 2, 0, 0)}, 1, 1},
		{"line before pure insertion stays", []ir.Hunk{hunk(5, 0, 6, 2)}, 5, 5},
		{"line after pure insertion shifts", []ir.Hunk{hunk(5, 0, 6, 2)}, 6, 8},
		{"pure insertion start line is not shifted", []ir.Hunk{hunk(2, 1, 2, 3), hunk(12, 0, 15, 4)}, 12, 14},
		{"insertion at top shifts first line", []ir.Hunk{hunk(0, 0, 1, 3)}, 1, 4},
		{"growing hunk keeps distance", []ir.Hunk{hunk(4, 2, 4, 6)}, 5, 5},
		{"offset from earlier hunk", []ir.Hunk{hunk(2, 1, 2, 3), hunk(10, 2, 12, 1)}, 5, 7},
		{"inside second hunk", []ir.Hunk{hunk(2, 1, 2, 3), hunk(10, 2, 12, 1)}, 11, 12},
		{"after both hunks", []ir.Hunk{hunk(2, 1, 2, 3), hunk(10, 2, 12, 1)}, 20, 21},
		{"gone too far ignores later hunks", []ir.Hunk{hunk(20, 1, 20, 5)}, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApproximateLine(tt.hunks, tt.line))
		})
	}
}

func TestApproximateLine_NoHunksIsIdentity(t *testing.T) {
	for n := 1; n <= 50; n++ {
		assert.Equal(t, n, ApproximateLine(nil, n))
	}
}

func TestApproximateLine_NetShrinkBounds(t *testing.T) {
	hunks := []ir.Hunk{hunk(10, 5, 10, 2)}

	got := ApproximateLine(hunks, 12)
	assert.GreaterOrEqual(t, got, 10)
	assert.LessOrEqual(t, got, 11)
	assert.Equal(t, 13, ApproximateLine(hunks, 16))
}

func TestMapLine_CachesHunks(t *testing.T) {
	repo := testutil.NewFakeRepo()
	from := ir.RevPath{Rev: testutil.SHA("F"), Path: "a.go"}
	to := ir.RevPath{Rev: testutil.SHA("P"), Path: "a.go"}
	repo.AddDiff(from, to, "@@ -10,5 +10,2 @@\n-a\n-b\n-c\n-d\n-e\n+x\n+y\n")

	e := newTestEngine(repo)
	ctx := context.Background()

	got, err := e.MapLine(ctx, from, to, 12)
	require.NoError(t, err)
	assert.Equal(t, 11, got)

	got, err = e.MapLine(ctx, from, to, 16)
	require.NoError(t, err)
	assert.Equal(t, 13, got)

	assert.Equal(t, 1, repo.DiffCalls(from, to), "hunks fetched once per pair")
	assert.Equal(t, int64(1), e.Stats().Hunks.Hits)
}

func TestMapLine_SameEndpointsSkipsDiff(t *testing.T) {
	repo := testutil.NewFakeRepo()
	at := ir.RevPath{Rev: testutil.SHA("F"), Path: "a.go"}

	e := newTestEngine(repo)
	got, err := e.MapLine(context.Background(), at, at, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 0, repo.DiffCalls(at, at))
}

func TestMapLine_MalformedDiff(t *testing.T) {
	repo := testutil.NewFakeRepo()
	from := ir.RevPath{Rev: testutil.SHA("F"), Path: "a.go"}
	to := ir.RevPath{Rev: testutil.SHA("P"), Path: "a.go"}
	repo.AddDiff(from, to, "@@ -x +1 @@\n")

	e := newTestEngine(repo)
	_, err := e.MapLine(context.Background(), from, to, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed hunk header")

	_, err = e.MapLine(context.Background(), from, to, 1)
	require.Error(t, err)
	assert.Equal(t, 2, repo.DiffCalls(from, to), "failed fills are not cached")
}
