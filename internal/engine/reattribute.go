package engine

import (
	"context"

	"github.com/roach88/hyperblame/internal/ir"
)

// Reattribute blames path at rev, then moves every line whose origin is in
// ignore back to the nearest earlier origin that is not.
//
// Output preserves line order, content and final line numbers; only the
// origin fields change. A line whose origin is a boundary keeps its direct
// attribution even when ignored.
//
// Failure to fetch the direct attribution is returned as is. Per-line walk
// failures are stored in ReattributedLine.Err unless the engine is strict,
// in which case the first one aborts the call.
func (e *Engine) Reattribute(ctx context.Context, path, rev string, ignore ir.ChangeSet) ([]ir.ReattributedLine, error) {
	e.Reset()
	target := ir.RevPath{Rev: rev, Path: path}

	direct, err := e.blames.Get(ctx, target)
	if err != nil {
		return nil, err
	}

	out := make([]ir.ReattributedLine, len(direct))
	unresolved := 0
	for i, line := range direct {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r, werr := e.walk(ctx, target, line, ignore)
		if werr != nil {
			if e.strict {
				return nil, werr
			}
			e.logger.Warn("line walk stopped early",
				"path", path,
				"rev", rev,
				"line", line.FinalLine,
				"error", werr)
			r.Err = werr
			unresolved++
		}
		out[i] = r
	}

	stats := e.Stats()
	e.logger.Debug("reattribution complete",
		"path", path,
		"rev", rev,
		"lines", len(out),
		"ignored", ignore.Len(),
		"unresolved", unresolved,
		"blame_fills", stats.Attributions.Fills,
		"diff_fills", stats.Hunks.Fills)

	return out, nil
}

// walk follows previous pointers from start while its origin is ignored.
//
// Every origin left behind is recorded as visited. Since only ignored
// origins are left behind, the loop runs at most len(ignore)+1 times;
// reaching a visited origin again is reported as a cycle.
//
// On error the returned line carries the last origin reached.
func (e *Engine) walk(ctx context.Context, target ir.RevPath, start ir.AttributionLine, ignore ir.ChangeSet) (ir.ReattributedLine, *UnresolvableOriginError) {
	cur := start
	visited := make(map[string]struct{})

	result := func() ir.ReattributedLine {
		r := ir.ReattributedLine{
			AttributionLine: cur,
			Modified:        cur.Change != start.Change,
		}
		r.FinalLine = start.FinalLine
		r.Content = start.Content
		return r
	}

	for ignore.Has(cur.Change) && !cur.IsBoundary() {
		fail := func(reason UnresolvableReason, mapped int, err error) (ir.ReattributedLine, *UnresolvableOriginError) {
			return result(), &UnresolvableOriginError{
				Reason:   reason,
				Path:     target.Path,
				Revision: target.Rev,
				Line:     start.FinalLine,
				Origin:   cur.Origin(),
				Mapped:   mapped,
				Err:      err,
			}
		}

		if _, seen := visited[cur.Change]; seen {
			return fail(ReasonCycle, 0, nil)
		}
		visited[cur.Change] = struct{}{}

		prev := *cur.Previous
		parent, err := e.blames.Get(ctx, prev.RevPath())
		if err != nil {
			return fail(ReasonSourceUnavailable, 0, err)
		}

		mapped, err := e.MapLine(ctx, ir.RevPath{Rev: cur.Change, Path: cur.Path}, prev.RevPath(), cur.OriginLine)
		if err != nil {
			return fail(ReasonSourceUnavailable, 0, err)
		}
		if mapped < 1 || mapped > len(parent) {
			return fail(ReasonOutOfRange, mapped, nil)
		}

		cur = parent[mapped-1]
	}

	return result(), nil
}
