package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/hyperblame/internal/diffparse"
	"github.com/roach88/hyperblame/internal/ir"
)

// fileOrigins is the LastTouched outcome for one modification.
type fileOrigins struct {
	key        string
	origins    ir.ChangeSet
	unresolved []*UnresolvableOriginError
}

// LastTouched finds, per file, the earlier changes that introduced the
// lines change deleted.
//
// Each modification's deleted lines are looked up in the attribution of the
// file at change's first parent. Blank and comment lines are skipped, as are
// lines the source marks unblamable. Origins in ignore are walked past like
// Reattribute does; a line whose walk ends on an ignored origin is skipped.
//
// Renamed files are keyed by their new path unless the engine was built
// WithRenameKey(RenameKeyOld); all other files by their pre-change path.
//
// In lenient mode unresolvable lines are skipped and returned together as
// an *UnresolvedLinesError alongside the otherwise complete result.
func (e *Engine) LastTouched(ctx context.Context, change *ir.Change, ignore ir.ChangeSet) (map[string]ir.ChangeSet, error) {
	e.Reset()
	result := make(map[string]ir.ChangeSet)

	parent, ok := change.ParentRev()
	if !ok {
		e.logger.Debug("root change has no deleted lines", "change", change.ID)
		return result, nil
	}

	perFile := make([]fileOrigins, len(change.Modifications))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, mod := range change.Modifications {
		g.Go(func() error {
			fo, err := e.lastTouchedFile(gctx, parent, mod, ignore)
			if err != nil {
				return fmt.Errorf("last touched %s: %w", mod.PreChangePath(), err)
			}
			perFile[i] = fo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var unresolved []*UnresolvableOriginError
	for _, fo := range perFile {
		unresolved = append(unresolved, fo.unresolved...)
		if fo.origins.Len() == 0 {
			continue
		}
		set, ok := result[fo.key]
		if !ok {
			set = ir.NewChangeSet()
			result[fo.key] = set
		}
		for id := range fo.origins {
			set.Add(id)
		}
	}

	e.logger.Debug("last touched complete",
		"change", change.ID,
		"files", len(result),
		"unresolved", len(unresolved))

	if len(unresolved) > 0 {
		return result, &UnresolvedLinesError{Lines: unresolved}
	}
	return result, nil
}

func (e *Engine) lastTouchedFile(ctx context.Context, parent string, mod ir.Modification, ignore ir.ChangeSet) (fileOrigins, error) {
	path := mod.PreChangePath()
	fo := fileOrigins{key: path, origins: ir.NewChangeSet()}
	if mod.Type == ir.ModificationRename && e.renameKey != RenameKeyOld {
		fo.key = mod.NewPath
	}

	parsed, err := diffparse.ParseAddedDeleted(mod.Diff)
	if err != nil {
		return fo, err
	}
	if len(parsed.Deleted) == 0 {
		return fo, nil
	}

	target := ir.RevPath{Rev: parent, Path: path}
	lines, err := e.blames.Get(ctx, target)
	if err != nil {
		return fo, err
	}

	for _, d := range parsed.Deleted {
		if e.filter.Useless(path, d.Text) {
			continue
		}

		if d.Line < 1 || d.Line > len(lines) {
			uerr := &UnresolvableOriginError{
				Reason:   ReasonOutOfRange,
				Path:     path,
				Revision: parent,
				Line:     d.Line,
				Mapped:   d.Line,
			}
			if e.strict {
				return fo, uerr
			}
			fo.unresolved = append(fo.unresolved, uerr)
			continue
		}

		line := lines[d.Line-1]
		if line.Unblamable {
			continue
		}

		r, werr := e.walk(ctx, target, line, ignore)
		if werr != nil {
			if e.strict {
				return fo, werr
			}
			e.logger.Warn("deleted line walk stopped early",
				"path", path,
				"line", d.Line,
				"error", werr)
			fo.unresolved = append(fo.unresolved, werr)
			continue
		}

		if r.Unblamable || ignore.Has(r.Change) {
			continue
		}
		fo.origins.Add(r.Change)
	}

	return fo, nil
}
