package gitcli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/roach88/hyperblame/internal/ir"
)

const devNull = "/dev/null"

// ParseModifications splits the multi-file output of git diff into one
// Modification per file. Each Modification's Diff holds only that file's
// hunks.
func ParseModifications(text string) ([]ir.Modification, error) {
	fds, err := diff.NewMultiFileDiffReader(strings.NewReader(text)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parse change diff: %w", err)
	}

	mods := make([]ir.Modification, 0, len(fds))
	for _, fd := range fds {
		mod, err := toModification(fd)
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

func toModification(fd *diff.FileDiff) (ir.Modification, error) {
	mod := ir.Modification{
		Type:    ir.ModificationModify,
		OldPath: stripSide(fd.OrigName, "a/"),
		NewPath: stripSide(fd.NewName, "b/"),
	}

	for _, ext := range fd.Extended {
		switch {
		case strings.HasPrefix(ext, "new file mode"):
			mod.Type = ir.ModificationAdd
		case strings.HasPrefix(ext, "deleted file mode"):
			mod.Type = ir.ModificationDelete
		case strings.HasPrefix(ext, "rename from "):
			mod.Type = ir.ModificationRename
			mod.OldPath = unquote(strings.TrimPrefix(ext, "rename from "))
		case strings.HasPrefix(ext, "rename to "):
			mod.NewPath = unquote(strings.TrimPrefix(ext, "rename to "))
		case strings.HasPrefix(ext, "copy from "):
			mod.Type = ir.ModificationCopy
			mod.OldPath = unquote(strings.TrimPrefix(ext, "copy from "))
		case strings.HasPrefix(ext, "copy to "):
			mod.NewPath = unquote(strings.TrimPrefix(ext, "copy to "))
		}
	}

	if mod.OldPath == "" && mod.Type == ir.ModificationModify {
		mod.Type = ir.ModificationAdd
	}
	if mod.NewPath == "" && mod.Type == ir.ModificationModify {
		mod.Type = ir.ModificationDelete
	}

	if len(fd.Hunks) > 0 {
		body, err := diff.PrintHunks(fd.Hunks)
		if err != nil {
			return ir.Modification{}, fmt.Errorf("render hunks of %s: %w", mod.PreChangePath(), err)
		}
		mod.Diff = string(body)
	}
	return mod, nil
}

// stripSide turns a diff header name into a repository path. /dev/null
// becomes empty.
func stripSide(name, prefix string) string {
	name = unquote(name)
	if name == devNull || name == "" {
		return ""
	}
	return strings.TrimPrefix(name, prefix)
}

func unquote(p string) string {
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		if u, err := strconv.Unquote(p); err == nil {
			return u
		}
	}
	return p
}
