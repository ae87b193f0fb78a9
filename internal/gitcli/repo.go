package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/source"
)

// DefaultGitPath is looked up on PATH when Repo.GitPath is empty.
const DefaultGitPath = "git"

// Repo runs git inside one working tree.
//
// Thread-safety: all methods may be called concurrently; each spawns its
// own process.
type Repo struct {
	// Dir is the working directory git runs in. Empty means the current
	// directory.
	Dir string

	// GitPath overrides the git executable.
	GitPath string

	// Logger receives one debug record per git invocation.
	Logger *slog.Logger
}

var (
	_ source.AttributionSource = (*Repo)(nil)
	_ source.DiffSource        = (*Repo)(nil)
	_ source.ChangeSource      = (*Repo)(nil)
	_ source.RevResolver       = (*Repo)(nil)
)

// New creates a Repo rooted at dir.
func New(dir string, logger *slog.Logger) *Repo {
	return &Repo{Dir: dir, Logger: logger}
}

// Blame implements source.AttributionSource.
func (r *Repo) Blame(ctx context.Context, at ir.RevPath) (string, error) {
	return r.run(ctx, "blame", at.String(), "blame", "--porcelain", at.Rev, "--", at.Path)
}

// Diff implements source.DiffSource with zero context lines.
func (r *Repo) Diff(ctx context.Context, from, to ir.RevPath) (string, error) {
	target := from.String() + ".." + to.String()
	return r.run(ctx, "diff", target, "diff", "--no-color", "--no-ext-diff", "-U0", from.String(), to.String())
}

// Change implements source.ChangeSource.
func (r *Repo) Change(ctx context.Context, rev string) (*ir.Change, error) {
	meta, err := r.run(ctx, "change", rev, "show", "-s", "--no-color", "--format="+showFormat, rev+"^{commit}")
	if err != nil {
		return nil, err
	}
	change, err := parseShow(meta)
	if err != nil {
		return nil, &source.SourceUnavailableError{Op: "change", Target: rev, Err: err}
	}

	var text string
	if parent, ok := change.ParentRev(); ok {
		text, err = r.run(ctx, "change", rev, "diff", "-M", "--no-color", "--no-ext-diff", parent, change.ID)
	} else {
		text, err = r.run(ctx, "change", rev, "diff-tree", "--root", "--no-commit-id", "-p", "-M", "-r",
			"--no-color", "--no-ext-diff", change.ID)
	}
	if err != nil {
		return nil, err
	}

	mods, err := ParseModifications(text)
	if err != nil {
		return nil, &source.SourceUnavailableError{Op: "change", Target: rev, Err: err}
	}
	change.Modifications = mods
	return change, nil
}

// ResolveRevs implements source.RevResolver. Every name must resolve to a
// commit.
func (r *Repo) ResolveRevs(ctx context.Context, revs []string) ([]string, error) {
	ids := make([]string, len(revs))
	for i, rev := range revs {
		out, err := r.run(ctx, "rev-parse", rev, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
		if err != nil {
			return nil, err
		}
		ids[i] = strings.TrimSpace(out)
	}
	return ids, nil
}

// run executes git and returns its stdout.
func (r *Repo) run(ctx context.Context, op, target string, args ...string) (string, error) {
	gitPath := r.GitPath
	if gitPath == "" {
		gitPath = DefaultGitPath
	}

	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if r.Logger != nil {
		r.Logger.Debug("running git", "op", op, "args", args)
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		} else {
			err = fmt.Errorf("git %s: %w", args[0], err)
		}
		return "", &source.SourceUnavailableError{Op: op, Target: target, Err: err}
	}

	return stdout.String(), nil
}
