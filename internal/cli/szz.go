package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/hyperblame/internal/engine"
	"github.com/roach88/hyperblame/internal/store"
)

// SZZOptions holds flags for the szz command.
type SZZOptions struct {
	*RootOptions
	IgnoreOptions
	Strict    bool
	RenameKey string
}

// SZZResult is the JSON payload of the szz command.
type SZZResult struct {
	Change     string              `json:"change"`
	Files      map[string][]string `json:"files"`
	Unresolved int                 `json:"unresolved"`
	RunID      string              `json:"run_id,omitempty"`
}

// NewSZZCommand creates the szz command.
func NewSZZCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SZZOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "szz <change>",
		Short: "Find the changes that introduced the lines a change deleted",
		Long: `For every file a change modified, look up the lines it deleted in the
file as of the change's first parent and report, per file, the changes
that last touched them. Blank and comment lines are skipped. Ignored
changes are walked past like in blame.

Renamed files are reported under their new path unless --rename-key old.

Exit codes:
  0 - Success (unresolved lines are reported but do not fail)
  1 - Strict mode: a deleted line could not be resolved
  2 - Command error (repository, config, database)

Examples:
  hyperblame szz 3f2a9c1
  hyperblame szz HEAD~1 --ignore-file .git-blame-ignore-revs
  hyperblame szz 3f2a9c1 --rename-key old --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSZZ(opts, cmd, args[0])
		},
	}

	opts.IgnoreOptions.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on the first deleted line that cannot be resolved")
	cmd.Flags().StringVar(&opts.RenameKey, "rename-key", "", "key renamed files by their new or old path (new|old)")

	return cmd
}

func runSZZ(opts *SZZOptions, cmd *cobra.Command, rev string) error {
	ctx := cmd.Context()
	logger := opts.logger(cmd)

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	strict := cfg.Strict
	if cmd.Flags().Changed("strict") {
		strict = opts.Strict
	}
	renameKey := engine.RenameKey(cfg.RenameKey)
	if cmd.Flags().Changed("rename-key") {
		renameKey = engine.RenameKey(opts.RenameKey)
		if renameKey != engine.RenameKeyNew && renameKey != engine.RenameKeyOld {
			return opts.fail(cmd, ExitCommandError, ErrCodeUsage, "invalid --rename-key",
				fmt.Errorf("%q: must be %q or %q", opts.RenameKey, engine.RenameKeyNew, engine.RenameKeyOld))
		}
	}

	repo := opts.openRepo(logger)

	ignore, err := opts.resolveIgnore(cmd, &opts.IgnoreOptions, cfg, repo, logger)
	if err != nil {
		return err
	}
	id, err := opts.resolveRev(cmd, repo, rev)
	if err != nil {
		return err
	}
	change, err := repo.Change(ctx, id)
	if err != nil {
		return opts.failQuery(cmd, fmt.Sprintf("failed to read change %s", rev), err)
	}

	engOpts := append(cfg.EngineOptions(),
		engine.WithStrict(strict),
		engine.WithRenameKey(renameKey),
		engine.WithLogger(logger))
	eng := engine.New(repo, repo, engOpts...)

	origins, err := eng.LastTouched(ctx, change, ignore)
	unresolved := 0
	var ule *engine.UnresolvedLinesError
	switch {
	case err == nil:
	case errors.As(err, &ule):
		unresolved = len(ule.Lines)
		logger.Warn("some deleted lines could not be resolved", "change", change.ID, "unresolved", unresolved)
	default:
		return opts.failQuery(cmd, fmt.Sprintf("failed to analyze %s", rev), err)
	}

	result := SZZResult{
		Change:     change.ID,
		Files:      make(map[string][]string, len(origins)),
		Unresolved: unresolved,
	}
	for path, set := range origins {
		result.Files[path] = set.Sorted()
	}

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
		run, err := st.RecordLastTouched(ctx, store.Query{
			Revision: change.ID,
			Ignore:   ignore.Sorted(),
			Strict:   strict,
		}, origins, unresolved)
		if err != nil {
			return opts.fail(cmd, ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		result.RunID = run.ID
		logger.Debug("run recorded", "run_id", run.ID, "seq", run.Seq)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}
	writeSZZText(cmd.OutOrStdout(), result.Files)
	return nil
}

// writeSZZText prints one "path<TAB>change" line per pair, sorted.
func writeSZZText(w io.Writer, files map[string][]string) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No deleted lines traced.")
		return
	}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		for _, c := range files[p] {
			fmt.Fprintf(w, "%s\t%s\n", p, c)
		}
	}
}

