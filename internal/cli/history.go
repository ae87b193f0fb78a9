package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit  int
	Change string
	RunID  string
}

// RunDetail is the JSON payload of history --run.
type RunDetail struct {
	store.Run
	Lines   []store.RunLine   `json:"lines,omitempty"`
	Origins []store.RunOrigin `json:"origins,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List queries recorded in the results database",
		Long: `List the runs recorded by blame and szz in the --db database: the most
recent --limit runs, oldest first.

With --change, list only last-touched runs that reported the change as
an origin. With --run, show the recorded output of one run.

Examples:
  hyperblame history --db runs.db
  hyperblame history --db runs.db --limit 5 --format json
  hyperblame history --db runs.db --change 3f2a9c1e...
  hyperblame history --db runs.db --run 0191f7a2-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Change, "change", "", "only runs that report this change as an origin")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the output of one run")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	if opts.DB == "" {
		return opts.fail(cmd, ExitCommandError, ErrCodeUsage, "history needs --db", errors.New("no database given"))
	}
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.RunID != "" {
		return showRun(opts, cmd, st)
	}

	var runs []store.Run
	if opts.Change != "" {
		runs, err = st.RunsWithOrigin(ctx, opts.Change)
	} else {
		runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		return opts.fail(cmd, ExitCommandError, ErrCodeStore, "failed to read runs", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(runs)
	}
	writeRunsText(cmd.OutOrStdout(), runs)
	return nil
}

func showRun(opts *HistoryOptions, cmd *cobra.Command, st *store.Store) error {
	ctx := cmd.Context()

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return opts.fail(cmd, ExitCommandError, ErrCodeUsage, fmt.Sprintf("no run %s", opts.RunID), err)
	}
	if err != nil {
		return opts.fail(cmd, ExitCommandError, ErrCodeStore, "failed to read run", err)
	}

	detail := RunDetail{Run: run}
	switch run.Kind {
	case ir.QueryReattribute:
		detail.Lines, err = st.ReadRunLines(ctx, run.ID)
	case ir.QueryLastTouched:
		detail.Origins, err = st.ReadRunOrigins(ctx, run.ID)
	}
	if err != nil {
		return opts.fail(cmd, ExitCommandError, ErrCodeStore, "failed to read run output", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(detail)
	}

	w := cmd.OutOrStdout()
	writeRunsText(w, []store.Run{run})
	for _, l := range detail.Lines {
		fmt.Fprintf(w, "%d\t%s\t%s:%d\t%s\n", l.FinalLine, shortID(l.Change, 8), l.OriginPath, l.OriginLine, l.Content)
	}
	for _, o := range detail.Origins {
		fmt.Fprintf(w, "%s\t%s\n", o.Path, o.Change)
	}
	return nil
}

// writeRunsText prints one line per run:
//
//	<seq> <id> <kind> <target> ignored=<n> unresolved=<n>
func writeRunsText(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return
	}
	for _, r := range runs {
		target := shortID(r.Revision, 12)
		if r.Path != "" {
			target = r.Path + "@" + target
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\tignored=%d\tunresolved=%d\n",
			r.Seq, r.ID, r.Kind, target, len(r.Ignore), r.Unresolved)
	}
}

