package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/hyperblame/internal/diffparse"
	"github.com/roach88/hyperblame/internal/ir"
)

// NewDiffLinesCommand creates the diff-lines command.
func NewDiffLinesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff-lines [file|-]",
		Short: "List the added and deleted lines of a unified diff",
		Long: `Read a unified diff of a single file and print its deleted lines with
their old line numbers, then its added lines with their new line numbers.

With no argument or "-", the diff is read from stdin.

Examples:
  git diff -U0 HEAD~1 -- main.go | hyperblame diff-lines
  hyperblame diff-lines change.patch --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "-"
			if len(args) == 1 {
				name = args[0]
			}
			return runDiffLines(rootOpts, cmd, name)
		},
	}
	return cmd
}

func runDiffLines(opts *RootOptions, cmd *cobra.Command, name string) error {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return opts.fail(cmd, ExitCommandError, ErrCodeUsage, "failed to read diff", err)
	}

	parsed, err := diffparse.ParseAddedDeleted(string(data))
	if err != nil {
		return opts.fail(cmd, ExitFailure, ErrCodeMalformed, "failed to parse diff", err)
	}
	if parsed.Added == nil {
		parsed.Added = []ir.DiffLine{}
	}
	if parsed.Deleted == nil {
		parsed.Deleted = []ir.DiffLine{}
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(parsed)
	}

	w := cmd.OutOrStdout()
	for _, d := range parsed.Deleted {
		fmt.Fprintf(w, "-%d\t%s\n", d.Line, d.Text)
	}
	for _, a := range parsed.Added {
		fmt.Fprintf(w, "+%d\t%s\n", a.Line, a.Text)
	}
	return nil
}
