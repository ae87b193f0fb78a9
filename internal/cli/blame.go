package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hyperblame/internal/blame"
	"github.com/roach88/hyperblame/internal/engine"
	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/store"
)

// BlameOptions holds flags for the blame command.
type BlameOptions struct {
	*RootOptions
	IgnoreOptions
	Strict    bool
	Porcelain bool
}

// BlameLine is one output line of the blame command.
type BlameLine struct {
	Line       int    `json:"line"`
	Change     string `json:"change"`
	OriginLine int    `json:"origin_line"`
	Path       string `json:"path"`
	Author     string `json:"author,omitempty"`
	Content    string `json:"content"`
	Modified   bool   `json:"modified"`
	Boundary   bool   `json:"boundary,omitempty"`
	Unblamable bool   `json:"unblamable,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BlameResult is the JSON payload of the blame command.
type BlameResult struct {
	Path       string      `json:"path"`
	Revision   string      `json:"revision"`
	Ignore     []string    `json:"ignore"`
	Lines      []BlameLine `json:"lines"`
	Unresolved int         `json:"unresolved"`
	RunID      string      `json:"run_id,omitempty"`
}

// NewBlameCommand creates the blame command.
func NewBlameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BlameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "blame <path> [rev]",
		Short: "Blame a file, skipping ignored changes",
		Long: `Attribute every line of a file at a revision (default HEAD), moving
lines owned by an ignored change back to the change they came from.

Ignored changes come from --ignore, --ignore-file and the repository's
.git-blame-ignore-revs (unless --no-default-ignores).

Text output marks lines whose origin moved with '*' and lines that
could not be walked with '?'. Boundary changes are prefixed with '^'.

Exit codes:
  0 - Success (unresolved lines are reported but do not fail)
  1 - Strict mode: a line could not be reattributed
  2 - Command error (repository, config, database)

Examples:
  hyperblame blame main.go
  hyperblame blame main.go v1.2.0 --ignore 3f2a9c1
  hyperblame blame main.go --strict --format json
  hyperblame blame main.go --porcelain`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev := "HEAD"
			if len(args) == 2 {
				rev = args[1]
			}
			return runBlame(opts, cmd, args[0], rev)
		},
	}

	opts.IgnoreOptions.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on the first line that cannot be reattributed")
	cmd.Flags().BoolVar(&opts.Porcelain, "porcelain", false, "write git blame --porcelain output")

	return cmd
}

func runBlame(opts *BlameOptions, cmd *cobra.Command, path, rev string) error {
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

	repo := opts.openRepo(logger)

	ignore, err := opts.resolveIgnore(cmd, &opts.IgnoreOptions, cfg, repo, logger)
	if err != nil {
		return err
	}
	id, err := opts.resolveRev(cmd, repo, rev)
	if err != nil {
		return err
	}

	engOpts := append(cfg.EngineOptions(), engine.WithStrict(strict), engine.WithLogger(logger))
	eng := engine.New(repo, repo, engOpts...)

	lines, err := eng.Reattribute(ctx, path, id, ignore)
	if err != nil {
		return opts.failQuery(cmd, fmt.Sprintf("failed to blame %s", path), err)
	}

	result := BlameResult{
		Path:     path,
		Revision: id,
		Ignore:   ignore.Sorted(),
		Lines:    make([]BlameLine, len(lines)),
	}
	for i, l := range lines {
		result.Lines[i] = toBlameLine(l)
		if l.Err != nil {
			result.Unresolved++
		}
	}
	if result.Unresolved > 0 {
		logger.Warn("some lines kept an ignored origin", "path", path, "unresolved", result.Unresolved)
	}

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
		run, err := st.RecordReattribution(ctx, store.Query{
			Path:     path,
			Revision: id,
			Ignore:   result.Ignore,
			Strict:   strict,
		}, lines)
		if err != nil {
			return opts.fail(cmd, ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		result.RunID = run.ID
		logger.Debug("run recorded", "run_id", run.ID, "seq", run.Seq)
	}

	w := cmd.OutOrStdout()
	switch {
	case opts.Porcelain:
		plain := make([]ir.AttributionLine, len(lines))
		for i, l := range lines {
			plain[i] = l.AttributionLine
		}
		return blame.Write(w, plain)
	case opts.Format == "json":
		return opts.formatter(cmd).Success(result)
	default:
		writeBlameText(w, result.Lines)
		return nil
	}
}

func toBlameLine(l ir.ReattributedLine) BlameLine {
	bl := BlameLine{
		Line:       l.FinalLine,
		Change:     l.Change,
		OriginLine: l.OriginLine,
		Path:       l.Path,
		Author:     l.Meta.Author,
		Content:    l.Content,
		Modified:   l.Modified,
		Boundary:   l.IsBoundary(),
		Unblamable: l.Unblamable,
	}
	if l.Err != nil {
		bl.Error = l.Err.Error()
	}
	return bl
}

// writeBlameText renders one line per output line:
//
//	<id><mark> (<author> <line>) <content>
func writeBlameText(w io.Writer, lines []BlameLine) {
	authorWidth := 0
	for _, l := range lines {
		authorWidth = max(authorWidth, len(l.Author))
	}
	lineWidth := len(strconv.Itoa(len(lines)))

	for _, l := range lines {
		fmt.Fprintf(w, "%s%s (%-*s %*d) %s\n",
			abbrev(l), mark(l), authorWidth, l.Author, lineWidth, l.Line, l.Content)
	}
}

func abbrev(l BlameLine) string {
	switch {
	case l.Unblamable:
		return strings.Repeat("0", 8)
	case l.Boundary:
		return "^" + shortID(l.Change, 7)
	default:
		return shortID(l.Change, 8)
	}
}

func shortID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}

func mark(l BlameLine) string {
	switch {
	case l.Error != "":
		return "?"
	case l.Modified:
		return "*"
	default:
		return " "
	}
}
