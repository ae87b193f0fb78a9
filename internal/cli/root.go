package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/hyperblame/internal/config"
	"github.com/roach88/hyperblame/internal/gitcli"
	"github.com/roach88/hyperblame/internal/ir"
	"github.com/roach88/hyperblame/internal/source"
	"github.com/roach88/hyperblame/internal/store"
)

// Repository is everything the commands read from a repository.
type Repository interface {
	source.AttributionSource
	source.DiffSource
	source.ChangeSource
	source.RevResolver
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	RepoDir string
	Config  string
	DB      string

	// OpenRepo opens the repository at dir. Nil means git.
	OpenRepo func(dir string, logger *slog.Logger) Repository
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the hyperblame CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hyperblame",
		Short: "Blame that looks past ignored changes",
		Long: `hyperblame attributes each line of a file to the change that wrote it,
skipping changes listed as ignored (reformats, renames, mass edits) and
reporting the earlier change the line came from instead.

It also finds, for a given change, the earlier changes that introduced
the lines it deleted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("%s: invalid format %q: must be one of %v", ErrCodeUsage, opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, ErrCodeUsage, err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.RepoDir, "repo", "C", ".", "repository directory")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "SQLite database recording every query")

	// Add subcommands
	cmd.AddCommand(NewBlameCommand(opts))
	cmd.AddCommand(NewSZZCommand(opts))
	cmd.AddCommand(NewDiffLinesCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// logger writes structured logs to the command's stderr.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: o.Verbose,
	}
}

func (o *RootOptions) openRepo(logger *slog.Logger) Repository {
	if o.OpenRepo != nil {
		return o.OpenRepo(o.RepoDir, logger)
	}
	return gitcli.New(o.RepoDir, logger)
}

func (o *RootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, o.fail(cmd, ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	return cfg, nil
}

// openStore opens the results database, or returns nil when --db is unset.
func (o *RootOptions) openStore(cmd *cobra.Command) (*store.Store, error) {
	if o.DB == "" {
		return nil, nil
	}
	st, err := store.Open(o.DB)
	if err != nil {
		return nil, o.fail(cmd, ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	return st, nil
}

// fail reports err in JSON mode and returns it as an ExitError. Text mode
// leaves printing to the caller of Execute.
func (o *RootOptions) fail(cmd *cobra.Command, exit int, code, message string, err error) error {
	if o.Format == "json" {
		_ = o.formatter(cmd).Error(code, message, err.Error())
	}
	return WrapExitError(exit, code+": "+message, err)
}

// failQuery reports an engine or source error with its classified code.
func (o *RootOptions) failQuery(cmd *cobra.Command, message string, err error) error {
	code, exit := classify(err)
	return o.fail(cmd, exit, code, message, err)
}

// IgnoreOptions selects the changes a query walks past.
type IgnoreOptions struct {
	Revs             []string
	File             string
	NoDefaultIgnores bool
}

func (ign *IgnoreOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&ign.Revs, "ignore", "i", nil, "change to ignore (repeatable)")
	cmd.Flags().StringVar(&ign.File, "ignore-file", "", "file listing changes to ignore")
	cmd.Flags().BoolVar(&ign.NoDefaultIgnores, "no-default-ignores", false, "do not read the repository's default ignore file")
}

// resolveIgnore collects ignored revisions from flags, the explicit
// ignore file and the configured default file, then resolves them to full
// change ids. A missing default file is not an error.
func (o *RootOptions) resolveIgnore(cmd *cobra.Command, ign *IgnoreOptions, cfg *config.Config, repo Repository, logger *slog.Logger) (ir.ChangeSet, error) {
	revs := append([]string(nil), ign.Revs...)

	if ign.File != "" {
		fromFile, err := gitcli.ReadIgnoreFile(ign.File)
		if err != nil {
			return nil, o.fail(cmd, ExitCommandError, ErrCodeIgnoreFile, "failed to read ignore file", err)
		}
		revs = append(revs, fromFile...)
	}

	if !ign.NoDefaultIgnores && cfg.IgnoreRevsFile != "" {
		path := cfg.IgnoreRevsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(o.RepoDir, path)
		}
		fromFile, err := gitcli.ReadIgnoreFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("no default ignore file", "path", path)
		case err != nil:
			return nil, o.fail(cmd, ExitCommandError, ErrCodeIgnoreFile, "failed to read ignore file", err)
		default:
			logger.Debug("read default ignore file", "path", path, "revs", len(fromFile))
			revs = append(revs, fromFile...)
		}
	}

	if len(revs) == 0 {
		return ir.NewChangeSet(), nil
	}
	ids, err := repo.ResolveRevs(cmd.Context(), revs)
	if err != nil {
		return nil, o.failQuery(cmd, "failed to resolve ignored revisions", err)
	}
	return ir.NewChangeSet(ids...), nil
}

// resolveRev resolves a single revision name to a full change id.
func (o *RootOptions) resolveRev(cmd *cobra.Command, repo Repository, rev string) (string, error) {
	ids, err := repo.ResolveRevs(cmd.Context(), []string{rev})
	if err != nil {
		return "", o.failQuery(cmd, fmt.Sprintf("failed to resolve %s", rev), err)
	}
	return ids[0], nil
}
