package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/firedoc/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Backend and Database override store.backend and store.path.
	Backend  string
	Database string

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// NewRootCommand creates the root command for the firedoc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "firedoc",
		Short: "firedoc - a local Firestore-style document store",
		Long: `A local document store with Firestore value semantics.

Documents live at slash-separated references such as /users/1/posts/2 and
hold a map of typed values. Collections list direct children; collection
groups match a collection ID at any depth.

Settings are read from ~/.firedoc/config.toml (or --config); flags win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.firedoc/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "store backend (sqlite|memory)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewCollectionCommand(opts))
	cmd.AddCommand(NewGroupCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// resolve loads the config file and merges flags over it. Flags the user
// set explicitly win; unset flags take the file's values.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	file := o.ConfigPath
	if file == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to locate config", err)
		}
		file = p
	}

	cfg, err := config.Load(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = o.Format
	}
	if flags.Changed("backend") {
		cfg.Store.Backend = o.Backend
	}
	if flags.Changed("db") {
		cfg.Store.Path = o.Database
	}
	if err := cfg.Validate(); err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}

	o.cfg = cfg
	o.ConfigPath = file
	o.Format = cfg.Output.Format
	o.Backend = cfg.Store.Backend
	o.Database = cfg.Store.Path

	return setupLogging(cmd.ErrOrStderr(), cfg.Log.Level, o.Verbose)
}

// config returns the resolved settings. Commands built without the root
// command (as in tests) see the defaults overlaid with their options.
func (o *RootOptions) config() *config.Config {
	if o.cfg != nil {
		return o.cfg
	}
	cfg := config.Default()
	if o.Format != "" {
		cfg.Output.Format = o.Format
	}
	if o.Backend != "" {
		cfg.Store.Backend = o.Backend
	}
	if o.Database != "" {
		cfg.Store.Path = o.Database
	}
	return cfg
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) (*OutputFormatter, error) {
	format := o.config().Output.Format
	if !isValidFormat(format) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", format, ValidFormats))
	}
	return &OutputFormatter{
		Format:    format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}, nil
}
