package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/firedoc/internal/config"
)

// ConfigEntry is one key and its effective value.
type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ConfigOutput lists settings in file order.
type ConfigOutput struct {
	Path    string        `json:"path"`
	Entries []ConfigEntry `json:"entries"`
}

func (c ConfigOutput) RenderText(w io.Writer) {
	for _, e := range c.Entries {
		fmt.Fprintf(w, "%s = %s\n", e.Key, e.Value)
	}
}

// PathOutput reports the config file location.
type PathOutput struct {
	Path string `json:"path"`
}

func (p PathOutput) RenderText(w io.Writer) {
	fmt.Fprintln(w, p.Path)
}

// NewConfigCommand creates the config command and its subcommands.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change the settings stored in the config file.

Keys: store.backend, store.path, output.format, log.level.

Examples:
  firedoc config show
  firedoc config set store.backend memory
  firedoc config path`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "Print effective settings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "set <key> <value>",
		Short:         "Write one setting to the config file",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(rootOpts, args[0], args[1], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "path",
		Short:         "Print the config file location",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := rootOpts.formatter(cmd)
			if err != nil {
				return err
			}
			file, err := configFile(rootOpts)
			if err != nil {
				return err
			}
			return f.Success(PathOutput{Path: file})
		},
	})

	return cmd
}

func configFile(opts *RootOptions) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	p, err := config.DefaultPath()
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to locate config", err)
	}
	return p, nil
}

func runConfigShow(opts *RootOptions, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}
	file, err := configFile(opts)
	if err != nil {
		return err
	}

	cfg := opts.config()
	out := ConfigOutput{Path: file}
	for _, key := range config.Keys() {
		v, err := cfg.Get(key)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read config", err)
		}
		out.Entries = append(out.Entries, ConfigEntry{Key: key, Value: v})
	}
	return f.Success(out)
}

// runConfigSet edits the file's own settings, ignoring flag overrides.
func runConfigSet(opts *RootOptions, key, val string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}
	file, err := configFile(opts)
	if err != nil {
		return err
	}

	cfg, err := config.Load(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if err := cfg.Set(key, val); err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	if err := cfg.Save(file); err != nil {
		return WrapExitError(ExitCommandError, "failed to save config", err)
	}

	f.VerboseLog("wrote %s", file)
	got, _ := cfg.Get(key)
	return f.Success(ConfigEntry{Key: key, Value: got})
}

func (e ConfigEntry) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s = %s\n", e.Key, e.Value)
}
