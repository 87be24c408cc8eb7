package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/firedoc/internal/fixture"
)

// SeedOutput reports a loaded fixture.
type SeedOutput struct {
	Fixture  string `json:"fixture"`
	Inserted int    `json:"inserted"`
}

func (s SeedOutput) RenderText(w io.Writer) {
	fmt.Fprintf(w, "seeded %d documents from %s\n", s.Inserted, s.Fixture)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture-file>",
		Short: "Insert the documents of a YAML or CUE fixture",
		Long: `Insert every document listed in a fixture file, in order. Fixtures are
YAML (.yaml, .yml) or CUE (.cue) files with a documents list:

  documents:
    - reference: /users/1
      properties: {type: MAP, value: {name: {type: STRING, value: ada}}}

Seeding stops at the first rejected document; earlier documents stay.

Example:
  firedoc seed ./fixtures/users.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}
}

func runSeed(opts *RootOptions, file string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}

	fx, err := fixture.LoadFile(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}
	f.VerboseLog("loaded %d documents from %s", len(fx.Documents), file)

	s, closer, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	n, err := fx.Apply(cmd.Context(), s)
	if err != nil {
		f.VerboseLog("inserted %d documents before failing", n)
		return reportInsertError(f, err)
	}
	return f.Success(SeedOutput{Fixture: file, Inserted: n})
}
