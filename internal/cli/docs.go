package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/firedoc/internal/codec"
	"github.com/roach88/firedoc/internal/docstore"
	"github.com/roach88/firedoc/internal/path"
	"github.com/roach88/firedoc/internal/query"
	"github.com/roach88/firedoc/internal/value"
)

// DocumentOutput is a document in command output. Properties carry the
// textual value encoding.
type DocumentOutput struct {
	Reference  string          `json:"reference"`
	Properties json.RawMessage `json:"properties"`

	// Fingerprint is set by get only.
	Fingerprint string `json:"fingerprint,omitempty"`
}

func (d DocumentOutput) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s\t%s\n", d.Reference, d.Properties)
}

// WriteOutput reports an accepted insert or add.
type WriteOutput struct {
	Reference string `json:"reference"`
}

func (o WriteOutput) RenderText(w io.Writer) {
	fmt.Fprintf(w, "inserted %s\n", o.Reference)
}

func documentOutput(doc query.Document) (DocumentOutput, error) {
	text, err := codec.EncodeText(doc.Properties)
	if err != nil {
		return DocumentOutput{}, err
	}
	return DocumentOutput{Reference: doc.Reference.String(), Properties: text}, nil
}

// readValueArg decodes a textual value from arg, or from stdin when arg is "-".
func readValueArg(cmd *cobra.Command, arg string) (value.Value, error) {
	data := []byte(arg)
	if arg == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		data = b
	}
	v, err := codec.DecodeText([]byte(strings.TrimSpace(string(data))))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid value", err)
	}
	return v, nil
}

// reportInsertError prints a rejected write and returns an exit error that
// main does not print again.
func reportInsertError(f *OutputFormatter, err error) error {
	var ie *docstore.InsertError
	if !errors.As(err, &ie) {
		return WrapExitError(ExitCommandError, "insert failed", err)
	}
	if outErr := f.Error(string(ie.Code), ie.Message, map[string]string{"reference": ie.Reference}); outErr != nil {
		return outErr
	}
	return &ExitError{Code: ExitFailure}
}

// InsertOptions holds flags for the insert command.
type InsertOptions struct {
	*RootOptions
	RawKey bool
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insert <reference> <properties>",
		Short: "Insert a document",
		Long: `Insert a document at a reference. Properties use the textual value
encoding and must be a MAP; pass "-" to read them from stdin.

Inserts never overwrite: an existing reference is rejected.

Examples:
  firedoc insert /users/1 '{"type":"MAP","value":{}}'
  firedoc insert /users/1/posts/1 - < post.json
  firedoc insert --raw-key '{"type":"STRING","value":"x"}' '{"type":"MAP","value":{}}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.RawKey, "raw-key", false, "treat the reference argument as an encoded value")

	return cmd
}

func runInsert(opts *InsertOptions, refArg, propsArg string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}

	var key value.Value
	if opts.RawKey {
		if key, err = readValueArg(cmd, refArg); err != nil {
			return err
		}
	} else {
		ref, err := path.Parse(refArg)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid reference", err)
		}
		key = value.NewReference(ref)
	}

	props, err := readValueArg(cmd, propsArg)
	if err != nil {
		return err
	}

	s, closer, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := s.Insert(cmd.Context(), key, props); err != nil {
		return reportInsertError(f, err)
	}

	ref, _ := value.AsReference(key)
	return f.Success(WriteOutput{Reference: ref.Path.String()})
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <collection> <properties>",
		Short: "Insert a document under a generated ID",
		Long: `Insert a document into a collection under a new time-ordered ID and
print its reference.

Example:
  firedoc add /users/1/posts '{"type":"MAP","value":{}}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runAdd(opts *RootOptions, collectionArg, propsArg string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}

	collection, err := path.Parse(collectionArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid collection", err)
	}
	props, err := readValueArg(cmd, propsArg)
	if err != nil {
		return err
	}

	s, closer, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	ref, err := s.Add(cmd.Context(), collection, props)
	if err != nil {
		return reportInsertError(f, err)
	}
	return f.Success(WriteOutput{Reference: ref.String()})
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <reference>",
		Short: "Print one document",
		Long: `Print the document stored at a reference. Exits 1 when it is absent.
JSON output also carries the stored content fingerprint.

Example:
  firedoc get /users/1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, args[0], cmd)
		},
	}
}

func runGet(opts *RootOptions, refArg string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}

	ref, err := path.Parse(refArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid reference", err)
	}

	s, closer, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	doc, found, err := s.Get(cmd.Context(), ref)
	if err != nil {
		return WrapExitError(ExitCommandError, "read failed", err)
	}
	if !found {
		if err := f.Error("NOT_FOUND", "no document at "+ref.String(), nil); err != nil {
			return err
		}
		return &ExitError{Code: ExitFailure}
	}

	out, err := documentOutput(doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "encode failed", err)
	}
	if out.Fingerprint, _, err = s.Fingerprint(cmd.Context(), ref); err != nil {
		return WrapExitError(ExitCommandError, "read failed", err)
	}
	return f.Success(out)
}
