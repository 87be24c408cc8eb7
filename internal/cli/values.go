package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/firedoc/internal/codec"
	"github.com/roach88/firedoc/internal/value"
)

// CompareOutput reports how two values order.
type CompareOutput struct {
	Compare int    `json:"compare"`
	Equal   bool   `json:"equal"`
	Op      string `json:"op,omitempty"`
	Result  *bool  `json:"result,omitempty"`
}

func (c CompareOutput) RenderText(w io.Writer) {
	fmt.Fprintf(w, "compare: %d\nequal: %t\n", c.Compare, c.Equal)
	if c.Result != nil {
		fmt.Fprintf(w, "%s: %t\n", c.Op, *c.Result)
	}
}

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Op string
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two encoded values",
		Long: `Compare two values in the total value order and report equality.

With --op, also evaluate a query comparison (#< #<= #> #>= #= #!=, or the
bare forms). Query comparisons never order values of different types and
treat NaN as unequal to everything.

Example:
  firedoc compare '{"type":"NUMBER","value":1}' '{"type":"NUMBER","value":1.0}'
  firedoc compare --op '#<' '{"type":"NULL","value":null}' '{"type":"NUMBER","value":0}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Op, "op", "", "query comparison operator")

	return cmd
}

func runCompare(opts *CompareOptions, aArg, bArg string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}
	a, err := readValueArg(cmd, aArg)
	if err != nil {
		return err
	}
	b, err := readValueArg(cmd, bArg)
	if err != nil {
		return err
	}

	out := CompareOutput{Compare: value.Compare(a, b), Equal: value.Equal(a, b)}
	if opts.Op != "" {
		op, err := value.ParseOp(opts.Op)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --op", err)
		}
		result := value.QueryCompare(op, a, b)
		out.Op = op.String()
		out.Result = &result
	}
	return f.Success(out)
}

// Encodings accepted by encode --to.
const (
	EncodingText        = "text"
	EncodingBinary      = "binary"
	EncodingCanonical   = "canonical"
	EncodingFingerprint = "fingerprint"
)

// EncodeOutput carries an encoded value.
type EncodeOutput struct {
	Encoding string `json:"encoding"`
	Data     string `json:"data"`
}

func (e EncodeOutput) RenderText(w io.Writer) {
	fmt.Fprintln(w, e.Data)
}

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	To string
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <value>",
		Short: "Re-encode a textual value",
		Long: `Read a value in the textual encoding ("-" for stdin) and write it as:

  text         the textual encoding, normalized
  binary       the binary encoding, hex
  canonical    the textual encoding of the canonical form (sorted keys, NFC)
  fingerprint  the SHA-256 content fingerprint, hex

Example:
  firedoc encode --to binary '{"type":"BOOLEAN","value":true}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&opts.To, "to", EncodingBinary, "target encoding (text|binary|canonical|fingerprint)")

	return cmd
}

func runEncode(opts *EncodeOptions, arg string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}
	v, err := readValueArg(cmd, arg)
	if err != nil {
		return err
	}

	var data string
	switch opts.To {
	case EncodingText:
		data, err = encodeTextString(v)
	case EncodingBinary:
		var b []byte
		b, err = codec.EncodeBinary(v)
		data = hex.EncodeToString(b)
	case EncodingCanonical:
		data, err = encodeTextString(codec.Canonicalize(v))
	case EncodingFingerprint:
		data, err = codec.Fingerprint(v)
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown encoding %q", opts.To))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "encode failed", err)
	}
	return f.Success(EncodeOutput{Encoding: opts.To, Data: data})
}

func encodeTextString(v value.Value) (string, error) {
	b, err := codec.EncodeText(v)
	return string(b), err
}

// DecodeOutput carries a decoded value in the textual encoding.
type DecodeOutput struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (d DecodeOutput) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s\n", d.Value)
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a binary value",
		Long: `Decode a hex-encoded binary value ("-" for stdin) and print its textual
encoding.

Example:
  firedoc decode 1801`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], cmd)
		},
	}
}

func runDecode(opts *RootOptions, arg string, cmd *cobra.Command) error {
	f, err := opts.formatter(cmd)
	if err != nil {
		return err
	}

	text := arg
	if arg == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		text = string(b)
	}
	data, err := hex.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid hex", err)
	}

	v, err := codec.DecodeBinary(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid value", err)
	}
	encoded, err := codec.EncodeText(v)
	if err != nil {
		return WrapExitError(ExitCommandError, "encode failed", err)
	}
	return f.Success(DecodeOutput{Type: value.TypeOf(v).String(), Value: encoded})
}
