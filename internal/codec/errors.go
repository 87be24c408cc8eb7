package codec

import (
	"errors"
	"fmt"

	"github.com/roach88/firedoc/internal/value"
)

// Format names the encoding a DecodeError came from.
type Format string

const (
	FormatText   Format = "text"
	FormatBinary Format = "binary"
)

// DecodeError reports malformed textual or binary input.
type DecodeError struct {
	// Format is the encoding being decoded.
	Format Format

	// Location is a JSONPath-like pointer to the failing value ("$" is the root).
	Location string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %s at %s: %s", e.Format, e.Location, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is, or wraps, a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

func textError(loc *location, format string, args ...any) *DecodeError {
	return &DecodeError{Format: FormatText, Location: loc.String(), Message: fmt.Sprintf(format, args...)}
}

func wrapTextError(loc *location, message string, err error) *DecodeError {
	return &DecodeError{Format: FormatText, Location: loc.String(), Message: message, Err: err}
}

func binaryError(loc *location, format string, args ...any) *DecodeError {
	return &DecodeError{Format: FormatBinary, Location: loc.String(), Message: fmt.Sprintf(format, args...)}
}

func wrapBinaryError(loc *location, message string, err error) *DecodeError {
	return &DecodeError{Format: FormatBinary, Location: loc.String(), Message: message, Err: err}
}

// errTooDeep reports a container nested past value.MaxDepth.
func errTooDeep() error {
	return fmt.Errorf("containers nested deeper than %d levels", value.MaxDepth)
}
