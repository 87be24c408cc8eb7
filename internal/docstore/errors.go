package docstore

import (
	"errors"
	"fmt"
)

// InsertError represents a rejected document write.
//
// Insert errors include:
//   - Invalid reference: the key is not a Reference to a document path
//   - Invalid properties: the properties are not a Map, nest too deeply,
//     or hold a value with no encoding
//   - Duplicate reference: the key is already stored
type InsertError struct {
	// Code identifies the error category.
	Code InsertErrorCode

	// Message is a human-readable description.
	Message string

	// Reference is the textual form of the rejected key.
	Reference string

	// Err is the underlying cause, if any.
	Err error
}

// InsertErrorCode categorizes insert errors.
type InsertErrorCode string

const (
	// ErrCodeInvalidReference indicates the key is not a document reference.
	ErrCodeInvalidReference InsertErrorCode = "INVALID_REFERENCE"

	// ErrCodeInvalidProperties indicates the properties are not an
	// encodable Map.
	ErrCodeInvalidProperties InsertErrorCode = "INVALID_PROPERTIES"

	// ErrCodeDuplicateReference indicates the reference is already stored.
	ErrCodeDuplicateReference InsertErrorCode = "DUPLICATE_REFERENCE"
)

// Error implements the error interface.
func (e *InsertError) Error() string {
	if e.Reference != "" {
		return fmt.Sprintf("%s: %s (reference=%s)", e.Code, e.Message, e.Reference)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *InsertError) Unwrap() error {
	return e.Err
}

// CodeOf returns the InsertErrorCode carried by err, or "" when err is not
// an insert error. Uses errors.As to handle wrapped errors.
func CodeOf(err error) InsertErrorCode {
	var ie *InsertError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// IsInvalidReference returns true if the error is an invalid reference error.
func IsInvalidReference(err error) bool {
	return CodeOf(err) == ErrCodeInvalidReference
}

// IsInvalidProperties returns true if the error is an invalid properties error.
func IsInvalidProperties(err error) bool {
	return CodeOf(err) == ErrCodeInvalidProperties
}

// IsDuplicate returns true if the error is a duplicate reference error.
func IsDuplicate(err error) bool {
	return CodeOf(err) == ErrCodeDuplicateReference
}

func newInvalidReferenceError(ref, reason string) *InsertError {
	return &InsertError{
		Code:      ErrCodeInvalidReference,
		Message:   reason,
		Reference: ref,
	}
}

func newInvalidPropertiesError(ref, reason string, cause error) *InsertError {
	return &InsertError{
		Code:      ErrCodeInvalidProperties,
		Message:   reason,
		Reference: ref,
		Err:       cause,
	}
}

func newDuplicateError(ref string, cause error) *InsertError {
	return &InsertError{
		Code:      ErrCodeDuplicateReference,
		Message:   "document already exists",
		Reference: ref,
		Err:       cause,
	}
}
