// Package fixture loads seed documents from YAML or CUE files.
//
// A fixture lists documents in insertion order. References are path text;
// properties use the textual value encoding, written as native YAML or CUE
// structure instead of a JSON string:
//
//	documents:
//	  - reference: /users/1
//	    properties:
//	      type: MAP
//	      value:
//	        name: {type: STRING, value: ada}
//
// Field order inside properties is kept, so maps round-trip in the order
// they were written.
package fixture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/firedoc/internal/docstore"
	"github.com/roach88/firedoc/internal/path"
	"github.com/roach88/firedoc/internal/value"
)

// Document is one fixture entry.
type Document struct {
	Reference  path.Path
	Properties value.Value
}

// Fixture is an ordered list of documents to insert.
type Fixture struct {
	Source    string
	Documents []Document
}

// LoadFile reads a fixture, choosing the format by file extension
// (.yaml, .yml or .cue).
func LoadFile(file string) (*Fixture, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return ParseYAML(file, data)
	case ".cue":
		return ParseCUE(file, data)
	default:
		return nil, &Error{Source: file, Message: fmt.Sprintf("unsupported fixture extension %q (want .yaml, .yml or .cue)", filepath.Ext(file))}
	}
}

// Apply inserts every document in order and stops at the first failure.
// It returns the number of documents inserted.
func (f *Fixture) Apply(ctx context.Context, s *docstore.Store) (int, error) {
	for i, doc := range f.Documents {
		if err := s.Insert(ctx, value.NewReference(doc.Reference), doc.Properties); err != nil {
			return i, fmt.Errorf("%s: document %d: %w", f.Source, i, err)
		}
	}
	return len(f.Documents), nil
}

// Error reports a malformed fixture.
type Error struct {
	Source  string
	Line    int // 0 when unknown
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, msg)
	}
	return fmt.Sprintf("%s: %s", e.Source, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// parseReference accepts '/'-rooted path text only.
func parseReference(text string) (path.Path, error) {
	if !strings.HasPrefix(text, path.Separator) {
		return path.Path{}, fmt.Errorf("reference %q must start with %q", text, path.Separator)
	}
	return path.Parse(text)
}
