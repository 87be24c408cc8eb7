package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/firedoc/internal/value"
)

// ErrDuplicateKey is returned by Insert when the reference is already stored.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrUnencodable is wrapped by Insert when a record has no binary form.
var ErrUnencodable = errors.New("record cannot be encoded")

// Record is one stored (reference, properties) pair.
type Record struct {
	Reference  value.Value
	Properties value.Value
}

// Substrate is the keyed collection the document store persists into.
//
// Insert must be atomic with respect to duplicate detection: of two
// concurrent inserts of the same reference, at most one succeeds. Scan
// returns a snapshot in insertion order that later inserts do not affect.
type Substrate interface {
	io.Closer

	// Insert stores rec, or fails with ErrDuplicateKey or an error wrapping
	// ErrUnencodable.
	Insert(ctx context.Context, rec Record) error

	// Scan returns every stored record in insertion order.
	Scan(ctx context.Context) ([]Record, error)
}

// Fingerprinter is implemented by substrates that keep each document's
// properties fingerprint alongside it.
type Fingerprinter interface {
	// Fingerprint returns the stored fingerprint for ref and whether ref
	// is stored.
	Fingerprint(ctx context.Context, ref value.Value) (string, bool, error)
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates a Substrate based on the backend name.
//
// Supported backends:
//
//	"sqlite" - SQLite database at path (default)
//	"memory" - In-memory (ephemeral, for testing); path is ignored
func Open(backend, path string) (Substrate, error) {
	switch backend {
	case BackendSQLite, "":
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: %s, %s)", backend, BackendSQLite, BackendMemory)
	}
}
