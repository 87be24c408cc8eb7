package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/firedoc/internal/codec"
	"github.com/roach88/firedoc/internal/value"
)

// MemoryStore keeps records in memory. Data is lost on close.
// Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string]struct{}
	rows []storedRow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]struct{})}
}

// Insert stores the record in its encoded form, so later mutation of the
// caller's values cannot reach the store.
func (m *MemoryStore) Insert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := marshalRecord(rec)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := string(row.reference)
	if _, exists := m.keys[key]; exists {
		return ErrDuplicateKey
	}
	m.keys[key] = struct{}{}
	m.rows = append(m.rows, row)
	return nil
}

// Scan decodes a snapshot of every record in insertion order.
func (m *MemoryStore) Scan(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	rows := m.rows[:len(m.rows):len(m.rows)]
	m.mu.RUnlock()

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := unmarshalRecord(row.reference, row.properties)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Fingerprint returns the fingerprint recorded when ref was inserted.
func (m *MemoryStore) Fingerprint(ctx context.Context, ref value.Value) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	key, err := codec.EncodeBinary(ref)
	if err != nil {
		return "", false, fmt.Errorf("fingerprint: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.keys[string(key)]; !ok {
		return "", false, nil
	}
	for _, row := range m.rows {
		if string(row.reference) == string(key) {
			return row.fingerprint, true, nil
		}
	}
	return "", false, nil
}

// Close drops all records.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = make(map[string]struct{})
	m.rows = nil
	return nil
}
