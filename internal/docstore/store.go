package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/firedoc/internal/codec"
	"github.com/roach88/firedoc/internal/path"
	"github.com/roach88/firedoc/internal/query"
	"github.com/roach88/firedoc/internal/store"
	"github.com/roach88/firedoc/internal/value"
)

// Store validates and persists documents through a storage substrate.
//
// Thread-safety: Store adds no state of its own beyond the substrate and the
// id generator; it is safe for concurrent use when both are.
type Store struct {
	substrate store.Substrate
	ids       IDGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the id source used by Add.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		s.ids = gen
	}
}

// New creates a Store over substrate. Add uses UUIDv7 ids unless
// WithIDGenerator says otherwise.
func New(substrate store.Substrate, opts ...Option) *Store {
	s := &Store{
		substrate: substrate,
		ids:       UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateDocumentKey reports whether v is a Reference to a document path.
func ValidateDocumentKey(v value.Value) bool {
	ref, ok := value.AsReference(v)
	return ok && ref.Path.IsDocument()
}

// ValidateDocumentProperties reports whether v is a Map nested no deeper
// than value.MaxDepth.
func ValidateDocumentProperties(v value.Value) bool {
	_, ok := value.AsMap(v)
	return ok && value.WithinDepth(v, value.MaxDepth)
}

// Insert stores a document. The reference is checked first, then the
// properties, then uniqueness.
func (s *Store) Insert(ctx context.Context, ref, props value.Value) error {
	name := describe(ref)

	if !ValidateDocumentKey(ref) {
		reason := "reference must point at a document path"
		if value.TypeOf(ref) != value.TypeReference {
			reason = fmt.Sprintf("reference must be a REFERENCE, got %s", value.TypeOf(ref))
		}
		slog.Debug("insert rejected", "reference", name, "code", ErrCodeInvalidReference)
		return newInvalidReferenceError(name, reason)
	}
	if !ValidateDocumentProperties(props) {
		reason := fmt.Sprintf("document properties must be a MAP, got %s", value.TypeOf(props))
		if value.TypeOf(props) == value.TypeMap {
			reason = fmt.Sprintf("document properties nest deeper than %d levels", value.MaxDepth)
		}
		slog.Debug("insert rejected", "reference", name, "code", ErrCodeInvalidProperties)
		return newInvalidPropertiesError(name, reason, nil)
	}

	err := s.substrate.Insert(ctx, store.Record{Reference: ref, Properties: props})
	switch {
	case errors.Is(err, store.ErrDuplicateKey):
		slog.Debug("insert rejected", "reference", name, "code", ErrCodeDuplicateReference)
		return newDuplicateError(name, err)
	case errors.Is(err, store.ErrUnencodable):
		slog.Debug("insert rejected", "reference", name, "code", ErrCodeInvalidProperties)
		return newInvalidPropertiesError(name, "document properties cannot be encoded", err)
	}
	if err != nil {
		return fmt.Errorf("insert %s: %w", name, err)
	}

	slog.Info("document inserted", "reference", name)
	return nil
}

// Add inserts props under a generated id in collection and returns the
// new document path.
func (s *Store) Add(ctx context.Context, collection path.Path, props value.Value) (path.Path, error) {
	if collection.IsRoot() || !collection.IsCollection() {
		return path.Path{}, newInvalidReferenceError(collection.String(), "add requires a collection path")
	}

	ref, err := collection.Child(s.ids.Generate())
	if err != nil {
		return path.Path{}, newInvalidReferenceError(collection.String(), err.Error())
	}
	if err := s.Insert(ctx, value.NewReference(ref), props); err != nil {
		return path.Path{}, err
	}
	return ref, nil
}

// Documents returns a snapshot of every stored document in scan order.
func (s *Store) Documents(ctx context.Context) ([]query.Document, error) {
	records, err := s.substrate.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	docs := make([]query.Document, 0, len(records))
	for _, rec := range records {
		ref, ok := value.AsReference(rec.Reference)
		if !ok {
			slog.Warn("skipping record with non-reference key", "type", value.TypeOf(rec.Reference))
			continue
		}
		docs = append(docs, query.Document{Reference: ref.Path, Properties: rec.Properties})
	}

	slog.Debug("documents scanned", "count", len(docs))
	return docs, nil
}

// Collection returns the direct children of the collection id under parent.
func (s *Store) Collection(ctx context.Context, parent path.Path, id string) ([]query.Document, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return nil, err
	}
	return query.Collection(docs, parent, id), nil
}

// CollectionGroup returns every document whose immediate collection is id.
func (s *Store) CollectionGroup(ctx context.Context, id string) ([]query.Document, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return nil, err
	}
	return query.CollectionGroup(docs, id), nil
}

// Get looks up a single document by reference.
func (s *Store) Get(ctx context.Context, ref path.Path) (query.Document, bool, error) {
	if !ref.IsDocument() {
		return query.Document{}, false, nil
	}
	docs, err := s.Documents(ctx)
	if err != nil {
		return query.Document{}, false, err
	}
	for _, doc := range docs {
		if doc.Reference.Equal(ref) {
			return doc, true, nil
		}
	}
	return query.Document{}, false, nil
}

// Fingerprint returns the content fingerprint of the document at ref. It is
// read from the substrate when the substrate records one.
func (s *Store) Fingerprint(ctx context.Context, ref path.Path) (string, bool, error) {
	if !ref.IsDocument() {
		return "", false, nil
	}
	if fp, ok := s.substrate.(store.Fingerprinter); ok {
		return fp.Fingerprint(ctx, value.NewReference(ref))
	}

	doc, found, err := s.Get(ctx, ref)
	if err != nil || !found {
		return "", found, err
	}
	sum, err := codec.Fingerprint(doc.Properties)
	if err != nil {
		return "", false, fmt.Errorf("fingerprint %s: %w", ref, err)
	}
	return sum, true, nil
}

// Query evaluates q over one snapshot of the store.
func (s *Store) Query(ctx context.Context, q query.Query) ([]query.Document, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return nil, err
	}
	return query.Run(docs, q)
}

// describe renders a key for messages and logs.
func describe(v value.Value) string {
	if ref, ok := value.AsReference(v); ok {
		return ref.Path.String()
	}
	text, err := codec.EncodeText(v)
	if err != nil {
		return fmt.Sprintf("<%s>", value.TypeOf(v))
	}
	return string(text)
}
