// Package docstore is the document store façade.
//
// It enforces write-time document invariants before delegating to an
// injected storage substrate:
//   - the reference is a Reference to a document path (even length >= 2)
//   - the properties are a Map
//   - the reference is not already stored
//
// Violations surface as *InsertError with a Code, never as silent
// overwrites. Reads take one substrate snapshot per call and hand it to the
// collection matcher, so each result set is consistent on its own.
//
// The store is insert-only: there is no update or delete.
package docstore
