// Package store provides the storage substrates behind the document store.
//
// A substrate is an insert-only keyed collection of (reference, properties)
// pairs. It knows nothing about document validity: it only guarantees that
// two inserts of the same reference cannot both succeed, and that Scan
// returns a consistent snapshot in insertion order.
//
// # Persisted Layout
//
// Both keys and values are stored in the binary codec form. The encoded
// reference is the primary key, so duplicate detection is byte equality
// of canonical encodings. The SQLite substrate also stores a content
// fingerprint of the properties.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Scans run inside a read-only transaction ordered by rowid, which is the
// insertion order for an insert-only table.
package store
