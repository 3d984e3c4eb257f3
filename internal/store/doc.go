// Package store provides SQLite-backed persistence for PROV documents.
//
// A document is stored as canonical N-Quads together with its namespace
// bindings, so reading it back goes through the same RDF codec that any
// other consumer uses. Documents are content addressed: the document hash
// (see internal/canonical) is unique, and putting an equal document twice
// returns the existing row.
//
// Key constraints:
//   - Listing order is seq ASC, id ASC COLLATE BINARY, never wall-clock time
//   - Namespace prefixes do not take part in the content hash
//   - Deleting a document removes its bundle index rows (ON DELETE CASCADE)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
