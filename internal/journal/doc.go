// Package journal keeps a local SQLite history of capture cycles: what was
// proposed, what the operator filed, where, and how each cycle ended.
//
// The schema is versioned; a mismatched database is refused with
// ErrSchemaMismatch rather than migrated in place.
package journal
