// Package index persists extracted generation records in SQLite and answers
// search, listing, and maintenance queries over them.
//
// The Store owns the database connection, schema initialization, busy
// retries, and the mapping between extract.Record values and rows. Each file
// path has at most one row; re-indexing a path replaces its record and LoRA
// list in one transaction. Files without metadata are stored too, flagged by
// has_metadata, so incremental scans can skip them.
//
// Search matches against precomputed case-folded keys (see textutil), so
// queries ignore letter case and Unicode composition differences.
//
// Schema changes bump schemaVersion in schema.go; an index with another
// version is rejected and must be deleted and rebuilt with a fresh scan.
package index
