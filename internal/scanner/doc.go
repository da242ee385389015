// Package scanner walks library directories and indexes every matching media
// file through a bounded worker pool.
//
// Workers stat, probe, and extract files concurrently; a single collector
// goroutine writes results to the index so SQLite sees one writer. A file
// that fails to read is logged with WarnWithContext and skipped. Files
// without metadata are still indexed so later incremental scans can skip
// them by size and modification time.
//
// Only one scan may run per index: Run holds an flock on the index lock file
// for its whole duration and fails fast with ErrScanInProgress otherwise.
package scanner
