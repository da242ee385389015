// Package preflight provides readiness checks for the filesystem paths and
// external tools promptindex depends on.
//
// The scan command runs RunAll before walking so a missing library directory
// or an unwritable index directory fails fast with a clear message. The
// doctor command prints every result.
package preflight
