// Package deps locates the external binaries promptindex shells out to and
// reports their availability and version for diagnostics.
package deps
