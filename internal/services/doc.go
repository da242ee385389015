// Package services defines shared utilities consumed by the scanner, the
// metadata readers, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp scan identifiers and file paths for logging.
//   - Structured error markers plus the Wrap helper, so failures from
//     external tools, configuration, and unsupported inputs are classified
//     uniformly and turned into operator hints.
package services
