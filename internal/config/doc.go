// Package config loads, normalizes, and validates promptindex configuration.
//
// Configuration is read from TOML, searched at ~/.config/promptindex/config.toml
// and then ./promptindex.toml unless an explicit path is given. Defaults cover
// every field so the tool works without a file. Paths are tilde-expanded and
// made absolute during normalization.
package config
