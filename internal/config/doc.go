// Package config loads runtime settings for the journal CLI from three
// layered sources: built-in defaults, an optional JSON file named by the
// -c/-config flag, and individual command-line flags. Later sources
// override earlier ones.
package config
