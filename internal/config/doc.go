// Package config loads, normalizes, and validates relocator configuration.
//
// Settings come from repository defaults, an optional TOML file, and a small
// set of environment fallbacks (RELOCATOR_TIMEOUT). Paths are expanded
// (including "~") and made absolute before anyone else sees them. Command-line
// flags are applied by the CLI on top of the loaded Config.
package config
