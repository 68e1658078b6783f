// Package config loads, normalizes, and validates Prism's TOML configuration.
//
// Load resolves the config file (explicit path, ~/.config/prism/config.toml,
// or ./prism.toml), decodes it over repository defaults, expands ~ in path
// fields, and validates the result. Callers receive a fully normalized Config
// and never need to re-check defaults themselves.
package config
