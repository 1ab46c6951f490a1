// Package config loads, normalizes, and validates crosstalk configuration.
//
// Values come from repository defaults, then the TOML file, then `.env.local`
// and `.env` (never overriding the real environment), then environment
// fallbacks for API keys and voice ids. Paths are expanded to absolute form.
// CLI flags are applied on top by the command layer.
package config
