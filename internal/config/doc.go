// Package config loads, normalizes, and validates helixio configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// COMICVINE_API_KEY. The Config type centralizes every knob the CLI and
// daemon need: the database location, enabled metadata sources, per-source
// client settings, and similarity scheduler intervals.
package config
