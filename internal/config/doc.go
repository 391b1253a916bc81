// Package config loads, normalizes, and validates autotagger configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and OST_API_KEY. The Config type centralizes every knob the
// extraction and tagging workflows need so provider credentials and external
// tool locations are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language tags, and clear validation errors.
package config
