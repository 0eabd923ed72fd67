// Package config loads, normalizes, and validates gale8 configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AWS_ACCESS_KEY_ID and GALE8_MODEL. The Config type centralizes every knob the
// detector, cataloger, and assembler need, so storage layout, trigger keywords,
// and stream parameters are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
