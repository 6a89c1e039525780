// Package config loads and validates pipeline definitions.
//
// Definitions are accepted in TOML (the native format), YAML or JSON.
// Non-JSON documents are coerced to JSON so a single strict decoder
// (DisallowUnknownFields) covers every format.
package config
