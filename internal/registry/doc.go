// Package registry holds the static, process-wide lookup tables: layer
// definitions, indicator and report metadata (all parsed from embedded YAML),
// the manifest of valid indicator/layer combinations, and the addressable
// datasets. Everything is read-only after New.
package registry
