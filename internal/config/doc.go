// Package config loads the YAML configuration for the server and precompute
// binaries, applies environment variable overrides, and can watch the file
// for live changes to the geometry size limit.
package config
