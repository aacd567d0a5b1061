// Package engine orchestrates indicator and report construction.
//
// Requests arrive as one of several variants: an ad-hoc geometry, a stored
// region addressed by dataset and feature id, or user-supplied layer data.
// The engine validates names and combinations against the registry before
// any I/O, applies the configured size restriction to ad-hoc geometries,
// drives the indicator lifecycle, serves stored-region results through a
// cache-aside protocol backed by the relational store, and fans out bulk
// precomputation with a fixed concurrency bound.
package engine
