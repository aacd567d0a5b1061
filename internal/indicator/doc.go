// Package indicator defines the indicator lifecycle contract and the state
// shared by all implementations.
//
// An indicator moves through four states: created → preprocessed →
// calculated → rendered. Transitions are strictly sequential, driven by the
// engine, never by the indicator itself. On construction the result label is
// "undefined" and the figure is the fixed placeholder; both only change when
// Calculate succeeds.
//
// Concrete implementations live in the indicators package; this package is
// deliberately free of I/O.
package indicator
