// Package report defines the report lifecycle: a variant declares its
// manifest of indicator/layer pairs, the engine computes and attaches one
// indicator per entry, and CombineIndicators rolls them into a single
// traffic-light score (mean value; <0.5 red, <1.0 yellow, ≥1.0 green).
package report
