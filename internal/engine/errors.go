package engine

import (
	"errors"
	"fmt"
)

// ErrNotFound is the store's "no stored result" signal. It is the one store
// error the resolver treats as expected control flow (falling back to a fresh
// computation); every other store error propagates. Store implementations
// must return an error matching this via errors.Is for a missing row or a
// missing results table.
var ErrNotFound = errors.New("no stored indicator result")

// ErrInvalidBoundary rejects ad-hoc geometry input that is not a Polygon or
// MultiPolygon feature (or a collection of such features).
var ErrInvalidBoundary = errors.New("boundary must be a Polygon or MultiPolygon feature")

// ErrUnsupportedLayerData rejects externally supplied layer data for an
// indicator that has not declared support for it.
var ErrUnsupportedLayerData = errors.New("indicator does not support externally supplied layer data")

// CombinationError rejects a request naming an indicator/layer pair outside
// the registered manifest. Raised before any computation or I/O.
type CombinationError struct {
	Indicator string
	Layer     string
}

func (e *CombinationError) Error() string {
	return fmt.Sprintf("invalid indicator/layer combination: (%s, %s)", e.Indicator, e.Layer)
}

// SizeRestrictionError rejects an ad-hoc geometry whose area exceeds the
// configured ceiling. Raised before any computation.
type SizeRestrictionError struct {
	AreaSqkm  float64
	LimitSqkm float64
}

func (e *SizeRestrictionError) Error() string {
	return fmt.Sprintf("input geometry is too big: %.1f sqkm exceeds the limit of %.1f sqkm", e.AreaSqkm, e.LimitSqkm)
}
