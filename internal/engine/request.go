package engine

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/osmquality/osmquality/internal/layer"
)

// IndicatorRequest is the sealed set of indicator request variants the
// dispatcher matches over: ad-hoc geometry, stored-region reference, or
// externally supplied layer data.
type IndicatorRequest interface{ indicatorRequest() }

// IndicatorGeometryRequest computes an indicator for one or many ad-hoc
// input geometries.
type IndicatorGeometryRequest struct {
	Name     string
	Layer    string
	Boundary *Boundary
}

// IndicatorStoredRequest references a region stored in a dataset, addressed
// by its canonical feature id or, when FidField is set, by an alternate id
// field that is resolved to the canonical id first.
type IndicatorStoredRequest struct {
	Name      string
	Layer     string
	Dataset   string
	FeatureID string
	FidField  string
}

// IndicatorDataRequest supplies the layer's series data directly instead of
// naming a registered layer to query.
type IndicatorDataRequest struct {
	Name     string
	Data     layer.Data
	Boundary *Boundary
}

func (IndicatorGeometryRequest) indicatorRequest() {}
func (IndicatorStoredRequest) indicatorRequest()   {}
func (IndicatorDataRequest) indicatorRequest()     {}

// ReportRequest is the sealed set of report request variants.
type ReportRequest interface{ reportRequest() }

// ReportGeometryRequest computes a report for one or many ad-hoc geometries.
type ReportGeometryRequest struct {
	Name     string
	Boundary *Boundary
}

// ReportStoredRequest computes a report for a stored region.
type ReportStoredRequest struct {
	Name      string
	Dataset   string
	FeatureID string
	FidField  string
}

func (ReportGeometryRequest) reportRequest() {}
func (ReportStoredRequest) reportRequest()   {}

// Boundary is the normalized ad-hoc geometry input: one or more features,
// each with a Polygon or MultiPolygon geometry.
type Boundary struct {
	features []*geojson.Feature
}

// ParseBoundary decodes a GeoJSON Feature or FeatureCollection and validates
// every geometry. Anything else fails with ErrInvalidBoundary.
func ParseBoundary(raw []byte) (*Boundary, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBoundary, err)
	}
	switch head.Type {
	case "Feature":
		feat, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidBoundary, err)
		}
		return NewBoundary(feat)
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidBoundary, err)
		}
		return NewBoundary(fc.Features...)
	default:
		return nil, fmt.Errorf("%w: unsupported GeoJSON type %q", ErrInvalidBoundary, head.Type)
	}
}

// NewBoundary builds a Boundary from already-decoded features.
func NewBoundary(feats ...*geojson.Feature) (*Boundary, error) {
	if len(feats) == 0 {
		return nil, fmt.Errorf("%w: no features", ErrInvalidBoundary)
	}
	for _, feat := range feats {
		switch feat.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("%w: got %s", ErrInvalidBoundary, feat.Geometry.GeoJSONType())
		}
	}
	return &Boundary{features: feats}, nil
}

// Features returns the boundary's features in input order.
func (b *Boundary) Features() []*geojson.Feature { return b.features }

// featureID is the identifier a result document is tagged with: the input
// feature's own id when present, its position in the input otherwise.
func featureID(feat *geojson.Feature, idx int) interface{} {
	if feat.ID != nil {
		return feat.ID
	}
	return strconv.Itoa(idx)
}
