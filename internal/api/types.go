package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/osmquality/osmquality/internal/engine"
	"github.com/osmquality/osmquality/internal/layer"
)

// errBadVariant rejects request bodies that do not select exactly one of the
// supported addressing modes.
var errBadVariant = errors.New("provide either bpolys or dataset+featureId, not both")

// IndicatorBody is the request body of POST /indicators/{name}. Exactly one
// of the addressing modes must be used: an ad-hoc geometry (bpolys), a stored
// region (dataset + featureId), or supplied layer data (layerData + bpolys).
type IndicatorBody struct {
	Layer     string          `json:"layer"`
	Bpolys    json.RawMessage `json:"bpolys,omitempty"`
	Dataset   string          `json:"dataset,omitempty"`
	FeatureID string          `json:"featureId,omitempty"`
	FidField  string          `json:"fidField,omitempty"`
	LayerData *layer.Data     `json:"layerData,omitempty"`
}

// Request resolves the body into its engine request variant.
func (b IndicatorBody) Request(name string) (engine.IndicatorRequest, error) {
	switch {
	case b.LayerData != nil:
		if len(b.Bpolys) == 0 {
			return nil, fmt.Errorf("layerData requires bpolys")
		}
		if b.Dataset != "" || b.FeatureID != "" {
			return nil, errBadVariant
		}
		boundary, err := engine.ParseBoundary(b.Bpolys)
		if err != nil {
			return nil, err
		}
		return engine.IndicatorDataRequest{Name: name, Data: *b.LayerData, Boundary: boundary}, nil

	case len(b.Bpolys) > 0:
		if b.Dataset != "" || b.FeatureID != "" {
			return nil, errBadVariant
		}
		boundary, err := engine.ParseBoundary(b.Bpolys)
		if err != nil {
			return nil, err
		}
		return engine.IndicatorGeometryRequest{Name: name, Layer: b.Layer, Boundary: boundary}, nil

	case b.Dataset != "" && b.FeatureID != "":
		return engine.IndicatorStoredRequest{
			Name:      name,
			Layer:     b.Layer,
			Dataset:   b.Dataset,
			FeatureID: b.FeatureID,
			FidField:  b.FidField,
		}, nil

	default:
		return nil, fmt.Errorf("provide bpolys or dataset+featureId")
	}
}

// ReportBody is the request body of POST /reports/{name}.
type ReportBody struct {
	Bpolys    json.RawMessage `json:"bpolys,omitempty"`
	Dataset   string          `json:"dataset,omitempty"`
	FeatureID string          `json:"featureId,omitempty"`
	FidField  string          `json:"fidField,omitempty"`
}

// Request resolves the body into its engine request variant.
func (b ReportBody) Request(name string) (engine.ReportRequest, error) {
	switch {
	case len(b.Bpolys) > 0:
		if b.Dataset != "" || b.FeatureID != "" {
			return nil, errBadVariant
		}
		boundary, err := engine.ParseBoundary(b.Bpolys)
		if err != nil {
			return nil, err
		}
		return engine.ReportGeometryRequest{Name: name, Boundary: boundary}, nil

	case b.Dataset != "" && b.FeatureID != "":
		return engine.ReportStoredRequest{
			Name:      name,
			Dataset:   b.Dataset,
			FeatureID: b.FeatureID,
			FidField:  b.FidField,
		}, nil

	default:
		return nil, fmt.Errorf("provide bpolys or dataset+featureId")
	}
}
