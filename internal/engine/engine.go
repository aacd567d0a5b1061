package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/paulmach/orb/geojson"

	"github.com/osmquality/osmquality/internal/indicator"
	"github.com/osmquality/osmquality/internal/indicators"
	"github.com/osmquality/osmquality/internal/layer"
	"github.com/osmquality/osmquality/internal/registry"
	"github.com/osmquality/osmquality/internal/report"
)

// Store is the relational store contract the engine depends on. geodb.DB is
// the production implementation.
type Store interface {
	// GetFeature fetches a stored region by its canonical feature id.
	GetFeature(ctx context.Context, dataset, featureID string) (*geojson.Feature, error)

	// MapFeatureID resolves an alternate id field value to the canonical id.
	MapFeatureID(ctx context.Context, dataset, id, field string) (string, error)

	// Area returns the area of the feature's geometry in square kilometers.
	Area(ctx context.Context, feat *geojson.Feature) (float64, error)

	// ZonalPopulation returns the population inside the feature's geometry
	// and the geometry's area in square kilometers.
	ZonalPopulation(ctx context.Context, feat *geojson.Feature) (count, areaSqkm float64, err error)

	// LoadIndicator fills the indicator's result from a previously persisted
	// computation, keyed by (dataset, featureID, indicator, layer). A missing
	// row or missing results table fails with ErrNotFound.
	LoadIndicator(ctx context.Context, ind indicator.Indicator, dataset, featureID string) error

	// SaveIndicator persists the indicator's result under the same key,
	// overwriting any previous value.
	SaveIndicator(ctx context.Context, ind indicator.Indicator, dataset, featureID string) error

	// FeatureIDs lists every canonical feature id of the dataset.
	FeatureIDs(ctx context.Context, dataset string) ([]string, error)
}

// Options modify how a build request is executed.
type Options struct {
	// Force recomputes a stored-region indicator even when a cached result
	// exists, overwriting it in the store.
	Force bool

	// SizeRestricted rejects ad-hoc geometries whose area exceeds the
	// configured ceiling before any computation is performed.
	SizeRestricted bool
}

// Engine is the orchestration core: it dispatches heterogeneous build
// requests to the right construction path, drives the indicator lifecycle,
// applies the cache-aside protocol for stored regions, and fans out bulk
// precomputation. One Engine serves all requests; it is safe for concurrent
// use.
type Engine struct {
	reg   *registry.Registry
	store Store
	deps  indicators.Deps

	// sizeLimitBits holds the ad-hoc geometry area ceiling (sqkm) as
	// float64 bits, tunable at runtime via config reload.
	sizeLimitBits atomic.Uint64
}

// New wires an Engine. The store doubles as the zonal statistics and area
// provider for the indicator implementations.
func New(reg *registry.Registry, store Store, client indicators.OhsomeClient, sizeLimitSqkm float64) *Engine {
	e := &Engine{
		reg:   reg,
		store: store,
		deps: indicators.Deps{
			Ohsome:     client,
			Population: store,
			Areas:      store,
		},
	}
	e.SetSizeLimit(sizeLimitSqkm)
	return e
}

// SetSizeLimit replaces the ad-hoc geometry area ceiling in square kilometers.
func (e *Engine) SetSizeLimit(sqkm float64) { e.sizeLimitBits.Store(math.Float64bits(sqkm)) }

// SizeLimit returns the current area ceiling in square kilometers.
func (e *Engine) SizeLimit() float64 { return math.Float64frombits(e.sizeLimitBits.Load()) }

// BuildIndicator dispatches one indicator request to its construction path
// and serializes the outcome. A single input geometry yields a single
// feature document; multiple input geometries yield a collection with each
// result tagged by its originating input's identifier.
//
// All name, combination and dataset validation happens here, before any I/O.
func (e *Engine) BuildIndicator(ctx context.Context, req IndicatorRequest, opts Options) (*Document, error) {
	switch q := req.(type) {
	case IndicatorStoredRequest:
		if err := e.validateCombination(q.Name, q.Layer); err != nil {
			return nil, err
		}
		if err := e.validateDataset(q.Dataset, q.FidField); err != nil {
			return nil, err
		}
		ind, err := e.resolveStored(ctx, q, opts.Force)
		if err != nil {
			return nil, err
		}
		return &Document{Feature: ind.Base().AsFeature()}, nil

	case IndicatorGeometryRequest:
		if err := e.validateCombination(q.Name, q.Layer); err != nil {
			return nil, err
		}
		def, err := e.reg.LayerDefinition(q.Layer)
		if err != nil {
			return nil, err
		}
		return e.buildPerFeature(ctx, q.Boundary, opts, func(ctx context.Context, feat *geojson.Feature) (*geojson.Feature, error) {
			ind, err := e.computeIndicator(ctx, q.Name, def, feat)
			if err != nil {
				return nil, err
			}
			return ind.Base().AsFeature(), nil
		})

	case IndicatorDataRequest:
		if _, err := e.reg.IndicatorMetadata(q.Name); err != nil {
			return nil, err
		}
		if !indicators.SupportsLayerData(q.Name) {
			return nil, fmt.Errorf("engine: indicator %q: %w", q.Name, ErrUnsupportedLayerData)
		}
		return e.buildPerFeature(ctx, q.Boundary, opts, func(ctx context.Context, feat *geojson.Feature) (*geojson.Feature, error) {
			ind, err := e.computeIndicator(ctx, q.Name, q.Data, feat)
			if err != nil {
				return nil, err
			}
			return ind.Base().AsFeature(), nil
		})

	default:
		return nil, fmt.Errorf("engine: unsupported indicator request type %T", req)
	}
}

// BuildReport dispatches one report request. Building a report always builds
// its full manifest of indicators using the per-indicator path matching the
// request variant.
func (e *Engine) BuildReport(ctx context.Context, req ReportRequest, opts Options) (*Document, error) {
	switch q := req.(type) {
	case ReportStoredRequest:
		if _, err := e.reg.ReportMetadata(q.Name); err != nil {
			return nil, err
		}
		if err := e.validateDataset(q.Dataset, q.FidField); err != nil {
			return nil, err
		}
		rep, err := e.createStoredReport(ctx, q, opts.Force)
		if err != nil {
			return nil, err
		}
		return &Document{Feature: rep.Base().AsFeature()}, nil

	case ReportGeometryRequest:
		if _, err := e.reg.ReportMetadata(q.Name); err != nil {
			return nil, err
		}
		return e.buildPerFeature(ctx, q.Boundary, opts, func(ctx context.Context, feat *geojson.Feature) (*geojson.Feature, error) {
			rep, err := e.createGeometryReport(ctx, q.Name, feat)
			if err != nil {
				return nil, err
			}
			return rep.Base().AsFeature(), nil
		})

	default:
		return nil, fmt.Errorf("engine: unsupported report request type %T", req)
	}
}

// buildPerFeature runs build once per input feature, applying the size
// restriction first when requested, and assembles the output document.
func (e *Engine) buildPerFeature(ctx context.Context, boundary *Boundary, opts Options, build func(context.Context, *geojson.Feature) (*geojson.Feature, error)) (*Document, error) {
	if boundary == nil || len(boundary.features) == 0 {
		return nil, ErrInvalidBoundary
	}
	fc := geojson.NewFeatureCollection()
	for idx, feat := range boundary.features {
		id := featureID(feat, idx)
		slog.Info("engine: building for input feature", "id", id)
		if opts.SizeRestricted {
			if err := e.checkAreaSize(ctx, feat); err != nil {
				return nil, err
			}
		}
		built, err := build(ctx, feat)
		if err != nil {
			return nil, err
		}
		built.ID = id
		fc.Append(built)
	}
	if len(fc.Features) == 1 {
		return &Document{Feature: fc.Features[0]}, nil
	}
	return &Document{Collection: fc}, nil
}

// computeIndicator runs the full lifecycle from scratch: construct,
// preprocess, calculate, render. Errors from preprocess and calculate
// propagate and discard the indicator; rendering never fails.
func (e *Engine) computeIndicator(ctx context.Context, name string, lay layer.Layer, feat *geojson.Feature) (indicator.Indicator, error) {
	meta, err := e.reg.IndicatorMetadata(name)
	if err != nil {
		return nil, err
	}
	ind, err := indicators.New(name, meta, lay, feat, e.deps)
	if err != nil {
		return nil, err
	}

	slog.Info("engine: computing indicator", "indicator", name, "layer", lay.LayerName())
	if err := ind.Preprocess(ctx); err != nil {
		return nil, fmt.Errorf("engine: preprocess %s/%s: %w", name, lay.LayerName(), err)
	}
	if err := ind.Calculate(); err != nil {
		return nil, fmt.Errorf("engine: calculate %s/%s: %w", name, lay.LayerName(), err)
	}
	ind.CreateFigure()
	ind.Base().RenderHTML()

	indicatorsComputed.WithLabelValues(name, lay.LayerName()).Inc()
	return ind, nil
}

// createGeometryReport builds every manifest indicator from scratch for one
// ad-hoc feature, then combines them.
func (e *Engine) createGeometryReport(ctx context.Context, name string, feat *geojson.Feature) (report.Report, error) {
	rep, err := e.newReport(name, feat)
	if err != nil {
		return nil, err
	}
	for _, il := range rep.Base().Manifest {
		def, err := e.reg.LayerDefinition(il.Layer)
		if err != nil {
			return nil, err
		}
		ind, err := e.computeIndicator(ctx, il.Indicator, def, feat)
		if err != nil {
			return nil, err
		}
		rep.Base().AttachIndicator(ind)
	}
	rep.Base().CombineIndicators()
	return rep, nil
}

// createStoredReport resolves every manifest indicator through the
// cache-aside path for one stored region, then combines them.
func (e *Engine) createStoredReport(ctx context.Context, q ReportStoredRequest, force bool) (report.Report, error) {
	featureID, err := e.canonicalFeatureID(ctx, q.Dataset, q.FeatureID, q.FidField)
	if err != nil {
		return nil, err
	}
	feat, err := e.store.GetFeature(ctx, q.Dataset, featureID)
	if err != nil {
		return nil, err
	}
	rep, err := e.newReport(q.Name, feat)
	if err != nil {
		return nil, err
	}
	for _, il := range rep.Base().Manifest {
		ind, err := e.resolveStored(ctx, IndicatorStoredRequest{
			Name:      il.Indicator,
			Layer:     il.Layer,
			Dataset:   q.Dataset,
			FeatureID: featureID,
		}, force)
		if err != nil {
			return nil, err
		}
		rep.Base().AttachIndicator(ind)
	}
	rep.Base().CombineIndicators()
	return rep, nil
}

// newReport constructs the variant and lets it declare its manifest. The
// manifest must be populated before any indicator is attached.
func (e *Engine) newReport(name string, feat *geojson.Feature) (report.Report, error) {
	meta, err := e.reg.ReportMetadata(name)
	if err != nil {
		return nil, err
	}
	rep, err := report.New(name, meta, feat)
	if err != nil {
		return nil, err
	}
	rep.SetIndicatorLayers()
	slog.Info("engine: building report", "report", name, "indicators", len(rep.Base().Manifest))
	return rep, nil
}

func (e *Engine) canonicalFeatureID(ctx context.Context, dataset, id, fidField string) (string, error) {
	if fidField == "" {
		return id, nil
	}
	mapped, err := e.store.MapFeatureID(ctx, dataset, id, fidField)
	if err != nil {
		return "", fmt.Errorf("engine: map feature id %q via %q: %w", id, fidField, err)
	}
	return mapped, nil
}

func (e *Engine) checkAreaSize(ctx context.Context, feat *geojson.Feature) error {
	area, err := e.store.Area(ctx, feat)
	if err != nil {
		return fmt.Errorf("engine: area of input geometry: %w", err)
	}
	if limit := e.SizeLimit(); area > limit {
		return &SizeRestrictionError{AreaSqkm: area, LimitSqkm: limit}
	}
	return nil
}

func (e *Engine) validateCombination(name, layerName string) error {
	if _, err := e.reg.IndicatorMetadata(name); err != nil {
		return err
	}
	if _, err := e.reg.LayerDefinition(layerName); err != nil {
		return err
	}
	if !e.reg.ValidCombination(name, layerName) {
		return &CombinationError{Indicator: name, Layer: layerName}
	}
	return nil
}

func (e *Engine) validateDataset(dataset, fidField string) error {
	if _, ok := e.reg.Dataset(dataset); !ok {
		return fmt.Errorf("engine: dataset %q: %w", dataset, registry.ErrUnknown)
	}
	if fidField != "" && !e.reg.ValidFidField(dataset, fidField) {
		return fmt.Errorf("engine: fid field %q of dataset %q: %w", fidField, dataset, registry.ErrUnknown)
	}
	return nil
}
