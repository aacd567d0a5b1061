package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/osmquality/osmquality/internal/indicator"
	"github.com/osmquality/osmquality/internal/indicators"
)

// resolveStored serves a stored-region indicator through the cache-aside
// protocol: try the result store, compute and persist on a miss, bypass the
// lookup entirely when force is set.
//
// Two concurrent misses for the same key both compute and both write; the
// writes are idempotent upserts of equivalent results, so the store stays
// consistent and no request is deduplicated against another.
func (e *Engine) resolveStored(ctx context.Context, q IndicatorStoredRequest, force bool) (indicator.Indicator, error) {
	featureID, err := e.canonicalFeatureID(ctx, q.Dataset, q.FeatureID, q.FidField)
	if err != nil {
		return nil, err
	}
	feat, err := e.store.GetFeature(ctx, q.Dataset, featureID)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch region %s/%s: %w", q.Dataset, featureID, err)
	}
	def, err := e.reg.LayerDefinition(q.Layer)
	if err != nil {
		return nil, err
	}

	if !force {
		meta, err := e.reg.IndicatorMetadata(q.Name)
		if err != nil {
			return nil, err
		}
		skeleton, err := indicators.New(q.Name, meta, def, feat, e.deps)
		if err != nil {
			return nil, err
		}
		err = e.store.LoadIndicator(ctx, skeleton, q.Dataset, featureID)
		switch {
		case err == nil:
			slog.Info("engine: indicator served from store",
				"indicator", q.Name, "layer", q.Layer, "dataset", q.Dataset, "fid", featureID)
			cacheHits.Inc()
			return skeleton, nil
		case errors.Is(err, ErrNotFound):
			// Fall through to computation.
		default:
			return nil, fmt.Errorf("engine: load %s/%s for %s/%s: %w",
				q.Name, q.Layer, q.Dataset, featureID, err)
		}
	}
	cacheMisses.Inc()

	ind, err := e.computeIndicator(ctx, q.Name, def, feat)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveIndicator(ctx, ind, q.Dataset, featureID); err != nil {
		return nil, fmt.Errorf("engine: save %s/%s for %s/%s: %w",
			q.Name, q.Layer, q.Dataset, featureID, err)
	}
	return ind, nil
}
