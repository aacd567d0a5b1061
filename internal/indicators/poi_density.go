package indicators

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/osmquality/osmquality/internal/figure"
	"github.com/osmquality/osmquality/internal/indicator"
	"github.com/osmquality/osmquality/internal/layer"
)

// POI density thresholds in POIs per square kilometer.
const (
	poiThresholdYellow = 10.0
	poiThresholdGreen  = 30.0
)

// poiDensity rates the density of points of interest against fixed
// per-square-kilometer thresholds.
type poiDensity struct {
	indicator.BaseIndicator
	deps Deps

	// Working fields, populated during preprocessing.
	areaSqkm float64
	count    float64
	density  float64
}

func (i *poiDensity) Preprocess(ctx context.Context) error {
	area, err := i.deps.Areas.Area(ctx, i.Feature)
	if err != nil {
		return fmt.Errorf("area: %w", err)
	}
	if area <= 0 {
		return fmt.Errorf("area of geometry is non-positive: %g", area)
	}
	i.areaSqkm = area

	resp, err := i.deps.Ohsome.Query(ctx, i.Layer.(layer.Definition), i.Feature, "")
	if err != nil {
		return err
	}
	count, ts, err := singleValue(resp)
	if err != nil {
		return err
	}
	if ts.IsZero() {
		// Some endpoints omit per-result timestamps; fall back to the
		// service's latest extract timestamp.
		if latest, err := i.deps.Ohsome.LatestTimestamp(ctx); err == nil {
			ts = latest
		}
	}
	if !ts.IsZero() {
		i.Result.SourceAt = &ts
	}
	i.count = count
	i.density = count / area
	return nil
}

func (i *poiDensity) Calculate() error {
	if math.IsNaN(i.density) || i.density < 0 {
		return &indicator.DomainError{Indicator: i.Metadata.Name, Value: i.density}
	}

	description := strings.NewReplacer(
		"$density", fmt.Sprintf("%.2f", i.density),
	).Replace(i.Metadata.ResultDescription)

	// Value is the density scaled against the green threshold, capped at 1,
	// so the label is monotonic in the value.
	value := math.Min(i.density/poiThresholdGreen, 1.0)
	switch {
	case i.density >= poiThresholdGreen:
		i.SetResult(1.0, indicator.LabelGreen, description+" "+i.Metadata.LabelText(indicator.LabelGreen))
	case i.density > poiThresholdYellow:
		i.SetResult(value, indicator.LabelYellow, description+" "+i.Metadata.LabelText(indicator.LabelYellow))
	default:
		i.SetResult(value, indicator.LabelRed, description+" "+i.Metadata.LabelText(indicator.LabelRed))
	}
	return nil
}

func (i *poiDensity) CreateFigure() {
	if i.Result.Label == indicator.LabelUndefined {
		return
	}
	i.Result.SVG = figure.Gauge(i.Metadata.Name, *i.Result.Value, i.Result.Label.Color())
}
