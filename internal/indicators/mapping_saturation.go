package indicators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/osmquality/osmquality/internal/figure"
	"github.com/osmquality/osmquality/internal/indicator"
	"github.com/osmquality/osmquality/internal/layer"
)

const (
	// saturationTimeRange selects the monthly history since the beginning
	// of reliable OSM coverage.
	saturationTimeRange = "2008-01-01//P1M"

	// saturationWindow is the number of trailing monthly samples the growth
	// estimate is computed over (three years).
	saturationWindow = 36

	// minSamples is the minimum series length required for an estimate.
	minSamples = saturationWindow

	saturationThresholdGreen = 0.97
	saturationThresholdRed   = 0.30
)

// mappingSaturation estimates how saturated the mapping process is from the
// monthly history of the layer's aggregation value. A region whose feature
// count barely grew over the trailing window is considered fully mapped.
//
// This is the only indicator that accepts externally supplied layer data in
// place of a registered layer definition.
type mappingSaturation struct {
	indicator.BaseIndicator
	deps Deps

	// series is the monthly history, populated during preprocessing.
	series []layer.Sample
}

func (i *mappingSaturation) Preprocess(ctx context.Context) error {
	switch lay := i.Layer.(type) {
	case layer.Data:
		if len(lay.Result) == 0 {
			return fmt.Errorf("supplied layer data is empty")
		}
		i.series = lay.Result
	case layer.Definition:
		resp, err := i.deps.Ohsome.Query(ctx, lay, i.Feature, saturationTimeRange)
		if err != nil {
			return err
		}
		if len(resp.Result) == 0 {
			return fmt.Errorf("indicators: empty query result")
		}
		i.series = make([]layer.Sample, len(resp.Result))
		for n, item := range resp.Result {
			i.series[n] = layer.Sample{Timestamp: item.Timestamp, Value: item.Value}
		}
	default:
		return fmt.Errorf("indicators: unsupported layer type %T", lay)
	}

	last := i.series[len(i.series)-1]
	if !last.Timestamp.IsZero() {
		i.Result.SourceAt = &last.Timestamp
	}
	return nil
}

func (i *mappingSaturation) Calculate() error {
	if len(i.series) < minSamples {
		// Too little history to estimate saturation; degrade to undefined
		// rather than labeling on noise.
		slog.Info("indicators: series too short for saturation estimate",
			"indicator", i.Metadata.Name, "samples", len(i.series), "required", minSamples)
		return nil
	}
	latest := i.series[len(i.series)-1].Value
	windowStart := i.series[len(i.series)-saturationWindow].Value
	if latest < 0 || windowStart < 0 {
		return &indicator.DomainError{Indicator: i.Metadata.Name, Value: latest}
	}
	if latest == 0 {
		slog.Info("indicators: no features mapped at all, result stays undefined",
			"indicator", i.Metadata.Name)
		return nil
	}

	// Fraction of today's total that was already present at the start of the
	// window. 1.0 means no growth at all over the window.
	saturation := windowStart / latest
	description := strings.NewReplacer(
		"$saturation", fmt.Sprintf("%.2f", saturation),
	).Replace(i.Metadata.ResultDescription)

	switch {
	case saturation >= saturationThresholdGreen:
		i.SetResult(1.0, indicator.LabelGreen, description+" "+i.Metadata.LabelText(indicator.LabelGreen))
	case saturation >= saturationThresholdRed:
		i.SetResult(saturation, indicator.LabelYellow, description+" "+i.Metadata.LabelText(indicator.LabelYellow))
	default:
		i.SetResult(saturation, indicator.LabelRed, description+" "+i.Metadata.LabelText(indicator.LabelRed))
	}
	return nil
}

func (i *mappingSaturation) CreateFigure() {
	if i.Result.Label == indicator.LabelUndefined {
		return
	}
	ys := make([]float64, len(i.series))
	for n, s := range i.series {
		ys[n] = s.Value
	}
	i.Result.SVG = figure.LineChart(i.Metadata.Name, ys)
}
