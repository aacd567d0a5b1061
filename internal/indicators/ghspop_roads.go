package indicators

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/osmquality/osmquality/internal/figure"
	"github.com/osmquality/osmquality/internal/indicator"
	"github.com/osmquality/osmquality/internal/layer"
)

// ghsPopComparisonRoads compares the length of major roads mapped in OSM
// against the population density derived from the GHS-POP raster.
type ghsPopComparisonRoads struct {
	indicator.BaseIndicator
	deps Deps

	// Working fields, populated during preprocessing.
	popCount          float64
	areaSqkm          float64
	popPerSqkm        float64
	featureLengthKm   float64
	featureLengthSqkm float64
}

// Expected road length density (km per sqkm) for a given population density.
// Both functions flatten out for dense urban regions.
func (i *ghsPopComparisonRoads) greenThreshold(popPerSqkm float64) float64 {
	if popPerSqkm < 5000 {
		return popPerSqkm / 500
	}
	return 10
}

func (i *ghsPopComparisonRoads) yellowThreshold(popPerSqkm float64) float64 {
	if popPerSqkm < 5000 {
		return popPerSqkm / 1000
	}
	return 5
}

func (i *ghsPopComparisonRoads) Preprocess(ctx context.Context) error {
	pop, area, err := i.deps.Population.ZonalPopulation(ctx, i.Feature)
	if err != nil {
		return fmt.Errorf("zonal population: %w", err)
	}
	if area <= 0 {
		return fmt.Errorf("zonal population returned non-positive area %g", area)
	}
	i.popCount = pop
	i.areaSqkm = area

	resp, err := i.deps.Ohsome.Query(ctx, i.Layer.(layer.Definition), i.Feature, "")
	if err != nil {
		return err
	}
	lengthMeters, ts, err := singleValue(resp)
	if err != nil {
		return err
	}
	i.featureLengthKm = lengthMeters / 1000
	i.Result.SourceAt = &ts
	i.featureLengthSqkm = i.featureLengthKm / i.areaSqkm
	i.popPerSqkm = i.popCount / i.areaSqkm
	return nil
}

func (i *ghsPopComparisonRoads) Calculate() error {
	if math.IsNaN(i.featureLengthSqkm) || i.featureLengthSqkm < 0 {
		return &indicator.DomainError{Indicator: i.Metadata.Name, Value: i.featureLengthSqkm}
	}
	if i.popPerSqkm == 0 {
		slog.Info("indicators: no population in region, result stays undefined",
			"indicator", i.Metadata.Name)
		return nil
	}

	description := strings.NewReplacer(
		"$pop_count_per_sqkm", fmt.Sprintf("%.1f", i.popPerSqkm),
		"$feature_length_per_sqkm", fmt.Sprintf("%.2f", i.featureLengthSqkm),
		"$pop_count", fmt.Sprintf("%.0f", i.popCount),
		"$area", fmt.Sprintf("%.1f", i.areaSqkm),
	).Replace(i.Metadata.ResultDescription)

	yellow := i.yellowThreshold(i.popPerSqkm)
	green := i.greenThreshold(i.popPerSqkm)
	switch {
	case i.featureLengthSqkm <= yellow:
		value := i.featureLengthSqkm / yellow * 0.5
		i.SetResult(value, indicator.LabelRed, description+" "+i.Metadata.LabelText(indicator.LabelRed))
	case i.featureLengthSqkm <= green:
		value := 0.5 + (i.featureLengthSqkm-yellow)/(green-yellow)*0.5
		i.SetResult(value, indicator.LabelYellow, description+" "+i.Metadata.LabelText(indicator.LabelYellow))
	default:
		i.SetResult(1.0, indicator.LabelGreen, description+" "+i.Metadata.LabelText(indicator.LabelGreen))
	}
	return nil
}

func (i *ghsPopComparisonRoads) CreateFigure() {
	if i.Result.Label == indicator.LabelUndefined {
		return
	}
	i.Result.SVG = figure.Gauge(i.Metadata.Name, *i.Result.Value, i.Result.Label.Color())
}
