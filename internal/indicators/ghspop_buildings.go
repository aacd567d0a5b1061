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

// ghsPopComparisonBuildings compares the density of buildings mapped in OSM
// against the population density derived from the GHS-POP raster. The
// heavier the population, the more buildings are expected.
type ghsPopComparisonBuildings struct {
	indicator.BaseIndicator
	deps Deps

	// Working fields, populated during preprocessing.
	popCount         float64
	areaSqkm         float64
	popPerSqkm       float64
	featureCount     float64
	featureCountSqkm float64
}

// Expected building densities for a given population density. Above green
// the mapping is considered plausible, below yellow too sparse.
func (i *ghsPopComparisonBuildings) greenThreshold(popPerSqkm float64) float64 {
	return 5.0 * math.Sqrt(popPerSqkm)
}

func (i *ghsPopComparisonBuildings) yellowThreshold(popPerSqkm float64) float64 {
	return 0.75 * math.Sqrt(popPerSqkm)
}

func (i *ghsPopComparisonBuildings) Preprocess(ctx context.Context) error {
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
	count, ts, err := singleValue(resp)
	if err != nil {
		return err
	}
	i.featureCount = count
	i.Result.SourceAt = &ts
	i.featureCountSqkm = i.featureCount / i.areaSqkm
	i.popPerSqkm = i.popCount / i.areaSqkm
	return nil
}

func (i *ghsPopComparisonBuildings) Calculate() error {
	if math.IsNaN(i.featureCountSqkm) || i.featureCountSqkm < 0 {
		return &indicator.DomainError{Indicator: i.Metadata.Name, Value: i.featureCountSqkm}
	}
	if i.popPerSqkm == 0 {
		// An unpopulated region carries no expectation of buildings;
		// degrade to undefined instead of guessing.
		slog.Info("indicators: no population in region, result stays undefined",
			"indicator", i.Metadata.Name)
		return nil
	}

	description := strings.NewReplacer(
		"$pop_count_per_sqkm", fmt.Sprintf("%.1f", i.popPerSqkm),
		"$feature_count_per_sqkm", fmt.Sprintf("%.1f", i.featureCountSqkm),
		"$pop_count", fmt.Sprintf("%.0f", i.popCount),
		"$area", fmt.Sprintf("%.1f", i.areaSqkm),
	).Replace(i.Metadata.ResultDescription)

	yellow := i.yellowThreshold(i.popPerSqkm)
	green := i.greenThreshold(i.popPerSqkm)
	switch {
	case i.featureCountSqkm <= yellow:
		value := i.featureCountSqkm / yellow * 0.5
		i.SetResult(value, indicator.LabelRed, description+" "+i.Metadata.LabelText(indicator.LabelRed))
	case i.featureCountSqkm <= green:
		value := 0.5 + (i.featureCountSqkm-yellow)/(green-yellow)*0.5
		i.SetResult(value, indicator.LabelYellow, description+" "+i.Metadata.LabelText(indicator.LabelYellow))
	default:
		i.SetResult(1.0, indicator.LabelGreen, description+" "+i.Metadata.LabelText(indicator.LabelGreen))
	}
	return nil
}

func (i *ghsPopComparisonBuildings) CreateFigure() {
	if i.Result.Label == indicator.LabelUndefined {
		// Keep the placeholder set at construction.
		return
	}
	i.Result.SVG = figure.Gauge(i.Metadata.Name, *i.Result.Value, i.Result.Label.Color())
}
