package report

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// New constructs the named report variant. Metadata comes from the registry;
// passing it in keeps this package free of registry lookups.
func New(name string, meta Metadata, feat *geojson.Feature) (Report, error) {
	switch name {
	case "SimpleReport":
		return &SimpleReport{BaseReport: NewBase(meta, feat)}, nil
	default:
		return nil, fmt.Errorf("report: unsupported report %q", name)
	}
}

// SimpleReport aggregates the two core completeness indicators on the
// building layer into one combined score.
type SimpleReport struct {
	BaseReport
}

func (r *SimpleReport) SetIndicatorLayers() {
	r.Manifest = []IndicatorLayer{
		{Indicator: "MappingSaturation", Layer: "building_count"},
		{Indicator: "GhsPopComparisonBuildings", Layer: "building_count"},
	}
}
