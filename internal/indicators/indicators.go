package indicators

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/osmquality/osmquality/internal/indicator"
	"github.com/osmquality/osmquality/internal/layer"
	"github.com/osmquality/osmquality/internal/ohsome"
)

// OhsomeClient is the slice of the geodata statistics service the indicator
// implementations need.
type OhsomeClient interface {
	Query(ctx context.Context, def layer.Definition, feat *geojson.Feature, times string) (*ohsome.Response, error)
	LatestTimestamp(ctx context.Context) (time.Time, error)
}

// PopulationStore provides zonal population statistics for a geometry.
type PopulationStore interface {
	// ZonalPopulation returns the population count inside the feature's
	// geometry together with the geometry's area in square kilometers.
	ZonalPopulation(ctx context.Context, feat *geojson.Feature) (count, areaSqkm float64, err error)
}

// AreaStore computes the area of a feature's geometry in square kilometers.
type AreaStore interface {
	Area(ctx context.Context, feat *geojson.Feature) (float64, error)
}

// Deps bundles the external collaborators injected into every indicator.
type Deps struct {
	Ohsome     OhsomeClient
	Population PopulationStore
	Areas      AreaStore
}

// New constructs the named indicator in its created state. The layer must be
// a registered definition, except for indicators that declare support for
// externally supplied layer data (see SupportsLayerData).
func New(name string, meta indicator.Metadata, lay layer.Layer, feat *geojson.Feature, deps Deps) (indicator.Indicator, error) {
	if _, ok := lay.(layer.Definition); !ok && !SupportsLayerData(name) {
		return nil, fmt.Errorf("indicators: %s does not support externally supplied layer data", name)
	}
	base := indicator.NewBase(meta, lay, feat)
	switch name {
	case "GhsPopComparisonBuildings":
		return &ghsPopComparisonBuildings{BaseIndicator: base, deps: deps}, nil
	case "GhsPopComparisonRoads":
		return &ghsPopComparisonRoads{BaseIndicator: base, deps: deps}, nil
	case "MappingSaturation":
		return &mappingSaturation{BaseIndicator: base, deps: deps}, nil
	case "PoiDensity":
		return &poiDensity{BaseIndicator: base, deps: deps}, nil
	default:
		return nil, fmt.Errorf("indicators: unsupported indicator %q", name)
	}
}

// SupportsLayerData reports whether the named indicator accepts externally
// supplied series data in place of a registered layer.
func SupportsLayerData(name string) bool {
	return name == "MappingSaturation"
}

// singleValue extracts the one aggregation value and its timestamp from a
// non-grouped query response.
func singleValue(resp *ohsome.Response) (float64, time.Time, error) {
	if len(resp.Result) == 0 {
		return 0, time.Time{}, fmt.Errorf("indicators: empty query result")
	}
	item := resp.Result[0]
	return item.Value, item.Timestamp, nil
}
