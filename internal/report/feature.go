package report

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// AsFeature serializes the report into a GeoJSON feature: the report's own
// metadata and result as "report."-prefixed properties plus every constituent
// indicator's properties under a positional "indicators.<i>." prefix. The
// input feature's geometry, id and non-conflicting properties are preserved.
func (b *BaseReport) AsFeature() *geojson.Feature {
	out := geojson.NewFeature(b.Feature.Geometry)
	out.ID = b.Feature.ID

	props := out.Properties
	props["report.metadata.name"] = b.Metadata.Name
	props["report.metadata.description"] = b.Metadata.Description
	props["report.result.label"] = string(b.Result.Label)
	if b.Result.Value != nil {
		props["report.result.value"] = *b.Result.Value
	} else {
		props["report.result.value"] = nil
	}
	props["report.result.description"] = b.Result.Description

	for i, ind := range b.Indicators {
		prefix := fmt.Sprintf("indicators.%d.", i)
		for k, v := range ind.Base().AsFeature().Properties {
			props[prefix+k] = v
		}
	}

	for k, v := range b.Feature.Properties {
		if _, taken := props[k]; !taken {
			props[k] = v
		}
	}
	return out
}
