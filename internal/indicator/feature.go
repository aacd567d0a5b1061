package indicator

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// AsFeature serializes the indicator into a GeoJSON feature. The geometry and
// id of the input feature are preserved; the indicator's attributes become
// dot-prefixed properties. Properties of the input feature are merged in
// where they do not conflict with an indicator property.
func (b *BaseIndicator) AsFeature() *geojson.Feature {
	out := geojson.NewFeature(b.Feature.Geometry)
	out.ID = b.Feature.ID

	props := out.Properties
	props["metadata.name"] = b.Metadata.Name
	props["metadata.description"] = b.Metadata.Description
	props["layer.name"] = b.Layer.LayerName()
	props["layer.description"] = b.Layer.LayerDescription()
	props["result.created_at"] = b.Result.CreatedAt.Format(time.RFC3339)
	if b.Result.SourceAt != nil {
		props["result.source_at"] = b.Result.SourceAt.Format(time.RFC3339)
	}
	props["result.label"] = string(b.Result.Label)
	if b.Result.Value != nil {
		props["result.value"] = *b.Result.Value
	} else {
		props["result.value"] = nil
	}
	props["result.description"] = b.Result.Description
	props["result.svg"] = b.Result.SVG
	props["result.html"] = b.Result.HTML

	for k, v := range b.Feature.Properties {
		if _, taken := props[k]; !taken {
			props[k] = v
		}
	}
	return out
}
