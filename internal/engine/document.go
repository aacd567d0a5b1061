package engine

import (
	"encoding/json"
	"errors"

	"github.com/paulmach/orb/geojson"
)

// Document is the serialized outcome of a build: a single feature when the
// request carried one input geometry, a feature collection when it carried
// several. Exactly one of the two fields is set.
type Document struct {
	Feature    *geojson.Feature
	Collection *geojson.FeatureCollection
}

// MarshalJSON emits whichever form the document holds.
func (d *Document) MarshalJSON() ([]byte, error) {
	switch {
	case d.Feature != nil:
		return json.Marshal(d.Feature)
	case d.Collection != nil:
		return json.Marshal(d.Collection)
	default:
		return nil, errors.New("engine: empty document")
	}
}
