package layer

import "time"

// Layer is what an indicator computes against: either a registered query
// definition resolved by name, or literal series data supplied by the caller.
type Layer interface {
	LayerName() string
	LayerDescription() string
}

// Definition holds the geodata API parameters needed to retrieve the data
// for a registered layer. Definitions are parsed once at startup from the
// embedded layers file and never mutated afterwards.
type Definition struct {
	Name        string `yaml:"-"`
	Description string `yaml:"description"`

	// Endpoint is the aggregation endpoint path, e.g. "elements/count".
	Endpoint string `yaml:"endpoint"`

	// Filter is the ohsome filter expression selecting the OSM elements.
	Filter string `yaml:"filter"`

	// RatioFilter is set for layers queried with the ratio parameter.
	RatioFilter string `yaml:"ratio_filter"`

	// Source names the dataset the layer is derived from, when not OSM.
	Source string `yaml:"source"`
}

func (d Definition) LayerName() string        { return d.Name }
func (d Definition) LayerDescription() string { return d.Description }

// Data is a layer whose series values are supplied directly by the caller
// instead of being queried from the geodata API.
type Data struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Result      []Sample `json:"result"`
}

func (d Data) LayerName() string        { return d.Name }
func (d Data) LayerDescription() string { return d.Description }

// Sample is one point of a layer time series.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}
