package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/osmquality/osmquality/internal/indicator"
	"github.com/osmquality/osmquality/internal/layer"
	"github.com/osmquality/osmquality/internal/report"
)

//go:embed layers.yaml
var layersYAML []byte

//go:embed indicators.yaml
var indicatorsYAML []byte

//go:embed reports.yaml
var reportsYAML []byte

// ErrUnknown is wrapped by every lookup failure. Callers map it to a request
// validation error.
var ErrUnknown = errors.New("unknown name")

// Combination is one valid (indicator, layer) pair.
type Combination struct {
	Indicator string
	Layer     string
}

// combinations is the static manifest of valid indicator/layer pairs. Any
// request naming a pair outside this table is rejected before computation.
var combinations = []Combination{
	{"GhsPopComparisonBuildings", "building_count"},
	{"GhsPopComparisonRoads", "jrc_road_length"},
	{"GhsPopComparisonRoads", "major_roads_length"},
	{"MappingSaturation", "building_count"},
	{"MappingSaturation", "major_roads_length"},
	{"MappingSaturation", "amenities"},
	{"PoiDensity", "poi"},
}

// Dataset describes a stored-region dataset and the feature-id fields it can
// be addressed by.
type Dataset struct {
	// DefaultField is the canonical feature-id column.
	DefaultField string
	// OtherFields are alternate id columns a request may resolve through.
	OtherFields []string
}

var datasets = map[string]Dataset{
	"regions": {DefaultField: "ogc_fid", OtherFields: []string{"name"}},
}

// Registry is the process-wide read-only lookup for layer definitions,
// indicator and report metadata, datasets and the combination manifest.
// It is initialized once at startup and passed by handle into the engine;
// it is never mutated afterwards.
type Registry struct {
	layers     map[string]layer.Definition
	indicators map[string]indicator.Metadata
	reports    map[string]report.Metadata
}

// New parses the embedded definition files and validates that the manifest
// only references registered names.
func New() (*Registry, error) {
	r := &Registry{}
	if err := yaml.Unmarshal(layersYAML, &r.layers); err != nil {
		return nil, fmt.Errorf("registry: parse layers: %w", err)
	}
	for name, def := range r.layers {
		def.Name = name
		r.layers[name] = def
	}
	if err := yaml.Unmarshal(indicatorsYAML, &r.indicators); err != nil {
		return nil, fmt.Errorf("registry: parse indicators: %w", err)
	}
	if err := yaml.Unmarshal(reportsYAML, &r.reports); err != nil {
		return nil, fmt.Errorf("registry: parse reports: %w", err)
	}
	for _, c := range combinations {
		if _, ok := r.indicators[c.Indicator]; !ok {
			return nil, fmt.Errorf("registry: manifest references unregistered indicator %q", c.Indicator)
		}
		if _, ok := r.layers[c.Layer]; !ok {
			return nil, fmt.Errorf("registry: manifest references unregistered layer %q", c.Layer)
		}
	}
	return r, nil
}

// LayerDefinition resolves a registered layer by name.
func (r *Registry) LayerDefinition(name string) (layer.Definition, error) {
	def, ok := r.layers[name]
	if !ok {
		return layer.Definition{}, fmt.Errorf("registry: layer %q: %w", name, ErrUnknown)
	}
	return def, nil
}

// IndicatorMetadata resolves a registered indicator's metadata by name.
func (r *Registry) IndicatorMetadata(name string) (indicator.Metadata, error) {
	meta, ok := r.indicators[name]
	if !ok {
		return indicator.Metadata{}, fmt.Errorf("registry: indicator %q: %w", name, ErrUnknown)
	}
	return meta, nil
}

// ReportMetadata resolves a registered report's metadata by name.
func (r *Registry) ReportMetadata(name string) (report.Metadata, error) {
	meta, ok := r.reports[name]
	if !ok {
		return report.Metadata{}, fmt.Errorf("registry: report %q: %w", name, ErrUnknown)
	}
	return meta, nil
}

// ValidCombination reports whether the (indicator, layer) pair is in the
// manifest.
func (r *Registry) ValidCombination(indicatorName, layerName string) bool {
	for _, c := range combinations {
		if c.Indicator == indicatorName && c.Layer == layerName {
			return true
		}
	}
	return false
}

// ValidLayers returns the layers the named indicator may be computed against.
func (r *Registry) ValidLayers(indicatorName string) []string {
	var out []string
	for _, c := range combinations {
		if c.Indicator == indicatorName {
			out = append(out, c.Layer)
		}
	}
	return out
}

// ValidIndicators returns the indicators the named layer may feed.
func (r *Registry) ValidIndicators(layerName string) []string {
	var out []string
	for _, c := range combinations {
		if c.Layer == layerName {
			out = append(out, c.Indicator)
		}
	}
	return out
}

// Combinations returns the full manifest.
func (r *Registry) Combinations() []Combination {
	out := make([]Combination, len(combinations))
	copy(out, combinations)
	return out
}

// Dataset resolves a registered dataset by name.
func (r *Registry) Dataset(name string) (Dataset, bool) {
	ds, ok := datasets[name]
	return ds, ok
}

// ValidFidField reports whether field is a registered alternate id field of
// the dataset. The dataset's default field does not need mapping and is not
// listed here.
func (r *Registry) ValidFidField(dataset, field string) bool {
	ds, ok := datasets[dataset]
	if !ok {
		return false
	}
	for _, f := range ds.OtherFields {
		if f == field {
			return true
		}
	}
	return false
}

// IndicatorNames returns the registered indicator names, sorted.
func (r *Registry) IndicatorNames() []string { return sortedKeys(r.indicators) }

// ReportNames returns the registered report names, sorted.
func (r *Registry) ReportNames() []string { return sortedKeys(r.reports) }

// LayerNames returns the registered layer names, sorted.
func (r *Registry) LayerNames() []string { return sortedKeys(r.layers) }

// DatasetNames returns the registered dataset names, sorted.
func (r *Registry) DatasetNames() []string { return sortedKeys(datasets) }

// IndicatorMetadataAll returns all indicator metadata keyed by name.
func (r *Registry) IndicatorMetadataAll() map[string]indicator.Metadata { return r.indicators }

// ReportMetadataAll returns all report metadata keyed by name.
func (r *Registry) ReportMetadataAll() map[string]report.Metadata { return r.reports }

// LayerDefinitionsAll returns all layer definitions keyed by name.
func (r *Registry) LayerDefinitionsAll() map[string]layer.Definition { return r.layers }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
