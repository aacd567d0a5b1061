package indicator

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/osmquality/osmquality/internal/figure"
	"github.com/osmquality/osmquality/internal/layer"
)

// Label is the traffic-light quality level of a result.
type Label string

const (
	LabelGreen     Label = "green"
	LabelYellow    Label = "yellow"
	LabelRed       Label = "red"
	LabelUndefined Label = "undefined"
)

// Color returns the figure color associated with the label.
func (l Label) Color() string {
	switch l {
	case LabelGreen:
		return "#008000"
	case LabelYellow:
		return "#FFD700"
	case LabelRed:
		return "#FF0000"
	default:
		return "#bbbbbb"
	}
}

// Metadata describes an indicator as defined in the embedded metadata file.
type Metadata struct {
	Name              string            `yaml:"name"`
	Description       string            `yaml:"description"`
	LabelDescription  map[string]string `yaml:"label_description"`
	ResultDescription string            `yaml:"result_description"`
}

// LabelText returns the prose describing the given label for this indicator.
func (m Metadata) LabelText(l Label) string { return m.LabelDescription[string(l)] }

// Result is the mutable outcome of one indicator lifecycle run.
//
// Label stays "undefined" and Value stays nil until Calculate has succeeded;
// Value is only meaningful once Label is not "undefined".
type Result struct {
	// CreatedAt is the time the indicator object was constructed (UTC).
	CreatedAt time.Time `json:"created_at"`

	// SourceAt is the timestamp of the underlying source data, when known.
	SourceAt *time.Time `json:"source_at,omitempty"`

	Label       Label    `json:"label"`
	Value       *float64 `json:"value"`
	Description string   `json:"description"`
	SVG         string   `json:"svg"`
	HTML        string   `json:"html"`
}

// Indicator is the lifecycle every concrete indicator implements. The engine
// drives the stages strictly in order: Preprocess, Calculate, CreateFigure.
//
// Preprocess performs the network and database I/O that populates the working
// fields Calculate needs; a Preprocess error is terminal for the indicator.
// Calculate is pure and synchronous; it sets the result's value, label and
// description, or returns a DomainError when the computed value falls outside
// the indicator's labeling domain. CreateFigure is synchronous and must
// always succeed — on an undefined label it leaves the placeholder in place.
type Indicator interface {
	Preprocess(ctx context.Context) error
	Calculate() error
	CreateFigure()

	// Base exposes the shared state (metadata, layer, feature, result).
	// Concrete indicators get it for free by embedding BaseIndicator.
	Base() *BaseIndicator
}

// BaseIndicator is the state shared by all indicators: the region feature
// being analyzed, the layer it is computed against, static metadata, and the
// mutable result. Concrete indicators embed it.
type BaseIndicator struct {
	Metadata Metadata
	Layer    layer.Layer
	Feature  *geojson.Feature
	Result   Result
}

// NewBase constructs the shared state in its initial lifecycle position:
// undefined label, nil value, placeholder figure.
func NewBase(meta Metadata, lay layer.Layer, feat *geojson.Feature) BaseIndicator {
	return BaseIndicator{
		Metadata: meta,
		Layer:    lay,
		Feature:  feat,
		Result: Result{
			CreatedAt:   time.Now().UTC(),
			Label:       LabelUndefined,
			Description: meta.LabelText(LabelUndefined),
			SVG:         figure.Placeholder(),
		},
	}
}

// Base returns b; it is promoted into every embedding indicator so that all
// concrete types satisfy the Indicator interface's Base method.
func (b *BaseIndicator) Base() *BaseIndicator { return b }

// SetResult records a successful calculation.
func (b *BaseIndicator) SetResult(value float64, label Label, description string) {
	v := value
	b.Result.Value = &v
	b.Result.Label = label
	b.Result.Description = description
}

// DomainError reports a calculated value outside the numeric domain an
// indicator's label thresholds are defined over. It is fatal for the one
// indicator and is not retried.
type DomainError struct {
	Indicator string
	Value     float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("indicator %s: value %g outside labeling domain", e.Indicator, e.Value)
}
