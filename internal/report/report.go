package report

import (
	"log/slog"

	"github.com/paulmach/orb/geojson"

	"github.com/osmquality/osmquality/internal/indicator"
)

// Label thresholds of the combined report score. These boundaries are the
// published contract of the scoring scheme and must not drift.
const (
	thresholdYellow = 0.5
	thresholdGreen  = 1.0
)

// Metadata describes a report as defined in the embedded metadata file.
type Metadata struct {
	Name             string            `yaml:"name"`
	Description      string            `yaml:"description"`
	LabelDescription map[string]string `yaml:"label_description"`
}

// LabelText returns the prose describing the given label for this report.
func (m Metadata) LabelText(l indicator.Label) string {
	return m.LabelDescription[string(l)]
}

// Result is the roll-up of a report's constituent indicators. It carries no
// raw data, only the combined score.
type Result struct {
	Label       indicator.Label `json:"label"`
	Value       *float64        `json:"value"`
	Description string          `json:"description"`
}

// IndicatorLayer is one entry of a report's manifest: the indicator to
// compute and the layer to compute it against.
type IndicatorLayer struct {
	Indicator string
	Layer     string
}

// Report is implemented by every report variant. SetIndicatorLayers populates
// the variant's manifest; the engine calls it before attaching indicators,
// builds one indicator per manifest entry, and finally combines them.
type Report interface {
	SetIndicatorLayers()

	// Base exposes the shared state; embedding BaseReport provides it.
	Base() *BaseReport
}

// BaseReport is the state shared by all report variants.
type BaseReport struct {
	Metadata   Metadata
	Feature    *geojson.Feature
	Manifest   []IndicatorLayer
	Indicators []indicator.Indicator
	Result     Result
}

// NewBase constructs the shared report state with an empty result.
func NewBase(meta Metadata, feat *geojson.Feature) BaseReport {
	return BaseReport{
		Metadata: meta,
		Feature:  feat,
		Result:   Result{Label: indicator.LabelUndefined},
	}
}

// Base returns b; promoted into every embedding report variant.
func (b *BaseReport) Base() *BaseReport { return b }

// AttachIndicator appends a computed indicator to the report.
func (b *BaseReport) AttachIndicator(ind indicator.Indicator) {
	b.Indicators = append(b.Indicators, ind)
}

// CombineIndicators rolls the attached indicators into the report result.
// It is deterministic given the same indicator results, regardless of the
// order they finished computing in, and idempotent.
//
// Indicators that stayed undefined contribute a neutral 0.0 instead of being
// excluded, so a single failed indicator degrades the report rather than
// voiding it. Only if every indicator is undefined does the report itself
// end up undefined.
func (b *BaseReport) CombineIndicators() {
	slog.Info("report: combining indicators", "report", b.Metadata.Name, "count", len(b.Indicators))

	var sum float64
	defined := 0
	for _, ind := range b.Indicators {
		res := ind.Base().Result
		if res.Label != indicator.LabelUndefined && res.Value != nil {
			sum += *res.Value
			defined++
		}
	}
	if defined == 0 {
		b.Result = Result{
			Label:       indicator.LabelUndefined,
			Value:       nil,
			Description: "Could not derive quality level",
		}
		return
	}

	value := sum / float64(len(b.Indicators))
	label := labelFor(value)
	b.Result = Result{
		Label:       label,
		Value:       &value,
		Description: b.Metadata.LabelText(label),
	}
}

func labelFor(value float64) indicator.Label {
	switch {
	case value < thresholdYellow:
		return indicator.LabelRed
	case value < thresholdGreen:
		return indicator.LabelYellow
	default:
		return indicator.LabelGreen
	}
}
