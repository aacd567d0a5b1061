package report

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/osmquality/osmquality/internal/indicator"
	"github.com/osmquality/osmquality/internal/layer"
)

// stubIndicator carries a pre-set result through the Indicator interface.
type stubIndicator struct {
	indicator.BaseIndicator
}

func (s *stubIndicator) Preprocess(ctx context.Context) error { return nil }
func (s *stubIndicator) Calculate() error                     { return nil }
func (s *stubIndicator) CreateFigure()                        {}

func testFeature() *geojson.Feature {
	return geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}})
}

func withResult(value float64, label indicator.Label) indicator.Indicator {
	stub := &stubIndicator{
		BaseIndicator: indicator.NewBase(
			indicator.Metadata{Name: "Stub"},
			layer.Definition{Name: "stub_layer"},
			testFeature(),
		),
	}
	stub.SetResult(value, label, "stub")
	return stub
}

func undefinedIndicator() indicator.Indicator {
	return &stubIndicator{
		BaseIndicator: indicator.NewBase(
			indicator.Metadata{Name: "Stub"},
			layer.Definition{Name: "stub_layer"},
			testFeature(),
		),
	}
}

func newTestReport(inds ...indicator.Indicator) *BaseReport {
	base := NewBase(Metadata{
		Name: "TestReport",
		LabelDescription: map[string]string{
			"green":  "all good",
			"yellow": "partly good",
			"red":    "not good",
		},
	}, testFeature())
	for _, ind := range inds {
		base.AttachIndicator(ind)
	}
	return &base
}

func TestCombineIndicators(t *testing.T) {
	cases := []struct {
		name      string
		values    []float64
		wantValue float64
		wantLabel indicator.Label
	}{
		{"mid range is yellow", []float64{0.3, 0.9}, 0.6, indicator.LabelYellow},
		{"high values are green", []float64{1.0, 1.0}, 1.0, indicator.LabelGreen},
		{"values above one stay green", []float64{1.2, 1.4}, 1.3, indicator.LabelGreen},
		{"low values are red", []float64{0.1, 0.3}, 0.2, indicator.LabelRed},
		{"boundary 0.5 is yellow", []float64{0.5, 0.5}, 0.5, indicator.LabelYellow},
		{"boundary 1.0 is green", []float64{1.0, 1.0, 1.0}, 1.0, indicator.LabelGreen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var inds []indicator.Indicator
			for _, v := range tc.values {
				inds = append(inds, withResult(v, indicator.LabelYellow))
			}
			rep := newTestReport(inds...)
			rep.CombineIndicators()

			if rep.Result.Value == nil {
				t.Fatal("combined value must be set")
			}
			if math.Abs(*rep.Result.Value-tc.wantValue) > 1e-9 {
				t.Errorf("value: got %g, want %g", *rep.Result.Value, tc.wantValue)
			}
			if rep.Result.Label != tc.wantLabel {
				t.Errorf("label: got %s, want %s", rep.Result.Label, tc.wantLabel)
			}
		})
	}
}

func TestCombineIndicators_UndefinedContributeZero(t *testing.T) {
	rep := newTestReport(withResult(1.0, indicator.LabelGreen), undefinedIndicator())
	rep.CombineIndicators()

	if rep.Result.Value == nil {
		t.Fatal("combined value must be set")
	}
	// One green at 1.0 plus one undefined counted as 0.0 over two indicators.
	if math.Abs(*rep.Result.Value-0.5) > 1e-9 {
		t.Errorf("value: got %g, want 0.5", *rep.Result.Value)
	}
	if rep.Result.Label != indicator.LabelYellow {
		t.Errorf("label: got %s, want yellow", rep.Result.Label)
	}
}

func TestCombineIndicators_AllUndefined(t *testing.T) {
	rep := newTestReport(undefinedIndicator(), undefinedIndicator())
	rep.CombineIndicators()

	if rep.Result.Label != indicator.LabelUndefined {
		t.Errorf("label: got %s, want undefined", rep.Result.Label)
	}
	if rep.Result.Value != nil {
		t.Errorf("value: got %v, want nil", *rep.Result.Value)
	}
	if rep.Result.Description != "Could not derive quality level" {
		t.Errorf("description: got %q", rep.Result.Description)
	}
}

func TestCombineIndicators_Idempotent(t *testing.T) {
	rep := newTestReport(withResult(0.4, indicator.LabelRed), withResult(0.8, indicator.LabelYellow))
	rep.CombineIndicators()
	first := *rep.Result.Value
	rep.CombineIndicators()
	if *rep.Result.Value != first {
		t.Errorf("recombining changed the value: %g then %g", first, *rep.Result.Value)
	}
}

func TestCombineIndicators_OrderIndependent(t *testing.T) {
	a := newTestReport(withResult(0.2, indicator.LabelRed), withResult(0.9, indicator.LabelYellow))
	b := newTestReport(withResult(0.9, indicator.LabelYellow), withResult(0.2, indicator.LabelRed))
	a.CombineIndicators()
	b.CombineIndicators()
	if *a.Result.Value != *b.Result.Value || a.Result.Label != b.Result.Label {
		t.Error("combination must not depend on indicator order")
	}
}

func TestNew_SimpleReport(t *testing.T) {
	rep, err := New("SimpleReport", Metadata{Name: "SimpleReport"}, testFeature())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rep.SetIndicatorLayers()

	want := []IndicatorLayer{
		{Indicator: "MappingSaturation", Layer: "building_count"},
		{Indicator: "GhsPopComparisonBuildings", Layer: "building_count"},
	}
	got := rep.Base().Manifest
	if len(got) != len(want) {
		t.Fatalf("manifest length: got %d, want %d", len(got), len(want))
	}
	for n := range want {
		if got[n] != want[n] {
			t.Errorf("manifest[%d]: got %+v, want %+v", n, got[n], want[n])
		}
	}
}

func TestNew_UnknownReport(t *testing.T) {
	if _, err := New("Nope", Metadata{}, testFeature()); err == nil {
		t.Error("unknown report name must be rejected")
	}
}
