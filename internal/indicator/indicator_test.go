package indicator

import (
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/osmquality/osmquality/internal/layer"
)

func testMetadata() Metadata {
	return Metadata{
		Name:        "TestIndicator",
		Description: "checks things",
		LabelDescription: map[string]string{
			"green":     "very good",
			"undefined": "could not be calculated",
		},
	}
}

func testFeature() *geojson.Feature {
	feat := geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}})
	feat.ID = "42"
	feat.Properties["name"] = "Testville"
	return feat
}

func TestNewBase_InitialState(t *testing.T) {
	base := NewBase(testMetadata(), layer.Definition{Name: "building_count"}, testFeature())

	if base.Result.Label != LabelUndefined {
		t.Errorf("label: got %s, want undefined", base.Result.Label)
	}
	if base.Result.Value != nil {
		t.Errorf("value: got %v, want nil", *base.Result.Value)
	}
	if base.Result.Description != "could not be calculated" {
		t.Errorf("description: got %q", base.Result.Description)
	}
	if base.Result.SVG == "" {
		t.Error("placeholder figure must be set at construction")
	}
	if base.Result.CreatedAt.IsZero() {
		t.Error("creation timestamp must be set")
	}
	if base.Result.SourceAt != nil {
		t.Error("source timestamp must be unknown at construction")
	}
}

func TestSetResult(t *testing.T) {
	base := NewBase(testMetadata(), layer.Definition{Name: "building_count"}, testFeature())
	base.SetResult(0.8, LabelGreen, "very good")

	if base.Result.Label != LabelGreen {
		t.Errorf("label: got %s, want green", base.Result.Label)
	}
	if base.Result.Value == nil || *base.Result.Value != 0.8 {
		t.Errorf("value: got %v, want 0.8", base.Result.Value)
	}
}

func TestAsFeature(t *testing.T) {
	base := NewBase(testMetadata(), layer.Definition{Name: "building_count", Description: "buildings"}, testFeature())
	sourceAt := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	base.Result.SourceAt = &sourceAt
	base.SetResult(0.8, LabelGreen, "very good")

	feat := base.AsFeature()

	if feat.ID != "42" {
		t.Errorf("id: got %v, want the input feature's id", feat.ID)
	}
	props := feat.Properties
	if props["metadata.name"] != "TestIndicator" {
		t.Errorf("metadata.name: got %v", props["metadata.name"])
	}
	if props["layer.name"] != "building_count" {
		t.Errorf("layer.name: got %v", props["layer.name"])
	}
	if props["result.label"] != "green" {
		t.Errorf("result.label: got %v", props["result.label"])
	}
	if props["result.value"] != 0.8 {
		t.Errorf("result.value: got %v", props["result.value"])
	}
	if props["result.source_at"] != "2023-06-01T00:00:00Z" {
		t.Errorf("result.source_at: got %v", props["result.source_at"])
	}
	// Input properties survive when they do not collide.
	if props["name"] != "Testville" {
		t.Errorf("input property lost: got %v", props["name"])
	}
}

func TestAsFeature_UndefinedResultHasNullValue(t *testing.T) {
	base := NewBase(testMetadata(), layer.Definition{Name: "building_count"}, testFeature())
	feat := base.AsFeature()

	v, present := feat.Properties["result.value"]
	if !present {
		t.Fatal("result.value must be serialized even when undefined")
	}
	if v != nil {
		t.Errorf("result.value: got %v, want nil", v)
	}
	if _, present := feat.Properties["result.source_at"]; present {
		t.Error("unknown source timestamp must be omitted")
	}
}

func TestRenderHTML(t *testing.T) {
	base := NewBase(testMetadata(), layer.Definition{Name: "building_count"}, testFeature())
	base.SetResult(0.9, LabelGreen, "very good")
	base.RenderHTML()

	if base.Result.HTML == "" {
		t.Fatal("html must be rendered")
	}
	if !strings.Contains(base.Result.HTML, "Good Quality") {
		t.Errorf("html must name the quality level: %s", base.Result.HTML)
	}
	if !strings.Contains(base.Result.HTML, "very good") {
		t.Errorf("html must carry the result description: %s", base.Result.HTML)
	}
}

func TestLabelColor(t *testing.T) {
	cases := []struct {
		label Label
		want  string
	}{
		{LabelGreen, "#008000"},
		{LabelYellow, "#FFD700"},
		{LabelRed, "#FF0000"},
		{LabelUndefined, "#bbbbbb"},
	}
	for _, tc := range cases {
		if got := tc.label.Color(); got != tc.want {
			t.Errorf("Color(%s): got %q, want %q", tc.label, got, tc.want)
		}
	}
}
