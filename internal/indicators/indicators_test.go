package indicators

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/osmquality/osmquality/internal/indicator"
	"github.com/osmquality/osmquality/internal/layer"
	"github.com/osmquality/osmquality/internal/ohsome"
)

func testFeature() *geojson.Feature {
	return geojson.NewFeature(orb.Polygon{{{8.6, 49.3}, {8.7, 49.3}, {8.7, 49.4}, {8.6, 49.4}, {8.6, 49.3}}})
}

type fakeOhsome struct {
	resp *ohsome.Response
	err  error

	latest time.Time
}

func (f *fakeOhsome) Query(ctx context.Context, def layer.Definition, feat *geojson.Feature, times string) (*ohsome.Response, error) {
	return f.resp, f.err
}

func (f *fakeOhsome) LatestTimestamp(ctx context.Context) (time.Time, error) {
	return f.latest, nil
}

type fakeStats struct {
	pop  float64
	area float64
}

func (f *fakeStats) ZonalPopulation(ctx context.Context, feat *geojson.Feature) (float64, float64, error) {
	return f.pop, f.area, nil
}

func (f *fakeStats) Area(ctx context.Context, feat *geojson.Feature) (float64, error) {
	return f.area, nil
}

func singleItemResponse(value float64) *ohsome.Response {
	return &ohsome.Response{
		Result: []ohsome.Item{{Timestamp: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), Value: value}},
	}
}

func metadataFor(name string) indicator.Metadata {
	return indicator.Metadata{
		Name:              name,
		ResultDescription: "result",
		LabelDescription: map[string]string{
			"green":     "green text",
			"yellow":    "yellow text",
			"red":       "red text",
			"undefined": "undefined text",
		},
	}
}

func build(t *testing.T, name string, lay layer.Layer, deps Deps) indicator.Indicator {
	t.Helper()
	ind, err := New(name, metadataFor(name), lay, testFeature(), deps)
	if err != nil {
		t.Fatalf("New(%s): %v", name, err)
	}
	return ind
}

func run(t *testing.T, ind indicator.Indicator) {
	t.Helper()
	if err := ind.Preprocess(context.Background()); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if err := ind.Calculate(); err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	ind.CreateFigure()
}

func TestNew_UnknownIndicator(t *testing.T) {
	_, err := New("Nope", indicator.Metadata{}, layer.Definition{Name: "building_count"}, testFeature(), Deps{})
	if err == nil {
		t.Error("unknown indicator name must be rejected")
	}
}

func TestNew_LayerDataSupport(t *testing.T) {
	data := layer.Data{Name: "custom", Result: []layer.Sample{{Value: 1}}}
	if _, err := New("MappingSaturation", indicator.Metadata{}, data, testFeature(), Deps{}); err != nil {
		t.Errorf("MappingSaturation must accept layer data: %v", err)
	}
	if _, err := New("PoiDensity", indicator.Metadata{}, data, testFeature(), Deps{}); err == nil {
		t.Error("PoiDensity must reject layer data")
	}
}

func TestGhsPopComparisonBuildings(t *testing.T) {
	cases := []struct {
		name      string
		pop       float64 // over 10 sqkm
		buildings float64
		wantLabel indicator.Label
	}{
		// popPerSqkm 1000: yellow threshold ~23.7/sqkm, green ~158.1/sqkm.
		{"dense mapping is green", 10000, 2000, indicator.LabelGreen},
		{"middling mapping is yellow", 10000, 1000, indicator.LabelYellow},
		{"sparse mapping is red", 10000, 100, indicator.LabelRed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := Deps{
				Ohsome:     &fakeOhsome{resp: singleItemResponse(tc.buildings)},
				Population: &fakeStats{pop: tc.pop, area: 10},
			}
			ind := build(t, "GhsPopComparisonBuildings", layer.Definition{Name: "building_count"}, deps)
			run(t, ind)

			res := ind.Base().Result
			if res.Label != tc.wantLabel {
				t.Errorf("label: got %s, want %s", res.Label, tc.wantLabel)
			}
			if res.Value == nil || *res.Value < 0 || *res.Value > 1 {
				t.Errorf("value must be in [0,1], got %v", res.Value)
			}
			if res.SourceAt == nil {
				t.Error("source timestamp must be recorded")
			}
		})
	}
}

func TestGhsPopComparisonBuildings_NoPopulation(t *testing.T) {
	deps := Deps{
		Ohsome:     &fakeOhsome{resp: singleItemResponse(50)},
		Population: &fakeStats{pop: 0, area: 10},
	}
	ind := build(t, "GhsPopComparisonBuildings", layer.Definition{Name: "building_count"}, deps)
	run(t, ind)

	res := ind.Base().Result
	if res.Label != indicator.LabelUndefined {
		t.Errorf("unpopulated region: got %s, want undefined", res.Label)
	}
	if res.Value != nil {
		t.Errorf("value: got %v, want nil", *res.Value)
	}
}

func TestGhsPopComparisonBuildings_NegativeCountIsDomainError(t *testing.T) {
	deps := Deps{
		Ohsome:     &fakeOhsome{resp: singleItemResponse(-5)},
		Population: &fakeStats{pop: 1000, area: 10},
	}
	ind := build(t, "GhsPopComparisonBuildings", layer.Definition{Name: "building_count"}, deps)
	if err := ind.Preprocess(context.Background()); err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	err := ind.Calculate()
	var domErr *indicator.DomainError
	if !errors.As(err, &domErr) {
		t.Errorf("got %v, want DomainError", err)
	}
}

func TestGhsPopComparisonRoads(t *testing.T) {
	cases := []struct {
		name         string
		pop          float64 // over 10 sqkm
		lengthMeters float64
		wantLabel    indicator.Label
	}{
		// popPerSqkm 1000 (< 5000): green threshold 2 km/sqkm, yellow 1 km/sqkm.
		{"dense roads are green", 10000, 30000, indicator.LabelGreen},
		{"middling roads are yellow", 10000, 15000, indicator.LabelYellow},
		{"sparse roads are red", 10000, 5000, indicator.LabelRed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := Deps{
				Ohsome:     &fakeOhsome{resp: singleItemResponse(tc.lengthMeters)},
				Population: &fakeStats{pop: tc.pop, area: 10},
			}
			ind := build(t, "GhsPopComparisonRoads", layer.Definition{Name: "major_roads_length"}, deps)
			run(t, ind)

			if got := ind.Base().Result.Label; got != tc.wantLabel {
				t.Errorf("label: got %s, want %s", got, tc.wantLabel)
			}
		})
	}
}

func TestPoiDensity(t *testing.T) {
	cases := []struct {
		name      string
		pois      float64 // over 10 sqkm
		wantLabel indicator.Label
		wantValue float64
	}{
		{"dense pois are green", 400, indicator.LabelGreen, 1.0},
		{"middling pois are yellow", 150, indicator.LabelYellow, 0.5},
		{"sparse pois are red", 60, indicator.LabelRed, 0.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := Deps{
				Ohsome: &fakeOhsome{resp: singleItemResponse(tc.pois)},
				Areas:  &fakeStats{area: 10},
			}
			ind := build(t, "PoiDensity", layer.Definition{Name: "poi"}, deps)
			run(t, ind)

			res := ind.Base().Result
			if res.Label != tc.wantLabel {
				t.Errorf("label: got %s, want %s", res.Label, tc.wantLabel)
			}
			if res.Value == nil || *res.Value != tc.wantValue {
				t.Errorf("value: got %v, want %g", res.Value, tc.wantValue)
			}
		})
	}
}

func TestPoiDensity_FallsBackToLatestExtractTimestamp(t *testing.T) {
	latest := time.Date(2023, 7, 15, 12, 0, 0, 0, time.UTC)
	deps := Deps{
		Ohsome: &fakeOhsome{
			resp:   &ohsome.Response{Result: []ohsome.Item{{Value: 100}}},
			latest: latest,
		},
		Areas: &fakeStats{area: 10},
	}
	ind := build(t, "PoiDensity", layer.Definition{Name: "poi"}, deps)
	run(t, ind)

	got := ind.Base().Result.SourceAt
	if got == nil || !got.Equal(latest) {
		t.Errorf("source timestamp: got %v, want %v", got, latest)
	}
}

func monthlySeries(values []float64) []ohsome.Item {
	items := make([]ohsome.Item, len(values))
	start := time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)
	for n, v := range values {
		items[n] = ohsome.Item{Timestamp: start.AddDate(0, n, 0), Value: v}
	}
	return items
}

func TestMappingSaturation(t *testing.T) {
	flat := make([]float64, 48)
	for n := range flat {
		flat[n] = 1000
	}

	growing := make([]float64, 48)
	for n := range growing {
		growing[n] = float64(n+1) * 100
	}

	cases := []struct {
		name      string
		values    []float64
		wantLabel indicator.Label
	}{
		{"flat series is saturated green", flat, indicator.LabelGreen},
		{"steep growth is red", growing, indicator.LabelRed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := Deps{Ohsome: &fakeOhsome{resp: &ohsome.Response{Result: monthlySeries(tc.values)}}}
			ind := build(t, "MappingSaturation", layer.Definition{Name: "building_count"}, deps)
			run(t, ind)

			if got := ind.Base().Result.Label; got != tc.wantLabel {
				t.Errorf("label: got %s, want %s", got, tc.wantLabel)
			}
		})
	}
}

func TestMappingSaturation_ShortSeriesStaysUndefined(t *testing.T) {
	deps := Deps{Ohsome: &fakeOhsome{resp: &ohsome.Response{Result: monthlySeries([]float64{1, 2, 3})}}}
	ind := build(t, "MappingSaturation", layer.Definition{Name: "building_count"}, deps)
	run(t, ind)

	res := ind.Base().Result
	if res.Label != indicator.LabelUndefined {
		t.Errorf("label: got %s, want undefined", res.Label)
	}
	if res.SVG == "" {
		t.Error("placeholder figure must survive an undefined result")
	}
}

func TestMappingSaturation_FromLayerData(t *testing.T) {
	samples := make([]layer.Sample, 40)
	start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	for n := range samples {
		samples[n] = layer.Sample{Timestamp: start.AddDate(0, n, 0), Value: 500}
	}
	data := layer.Data{Name: "custom_counts", Description: "externally counted", Result: samples}

	ind := build(t, "MappingSaturation", data, Deps{})
	run(t, ind)

	res := ind.Base().Result
	if res.Label != indicator.LabelGreen {
		t.Errorf("label: got %s, want green", res.Label)
	}
	if res.SourceAt == nil || !res.SourceAt.Equal(samples[len(samples)-1].Timestamp) {
		t.Errorf("source timestamp must come from the supplied series, got %v", res.SourceAt)
	}
}
