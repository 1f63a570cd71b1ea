package charts

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
)

const statesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Johor"},
     "geometry": {"type": "Polygon", "coordinates": [[[103.0,1.3],[104.2,1.3],[104.2,2.8],[103.0,2.8],[103.0,1.3]]]}},
    {"type": "Feature", "properties": {"name": "Kedah"},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[100.1,5.1],[101.0,5.1],[101.0,6.4],[100.1,6.4],[100.1,5.1]]]]}},
    {"type": "Feature", "properties": {"name": "Sabah"},
     "geometry": {"type": "Polygon", "coordinates": [[[115.5,4.1],[119.3,4.1],[119.3,7.4],[115.5,7.4],[115.5,4.1]]]}}
  ]
}`

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestRenderPrimaryAndPanelCharts(t *testing.T) {
	ds := mustDataset(t, []string{"year", "sales"},
		[]string{"2020", "100"}, []string{"2021", "150"}, []string{"2022", "90"})
	r := NewRenderer(nil)
	sel := NewSelector().Select(ds)
	for _, spec := range sel.All() {
		img, err := r.Render(context.Background(), ds, spec, 1)
		if err != nil {
			t.Fatalf("render %s: %v", spec.Title, err)
		}
		w, h := decodeSize(t, img)
		if w != DefaultWidth || h != DefaultHeight {
			t.Fatalf("%s: size %dx%d", spec.Title, w, h)
		}
	}
}

func TestRenderScaleMultipliesSize(t *testing.T) {
	ds := mustDataset(t, []string{"region", "sales"}, []string{"north", "3"}, []string{"south", "4"}, []string{"north", "5"})
	r := NewRenderer(nil)
	r.Width, r.Height = 300, 200
	img, err := r.Render(context.Background(), ds, NewSelector().Primary(ds), 2)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if w, h := decodeSize(t, img); w != 600 || h != 400 {
		t.Fatalf("size = %dx%d, want 600x400", w, h)
	}
}

func TestRenderDateLineAndSinglePoint(t *testing.T) {
	r := NewRenderer(nil)
	ds := mustDataset(t, []string{"date", "v"}, []string{"2024-01-01", "1"}, []string{"2024-02-01", "3"})
	if _, err := r.Render(context.Background(), ds, NewSelector().Primary(ds), 1); err != nil {
		t.Fatalf("date line: %v", err)
	}
	one := mustDataset(t, []string{"date", "v"}, []string{"2024-01-01", "7"})
	if _, err := r.Render(context.Background(), one, NewSelector().Primary(one), 1); err != nil {
		t.Fatalf("single point line: %v", err)
	}
	flat := mustDataset(t, []string{"k", "v"}, []string{"a", "0"}, []string{"b", "0"})
	if _, err := r.Render(context.Background(), flat, NewSelector().Primary(flat), 1); err != nil {
		t.Fatalf("all-zero bars: %v", err)
	}
}

func TestRenderPlaceholder(t *testing.T) {
	img, err := NewRenderer(nil).Render(context.Background(), nil, Placeholder(), 1)
	if err != nil {
		t.Fatalf("placeholder: %v", err)
	}
	decodeSize(t, img)
}

func TestRenderUnknownColumn(t *testing.T) {
	ds := mustDataset(t, []string{"a", "b"}, []string{"x", "1"})
	_, err := NewRenderer(nil).Render(context.Background(), ds, ChartSpec{Kind: Line, X: "a", Y: "missing", Title: "t"}, 1)
	if err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestRenderChoroplethFetchesAndCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(statesGeoJSON))
	}))
	defer srv.Close()

	ds := mustDataset(t, []string{"negeri", "jumlah"}, []string{"Johor", "5"}, []string{" kedah", "3"})
	sel := NewSelector()
	sel.RegionalGeoJSONURL = srv.URL + "/states.geojson"
	spec := sel.Map(ds)
	if spec == nil {
		t.Fatalf("expected map spec")
	}
	r := NewRenderer(srv.Client())
	for i := 0; i < 2; i++ {
		img, err := r.Render(context.Background(), ds, *spec, 1)
		if err != nil {
			t.Fatalf("render choropleth: %v", err)
		}
		decodeSize(t, img)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("boundary file fetched %d times, want 1", n)
	}
}

func TestRenderChoroplethFromFileAndErrors(t *testing.T) {
	p := filepath.Join(t.TempDir(), "world.geojson")
	if err := os.WriteFile(p, []byte(statesGeoJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ds := mustDataset(t, []string{"country", "n"}, []string{"Sabah", "1"})
	spec := ChartSpec{Kind: Choropleth, X: "country", Y: "n", Title: "World Map: n",
		Geo: &GeoSpec{Scope: World, GeoJSONURL: p, FeatureKey: "properties.name", ColorScale: "Viridis"}}
	if _, err := NewRenderer(nil).Render(context.Background(), ds, spec, 1); err != nil {
		t.Fatalf("render from file: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()
	spec.Geo.Scope = Regional
	spec.Geo.GeoJSONURL = srv.URL
	_, err := NewRenderer(srv.Client()).Render(context.Background(), ds, spec, 1)
	if err == nil || !strings.Contains(err.Error(), "410") {
		t.Fatalf("expected status error, got %v", err)
	}
}

type offlineTransport struct{ calls int32 }

func (o *offlineTransport) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&o.calls, 1)
	return nil, errors.New("network is unreachable")
}

func TestRenderWorldMapOffline(t *testing.T) {
	ds := mustDataset(t, []string{"country", "gdp"},
		[]string{"United States", "21"}, []string{"Malaysia", "0.4"}, []string{"UK", "3"})
	spec := NewSelector().Map(ds)
	if spec == nil || spec.Geo.GeoJSONURL != BuiltinWorldBoundaries {
		t.Fatalf("map = %+v", spec)
	}
	tr := &offlineTransport{}
	r := NewRenderer(&http.Client{Transport: tr})
	img, err := r.Render(context.Background(), ds, *spec, 1)
	if err != nil {
		t.Fatalf("render world map: %v", err)
	}
	decodeSize(t, img)
	if n := atomic.LoadInt32(&tr.calls); n != 0 {
		t.Fatalf("built-in outlines made %d network calls", n)
	}
}

func TestRenderWorldMapFallsBackToBuiltin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	l := logrus.New()
	l.SetOutput(&logs)
	ds := mustDataset(t, []string{"country", "gdp"}, []string{"Russian Federation", "2"})
	sel := NewSelector()
	sel.WorldGeoJSONURL = srv.URL + "/countries.geojson"
	spec := sel.Map(ds)
	r := NewRenderer(srv.Client())
	r.Logger = l
	if _, err := r.Render(context.Background(), ds, *spec, 1); err != nil {
		t.Fatalf("render with unreachable world source: %v", err)
	}
	if !strings.Contains(logs.String(), "built-in outlines") || !strings.Contains(logs.String(), "410") {
		t.Fatalf("fallback not logged: %q", logs.String())
	}
}

func TestCountryKeyAliases(t *testing.T) {
	cases := map[string]string{
		"United States":              "united states of america",
		" United  States of America": "united states of america",
		"USA":                        "united states of america",
		"Russian Federation":         "russia",
		"Czechia":                    "czech republic",
		"Malaysia":                   "malaysia",
	}
	for in, want := range cases {
		if got := countryKey(in); got != want {
			t.Fatalf("countryKey(%q) = %q, want %q", in, got, want)
		}
	}
}

// Every alias must land on a country the built-in outlines actually name.
func TestCountryAliasesMatchBuiltinOutlines(t *testing.T) {
	fc, err := NewRenderer(nil).loadBoundaries(context.Background(), BuiltinWorldBoundaries)
	if err != nil {
		t.Fatalf("load built-in outlines: %v", err)
	}
	if len(fc.Features) < 170 {
		t.Fatalf("built-in outlines have %d features", len(fc.Features))
	}
	names := make(map[string]bool, len(fc.Features))
	for _, f := range fc.Features {
		names[countryKey(f.Properties.MustString("name", ""))] = true
	}
	for alias, key := range countryAliases {
		if !names[key] {
			t.Fatalf("alias %q maps to %q, which no outline is named", alias, key)
		}
	}
}

func TestBluesScaleEnds(t *testing.T) {
	if Blues(0, 0, 10) != bluesStops[0] {
		t.Fatalf("low end should be the lightest stop")
	}
	if Blues(10, 0, 10) != bluesStops[len(bluesStops)-1] {
		t.Fatalf("high end should be the darkest stop")
	}
	mid := Blues(5, 0, 10)
	if mid == bluesStops[0] || mid == bluesStops[len(bluesStops)-1] {
		t.Fatalf("midpoint should interpolate, got %+v", mid)
	}
}

func TestSumByLabelKeepsFirstSeenOrder(t *testing.T) {
	ds := mustDataset(t, []string{"k", "v"},
		[]string{"b", "1"}, []string{"a", "2"}, []string{"b", "3"}, []string{"", "9"}, []string{"c", ""})
	s, err := extract(ds, "k", "v")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	labels, sums := s.sumByLabel()
	if strings.Join(labels, ",") != "b,a" || sums[0] != 4 || sums[1] != 2 {
		t.Fatalf("labels=%v sums=%v", labels, sums)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{2020: "2020", 1.5: "1.5", 0.126: "0.13", -3: "-3"}
	for in, want := range cases {
		if got := formatNumber(in); got != want {
			t.Fatalf("formatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderSingleCategoryRow(t *testing.T) {
	ds := mustDataset(t, []string{"k", "v"}, []string{"a", "1"})
	sel := NewSelector().Select(ds)
	r := NewRenderer(nil)
	for _, spec := range sel.All() {
		img, err := r.Render(context.Background(), ds, spec, 1)
		if err != nil {
			t.Fatalf("%s %q: %v", spec.Kind, spec.Title, err)
		}
		decodeSize(t, img)
	}
}

func TestCategoryTicksBoundAxis(t *testing.T) {
	ticks := categoryTicks([]string{"a"})
	if len(ticks) != 3 || ticks[0].Value != -0.5 || ticks[2].Value != 0.5 || ticks[1].Label != "a" {
		t.Fatalf("ticks = %+v", ticks)
	}
}
