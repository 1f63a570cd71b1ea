package charts

import (
	"fmt"

	"github.com/KaramelBytes/reportloom/internal/dataset"
)

const (
	// BuiltinWorldBoundaries selects the country outlines compiled into the
	// binary. A configured world source that cannot be read falls back to it.
	BuiltinWorldBoundaries = "builtin:world"

	DefaultWorldGeoJSONURL    = BuiltinWorldBoundaries
	DefaultRegionalGeoJSONURL = "https://raw.githubusercontent.com/sabapathy12/geojson-malaysia/master/malaysia-states.geojson"

	placeholderTitle = "No numeric data found"
)

// Selector derives a Selection from column names and types. It never
// touches cell values and has no failure path.
type Selector struct {
	Aliases            Aliases
	WorldGeoJSONURL    string
	RegionalGeoJSONURL string
}

// NewSelector returns a selector with default aliases and boundary sources.
func NewSelector() *Selector {
	return &Selector{
		Aliases:            DefaultAliases(),
		WorldGeoJSONURL:    DefaultWorldGeoJSONURL,
		RegionalGeoJSONURL: DefaultRegionalGeoJSONURL,
	}
}

// rule is one primary-chart candidate; the first whose match returns true
// builds the chart.
type rule struct {
	name  string
	match func(s *Selector, ds *dataset.Dataset) bool
	build func(s *Selector, ds *dataset.Dataset) ChartSpec
}

var primaryRules = []rule{
	{
		name:  "placeholder",
		match: func(_ *Selector, ds *dataset.Dataset) bool { return len(ds.NumericColumns()) == 0 },
		build: func(_ *Selector, _ *dataset.Dataset) ChartSpec { return Placeholder() },
	},
	{
		name:  "time-line",
		match: func(s *Selector, ds *dataset.Dataset) bool { return s.timeColumn(ds) != "" },
		build: func(s *Selector, ds *dataset.Dataset) ChartSpec {
			x := s.timeColumn(ds)
			return lineSpec(x, valueColumn(ds, x), TrendTitle)
		},
	},
	{
		name:  "category-bar",
		match: func(_ *Selector, ds *dataset.Dataset) bool { return len(ds.TextColumns()) > 0 },
		build: func(_ *Selector, ds *dataset.Dataset) ChartSpec {
			x := ds.TextColumns()[0]
			return barSpec(x, valueColumn(ds, x), ComparisonTitle)
		},
	},
	{
		name:  "scatter",
		match: func(_ *Selector, _ *dataset.Dataset) bool { return true },
		build: func(_ *Selector, ds *dataset.Dataset) ChartSpec {
			x := ds.Columns[0].Name
			return scatterSpec(x, valueColumn(ds, x), RelationshipTitle)
		},
	},
}

// Select runs the primary rules, the fixed panel and the optional map.
func (s *Selector) Select(ds *dataset.Dataset) Selection {
	return Selection{
		Primary: s.Primary(ds),
		Panel:   s.Panel(ds),
		Map:     s.Map(ds),
	}
}

// Primary returns the chart chosen by the first matching rule.
func (s *Selector) Primary(ds *dataset.Dataset) ChartSpec {
	for _, r := range primaryRules {
		if r.match(s, ds) {
			return r.build(s, ds)
		}
	}
	return Placeholder()
}

// Panel returns line, bar and scatter charts over the first column, or
// nothing when the dataset has no numeric column.
func (s *Selector) Panel(ds *dataset.Dataset) []ChartSpec {
	if len(ds.NumericColumns()) == 0 {
		return nil
	}
	x := ds.Columns[0].Name
	y := valueColumn(ds, x)
	return []ChartSpec{
		lineSpec(x, y, panelTitle("Line Chart")),
		barSpec(x, y, panelTitle("Bar Chart")),
		scatterSpec(x, y, panelTitle("Scatter Plot")),
	}
}

// Map returns a choropleth when a geographic column and a numeric column
// both exist, else nil.
func (s *Selector) Map(ds *dataset.Dataset) *ChartSpec {
	if len(ds.NumericColumns()) == 0 {
		return nil
	}
	aliases := s.Aliases.withDefaults()
	var geo string
	for _, c := range ds.Columns {
		if aliases.IsGeo(c.Name) {
			geo = c.Name
			break
		}
	}
	if geo == "" {
		return nil
	}
	val := valueColumn(ds, geo)
	spec := &ChartSpec{Kind: Choropleth, X: geo, Y: val}
	if aliases.IsWorld(geo) {
		spec.Title = fmt.Sprintf("World Map: %s", val)
		spec.Geo = &GeoSpec{
			Scope:        World,
			GeoJSONURL:   orDefault(s.WorldGeoJSONURL, DefaultWorldGeoJSONURL),
			FeatureKey:   "properties.name",
			LocationMode: "country names",
			ColorScale:   "Viridis",
		}
		return spec
	}
	spec.Title = fmt.Sprintf("Regional Map: %s", val)
	spec.Geo = &GeoSpec{
		Scope:      Regional,
		GeoJSONURL: orDefault(s.RegionalGeoJSONURL, DefaultRegionalGeoJSONURL),
		FeatureKey: "properties.name",
		ColorScale: "Blues",
		FitBounds:  true,
	}
	return spec
}

// Placeholder is the primary chart for datasets without numeric columns.
func Placeholder() ChartSpec {
	return ChartSpec{Kind: Scatter, Title: placeholderTitle, Placeholder: true}
}

func (s *Selector) timeColumn(ds *dataset.Dataset) string {
	aliases := s.Aliases.withDefaults()
	for _, c := range ds.Columns {
		if aliases.IsTime(c.Name) {
			return c.Name
		}
	}
	return ""
}

// valueColumn is the first numeric column other than x, or x itself when
// it is the only numeric column.
func valueColumn(ds *dataset.Dataset, x string) string {
	nums := ds.NumericColumns()
	for _, n := range nums {
		if n != x {
			return n
		}
	}
	if len(nums) > 0 {
		return nums[0]
	}
	return ""
}

func TrendTitle(x, y string) string        { return fmt.Sprintf("Trend of %s by %s", y, x) }
func ComparisonTitle(x, y string) string   { return fmt.Sprintf("Comparison of %s by %s", y, x) }
func RelationshipTitle(x, y string) string { return fmt.Sprintf("Relationship %s vs %s", x, y) }

func panelTitle(prefix string) func(x, y string) string {
	return func(x, y string) string { return fmt.Sprintf("%s %s vs %s", prefix, y, x) }
}

func lineSpec(x, y string, title func(x, y string) string) ChartSpec {
	return ChartSpec{Kind: Line, X: x, Y: y, Title: title(x, y), Markers: true}
}

func barSpec(x, y string, title func(x, y string) string) ChartSpec {
	return ChartSpec{Kind: Bar, X: x, Y: y, Title: title(x, y), ValueLabels: true}
}

func scatterSpec(x, y string, title func(x, y string) string) ChartSpec {
	return ChartSpec{Kind: Scatter, X: x, Y: y, Title: title(x, y)}
}

func orDefault(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
