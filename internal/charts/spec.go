// Package charts picks which charts to draw for a dataset and renders them
// to PNG.
package charts

// ChartKind is the visual form of a chart.
type ChartKind string

const (
	Line       ChartKind = "line"
	Bar        ChartKind = "bar"
	Scatter    ChartKind = "scatter"
	Choropleth ChartKind = "choropleth"
)

// GeoScope selects the boundary set a choropleth is drawn against.
type GeoScope string

const (
	World    GeoScope = "world"
	Regional GeoScope = "regional"
)

// ChartSpec describes one chart. It is derived from column names and
// types only, so the same dataset always yields the same specs.
type ChartSpec struct {
	Kind        ChartKind `json:"kind"`
	X           string    `json:"x,omitempty"`
	Y           string    `json:"y,omitempty"`
	Title       string    `json:"title"`
	Markers     bool      `json:"markers,omitempty"`
	ValueLabels bool      `json:"value_labels,omitempty"`
	Placeholder bool      `json:"placeholder,omitempty"`
	Geo         *GeoSpec  `json:"geo,omitempty"`
}

// GeoSpec carries the choropleth-only settings.
type GeoSpec struct {
	Scope        GeoScope `json:"scope"`
	GeoJSONURL   string   `json:"geojson_url"`
	FeatureKey   string   `json:"feature_key"`
	LocationMode string   `json:"location_mode,omitempty"`
	ColorScale   string   `json:"color_scale"`
	FitBounds    bool     `json:"fit_bounds,omitempty"`
}

// Selection is the full chart set for one dataset.
type Selection struct {
	Primary ChartSpec   `json:"primary"`
	Panel   []ChartSpec `json:"panel"`
	Map     *ChartSpec  `json:"map,omitempty"`
}

// All returns the charts in report order: primary, panel, then map.
func (s Selection) All() []ChartSpec {
	out := make([]ChartSpec, 0, len(s.Panel)+2)
	out = append(out, s.Primary)
	out = append(out, s.Panel...)
	if s.Map != nil {
		out = append(out, *s.Map)
	}
	return out
}
