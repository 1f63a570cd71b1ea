package charts

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/reportloom/internal/dataset"
)

const (
	DefaultWidth  = 700
	DefaultHeight = 450
	DefaultScale  = 2
	maxTickLabels = 20
)

// Renderer turns chart specs into PNG images.
type Renderer struct {
	Width  int
	Height int
	Theme  Theme
	Client *http.Client
	Logger logrus.FieldLogger

	mu         sync.Mutex
	boundaries map[string]*geojson.FeatureCollection
}

// NewRenderer returns a renderer with the default size and dark theme.
// client is used for boundary downloads; nil means a 30s-timeout client.
func NewRenderer(client *http.Client) *Renderer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Renderer{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Theme:  DarkTheme(),
		Client: client,
	}
}

func (r *Renderer) logger() logrus.FieldLogger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

type frame struct {
	width, height int
	dpi           float64
	scale         float64
}

func (r *Renderer) frame(scale float64) frame {
	if scale <= 0 {
		scale = DefaultScale
	}
	w, h := r.Width, r.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return frame{
		width:  int(math.Round(float64(w) * scale)),
		height: int(math.Round(float64(h) * scale)),
		dpi:    chart.DefaultDPI * scale,
		scale:  scale,
	}
}

// Render draws one chart at the given rasterization scale.
func (r *Renderer) Render(ctx context.Context, ds *dataset.Dataset, spec ChartSpec, scale float64) ([]byte, error) {
	f := r.frame(scale)
	if spec.Placeholder {
		return r.blank(f, spec.Title, "")
	}
	if ds == nil {
		return nil, fmt.Errorf("render %q: no dataset", spec.Title)
	}
	switch spec.Kind {
	case Line, Scatter:
		return r.renderXY(ds, spec, f)
	case Bar:
		return r.renderBar(ds, spec, f)
	case Choropleth:
		return r.renderChoropleth(ctx, ds, spec, f)
	default:
		return nil, fmt.Errorf("render %q: unsupported chart kind %q", spec.Title, spec.Kind)
	}
}

func (r *Renderer) renderXY(ds *dataset.Dataset, spec ChartSpec, f frame) ([]byte, error) {
	s, err := extract(ds, spec.X, spec.Y)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", spec.Title, err)
	}
	if len(s.ys) == 0 {
		return r.blank(f, spec.Title, "no plottable rows")
	}
	th := r.theme()
	style := chart.Style{StrokeColor: th.Series, StrokeWidth: 2 * f.scale}
	if spec.Kind == Scatter {
		style = chart.Style{StrokeWidth: chart.Disabled, DotColor: th.Series, DotWidth: 4 * f.scale}
	} else if spec.Markers {
		style.DotColor = th.Series
		style.DotWidth = 3 * f.scale
	}

	ymin, ymax := paddedRange(s.ys)
	xAxis := chart.XAxis{
		Name:      spec.X,
		NameStyle: th.axis(),
		Style:     th.axis(),
	}
	var series chart.Series
	switch ts, isTime := s.times(); {
	case s.numericX():
		xmin, xmax := paddedRange(s.xs)
		xAxis.Range = &chart.ContinuousRange{Min: xmin, Max: xmax}
		xAxis.ValueFormatter = numberFormatter
		series = chart.ContinuousSeries{Name: spec.Y, Style: style, XValues: s.xs, YValues: s.ys}
	case isTime && spec.Kind == Line:
		xs := make([]float64, len(ts))
		for i, t := range ts {
			xs[i] = chart.TimeToFloat64(t)
		}
		xmin, xmax := timeRange(xs)
		xAxis.Range = &chart.ContinuousRange{Min: xmin, Max: xmax}
		xAxis.ValueFormatter = chart.TimeValueFormatterWithFormat("2006-01-02")
		series = chart.TimeSeries{Name: spec.Y, Style: style, XValues: ts, YValues: s.ys}
	default:
		xs := make([]float64, len(s.labels))
		for i := range xs {
			xs[i] = float64(i)
		}
		xAxis.Range = &chart.ContinuousRange{Min: -0.5, Max: float64(len(xs)) - 0.5}
		xAxis.Ticks = categoryTicks(s.labels)
		series = chart.ContinuousSeries{Name: spec.Y, Style: style, XValues: xs, YValues: s.ys}
	}

	ch := chart.Chart{
		Title:      spec.Title,
		TitleStyle: th.title(),
		Width:      f.width,
		Height:     f.height,
		DPI:        f.dpi,
		Background: th.background(f.scale),
		Canvas:     th.canvas(),
		XAxis:      xAxis,
		YAxis: chart.YAxis{
			Name:           spec.Y,
			NameStyle:      th.axis(),
			Style:          th.axis(),
			ValueFormatter: numberFormatter,
			Range:          &chart.ContinuousRange{Min: ymin, Max: ymax},
		},
		Series: []chart.Series{series},
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %q: %w", spec.Title, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderBar(ds *dataset.Dataset, spec ChartSpec, f frame) ([]byte, error) {
	s, err := extract(ds, spec.X, spec.Y)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", spec.Title, err)
	}
	labels, sums := s.sumByLabel()
	if len(labels) == 0 {
		return r.blank(f, spec.Title, "no plottable rows")
	}
	th := r.theme()
	bars := make([]chart.Value, len(labels))
	for i, l := range labels {
		label := l
		if spec.ValueLabels {
			label = fmt.Sprintf("%s (%s)", l, formatNumber(sums[i]))
		}
		bars[i] = chart.Value{
			Label: label,
			Value: sums[i],
			Style: chart.Style{FillColor: th.Series, StrokeColor: th.Series},
		}
	}
	lo, hi := barRange(sums)

	usable := f.width - int(160*f.scale)
	barWidth := usable / (len(bars) * 2)
	if barWidth < 2 {
		barWidth = 2
	}
	bc := chart.BarChart{
		Title:        spec.Title,
		TitleStyle:   th.title(),
		Width:        f.width,
		Height:       f.height,
		DPI:          f.dpi,
		Background:   th.background(f.scale),
		Canvas:       th.canvas(),
		BarWidth:     barWidth,
		BarSpacing:   barWidth,
		UseBaseValue: true,
		BaseValue:    0,
		XAxis:        th.axis(),
		YAxis: chart.YAxis{
			Style:          th.axis(),
			ValueFormatter: numberFormatter,
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}
	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %q: %w", spec.Title, err)
	}
	return buf.Bytes(), nil
}

// categoryTicks labels integer positions, thinning labels on long axes.
// Unlabelled ticks at both axis ends keep the range go-chart derives from
// the ticks non-empty when there is a single category.
func categoryTicks(labels []string) []chart.Tick {
	step := 1
	if len(labels) > maxTickLabels {
		step = int(math.Ceil(float64(len(labels)) / maxTickLabels))
	}
	ticks := make([]chart.Tick, 0, len(labels)/step+3)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	for i := 0; i < len(labels); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: labels[i]})
	}
	return append(ticks, chart.Tick{Value: float64(len(labels)) - 0.5})
}

// timeRange pads a span of UnixNano values by 5%, or by half a day around a
// single instant.
func timeRange(xs []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	if hi-lo < float64(time.Hour) {
		mid := (lo + hi) / 2
		return mid - float64(12*time.Hour), mid + float64(12*time.Hour)
	}
	span := hi - lo
	return lo - span*0.05, hi + span*0.05
}

// barRange always includes zero so bars grow from the baseline.
func barRange(vals []float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi == lo {
		return 0, 1
	}
	span := hi - lo
	if lo < 0 {
		lo -= span * 0.05
	}
	if hi > 0 {
		hi += span * 0.05
	}
	return lo, hi
}

func (r *Renderer) theme() Theme {
	if r.Theme == (Theme{}) {
		return DarkTheme()
	}
	return r.Theme
}
