package charts

import (
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Theme is the single dark palette every chart is drawn with.
type Theme struct {
	Background drawing.Color
	Canvas     drawing.Color
	Axis       drawing.Color
	Grid       drawing.Color
	Font       drawing.Color
	Muted      drawing.Color
	Series     drawing.Color
}

// DarkTheme mirrors a plotly-dark look.
func DarkTheme() Theme {
	return Theme{
		Background: drawing.ColorFromHex("111111"),
		Canvas:     drawing.ColorFromHex("111111"),
		Axis:       drawing.ColorFromHex("506784"),
		Grid:       drawing.ColorFromHex("283442"),
		Font:       drawing.ColorFromHex("f2f5fa"),
		Muted:      drawing.ColorFromHex("3a3f4b"),
		Series:     drawing.ColorFromHex("636efa"),
	}
}

func (t Theme) background(scale float64) chart.Style {
	pad := int(math.Round(20 * scale))
	return chart.Style{
		FillColor: t.Background,
		Padding:   chart.Box{Top: pad * 3, Left: pad, Right: pad, Bottom: pad},
	}
}

func (t Theme) canvas() chart.Style { return chart.Style{FillColor: t.Canvas} }

func (t Theme) axis() chart.Style {
	return chart.Style{StrokeColor: t.Axis, FontColor: t.Font}
}

func (t Theme) title() chart.Style {
	return chart.Style{FontColor: t.Font, FontSize: 14}
}

// ColorScale maps a value in [lo, hi] to a color.
type ColorScale func(v, lo, hi float64) drawing.Color

// ScaleByName resolves the named continuous scales used by choropleths.
func ScaleByName(name string) ColorScale {
	switch name {
	case "Blues":
		return Blues
	default:
		return chart.Viridis
	}
}

var bluesStops = []drawing.Color{
	drawing.ColorFromHex("f7fbff"),
	drawing.ColorFromHex("c6dbef"),
	drawing.ColorFromHex("6baed6"),
	drawing.ColorFromHex("2171b5"),
	drawing.ColorFromHex("08306b"),
}

// Blues is a light-to-dark blue sequential scale.
func Blues(v, lo, hi float64) drawing.Color {
	return interpolate(bluesStops, normalize(v, lo, hi))
}

func normalize(v, lo, hi float64) float64 {
	if hi <= lo || math.IsNaN(v) {
		return 1
	}
	f := (v - lo) / (hi - lo)
	return math.Max(0, math.Min(1, f))
}

func interpolate(stops []drawing.Color, f float64) drawing.Color {
	if len(stops) == 1 || f <= 0 {
		return stops[0]
	}
	if f >= 1 {
		return stops[len(stops)-1]
	}
	pos := f * float64(len(stops)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := stops[i], stops[i+1]
	mix := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac)) }
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
