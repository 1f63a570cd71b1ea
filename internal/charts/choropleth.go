package charts

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/reportloom/internal/dataset"
)

const maxGeoJSONBytes = 32 << 20

func (r *Renderer) renderChoropleth(ctx context.Context, ds *dataset.Dataset, spec ChartSpec, f frame) ([]byte, error) {
	if spec.Geo == nil {
		return nil, fmt.Errorf("render %q: missing geo settings", spec.Title)
	}
	fc, err := r.loadBoundaries(ctx, spec.Geo.GeoJSONURL)
	if err != nil && spec.Geo.Scope == World && spec.Geo.GeoJSONURL != BuiltinWorldBoundaries {
		r.logger().WithError(err).WithField("source", spec.Geo.GeoJSONURL).
			Warn("world boundaries unavailable, using built-in outlines")
		fc, err = r.loadBoundaries(ctx, BuiltinWorldBoundaries)
	}
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", spec.Title, err)
	}
	s, err := extract(ds, spec.X, spec.Y)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", spec.Title, err)
	}
	key := locationKey
	if spec.Geo.Scope == World {
		key = countryKey
	}
	labels, sums := s.sumByLabel()
	values := make(map[string]float64, len(labels))
	for i, l := range labels {
		values[key(l)] += sums[i]
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	prop := strings.TrimPrefix(spec.Geo.FeatureKey, "properties.")
	if prop == "" {
		prop = "name"
	}
	type shape struct {
		geom  orb.Geometry
		value float64
		ok    bool
	}
	shapes := make([]shape, 0, len(fc.Features))
	var all, matched orb.Bound
	haveAll, haveMatched := false, false
	for _, feat := range fc.Features {
		if feat == nil || feat.Geometry == nil {
			continue
		}
		name := feat.Properties.MustString(prop, "")
		v, ok := values[key(name)]
		shapes = append(shapes, shape{geom: feat.Geometry, value: v, ok: ok})
		b := feat.Geometry.Bound()
		if !haveAll {
			all, haveAll = b, true
		} else {
			all = all.Union(b)
		}
		if ok {
			if !haveMatched {
				matched, haveMatched = b, true
			} else {
				matched = matched.Union(b)
			}
		}
	}
	if !haveAll {
		return nil, fmt.Errorf("render %q: boundary file has no features", spec.Title)
	}
	view := all
	if spec.Geo.FitBounds && haveMatched {
		view = matched.Pad(math.Max(matched.Max.X()-matched.Min.X(), matched.Max.Y()-matched.Min.Y()) * 0.05)
	}

	c, err := r.newCanvas(f)
	if err != nil {
		return nil, err
	}
	c.title(spec.Title)
	proj := newProjection(view, c.px(20), c.px(60), f.width-c.px(110), f.height-c.px(20))
	scale := ScaleByName(spec.Geo.ColorScale)
	for _, sh := range shapes {
		fill := c.theme.Muted
		if sh.ok {
			fill = scale(sh.value, lo, hi)
		}
		c.polygon(sh.geom, proj, fill)
	}
	if haveMatched {
		c.colorBar(scale, lo, hi, spec.Y)
	}
	return c.png()
}

// locationKey normalizes names so "Kuala Lumpur " matches "kuala lumpur".
func locationKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// projection is equirectangular with the longitude axis compressed by the
// cosine of the view's middle latitude, fitted into a pixel box.
type projection struct {
	view  orb.Bound
	k, kx float64
	offX  float64
	offY  float64
}

func newProjection(view orb.Bound, left, top, right, bottom int) projection {
	midLat := (view.Min.Y() + view.Max.Y()) / 2
	cos := math.Cos(midLat * math.Pi / 180)
	if cos < 0.2 {
		cos = 0.2
	}
	dx := (view.Max.X() - view.Min.X()) * cos
	dy := view.Max.Y() - view.Min.Y()
	if dx <= 0 {
		dx = 1
	}
	if dy <= 0 {
		dy = 1
	}
	w, h := float64(right-left), float64(bottom-top)
	k := math.Min(w/dx, h/dy)
	return projection{
		view: view,
		k:    k,
		kx:   k * cos,
		offX: float64(left) + (w-dx*k)/2,
		offY: float64(top) + (h-dy*k)/2,
	}
}

func (p projection) point(pt orb.Point) (int, int) {
	x := p.offX + (pt.X()-p.view.Min.X())*p.kx
	y := p.offY + (p.view.Max.Y()-pt.Y())*p.k
	return int(math.Round(x)), int(math.Round(y))
}

func (c *canvas) polygon(g orb.Geometry, p projection, fill drawing.Color) {
	switch geom := g.(type) {
	case orb.Polygon:
		c.rings(geom, p, fill)
	case orb.MultiPolygon:
		for _, poly := range geom {
			c.rings(poly, p, fill)
		}
	}
}

func (c *canvas) rings(poly orb.Polygon, p projection, fill drawing.Color) {
	if len(poly) == 0 {
		return
	}
	c.r.SetFillColor(fill)
	c.r.SetStrokeColor(c.theme.Background)
	c.r.SetStrokeWidth(0.5 * c.f.scale)
	for _, ring := range poly {
		if len(ring) < 3 {
			continue
		}
		x, y := p.point(ring[0])
		c.r.MoveTo(x, y)
		for _, pt := range ring[1:] {
			x, y = p.point(pt)
			c.r.LineTo(x, y)
		}
		c.r.Close()
	}
	c.r.FillStroke()
}

// colorBar draws a vertical legend on the right edge.
func (c *canvas) colorBar(scale ColorScale, lo, hi float64, label string) {
	const steps = 24
	x0 := c.f.width - c.px(80)
	x1 := x0 + c.px(16)
	top, bottom := c.px(80), c.f.height-c.px(60)
	h := float64(bottom-top) / steps
	for i := 0; i < steps; i++ {
		v := hi - (hi-lo)*float64(i)/float64(steps-1)
		y0 := top + int(math.Round(float64(i)*h))
		y1 := top + int(math.Round(float64(i+1)*h))
		c.fillRect(x0, y0, x1, y1, scale(v, lo, hi))
	}
	c.text(formatNumber(hi), x1+c.px(4), top+c.px(4), 9, c.theme.Font)
	c.text(formatNumber(lo), x1+c.px(4), bottom, 9, c.theme.Font)
	c.text(label, x0, top-c.px(10), 9, c.theme.Font)
}

// loadBoundaries fetches and caches a GeoJSON feature collection. Plain
// paths and file:// URLs are read from disk; BuiltinWorldBoundaries is
// served from the binary.
func (r *Renderer) loadBoundaries(ctx context.Context, src string) (*geojson.FeatureCollection, error) {
	if src == "" {
		return nil, fmt.Errorf("no boundary source configured")
	}
	r.mu.Lock()
	fc, ok := r.boundaries[src]
	r.mu.Unlock()
	if ok {
		return fc, nil
	}

	data := worldGeoJSON
	if src != BuiltinWorldBoundaries {
		var err error
		if data, err = r.readBoundaries(ctx, src); err != nil {
			return nil, err
		}
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson %s: %w", src, err)
	}

	r.mu.Lock()
	if r.boundaries == nil {
		r.boundaries = make(map[string]*geojson.FeatureCollection)
	}
	r.boundaries[src] = fc
	r.mu.Unlock()
	return fc, nil
}

func (r *Renderer) readBoundaries(ctx context.Context, src string) ([]byte, error) {
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		p := src
		if err == nil && u.Scheme == "file" {
			p = u.Path
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read geojson: %w", err)
		}
		return data, nil
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch geojson: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch geojson %s: status %d", src, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGeoJSONBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	if len(data) > maxGeoJSONBytes {
		return nil, fmt.Errorf("geojson %s exceeds %d bytes", src, maxGeoJSONBytes)
	}
	return data, nil
}
