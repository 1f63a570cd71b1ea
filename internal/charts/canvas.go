package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// canvas wraps a raw go-chart PNG renderer for charts go-chart has no
// series type for (choropleths, placeholders).
type canvas struct {
	r     chart.Renderer
	f     frame
	theme Theme
}

func (r *Renderer) newCanvas(f frame) (*canvas, error) {
	cr, err := chart.PNG(f.width, f.height)
	if err != nil {
		return nil, fmt.Errorf("new canvas: %w", err)
	}
	cr.SetDPI(f.dpi)
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	cr.SetFont(font)
	c := &canvas{r: cr, f: f, theme: r.theme()}
	c.fillRect(0, 0, f.width, f.height, c.theme.Background)
	return c, nil
}

func (c *canvas) px(v float64) int { return int(v * c.f.scale) }

func (c *canvas) fillRect(x0, y0, x1, y1 int, col drawing.Color) {
	c.r.SetFillColor(col)
	c.r.SetStrokeColor(col)
	c.r.SetStrokeWidth(0)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y0)
	c.r.LineTo(x1, y1)
	c.r.LineTo(x0, y1)
	c.r.Close()
	c.r.Fill()
}

func (c *canvas) text(s string, x, y int, size float64, col drawing.Color) {
	c.r.SetFontSize(size)
	c.r.SetFontColor(col)
	c.r.Text(s, x, y)
}

// title draws the heading centered at the top, like go-chart does.
func (c *canvas) title(s string) {
	if s == "" {
		return
	}
	c.r.SetFontSize(14)
	box := c.r.MeasureText(s)
	x := (c.f.width - box.Width()) / 2
	if x < c.px(20) {
		x = c.px(20)
	}
	c.text(s, x, c.px(20)+box.Height(), 14, c.theme.Font)
}

func (c *canvas) png() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.r.Save(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// blank renders an empty themed canvas with a title and an optional note.
func (r *Renderer) blank(f frame, title, note string) ([]byte, error) {
	c, err := r.newCanvas(f)
	if err != nil {
		return nil, err
	}
	c.title(title)
	if note != "" {
		c.r.SetFontSize(10)
		box := c.r.MeasureText(note)
		c.text(note, (f.width-box.Width())/2, f.height/2, 10, c.theme.Axis)
	}
	return c.png()
}
