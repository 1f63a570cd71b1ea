package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/reportloom/internal/charts"
	"github.com/KaramelBytes/reportloom/internal/dataset"
	"github.com/KaramelBytes/reportloom/internal/utils"
)

// SummaryHeading is the subheading placed above the narrative.
const SummaryHeading = "Analysis Summary"

// Report is the content shared by every output format.
type Report struct {
	Title     string
	Narrative string
	Images    []Image
}

// Image is a rasterized chart on disk.
type Image struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Writer renders a report into one document format.
type Writer interface {
	Write(r Report, path string) error
}

// ChartRenderer draws a chart spec to PNG bytes.
type ChartRenderer interface {
	Render(ctx context.Context, ds *dataset.Dataset, spec charts.ChartSpec, scale float64) ([]byte, error)
}

// ChartHeading returns the heading for the n-th chart (1-based).
func ChartHeading(n int) string { return fmt.Sprintf("Chart %d", n) }

// Rasterize renders specs in order to dir/chart_<n>.png, replacing images
// from earlier runs.
func Rasterize(ctx context.Context, rd ChartRenderer, ds *dataset.Dataset, specs []charts.ChartSpec, dir string, scale float64) ([]Image, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	images := make([]Image, 0, len(specs))
	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := rd.Render(ctx, ds, spec, scale)
		if err != nil {
			return nil, fmt.Errorf("chart %d: %w", i+1, err)
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("chart %d: decode png: %w", i+1, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("chart_%d.png", i+1))
		if err := utils.SafeWriteFile(path, data); err != nil {
			return nil, fmt.Errorf("chart %d: %w", i+1, err)
		}
		images = append(images, Image{Path: path, Width: cfg.Width, Height: cfg.Height})
	}
	return images, nil
}

// Paragraphs splits narrative text into one paragraph per line. Blank lines
// are dropped.
func Paragraphs(narrative string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(narrative, "\r\n", "\n"), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Structure is the format-independent content of a report.
type Structure struct {
	Headings   []string `json:"headings"`
	Paragraphs []string `json:"paragraphs"`
	Images     int      `json:"images"`
}

// Outline lists what both writers put in a document, in order. Two runs with
// the same inputs have equal outlines even though the files differ in
// embedded timestamps.
func Outline(r Report) Structure {
	s := Structure{
		Headings:   []string{r.Title, SummaryHeading},
		Paragraphs: Paragraphs(r.Narrative),
		Images:     len(r.Images),
	}
	for i := range r.Images {
		s.Headings = append(s.Headings, ChartHeading(i+1))
	}
	return s
}
