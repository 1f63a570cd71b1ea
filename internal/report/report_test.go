package report

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/reportloom/internal/charts"
	"github.com/KaramelBytes/reportloom/internal/dataset"
)

type pngRenderer struct {
	fail int // 1-based call that fails, 0 = never
	n    int
}

func (p *pngRenderer) Render(ctx context.Context, ds *dataset.Dataset, spec charts.ChartSpec, scale float64) ([]byte, error) {
	p.n++
	if p.n == p.fail {
		return nil, errors.New("boom")
	}
	return testPNG(40, 25), nil
}

func testPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 99, G: 110, B: 250, A: 255})
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func writeImages(t *testing.T, dir string, n int) []Image {
	t.Helper()
	specs := make([]charts.ChartSpec, n)
	imgs, err := Rasterize(context.Background(), &pngRenderer{}, nil, specs, dir, 2)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	return imgs
}

func TestRasterizeNamesAndSizes(t *testing.T) {
	dir := t.TempDir()
	imgs := writeImages(t, dir, 3)
	if len(imgs) != 3 {
		t.Fatalf("images = %d", len(imgs))
	}
	for i, img := range imgs {
		want := filepath.Join(dir, "chart_"+string(rune('1'+i))+".png")
		if img.Path != want {
			t.Fatalf("path = %s, want %s", img.Path, want)
		}
		if img.Width != 40 || img.Height != 25 {
			t.Fatalf("size = %dx%d", img.Width, img.Height)
		}
		if _, err := os.Stat(img.Path); err != nil {
			t.Fatalf("missing file: %v", err)
		}
	}
}

func TestRasterizeStopsOnRenderError(t *testing.T) {
	_, err := Rasterize(context.Background(), &pngRenderer{fail: 2}, nil, make([]charts.ChartSpec, 3), t.TempDir(), 1)
	if err == nil || !strings.Contains(err.Error(), "chart 2") {
		t.Fatalf("err = %v", err)
	}
}

func TestParagraphs(t *testing.T) {
	got := Paragraphs("First line.\r\n\n  Second line.  \n\n")
	want := []string{"First line.", "Second line."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q", got)
	}
	if Paragraphs("") != nil {
		t.Fatalf("empty narrative should have no paragraphs")
	}
}

func TestOutline(t *testing.T) {
	r := Report{Title: "T", Narrative: "a\nb", Images: make([]Image, 2)}
	got := Outline(r)
	want := Structure{
		Headings:   []string{"T", "Analysis Summary", "Chart 1", "Chart 2"},
		Paragraphs: []string{"a", "b"},
		Images:     2,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("outline = %+v", got)
	}
}

func TestPDFWriter(t *testing.T) {
	dir := t.TempDir()
	r := Report{
		Title:     "📊 Data Analyst Report",
		Narrative: "Sales rose in 2021.\nThey dipped café-style in 2022.\n⚠️ Note",
		Images:    writeImages(t, dir, 5),
	}
	path := filepath.Join(dir, "out.pdf")
	if err := (PDFWriter{}).Write(r, path); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a pdf")
	}
}

func TestPDFWriterMissingImage(t *testing.T) {
	r := Report{Title: "t", Images: []Image{{Path: filepath.Join(t.TempDir(), "nope.png")}}}
	if err := (PDFWriter{}).Write(r, filepath.Join(t.TempDir(), "x.pdf")); err == nil {
		t.Fatalf("expected error for missing image")
	}
}

func TestPlainStripsEmoji(t *testing.T) {
	cases := map[string]string{
		"📊 Data Analyst Report": "Data Analyst Report",
		"⚠️ Export failed":      "Export failed",
		"café 50%":              "café 50%",
	}
	for in, want := range cases {
		if got := plain(in); got != want {
			t.Errorf("plain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDOCXWriterWithLicense(t *testing.T) {
	key := os.Getenv("UNIDOC_LICENSE_API_KEY")
	if key == "" {
		t.Skip("UNIDOC_LICENSE_API_KEY not set; unioffice needs a metered key to save")
	}
	dir := t.TempDir()
	r := Report{Title: "Report", Narrative: "one\ntwo", Images: writeImages(t, dir, 2)}
	path := filepath.Join(dir, "out.docx")
	if err := (DOCXWriter{LicenseKey: key}).Write(r, path); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || !bytes.HasPrefix(b, []byte("PK")) {
		t.Fatalf("not a zip container (err=%v)", err)
	}
}

// docxParts returns the body XML and the number of embedded media files.
func docxParts(t *testing.T, path string) (string, int) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	defer zr.Close()
	var body string
	media := 0
	for _, f := range zr.File {
		switch {
		case f.Name == "word/document.xml":
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open document.xml: %v", err)
			}
			b, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatalf("read document.xml: %v", err)
			}
			body = string(b)
		case strings.HasPrefix(f.Name, "word/media/"):
			media++
		}
	}
	if body == "" {
		t.Fatalf("word/document.xml missing")
	}
	return body, media
}

func TestDOCXWriterWithoutKey(t *testing.T) {
	dir := t.TempDir()
	r := Report{Title: "📊 Data Analyst Report", Narrative: "Sales rose.\n\nThen fell.", Images: writeImages(t, dir, 2)}
	path := filepath.Join(dir, "out.docx")
	if err := (DOCXWriter{}).Write(r, path); err != nil {
		t.Fatalf("write: %v", err)
	}
	body, media := docxParts(t, path)
	for _, want := range []string{"📊 Data Analyst Report", SummaryHeading, "Sales rose.", "Then fell.", "Chart 1", "Chart 2", "Heading1"} {
		if !strings.Contains(body, want) {
			t.Fatalf("document.xml missing %q", want)
		}
	}
	if media != 2 {
		t.Fatalf("embedded images = %d, want 2", media)
	}
}

func TestDOCXWriterWithoutKeyMissingImage(t *testing.T) {
	r := Report{Title: "t", Images: []Image{{Path: filepath.Join(t.TempDir(), "nope.png")}}}
	if err := (DOCXWriter{}).Write(r, filepath.Join(t.TempDir(), "x.docx")); err == nil {
		t.Fatalf("expected error for missing image")
	}
}

func TestNewAssemblerWritesBothDocumentsWithoutKey(t *testing.T) {
	dir := t.TempDir()
	r := Report{Title: "Sales", Narrative: "Sales grew every year.", Images: writeImages(t, dir, 3)}
	p, err := NewAssembler(dir, "").Export(context.Background(), r)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, path := range []string{p.PDF, p.DOCX} {
		st, err := os.Stat(path)
		if err != nil || st.Size() == 0 {
			t.Fatalf("%q not written (err=%v)", path, err)
		}
	}
	if _, media := docxParts(t, p.DOCX); media != 3 {
		t.Fatalf("docx images = %d, want 3", media)
	}
}

type recordWriter struct {
	err   error
	calls *[]string
	name  string
}

func (w recordWriter) Write(r Report, path string) error {
	*w.calls = append(*w.calls, w.name)
	if w.err != nil {
		return w.err
	}
	return os.WriteFile(path, []byte(w.name), 0o644)
}

func TestAssemblerExportOrderAndPaths(t *testing.T) {
	dir := t.TempDir()
	var calls []string
	a := &Assembler{Dir: dir, PDF: recordWriter{calls: &calls, name: "pdf"}, DOCX: recordWriter{calls: &calls, name: "docx"}}
	p, err := a.Export(context.Background(), Report{Title: "t"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if p.PDF != filepath.Join(dir, "report.pdf") || p.DOCX != filepath.Join(dir, "report.docx") {
		t.Fatalf("paths = %+v", p)
	}
	if strings.Join(calls, ",") != "pdf,docx" {
		t.Fatalf("order = %v", calls)
	}
}

func TestAssemblerExportFailure(t *testing.T) {
	dir := t.TempDir()
	var calls []string
	a := &Assembler{
		Dir:  dir,
		PDF:  recordWriter{calls: &calls, name: "pdf"},
		DOCX: recordWriter{calls: &calls, name: "docx", err: errors.New("disk full")},
	}
	p, err := a.Export(context.Background(), Report{Title: "t"})
	var xerr *ExportError
	if !errors.As(err, &xerr) || xerr.Format != "docx" {
		t.Fatalf("err = %v", err)
	}
	if p != (Paths{}) {
		t.Fatalf("paths should be empty, got %+v", p)
	}
	if _, err := os.Stat(filepath.Join(dir, "report.pdf")); !os.IsNotExist(err) {
		t.Fatalf("partial pdf left behind")
	}
}
