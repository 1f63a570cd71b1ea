package report

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	godocx "github.com/fumiama/go-docx"
	"github.com/unidoc/unioffice/v2/common"
	"github.com/unidoc/unioffice/v2/common/license"
	"github.com/unidoc/unioffice/v2/document"
	"github.com/unidoc/unioffice/v2/measurement"

	"github.com/KaramelBytes/reportloom/internal/utils"
)

const docxImageWidth measurement.Distance = 6 * measurement.Inch

// DOCXWriter writes Word documents. With a metered unidoc LicenseKey it uses
// unioffice; without one it falls back to go-docx, which needs no key.
type DOCXWriter struct {
	LicenseKey string
}

var (
	licenseOnce sync.Once
	licenseErr  error
)

func applyLicense(key string) error {
	licenseOnce.Do(func() {
		licenseErr = license.SetMeteredKey(key)
	})
	return licenseErr
}

func (w DOCXWriter) Write(r Report, path string) error {
	if w.LicenseKey == "" {
		return writeGoDocx(r, path)
	}
	if err := applyLicense(w.LicenseKey); err != nil {
		return fmt.Errorf("unioffice license: %w", err)
	}
	return writeUnioffice(r, path)
}

func writeUnioffice(r Report, path string) error {
	doc := document.New()
	defer doc.Close()

	heading(doc, "Heading1", r.Title)
	heading(doc, "Heading2", SummaryHeading)
	for _, p := range Paragraphs(r.Narrative) {
		doc.AddParagraph().AddRun().AddText(p)
	}
	for i, img := range r.Images {
		heading(doc, "Heading3", ChartHeading(i+1))
		if err := addPicture(doc, img); err != nil {
			return fmt.Errorf("chart %d: %w", i+1, err)
		}
	}
	if err := doc.SaveToFile(path); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func heading(doc *document.Document, style, text string) {
	p := doc.AddParagraph()
	p.SetStyle(style)
	p.AddRun().AddText(text)
}

func addPicture(doc *document.Document, img Image) error {
	src, err := common.ImageFromFile(img.Path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	ref, err := doc.AddImage(src)
	if err != nil {
		return fmt.Errorf("add image: %w", err)
	}
	inl, err := doc.AddParagraph().AddRun().AddDrawingInline(ref)
	if err != nil {
		return fmt.Errorf("inline image: %w", err)
	}
	height := docxImageWidth * 5 / 8
	if img.Width > 0 && img.Height > 0 {
		height = docxImageWidth * measurement.Distance(img.Height) / measurement.Distance(img.Width)
	}
	inl.SetSize(docxImageWidth, height)
	return nil
}

// go-docx's default template has no heading styles, so headings also get
// explicit bold runs. Sizes are half-points.
var goDocxHeadingSize = map[string]string{"Heading1": "36", "Heading2": "30", "Heading3": "26"}

func writeGoDocx(r Report, path string) error {
	doc := godocx.New().WithDefaultTheme()
	goDocxHeading(doc, "Heading1", r.Title)
	goDocxHeading(doc, "Heading2", SummaryHeading)
	for _, p := range Paragraphs(r.Narrative) {
		doc.AddParagraph().AddText(p)
	}
	for i, img := range r.Images {
		goDocxHeading(doc, "Heading3", ChartHeading(i+1))
		if err := goDocxPicture(doc, img); err != nil {
			return fmt.Errorf("chart %d: %w", i+1, err)
		}
	}
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func goDocxHeading(doc *godocx.Docx, style, text string) {
	doc.AddParagraph().Style(style).AddText(text).Bold().Size(goDocxHeadingSize[style])
}

func goDocxPicture(doc *godocx.Docx, img Image) error {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	run, err := doc.AddParagraph().AddInlineDrawing(data)
	if err != nil {
		return fmt.Errorf("inline image: %w", err)
	}
	// EMU, full A4 text width
	width := int64(godocx.A4_EMU_MAX_WIDTH)
	height := width * 5 / 8
	if img.Width > 0 && img.Height > 0 {
		height = width * int64(img.Height) / int64(img.Width)
	}
	for _, c := range run.Children {
		if d, ok := c.(*godocx.Drawing); ok && d.Inline != nil {
			d.Inline.Size(width, height)
		}
	}
	return nil
}
