package report

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
)

// PDF image box in points.
const (
	pdfImageWidth  = 400
	pdfImageHeight = 250
)

// PDFWriter writes A4 reports with the core Helvetica font.
type PDFWriter struct{}

func (PDFWriter) Write(r Report, path string) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(plain(r.Title), true)
	pdf.SetCreator("reportloom", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(plain(s)) }

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 26, text(r.Title), "", "L", false)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 15)
	pdf.MultiCell(0, 20, SummaryHeading, "", "L", false)
	pdf.SetFont("Helvetica", "", 11)
	for _, p := range Paragraphs(r.Narrative) {
		pdf.MultiCell(0, 15, text(p), "", "L", false)
		pdf.Ln(4)
	}
	pdf.Ln(12)

	left, _, _, _ := pdf.GetMargins()
	for i, img := range r.Images {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 18, ChartHeading(i+1), "", "L", false)
		pdf.ImageOptions(img.Path, left, 0, pdfImageWidth, pdfImageHeight, true,
			fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.Ln(12)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// plain drops symbols the core fonts cannot show (emoji, variation
// selectors) so they do not come out as stray dots.
func plain(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\uFE0F' || r == '\u200D':
			return -1
		case r > 0xFFFF, unicode.Is(unicode.So, r) && r > 0x2000:
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
