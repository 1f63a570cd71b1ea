package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/reportloom/internal/utils"
)

// Fixed output names inside the output directory. Each run overwrites them.
const (
	PDFName  = "report.pdf"
	DOCXName = "report.docx"
)

// Paths are the written document locations.
type Paths struct {
	PDF  string `json:"pdf"`
	DOCX string `json:"docx"`
}

// ExportError wraps a failure to build one of the documents.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string { return fmt.Sprintf("export %s: %v", e.Format, e.Err) }
func (e *ExportError) Unwrap() error { return e.Err }

// Assembler writes a report in every format to fixed paths under Dir.
type Assembler struct {
	Dir  string
	PDF  Writer
	DOCX Writer
}

// NewAssembler returns an assembler using the fpdf and unioffice writers.
func NewAssembler(dir, licenseKey string) *Assembler {
	return &Assembler{Dir: dir, PDF: PDFWriter{}, DOCX: DOCXWriter{LicenseKey: licenseKey}}
}

// Export writes the PDF then the DOCX. On failure no paths are returned and
// partially written files are removed.
func (a *Assembler) Export(ctx context.Context, r Report) (Paths, error) {
	if err := utils.EnsureDir(a.Dir); err != nil {
		return Paths{}, &ExportError{Format: "dir", Err: err}
	}
	p := Paths{
		PDF:  filepath.Join(a.Dir, PDFName),
		DOCX: filepath.Join(a.Dir, DOCXName),
	}
	steps := []struct {
		format string
		w      Writer
		path   string
	}{
		{"pdf", a.PDF, p.PDF},
		{"docx", a.DOCX, p.DOCX},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return Paths{}, &ExportError{Format: s.format, Err: err}
		}
		if s.w == nil {
			return Paths{}, &ExportError{Format: s.format, Err: fmt.Errorf("no writer configured")}
		}
		if err := s.w.Write(r, s.path); err != nil {
			_ = os.Remove(p.PDF)
			_ = os.Remove(p.DOCX)
			return Paths{}, &ExportError{Format: s.format, Err: err}
		}
	}
	return p, nil
}
