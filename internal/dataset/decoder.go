package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// Decoder turns raw bytes into header + records.
type Decoder interface {
	Name() string
	AcceptedExtensions() []string
	AcceptedMimeTypes() []string
	Decode(data []byte, name string, opt Options) ([][]string, error)
}

var decoders []Decoder

// RegisterDecoder adds a decoder. Earlier registrations win on ties.
func RegisterDecoder(d Decoder) { decoders = append(decoders, d) }

func init() {
	RegisterDecoder(xlsxDecoder{})
	RegisterDecoder(delimitedDecoder{name: "tsv", comma: '\t', exts: []string{".tsv", ".tab"}, mimes: []string{"text/tab-separated-values"}})
	RegisterDecoder(delimitedDecoder{name: "csv", exts: []string{".csv"}, mimes: []string{"text/csv"}})
}

// decoderFor sniffs content first and falls back to the file extension.
// Anything unrecognized is read as CSV.
func decoderFor(data []byte, name string) Decoder {
	mtype := mimetype.Detect(data)
	for _, d := range decoders {
		if slices.ContainsFunc(d.AcceptedMimeTypes(), mtype.Is) {
			return d
		}
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, d := range decoders {
		if slices.Contains(d.AcceptedExtensions(), ext) {
			return d
		}
	}
	return decoders[len(decoders)-1]
}

type delimitedDecoder struct {
	name  string
	comma rune
	exts  []string
	mimes []string
}

func (d delimitedDecoder) Name() string                 { return d.name }
func (d delimitedDecoder) AcceptedExtensions() []string { return d.exts }
func (d delimitedDecoder) AcceptedMimeTypes() []string  { return d.mimes }

func (d delimitedDecoder) Decode(data []byte, _ string, opt Options) ([][]string, error) {
	comma := opt.Delimiter
	if comma == 0 {
		comma = d.comma
	}
	if comma == 0 {
		comma = sniffDelimiter(data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = comma

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
		if opt.MaxRows > 0 && len(rows) > opt.MaxRows {
			break
		}
	}
	return rows, nil
}

// sniffDelimiter picks the most frequent of , ; \t on the first line.
func sniffDelimiter(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	if !sc.Scan() {
		return ','
	}
	line := sc.Text()
	best, bestN := ',', strings.Count(line, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(line, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

type xlsxDecoder struct{}

func (xlsxDecoder) Name() string                 { return "xlsx" }
func (xlsxDecoder) AcceptedExtensions() []string { return []string{".xlsx", ".xlsm"} }
func (xlsxDecoder) AcceptedMimeTypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}
}

func (xlsxDecoder) Decode(data []byte, _ string, opt Options) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows+1 {
		rows = rows[:opt.MaxRows+1]
	}
	return rows, nil
}
