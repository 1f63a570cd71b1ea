// Package dataset loads one tabular dataset from a file, pasted text or URL
// and types its columns as numeric or text.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column.
type Kind string

const (
	Numeric Kind = "numeric"
	Text    Kind = "text"
)

// Column holds the raw cell strings of one column and, for numeric columns,
// the parsed values. Numbers[i] is NaN where the cell was empty.
type Column struct {
	Name    string
	Kind    Kind
	Values  []string
	Numbers []float64
}

// IsNumeric reports whether the column was typed numeric.
func (c *Column) IsNumeric() bool { return c != nil && c.Kind == Numeric }

// Dataset is an ordered set of uniquely named columns. It is not modified
// after Load returns it.
type Dataset struct {
	Name    string
	Columns []Column
	Rows    int
}

// Names returns column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// NumericColumns returns the names of numeric columns in order.
func (d *Dataset) NumericColumns() []string { return d.namesOf(Numeric) }

// TextColumns returns the names of non-numeric columns in order.
func (d *Dataset) TextColumns() []string { return d.namesOf(Text) }

func (d *Dataset) namesOf(k Kind) []string {
	var out []string
	for _, c := range d.Columns {
		if c.Kind == k {
			out = append(out, c.Name)
		}
	}
	return out
}

// Column returns the named column or nil.
func (d *Dataset) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// New builds a dataset from a header and records. Short records are padded
// with empty cells and long ones truncated to the header width.
func New(name string, header []string, records [][]string, loc Locale) (*Dataset, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header")
	}
	names := uniqueNames(header)
	ds := &Dataset{Name: name, Rows: len(records), Columns: make([]Column, len(names))}
	for j, n := range names {
		vals := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				vals[i] = strings.TrimSpace(rec[j])
			}
		}
		ds.Columns[j] = typeColumn(n, vals, loc)
	}
	return ds, nil
}

// typeColumn marks a column numeric iff it has at least one non-empty cell
// and every non-empty cell parses as a number.
func typeColumn(name string, vals []string, loc Locale) Column {
	col := Column{Name: name, Kind: Text, Values: vals}
	nums := make([]float64, len(vals))
	seen := 0
	for i, v := range vals {
		if v == "" {
			nums[i] = math.NaN()
			continue
		}
		x, ok := parseNumeric(v, loc)
		if !ok {
			return col
		}
		nums[i] = x
		seen++
	}
	if seen == 0 {
		return col
	}
	col.Kind = Numeric
	col.Numbers = nums
	return col
}

// uniqueNames trims header cells, names blank ones by position and
// de-duplicates repeats with .1, .2 suffixes.
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		n := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if n == "" {
			n = "column_" + strconv.Itoa(i+1)
		}
		base := n
		for k := 1; used[n]; k++ {
			n = base + "." + strconv.Itoa(k)
		}
		used[n] = true
		out[i] = n
	}
	return out
}
