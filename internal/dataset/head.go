package dataset

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Head renders the first n rows as an aligned plain-text table with a
// leading row index. Numeric columns are right-aligned.
func (d *Dataset) Head(n int) string {
	if n < 0 {
		n = 0
	}
	if n > d.Rows {
		n = d.Rows
	}
	cells := make([][]string, n+1)
	cells[0] = append([]string{""}, d.Names()...)
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(d.Columns)+1)
		row = append(row, strconv.Itoa(i))
		for _, c := range d.Columns {
			row = append(row, safeCell(c.Values[i]))
		}
		cells[i+1] = row
	}

	widths := make([]int, len(cells[0]))
	for _, row := range cells {
		for j, v := range row {
			if w := utf8.RuneCountInString(v); w > widths[j] {
				widths[j] = w
			}
		}
	}

	var b strings.Builder
	for i, row := range cells {
		for j, v := range row {
			if j > 0 {
				b.WriteString("  ")
			}
			pad := strings.Repeat(" ", widths[j]-utf8.RuneCountInString(v))
			// index column and numeric values right-align
			if j == 0 || (i > 0 && d.Columns[j-1].Kind == Numeric) {
				b.WriteString(pad + v)
			} else {
				b.WriteString(v + pad)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func safeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) > 40 {
		r := []rune(s)
		s = string(r[:37]) + "..."
	}
	return s
}
