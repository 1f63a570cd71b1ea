package charts

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/reportloom/internal/dataset"
)

// series is the row-aligned (x, y) view of two columns with rows dropped
// where x is empty or y is missing.
type series struct {
	labels []string
	xs     []float64 // set when x is numeric
	ys     []float64
}

func extract(ds *dataset.Dataset, xName, yName string) (series, error) {
	xc, yc := ds.Column(xName), ds.Column(yName)
	if xc == nil {
		return series{}, fmt.Errorf("unknown column %q", xName)
	}
	if yc == nil || !yc.IsNumeric() {
		return series{}, fmt.Errorf("column %q is not numeric", yName)
	}
	var s series
	for i := 0; i < ds.Rows; i++ {
		label := xc.Values[i]
		y := yc.Numbers[i]
		if label == "" || math.IsNaN(y) {
			continue
		}
		s.labels = append(s.labels, label)
		s.ys = append(s.ys, y)
		if xc.IsNumeric() {
			s.xs = append(s.xs, xc.Numbers[i])
		}
	}
	return s, nil
}

func (s series) numericX() bool { return s.xs != nil && len(s.xs) == len(s.ys) }

// times parses every label as a date; ok is false if any label fails.
func (s series) times() ([]time.Time, bool) {
	if len(s.labels) == 0 {
		return nil, false
	}
	out := make([]time.Time, len(s.labels))
	for i, l := range s.labels {
		t, ok := parseTimeMaybe(l)
		if !ok {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

// sumByLabel aggregates y per distinct label in first-seen order.
func (s series) sumByLabel() ([]string, []float64) {
	idx := map[string]int{}
	var labels []string
	var sums []float64
	for i, l := range s.labels {
		j, ok := idx[l]
		if !ok {
			j = len(labels)
			idx[l] = j
			labels = append(labels, l)
			sums = append(sums, 0)
		}
		sums[j] += s.ys[i]
	}
	return labels, sums
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
		"2006-01", "Jan 2006", "January 2006",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// paddedRange widens [lo, hi] by 5% each side, or by one unit when the
// span is zero, so a single point still has a drawable axis.
func paddedRange(vals []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 0) {
		return 0, 1
	}
	span := hi - lo
	if span == 0 {
		d := math.Max(1, math.Abs(lo)*0.1)
		return lo - d, hi + d
	}
	return lo - span*0.05, hi + span*0.05
}

// formatNumber prints integers without decimals and others with up to two.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func numberFormatter(v any) string {
	if f, ok := v.(float64); ok {
		return formatNumber(f)
	}
	return fmt.Sprintf("%v", v)
}
