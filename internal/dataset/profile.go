package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultOutlierThreshold is the robust z-score above which a value counts
// as an outlier.
const DefaultOutlierThreshold = 3.5

// Profile summarizes every column of a dataset.
type Profile struct {
	Name    string          `json:"name"`
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// ColumnProfile captures counts and, for numeric columns, statistics.
type ColumnProfile struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric stats
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`
	// Outliers (robust z via median absolute deviation)
	Outliers        int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ float64 `json:"outliers_max_abs_z,omitempty"`
	// Text columns
	TopValues []ValueCount `json:"top_values,omitempty"`
}

// ValueCount is one frequent value of a text column.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Profile computes per-column summaries. Outliers are only counted for
// columns with at least 8 values.
func (d *Dataset) Profile() Profile {
	p := Profile{Name: d.Name, Rows: d.Rows, Columns: make([]ColumnProfile, 0, len(d.Columns))}
	for _, c := range d.Columns {
		cp := ColumnProfile{Name: c.Name, Kind: c.Kind}
		counts := map[string]int{}
		var vals []float64
		for i, v := range c.Values {
			if strings.TrimSpace(v) == "" {
				cp.Missing++
				continue
			}
			cp.NonNull++
			counts[v]++
			if c.IsNumeric() && !math.IsNaN(c.Numbers[i]) {
				vals = append(vals, c.Numbers[i])
			}
		}
		cp.Unique = len(counts)
		if c.IsNumeric() {
			numericStats(&cp, vals)
		} else {
			cp.TopValues = topValues(counts, 5)
		}
		p.Columns = append(p.Columns, cp)
	}
	return p
}

// numericStats fills min/max/mean/std with Welford's method.
func numericStats(cp *ColumnProfile, vals []float64) {
	if len(vals) == 0 {
		return
	}
	var mean, m2 float64
	cp.Min, cp.Max = vals[0], vals[0]
	for i, v := range vals {
		cp.Min = math.Min(cp.Min, v)
		cp.Max = math.Max(cp.Max, v)
		delta := v - mean
		mean += delta / float64(i+1)
		m2 += delta * (v - mean)
	}
	cp.Mean = mean
	if len(vals) > 1 {
		cp.Std = math.Sqrt(m2 / float64(len(vals)-1))
	}
	if len(vals) < 8 {
		return
	}
	median, mad := medianMAD(vals)
	if mad == 0 {
		return
	}
	for _, v := range vals {
		z := math.Abs(0.6745 * (v - median) / mad)
		if z > DefaultOutlierThreshold {
			cp.Outliers++
		}
		cp.OutliersMaxAbsZ = math.Max(cp.OutliersMaxAbsZ, z)
	}
}

func topValues(counts map[string]int, n int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Markdown renders the profile as a short schema listing.
func (p Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", p.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\nColumns: %d\n\n[SCHEMA]\n", p.Rows, len(p.Columns))
	for _, c := range p.Columns {
		missPct := 0.0
		if total := c.NonNull + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100 / float64(total)
		}
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", c.Name, c.Kind, c.NonNull, missPct)
		if c.Kind == Numeric && c.NonNull > 0 {
			fmt.Fprintf(&b, ": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
			if c.Outliers > 0 {
				fmt.Fprintf(&b, "; outliers: %d above |z|>%.1f (max |z|≈%.2f)", c.Outliers, DefaultOutlierThreshold, c.OutliersMaxAbsZ)
			}
		}
		if len(c.TopValues) > 0 {
			b.WriteString(": top ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%s(%d)", strings.ReplaceAll(kv.Value, "\n", " "), kv.Count)
			}
			if c.Unique > len(c.TopValues) {
				fmt.Fprintf(&b, "; unique=%d", c.Unique)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
