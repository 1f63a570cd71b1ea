package dataset

import (
	"math"
	"strings"
	"testing"
)

func TestProfileNumericAndText(t *testing.T) {
	rows := [][]string{
		{"north", "10"}, {"south", "12"}, {"north", "11"}, {"east", "9"},
		{"north", "10"}, {"south", "11"}, {"west", "10"}, {"east", ""}, {"north", "500"},
	}
	ds, err := New("p.csv", []string{"region", "sales"}, rows, Locale{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	p := ds.Profile()
	if p.Rows != 9 || len(p.Columns) != 2 {
		t.Fatalf("profile = %+v", p)
	}
	region, sales := p.Columns[0], p.Columns[1]
	if region.Kind != Text || region.Unique != 4 || region.TopValues[0] != (ValueCount{"north", 4}) {
		t.Fatalf("region = %+v", region)
	}
	if sales.Kind != Numeric || sales.NonNull != 8 || sales.Missing != 1 {
		t.Fatalf("sales counts = %+v", sales)
	}
	if sales.Min != 9 || sales.Max != 500 {
		t.Fatalf("min/max = %v/%v", sales.Min, sales.Max)
	}
	if math.Abs(sales.Mean-71.625) > 1e-9 {
		t.Fatalf("mean = %v", sales.Mean)
	}
	if sales.Outliers != 1 {
		t.Fatalf("outliers = %d", sales.Outliers)
	}
	md := p.Markdown()
	for _, want := range []string{"Rows: 9", "- sales: numeric (non-null 8, missing 11.1%)", "north(4)", "outliers: 1"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMedianMAD(t *testing.T) {
	med, mad := medianMAD([]float64{1, 2, 3, 4, 100})
	if med != 3 || mad != 1 {
		t.Fatalf("median=%v mad=%v", med, mad)
	}
}
