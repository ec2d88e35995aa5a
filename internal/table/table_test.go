package table

import (
	"testing"

	"github.com/paulmach/orb"
)

func sampleTable() *FeatureTable {
	return &FeatureTable{
		Fields: []Field{
			{Name: "NAME", Type: 'C'},
			{Name: "POP", Type: 'N'},
			{Name: "AREA", Type: 'F', Decimals: 2},
		},
		Rows: []Row{
			{
				Geometry: orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}},
				Values:   []any{"a", int64(10), 4.0},
			},
			{
				Geometry: orb.Polygon{{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}}},
				Values:   []any{"b", int64(30), 4.0},
			},
		},
		CRS: "EPSG:4326",
	}
}

func TestNumericColumns(t *testing.T) {
	tbl := sampleTable()
	got := tbl.NumericColumns()
	want := []string{"POP", "AREA"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestNumericColumns_NilTable(t *testing.T) {
	var tbl *FeatureTable
	if got := tbl.NumericColumns(); got != nil {
		t.Fatalf("got %v want nil", got)
	}
	if tbl.Len() != 0 {
		t.Fatal("nil table must have length 0")
	}
}

func TestAttrStats(t *testing.T) {
	tbl := sampleTable()

	min, max, ok := tbl.AttrStats("POP")
	if !ok {
		t.Fatal("expected stats for POP")
	}
	if min != 10 || max != 30 {
		t.Fatalf("POP stats: got [%v,%v]", min, max)
	}

	// degenerate column: all values equal
	min, max, ok = tbl.AttrStats("AREA")
	if !ok || min != max || min != 4.0 {
		t.Fatalf("AREA stats: got [%v,%v] ok=%v", min, max, ok)
	}

	if _, _, ok := tbl.AttrStats("NAME"); ok {
		t.Fatal("NAME is not numeric, want ok=false")
	}
	if _, _, ok := tbl.AttrStats("MISSING"); ok {
		t.Fatal("absent column, want ok=false")
	}
}

func TestAttrStats_SkipsNullValues(t *testing.T) {
	tbl := sampleTable()
	tbl.Rows[0].Values[1] = nil

	min, max, ok := tbl.AttrStats("POP")
	if !ok || min != 30 || max != 30 {
		t.Fatalf("got [%v,%v] ok=%v", min, max, ok)
	}
}

func TestMeanCentroid(t *testing.T) {
	tbl := sampleTable()
	c, ok := tbl.MeanCentroid()
	if !ok {
		t.Fatal("expected a centroid")
	}
	// squares centered at (1,1) and (5,5)
	if c[0] != 3 || c[1] != 3 {
		t.Fatalf("got %v want [3 3]", c)
	}

	empty := &FeatureTable{}
	if _, ok := empty.MeanCentroid(); ok {
		t.Fatal("empty table must have no centroid")
	}
}

func TestBounds(t *testing.T) {
	tbl := sampleTable()
	b, ok := tbl.Bounds()
	if !ok {
		t.Fatal("expected bounds")
	}
	if b.Min != (orb.Point{0, 0}) || b.Max != (orb.Point{6, 6}) {
		t.Fatalf("got %v", b)
	}
}

func TestGeometryTypeSummary(t *testing.T) {
	tbl := sampleTable()
	tbl.Rows = append(tbl.Rows, Row{
		Geometry: orb.MultiPolygon{{{{8, 8}, {9, 8}, {9, 9}, {8, 8}}}},
		Values:   []any{"c", int64(20), 4.0},
	})
	if got := tbl.GeometryTypeSummary(); got != "MultiPolygon: 1, Polygon: 2" {
		t.Fatalf("got %q", got)
	}
}

func TestFingerprint_ChangesWithContents(t *testing.T) {
	a := sampleTable()
	b := sampleTable()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("identical tables must share a fingerprint")
	}
	b.Rows[1].Values[1] = int64(31)
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("attribute change must change the fingerprint")
	}
	c := sampleTable()
	c.Rows[0].Geometry = orb.Polygon{{{0, 0}, {3, 0}, {3, 3}, {0, 3}, {0, 0}}}
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatal("geometry change must change the fingerprint")
	}
}
