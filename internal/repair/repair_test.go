package repair

import (
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"shapeview/internal/table"
)

func square() orb.Polygon {
	return orb.Polygon{{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {0, 0}}}
}

// self-intersecting "bowtie"; buffer-by-zero resolves it
func bowtie() orb.Polygon {
	return orb.Polygon{{{0, 0}, {2, 2}, {2, 0}, {0, 2}, {0, 0}}}
}

func tableOf(geoms ...orb.Geometry) *table.FeatureTable {
	t := &table.FeatureTable{}
	for _, g := range geoms {
		t.Rows = append(t.Rows, table.Row{Geometry: g})
	}
	return t
}

func TestRepair_ValidPolygonUnchanged(t *testing.T) {
	r := New()
	tbl := tableOf(square())
	before := math.Abs(planar.Area(tbl.Rows[0].Geometry))

	rep := r.RepairTable(tbl)
	if len(rep.Invalid) != 0 {
		t.Fatalf("valid polygon reported invalid: %+v", rep.Invalid)
	}
	after := math.Abs(planar.Area(tbl.Rows[0].Geometry))
	if math.Abs(before-after) > 1e-9 {
		t.Fatalf("area changed by repair: %v -> %v", before, after)
	}
}

func TestRepair_FixesBowtie(t *testing.T) {
	r := New()
	tbl := tableOf(bowtie())

	rep := r.RepairTable(tbl)
	if len(rep.Invalid) != 0 {
		t.Fatalf("bowtie not repaired: %+v", rep.Invalid)
	}
	// the bowtie splits into two triangles of area 0.5 each
	got := math.Abs(planar.Area(tbl.Rows[0].Geometry))
	if math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("repaired area: got %v want 1.0", got)
	}
	switch tbl.Rows[0].Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		t.Fatalf("repaired geometry is %T, want polygonal", tbl.Rows[0].Geometry)
	}
}

func TestRepair_PointsAndLinesPassThrough(t *testing.T) {
	r := New()
	pt := orb.Point{1, 2}
	ln := orb.LineString{{0, 0}, {1, 1}}
	tbl := tableOf(pt, ln)

	rep := r.RepairTable(tbl)
	if len(rep.Invalid) != 0 {
		t.Fatalf("unexpected invalid rows: %+v", rep.Invalid)
	}
	if tbl.Rows[0].Geometry != pt {
		t.Fatalf("point changed: %v", tbl.Rows[0].Geometry)
	}
	if len(tbl.Rows[1].Geometry.(orb.LineString)) != 2 {
		t.Fatalf("line changed: %v", tbl.Rows[1].Geometry)
	}
}

func TestRepair_ReportsOneReasonPerBadRow(t *testing.T) {
	r := New()
	// degenerate ring: too few points for GEOS to accept
	bad := orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}
	tbl := tableOf(square(), bad, bad)

	rep := r.RepairTable(tbl)
	if len(rep.Invalid) != 2 {
		t.Fatalf("got %d invalid rows, want 2: %+v", len(rep.Invalid), rep.Invalid)
	}
	if rep.Invalid[0].Row != 1 || rep.Invalid[1].Row != 2 {
		t.Fatalf("wrong rows reported: %+v", rep.Invalid)
	}
	for _, inv := range rep.Invalid {
		if strings.TrimSpace(inv.Reason) == "" {
			t.Fatalf("empty reason for row %d", inv.Row)
		}
	}
	// bad rows are reported, not dropped
	if tbl.Len() != 3 {
		t.Fatalf("rows dropped: len=%d", tbl.Len())
	}
}

func TestRepair_SkipsNilGeometries(t *testing.T) {
	r := New()
	tbl := tableOf(nil, square())
	rep := r.RepairTable(tbl)
	if len(rep.Invalid) != 0 {
		t.Fatalf("unexpected invalid rows: %+v", rep.Invalid)
	}
}
