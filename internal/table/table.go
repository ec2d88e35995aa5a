// Package table holds the in-memory geometry table: one row per spatial
// feature, attribute columns typed by their dBASE descriptors, plus the
// coordinate reference system the features were read with.
package table

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
)

type Field struct {
	Name     string
	Type     byte // dBASE field type: 'C', 'N', 'F', 'L', 'D'
	Decimals int
}

func (f Field) Numeric() bool {
	return f.Type == 'N' || f.Type == 'F'
}

type Row struct {
	Geometry orb.Geometry
	Values   []any // parallel to FeatureTable.Fields; float64, int64, bool, string or nil
}

type FeatureTable struct {
	Fields []Field
	Rows   []Row
	CRS    string
}

func (t *FeatureTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *FeatureTable) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// NumericColumns lists the attribute columns eligible for the choropleth,
// in field order.
func (t *FeatureTable) NumericColumns() []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, f := range t.Fields {
		if f.Numeric() {
			out = append(out, f.Name)
		}
	}
	return out
}

func (t *FeatureTable) Value(row int, name string) any {
	i := t.FieldIndex(name)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return nil
	}
	return t.Rows[row].Values[i]
}

// AsFloat converts a stored attribute value to float64 where possible.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// AttrStats returns the min and max of a numeric column across all rows.
// ok is false when the column is absent, non-numeric, or has no values.
func (t *FeatureTable) AttrStats(name string) (min, max float64, ok bool) {
	i := t.FieldIndex(name)
	if i < 0 || !t.Fields[i].Numeric() {
		return 0, 0, false
	}
	first := true
	for _, row := range t.Rows {
		v, isNum := AsFloat(row.Values[i])
		if !isNum {
			continue
		}
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, !first
}

// MeanCentroid averages the centroids of all geometries; the default map
// view is centered here.
func (t *FeatureTable) MeanCentroid() (orb.Point, bool) {
	if t.Len() == 0 {
		return orb.Point{}, false
	}
	var sumX, sumY float64
	n := 0
	for _, row := range t.Rows {
		if row.Geometry == nil {
			continue
		}
		c, _ := planar.CentroidArea(row.Geometry)
		sumX += c[0]
		sumY += c[1]
		n++
	}
	if n == 0 {
		return orb.Point{}, false
	}
	return orb.Point{sumX / float64(n), sumY / float64(n)}, true
}

func (t *FeatureTable) Bounds() (orb.Bound, bool) {
	var b orb.Bound
	found := false
	for _, row := range t.Rows {
		if row.Geometry == nil {
			continue
		}
		gb := row.Geometry.Bound()
		if !found {
			b = gb
			found = true
			continue
		}
		b = b.Union(gb)
	}
	return b, found
}

func (t *FeatureTable) GeometryTypeCounts() map[string]int {
	out := map[string]int{}
	for _, row := range t.Rows {
		if row.Geometry == nil {
			continue
		}
		out[row.Geometry.GeoJSONType()]++
	}
	return out
}

// GeometryTypeSummary renders the type counts deterministically,
// e.g. "MultiPolygon: 2, Polygon: 5".
func (t *FeatureTable) GeometryTypeSummary() string {
	counts := t.GeometryTypeCounts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	s := ""
	for i, name := range names {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %d", name, counts[name])
	}
	return s
}

// Fingerprint hashes geometries and attribute values; it changes whenever
// the table contents change and keys the render memo cache.
func (t *FeatureTable) Fingerprint() uint64 {
	d := xxhash.New()
	for _, f := range t.Fields {
		_, _ = d.WriteString(f.Name)
		_, _ = d.Write([]byte{f.Type})
	}
	for _, row := range t.Rows {
		if row.Geometry != nil {
			_, _ = d.WriteString(wkt.MarshalString(row.Geometry))
		}
		for _, v := range row.Values {
			_, _ = fmt.Fprintf(d, "|%v", v)
		}
		_, _ = d.Write([]byte{'\n'})
	}
	return d.Sum64()
}
