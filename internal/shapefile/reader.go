package shapefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"shapeview/internal/table"
)

// readShapefile parses the .shp (and, when present, its .dbf sibling) into
// a FeatureTable. A missing .dbf degrades to a geometry-only table instead
// of failing; missing .shx is tolerated by the reader itself.
func readShapefile(path string) (*table.FeatureTable, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer r.Close()

	tbl := &table.FeatureTable{CRS: readCRS(path)}

	if siblingExists(path, ".dbf") {
		for _, f := range r.Fields() {
			tbl.Fields = append(tbl.Fields, table.Field{
				Name:     f.String(),
				Type:     f.Fieldtype,
				Decimals: int(f.Precision),
			})
		}
	}

	for r.Next() {
		num, shape := r.Shape()
		geom, err := shapeToOrb(shape)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", num, err)
		}
		row := table.Row{Geometry: geom, Values: make([]any, len(tbl.Fields))}
		for i, f := range tbl.Fields {
			row.Values[i] = parseAttribute(f, r.ReadAttribute(num, i))
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return tbl, nil
}

func siblingExists(shpPath, ext string) bool {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	for _, candidate := range []string{base + ext, base + strings.ToUpper(ext)} {
		if _, err := os.Stat(candidate); err == nil {
			return true
		}
	}
	return false
}

// parseAttribute converts a raw dBASE value into a typed Go value. Blank
// and asterisk-padded cells are dBASE nulls.
func parseAttribute(f table.Field, raw string) any {
	s := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if s == "" {
		return nil
	}
	switch f.Type {
	case 'N':
		if strings.Trim(s, "*") == "" {
			return nil
		}
		if f.Decimals == 0 {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		return nil
	case 'F':
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		return nil
	case 'L':
		switch s {
		case "T", "t", "Y", "y":
			return true
		case "F", "f", "N", "n":
			return false
		}
		return nil
	default:
		return s
	}
}
