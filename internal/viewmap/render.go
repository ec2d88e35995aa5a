// Package viewmap renders the current geometry table as a standalone,
// embeddable Leaflet document: choropleth fills from a linear color ramp,
// a gradient legend, tooltips and a layer control.
package viewmap

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"runtime/debug"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"shapeview/internal/table"
)

//go:embed map.tmpl
var mapTmplSrc string

var mapTmpl = template.Must(template.New("map").Parse(mapTmplSrc))

//go:embed error.tmpl
var errTmplSrc string

var errTmpl = template.Must(template.New("maperror").Parse(errTmplSrc))

// fill color for rows whose selected attribute is null
const nullFill = "#808080"

type mapData struct {
	Attribute string
	GeoJSON   template.JS
	CenterLat float64
	CenterLon float64
	MinLabel  string
	MaxLabel  string
	Gradient  template.CSS
}

// Render produces the map document for one attribute. Every failure mode,
// including a stale attribute selection and panics inside the geometry
// plumbing, comes back as an error instead of propagating.
func Render(t *table.FeatureTable, attr string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = ""
			err = fmt.Errorf("render map: %v\n%s", rec, debug.Stack())
		}
	}()

	if t.Len() == 0 {
		return "", fmt.Errorf("no shapefile loaded")
	}
	attrIdx := -1
	for _, name := range t.NumericColumns() {
		if name == attr {
			attrIdx = t.FieldIndex(attr)
			break
		}
	}
	if attrIdx < 0 {
		return "", fmt.Errorf("attribute %q is not a numeric column of the current table", attr)
	}

	min, max, _ := t.AttrStats(attr)
	cm := Colormap{Min: min, Max: max}

	fc := geojson.NewFeatureCollection()
	for _, row := range t.Rows {
		if row.Geometry == nil {
			continue
		}
		f := geojson.NewFeature(row.Geometry)
		for j, fld := range t.Fields {
			f.Properties[fld.Name] = row.Values[j]
		}
		fill := nullFill
		if v, ok := table.AsFloat(row.Values[attrIdx]); ok {
			fill = cm.Hex(v)
		}
		f.Properties["__fill"] = fill
		fc.Append(f)
	}

	payload, err := fc.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode features: %w", err)
	}

	center, _ := t.MeanCentroid()

	var buf bytes.Buffer
	err = mapTmpl.Execute(&buf, mapData{
		Attribute: attr,
		GeoJSON:   template.JS(payload),
		CenterLat: center[1],
		CenterLon: center[0],
		MinLabel:  formatValue(min),
		MaxLabel:  formatValue(max),
		Gradient:  template.CSS(CSSGradient),
	})
	if err != nil {
		return "", fmt.Errorf("execute map template: %w", err)
	}
	return buf.String(), nil
}

// ErrorDocument wraps a render failure in minimal markup for the map frame.
func ErrorDocument(msg string) string {
	var buf bytes.Buffer
	if err := errTmpl.Execute(&buf, msg); err != nil {
		return "<pre>map error</pre>"
	}
	return buf.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
