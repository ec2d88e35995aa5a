// Package repair applies the buffer-by-zero trick to the geometry column
// and reports any rows that are still topologically invalid afterwards.
// Invalid rows are reported, never dropped.
package repair

import (
	"fmt"

	"github.com/paulmach/orb"
	orbwkt "github.com/paulmach/orb/encoding/wkt"
	"github.com/twpayne/go-geos"

	"shapeview/internal/table"
)

const bufferQuadSegs = 8

type Repairer struct {
	gctx *geos.Context
}

func New() *Repairer {
	return &Repairer{gctx: geos.NewContext()}
}

type Invalid struct {
	Row    int
	Reason string
}

type Report struct {
	Invalid []Invalid
}

// RepairTable rewrites the geometry column in place and returns one reason
// per row that failed validity after repair.
func (r *Repairer) RepairTable(t *table.FeatureTable) Report {
	var rep Report
	for i := range t.Rows {
		g := t.Rows[i].Geometry
		if g == nil {
			continue
		}
		fixed, reason := r.repairOne(g)
		if fixed != nil {
			t.Rows[i].Geometry = fixed
		}
		if reason != "" {
			rep.Invalid = append(rep.Invalid, Invalid{Row: i, Reason: reason})
		}
	}
	return rep
}

// repairOne buffers polygonal geometries by zero distance. Points and
// lines pass through untouched: a zero buffer would collapse them to an
// empty polygon, silently losing the feature. fixed == nil keeps the
// original geometry.
func (r *Repairer) repairOne(g orb.Geometry) (fixed orb.Geometry, reason string) {
	gg, err := r.gctx.NewGeomFromWKT(orbwkt.MarshalString(g))
	if err != nil {
		return nil, fmt.Sprintf("unparseable geometry: %v", err)
	}
	defer gg.Destroy()

	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		buffered := gg.Buffer(0, bufferQuadSegs)
		if buffered != nil && !buffered.IsEmpty() {
			defer buffered.Destroy()
			out, convErr := orbwkt.Unmarshal(buffered.ToWKT())
			if convErr == nil {
				if !buffered.IsValid() {
					reason = buffered.IsValidReason()
				}
				return out, reason
			}
		}
	}

	if !gg.IsValid() {
		reason = gg.IsValidReason()
	}
	return nil, reason
}
