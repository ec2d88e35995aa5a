package shapefile

import (
	"fmt"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// shapeToOrb maps a go-shp shape onto the orb geometry model. Null shapes
// become nil geometries and stay in the table as attribute-only rows.
func shapeToOrb(s shp.Shape) (orb.Geometry, error) {
	switch v := s.(type) {
	case *shp.Null:
		return nil, nil
	case *shp.Point:
		return orb.Point{v.X, v.Y}, nil
	case *shp.PointM:
		return orb.Point{v.X, v.Y}, nil
	case *shp.PointZ:
		return orb.Point{v.X, v.Y}, nil
	case *shp.MultiPoint:
		return toMultiPoint(v.Points), nil
	case *shp.MultiPointM:
		return toMultiPoint(v.Points), nil
	case *shp.MultiPointZ:
		return toMultiPoint(v.Points), nil
	case *shp.PolyLine:
		return toLines(v.Points, v.Parts), nil
	case *shp.PolyLineM:
		return toLines(v.Points, v.Parts), nil
	case *shp.PolyLineZ:
		return toLines(v.Points, v.Parts), nil
	case *shp.Polygon:
		return assemblePolygons(toRings(v.Points, v.Parts)), nil
	case *shp.PolygonM:
		return assemblePolygons(toRings(v.Points, v.Parts)), nil
	case *shp.PolygonZ:
		return assemblePolygons(toRings(v.Points, v.Parts)), nil
	default:
		return nil, fmt.Errorf("unsupported shape type %T", s)
	}
}

func toMultiPoint(pts []shp.Point) orb.MultiPoint {
	out := make(orb.MultiPoint, 0, len(pts))
	for _, p := range pts {
		out = append(out, orb.Point{p.X, p.Y})
	}
	return out
}

func splitParts(pts []shp.Point, parts []int32) [][]orb.Point {
	if len(parts) == 0 {
		parts = []int32{0}
	}
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := len(pts)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if int(start) >= end {
			continue
		}
		part := make([]orb.Point, 0, end-int(start))
		for _, p := range pts[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

func toLines(pts []shp.Point, parts []int32) orb.Geometry {
	split := splitParts(pts, parts)
	if len(split) == 1 {
		return orb.LineString(split[0])
	}
	out := make(orb.MultiLineString, 0, len(split))
	for _, part := range split {
		out = append(out, orb.LineString(part))
	}
	return out
}

func toRings(pts []shp.Point, parts []int32) []orb.Ring {
	split := splitParts(pts, parts)
	out := make([]orb.Ring, 0, len(split))
	for _, part := range split {
		ring := orb.Ring(part)
		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		out = append(out, ring)
	}
	return out
}

// assemblePolygons groups rings into polygons using the shapefile winding
// convention: outer rings wind clockwise, holes counter-clockwise and
// follow their outer ring.
func assemblePolygons(rings []orb.Ring) orb.Geometry {
	var polys []orb.Polygon
	for _, ring := range rings {
		if len(polys) == 0 || ring.Orientation() == orb.CW {
			polys = append(polys, orb.Polygon{ring})
			continue
		}
		last := len(polys) - 1
		polys[last] = append(polys[last], ring)
	}
	switch len(polys) {
	case 0:
		return orb.Polygon{}
	case 1:
		return polys[0]
	default:
		return orb.MultiPolygon(polys)
	}
}
