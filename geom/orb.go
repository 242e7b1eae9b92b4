package geom

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/geoarrow/geoarrow-go/schema"
)

// ToOrb converts a scalar geometry to its orb counterpart. orb carries XY
// coordinates only, so geometries of any other dimension are rejected with
// ErrUnsupportedCombination rather than silently truncated.
func ToOrb(g Geometry) (orb.Geometry, error) {
	if g.Dim() != schema.DimXY {
		return nil, fmt.Errorf("%w: cannot convert %s %s geometry to orb",
			schema.ErrUnsupportedCombination, g.Dim(), g.GeometryType())
	}
	switch v := g.(type) {
	case Point:
		c := v.Coord()
		return orb.Point{c[0], c[1]}, nil
	case LineString:
		return orb.LineString(seqToOrbPoints(v.Coords)), nil
	case Polygon:
		return polygonToOrb(v), nil
	case MultiPoint:
		return orb.MultiPoint(seqToOrbPoints(v.Points)), nil
	case MultiLineString:
		out := make(orb.MultiLineString, len(v.Lines))
		for i, line := range v.Lines {
			out[i] = orb.LineString(seqToOrbPoints(line))
		}
		return out, nil
	case MultiPolygon:
		out := make(orb.MultiPolygon, len(v.Polygons))
		for i, poly := range v.Polygons {
			out[i] = polygonToOrb(poly)
		}
		return out, nil
	case GeometryCollection:
		out := make(orb.Collection, len(v.Geoms))
		for i, child := range v.Geoms {
			converted, err := ToOrb(child)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case Rect:
		return orb.Bound{
			Min: orb.Point{v.Min[0], v.Min[1]},
			Max: orb.Point{v.Max[0], v.Max[1]},
		}, nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T to orb", schema.ErrUnsupportedCombination, g)
	}
}

func seqToOrbPoints(s Sequence) []orb.Point {
	out := make([]orb.Point, s.Len())
	for i := range out {
		out[i] = orb.Point{s.At(i, 0), s.At(i, 1)}
	}
	return out
}

func polygonToOrb(p Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p.Rings))
	for i, ring := range p.Rings {
		out[i] = orb.Ring(seqToOrbPoints(ring))
	}
	return out
}

// FromOrb converts an orb geometry to a scalar XY geometry.
func FromOrb(o orb.Geometry) (Geometry, error) {
	switch v := o.(type) {
	case orb.Point:
		return NewPoint(XY(v[0], v[1])), nil
	case orb.LineString:
		return LineString{Coords: orbPointsToSeq(v)}, nil
	case orb.Ring:
		return Polygon{Dimension: schema.DimXY, Rings: []Sequence{orbPointsToSeq(v)}}, nil
	case orb.Polygon:
		return orbPolygon(v), nil
	case orb.MultiPoint:
		return MultiPoint{Points: orbPointsToSeq(v)}, nil
	case orb.MultiLineString:
		lines := make([]Sequence, len(v))
		for i, line := range v {
			lines[i] = orbPointsToSeq(line)
		}
		return MultiLineString{Dimension: schema.DimXY, Lines: lines}, nil
	case orb.MultiPolygon:
		polys := make([]Polygon, len(v))
		for i, poly := range v {
			polys[i] = orbPolygon(poly)
		}
		return MultiPolygon{Dimension: schema.DimXY, Polygons: polys}, nil
	case orb.Collection:
		geoms := make([]Geometry, len(v))
		for i, child := range v {
			converted, err := FromOrb(child)
			if err != nil {
				return nil, err
			}
			geoms[i] = converted
		}
		return GeometryCollection{Dimension: schema.DimXY, Geoms: geoms}, nil
	case orb.Bound:
		return Rect{
			Dimension: schema.DimXY,
			Min:       XY(v.Min[0], v.Min[1]),
			Max:       XY(v.Max[0], v.Max[1]),
		}, nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T from orb", schema.ErrUnsupportedCombination, o)
	}
}

func orbPointsToSeq[T ~[]orb.Point](points T) Sequence {
	data := make([]float64, 0, len(points)*2)
	for _, p := range points {
		data = append(data, p[0], p[1])
	}
	s, _ := NewSequence(data, schema.DimXY)
	return s
}

func orbPolygon(p orb.Polygon) Polygon {
	rings := make([]Sequence, len(p))
	for i, ring := range p {
		rings[i] = orbPointsToSeq(ring)
	}
	return Polygon{Dimension: schema.DimXY, Rings: rings}
}
