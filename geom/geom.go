package geom

import (
	"math"

	"github.com/geoarrow/geoarrow-go/schema"
)

// Geometry is the closed set of scalar geometry values.
type Geometry interface {
	GeometryType() schema.GeometryType
	Dim() schema.Dimension
	IsEmpty() bool
}

// Point is a single coordinate. An empty point has either no coordinate or
// an all-NaN coordinate.
type Point struct {
	Coords Sequence // length 0 or 1
}

// NewPoint builds a point from one coordinate.
func NewPoint(c Coord) Point {
	dim := schema.DimXY
	switch len(c) {
	case 3:
		dim = schema.DimXYZ
	case 4:
		dim = schema.DimXYZM
	}
	return Point{Coords: SequenceOf(dim, c)}
}

// NewEmptyPoint builds the empty point of the given dimension.
func NewEmptyPoint(dim schema.Dimension) Point {
	pad := make(Coord, dim.Size())
	for i := range pad {
		pad[i] = math.NaN()
	}
	return Point{Coords: SequenceOf(dim, pad)}
}

func (p Point) GeometryType() schema.GeometryType { return schema.Point }
func (p Point) Dim() schema.Dimension             { return p.Coords.Dim() }

func (p Point) IsEmpty() bool {
	if p.Coords.Len() == 0 {
		return true
	}
	for ord := 0; ord < p.Coords.Dim().Size(); ord++ {
		if !math.IsNaN(p.Coords.At(0, ord)) {
			return false
		}
	}
	return true
}

// Coord returns the point's coordinate; for an empty point it is all-NaN.
func (p Point) Coord() Coord {
	if p.Coords.Len() == 0 {
		pad := make(Coord, p.Coords.Dim().Size())
		for i := range pad {
			pad[i] = math.NaN()
		}
		return pad
	}
	return p.Coords.Coord(0)
}

// LineString is an ordered run of two or more coordinates (or none, when
// empty).
type LineString struct {
	Coords Sequence
}

func (l LineString) GeometryType() schema.GeometryType { return schema.LineString }
func (l LineString) Dim() schema.Dimension             { return l.Coords.Dim() }
func (l LineString) IsEmpty() bool                     { return l.Coords.Len() == 0 }

// Polygon is a run of rings; ring 0 is the outer shell.
type Polygon struct {
	Dimension schema.Dimension
	Rings     []Sequence
}

func (p Polygon) GeometryType() schema.GeometryType { return schema.Polygon }
func (p Polygon) Dim() schema.Dimension             { return p.Dimension }
func (p Polygon) IsEmpty() bool                     { return len(p.Rings) == 0 }

// MultiPoint is a run of points stored as one coordinate sequence.
type MultiPoint struct {
	Points Sequence
}

func (m MultiPoint) GeometryType() schema.GeometryType { return schema.MultiPoint }
func (m MultiPoint) Dim() schema.Dimension             { return m.Points.Dim() }
func (m MultiPoint) IsEmpty() bool                     { return m.Points.Len() == 0 }

// MultiLineString is a run of line strings.
type MultiLineString struct {
	Dimension schema.Dimension
	Lines     []Sequence
}

func (m MultiLineString) GeometryType() schema.GeometryType { return schema.MultiLineString }
func (m MultiLineString) Dim() schema.Dimension             { return m.Dimension }
func (m MultiLineString) IsEmpty() bool                     { return len(m.Lines) == 0 }

// MultiPolygon is a run of polygons.
type MultiPolygon struct {
	Dimension schema.Dimension
	Polygons  []Polygon
}

func (m MultiPolygon) GeometryType() schema.GeometryType { return schema.MultiPolygon }
func (m MultiPolygon) Dim() schema.Dimension             { return m.Dimension }
func (m MultiPolygon) IsEmpty() bool                     { return len(m.Polygons) == 0 }

// GeometryCollection is an ordered run of arbitrary geometries.
type GeometryCollection struct {
	Dimension schema.Dimension
	Geoms     []Geometry
}

func (g GeometryCollection) GeometryType() schema.GeometryType { return schema.GeometryCollection }
func (g GeometryCollection) Dim() schema.Dimension             { return g.Dimension }
func (g GeometryCollection) IsEmpty() bool                     { return len(g.Geoms) == 0 }

// Rect is an axis-aligned bounding box.
type Rect struct {
	Dimension schema.Dimension
	Min, Max  Coord
}

func (r Rect) GeometryType() schema.GeometryType { return schema.Box }
func (r Rect) Dim() schema.Dimension             { return r.Dimension }
func (r Rect) IsEmpty() bool                     { return len(r.Min) == 0 }

// Promote returns g copied to another dimension, carrying matching
// ordinates over and padding missing ones with NaN; ordinates the target
// lacks are dropped. Promoting to the geometry's own dimension returns g
// unchanged.
func Promote(g Geometry, dim schema.Dimension) Geometry {
	if g.Dim() == dim {
		return g
	}
	switch v := g.(type) {
	case Point:
		return Point{Coords: v.Coords.Promote(dim)}
	case LineString:
		return LineString{Coords: v.Coords.Promote(dim)}
	case Polygon:
		rings := make([]Sequence, len(v.Rings))
		for i, r := range v.Rings {
			rings[i] = r.Promote(dim)
		}
		return Polygon{Dimension: dim, Rings: rings}
	case MultiPoint:
		return MultiPoint{Points: v.Points.Promote(dim)}
	case MultiLineString:
		lines := make([]Sequence, len(v.Lines))
		for i, l := range v.Lines {
			lines[i] = l.Promote(dim)
		}
		return MultiLineString{Dimension: dim, Lines: lines}
	case MultiPolygon:
		polys := make([]Polygon, len(v.Polygons))
		for i, p := range v.Polygons {
			polys[i] = Promote(p, dim).(Polygon)
		}
		return MultiPolygon{Dimension: dim, Polygons: polys}
	case GeometryCollection:
		geoms := make([]Geometry, len(v.Geoms))
		for i, child := range v.Geoms {
			geoms[i] = Promote(child, dim)
		}
		return GeometryCollection{Dimension: dim, Geoms: geoms}
	case Rect:
		return Rect{
			Dimension: dim,
			Min:       SequenceOf(v.Dimension, v.Min).Promote(dim).Coord(0),
			Max:       SequenceOf(v.Dimension, v.Max).Promote(dim).Coord(0),
		}
	default:
		return g
	}
}
