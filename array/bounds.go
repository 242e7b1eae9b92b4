package array

import (
	"math"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// boundsAccumulator folds coordinates into a running axis-aligned bounding
// box. NaN ordinates, including empty points, never move the bounds.
type boundsAccumulator struct {
	dim      schema.Dimension
	min, max []float64
}

func newBoundsAccumulator(dim schema.Dimension) *boundsAccumulator {
	size := dim.Size()
	acc := &boundsAccumulator{dim: dim, min: make([]float64, size), max: make([]float64, size)}
	for i := 0; i < size; i++ {
		acc.min[i] = math.Inf(1)
		acc.max[i] = math.Inf(-1)
	}
	return acc
}

func (acc *boundsAccumulator) sequence(s geom.Sequence) {
	size := acc.dim.Size()
	for i := 0; i < s.Len(); i++ {
		for ord := 0; ord < size && ord < s.Dim().Size(); ord++ {
			v := s.At(i, ord)
			if math.IsNaN(v) {
				continue
			}
			acc.min[ord] = math.Min(acc.min[ord], v)
			acc.max[ord] = math.Max(acc.max[ord], v)
		}
	}
}

func (acc *boundsAccumulator) geometry(g geom.Geometry) {
	switch v := g.(type) {
	case geom.Point:
		if !v.IsEmpty() {
			acc.sequence(v.Coords)
		}
	case geom.LineString:
		acc.sequence(v.Coords)
	case geom.Polygon:
		for _, ring := range v.Rings {
			acc.sequence(ring)
		}
	case geom.MultiPoint:
		acc.sequence(v.Points)
	case geom.MultiLineString:
		for _, line := range v.Lines {
			acc.sequence(line)
		}
	case geom.MultiPolygon:
		for _, poly := range v.Polygons {
			acc.geometry(poly)
		}
	case geom.GeometryCollection:
		for _, child := range v.Geoms {
			acc.geometry(child)
		}
	case geom.Rect:
		acc.sequence(geom.SequenceOf(v.Dim(), v.Min, v.Max))
	}
}

func (acc *boundsAccumulator) rect() geom.Rect {
	size := acc.dim.Size()
	if acc.min[0] > acc.max[0] {
		// Nothing seen: the empty bounds stay inverted infinities.
		return geom.Rect{Dimension: acc.dim, Min: append(geom.Coord{}, acc.min...), Max: append(geom.Coord{}, acc.max...)}
	}
	min := make(geom.Coord, size)
	max := make(geom.Coord, size)
	copy(min, acc.min)
	copy(max, acc.max)
	return geom.Rect{Dimension: acc.dim, Min: min, Max: max}
}

// Bounds computes the bounding box over every non-null row. An array with
// no coordinates yields inverted infinite bounds.
func Bounds(a Array) (geom.Rect, error) {
	dim := a.Type().Dim()
	if a.Type().Kind() == schema.Geometry || a.Type().Kind() == schema.WKB || a.Type().Kind() == schema.WKT {
		dim = schema.DimXYZM
	}
	acc := newBoundsAccumulator(dim)
	for i := 0; i < a.Len(); i++ {
		if a.IsNull(i) {
			continue
		}
		g, err := a.Geometry(i)
		if err != nil {
			return geom.Rect{}, err
		}
		if g != nil {
			acc.geometry(g)
		}
	}
	return acc.rect(), nil
}

// Bounds computes the bounding box across every chunk.
func (c *Chunked) Bounds() (geom.Rect, error) {
	dim := c.typ.Dim()
	if c.typ.Kind() == schema.Geometry || c.typ.Kind() == schema.WKB || c.typ.Kind() == schema.WKT {
		dim = schema.DimXYZM
	}
	acc := newBoundsAccumulator(dim)
	for _, chunk := range c.chunks {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				continue
			}
			g, err := chunk.Geometry(i)
			if err != nil {
				return geom.Rect{}, err
			}
			if g != nil {
				acc.geometry(g)
			}
		}
	}
	return acc.rect(), nil
}
