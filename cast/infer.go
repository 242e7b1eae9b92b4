package cast

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// Inference is the narrowest descriptor a column's rows allow.
type Inference struct {
	Type schema.Type
	// DimensionPromoted is set when rows carried more than one dimension
	// and the result is their NaN-padded union.
	DimensionPromoted bool
}

// typeScanner is the cheap header scan serialized arrays offer.
type typeScanner interface {
	ScanType(i int) (schema.GeometryType, schema.Dimension, error)
}

type classifier struct {
	kinds   map[schema.GeometryType]bool
	dims    map[schema.Dimension]bool
	hasZ    bool
	hasM    bool
	counted int
}

func newClassifier() *classifier {
	return &classifier{kinds: make(map[schema.GeometryType]bool), dims: make(map[schema.Dimension]bool)}
}

func (c *classifier) add(kind schema.GeometryType, dim schema.Dimension) {
	c.kinds[kind] = true
	c.dims[dim] = true
	c.hasZ = c.hasZ || dim.HasZ()
	c.hasM = c.hasM || dim.HasM()
	c.counted++
}

// classify maps one row of a concrete multi-kind array to its narrowest
// kind: a multi value with fewer than two parts counts as its base kind,
// and a collection with exactly one member counts as the member's kind.
func (c *classifier) classify(g geom.Geometry) {
	switch v := g.(type) {
	case geom.MultiPoint:
		if v.Points.Len() < 2 {
			c.add(schema.Point, v.Dim())
			return
		}
	case geom.MultiLineString:
		if len(v.Lines) < 2 {
			c.add(schema.LineString, v.Dim())
			return
		}
	case geom.MultiPolygon:
		if len(v.Polygons) < 2 {
			c.add(schema.Polygon, v.Dim())
			return
		}
	case geom.GeometryCollection:
		if len(v.Geoms) == 1 {
			c.add(v.Geoms[0].GeometryType(), v.Dim())
			return
		}
	}
	c.add(g.GeometryType(), g.Dim())
}

// scan folds one array's rows into the classifier. A generic union row
// counts as its stored type id and a serialized row as its header kind;
// part-count narrowing applies only to concrete multi and collection
// columns, whose declared kind already commits every row to that shape.
func (c *classifier) scan(arr garray.Array) error {
	typ := arr.Type()
	switch kind := typ.Kind(); {
	case kind == schema.Geometry:
		ga, ok := arr.(*garray.GeometryArray)
		if !ok {
			return fmt.Errorf("%w: generic column stored as %T", schema.ErrIncompatibleType, arr)
		}
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			id, err := ga.TypeID(i)
			if err != nil {
				return err
			}
			rowKind, dim, err := schema.FromTypeID(id)
			if err != nil {
				return err
			}
			c.add(rowKind, dim)
		}
	case !kind.IsNative():
		scanner, ok := arr.(typeScanner)
		if !ok {
			return fmt.Errorf("%w: serialized column stored as %T", schema.ErrIncompatibleType, arr)
		}
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			rowKind, dim, err := scanner.ScanType(i)
			if err != nil {
				return err
			}
			c.add(rowKind, dim)
		}
	case kind == schema.MultiPoint, kind == schema.MultiLineString,
		kind == schema.MultiPolygon, kind == schema.GeometryCollection:
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				continue
			}
			g, err := arr.Geometry(i)
			if err != nil {
				return err
			}
			if g != nil {
				c.classify(g)
			}
		}
	default:
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) {
				c.add(kind, typ.Dim())
			}
		}
	}
	return nil
}

func (c *classifier) kind() (schema.GeometryType, error) {
	within := func(allowed ...schema.GeometryType) bool {
		for k := range c.kinds {
			found := false
			for _, a := range allowed {
				if k == a {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}

	if len(c.kinds) == 1 {
		for k := range c.kinds {
			return k, nil
		}
	}
	if c.kinds[schema.Box] {
		return 0, fmt.Errorf("%w: box rows cannot mix with other kinds", schema.ErrIncompatibleType)
	}
	switch {
	case within(schema.Point, schema.MultiPoint):
		return schema.MultiPoint, nil
	case within(schema.LineString, schema.MultiLineString):
		return schema.MultiLineString, nil
	case within(schema.Polygon, schema.MultiPolygon):
		return schema.MultiPolygon, nil
	default:
		return schema.Geometry, nil
	}
}

// Infer scans every row of the given same-column arrays and returns the
// narrowest descriptor that can hold them all. Generic union rows count as
// their stored type id, serialized rows as their declared header kind, and
// rows of concrete multi and collection columns narrow by part count: a
// multi with fewer than two parts counts as its base kind and a
// single-member collection as the member. Mixed dimensions widen to their
// NaN-padded union, and rows whose kinds share no lattice meet resolve to
// the generic Geometry union.
func Infer(arrays ...garray.Array) (Inference, error) {
	if len(arrays) == 0 {
		return Inference{}, fmt.Errorf("%w: nothing to infer from", schema.ErrIncompatibleType)
	}
	c := newClassifier()
	for _, arr := range arrays {
		if err := c.scan(arr); err != nil {
			return Inference{}, err
		}
	}

	src := arrays[0].Type()
	if c.counted == 0 {
		// All rows null: the column keeps its type.
		return Inference{Type: src}, nil
	}

	kind, err := c.kind()
	if err != nil {
		return Inference{}, err
	}
	dim := schema.DimensionOf(c.hasZ, c.hasM)
	promoted := len(c.dims) > 1

	layout := src.CoordLayout()
	if !src.Kind().IsNative() && src.Kind() != schema.Geometry {
		layout = schema.Interleaved
	}

	var typ schema.Type
	switch kind {
	case schema.Geometry:
		typ = schema.NewGeometryType(layout)
	case schema.Box:
		typ = schema.NewType(schema.Box, dim, schema.Separated)
	default:
		typ = schema.NewType(kind, dim, layout)
	}
	return Inference{Type: typ.WithMetadata(src.Metadata()), DimensionPromoted: promoted}, nil
}

// InferChunked infers across every chunk of a column.
func InferChunked(c *garray.Chunked) (Inference, error) {
	arrays := make([]garray.Array, c.NumChunks())
	for i := range arrays {
		arrays[i] = c.Chunk(i)
	}
	if len(arrays) == 0 {
		return Inference{Type: c.Type()}, nil
	}
	return Infer(arrays...)
}

// Downcast rewrites the array as its inferred narrowest type. Downcasting
// an already-narrow array returns it unchanged.
func Downcast(mem memory.Allocator, arr garray.Array) (garray.Array, error) {
	inf, err := Infer(arr)
	if err != nil {
		return nil, err
	}
	return To(mem, arr, inf.Type)
}

// DowncastChunked downcasts every chunk to the type inferred across the
// whole column.
func DowncastChunked(mem memory.Allocator, c *garray.Chunked) (*garray.Chunked, error) {
	inf, err := InferChunked(c)
	if err != nil {
		return nil, err
	}
	chunks := make([]garray.Array, c.NumChunks())
	for i := range chunks {
		chunk, err := To(mem, c.Chunk(i), inf.Type)
		if err != nil {
			for _, done := range chunks[:i] {
				done.Release()
			}
			return nil, err
		}
		chunks[i] = chunk
	}
	out, err := garray.NewChunkedOfType(inf.Type, chunks)
	for _, chunk := range chunks {
		chunk.Release()
	}
	return out, err
}
