// Package cast converts geometry arrays between type descriptors: layout
// changes, dimension promotion, promotion-lattice upcasts, serialized
// encodings, and the downcast of generic columns to the narrowest concrete
// type their rows allow.
package cast

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
	"github.com/geoarrow/geoarrow-go/wkb"
	"github.com/geoarrow/geoarrow-go/wkt"
)

// To converts src to the target descriptor. Casting to the array's own
// type returns it unchanged, sharing storage. Rows that cannot be
// represented in the target fail with schema.ErrIncompatibleType.
func To(mem memory.Allocator, src garray.Array, target schema.Type) (garray.Array, error) {
	if src.Type().Equal(target) {
		src.Retain()
		return src, nil
	}
	target = target.WithMetadata(src.Type().Metadata())

	switch target.Kind() {
	case schema.WKB:
		return wkb.FromArray(mem, src, wkb.ISO)
	case schema.WKT:
		return wkt.FromArray(mem, src)
	case schema.Geometry:
		return toGeometry(mem, src, target)
	case schema.Box:
		if src.Type().Kind() != schema.Box {
			return nil, fmt.Errorf("%w: cannot cast %s to Box", schema.ErrIncompatibleType, src.Type().Kind())
		}
	}

	builder, err := garray.NewBuilder(mem, target)
	if err != nil {
		return nil, err
	}
	defer builder.Release()
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			builder.AppendNull()
			continue
		}
		g, err := src.Geometry(i)
		if err != nil {
			return nil, err
		}
		coerced, err := coerce(g, target.Kind(), target.Dim())
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if err := builder.AppendGeometry(coerced); err != nil {
			return nil, err
		}
	}
	return builder.NewArray()
}

func toGeometry(mem memory.Allocator, src garray.Array, target schema.Type) (garray.Array, error) {
	b := garray.NewGeometryBuilder(mem, target)
	defer b.Release()
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			b.AppendNull()
			continue
		}
		g, err := src.Geometry(i)
		if err != nil {
			return nil, err
		}
		if err := b.Append(g); err != nil {
			return nil, err
		}
	}
	return b.NewGeometryArray()
}

// ForceDimension rewrites the column at the given dimension, carrying
// matching ordinates over, padding new ones with NaN, and dropping the
// ordinates the target lacks. Unlike To, this deliberately loses z and m
// when forcing down; serialized and generic columns keep their descriptor
// and have every row rewritten.
func ForceDimension(mem memory.Allocator, src garray.Array, dim schema.Dimension) (garray.Array, error) {
	typ := src.Type()
	var (
		builder garray.Builder
		err     error
	)
	switch typ.Kind() {
	case schema.WKB:
		builder, err = wkb.NewArrayBuilder(mem, typ, wkb.EncoderFor(typ, wkb.ISO))
	case schema.WKT:
		builder, err = wkt.NewArrayBuilder(mem, typ)
	case schema.Geometry:
		builder, err = garray.NewBuilder(mem, typ)
	default:
		target := schema.NewType(typ.Kind(), dim, typ.CoordLayout()).WithMetadata(typ.Metadata())
		builder, err = garray.NewBuilder(mem, target)
	}
	if err != nil {
		return nil, err
	}
	defer builder.Release()
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			builder.AppendNull()
			continue
		}
		g, err := src.Geometry(i)
		if err != nil {
			return nil, err
		}
		if err := builder.AppendGeometry(geom.Promote(g, dim)); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return builder.NewArray()
}

// coerce reshapes one scalar to the target kind and dimension: dimension
// promotion with NaN padding, upcasts along the promotion lattice, and the
// inverse downcasts when the value has at most one part.
func coerce(g geom.Geometry, kind schema.GeometryType, dim schema.Dimension) (geom.Geometry, error) {
	if g.Dim() != dim {
		if !promotable(g.Dim(), dim) {
			return nil, fmt.Errorf("%w: %s does not fit dimension %s", schema.ErrIncompatibleType, g.Dim(), dim)
		}
		g = geom.Promote(g, dim)
	}
	if g.GeometryType() == kind {
		return g, nil
	}

	switch v := g.(type) {
	case geom.Point:
		switch kind {
		case schema.MultiPoint:
			if v.IsEmpty() {
				return geom.MultiPoint{Points: geom.SequenceOf(dim)}, nil
			}
			return geom.MultiPoint{Points: v.Coords}, nil
		case schema.GeometryCollection:
			return geom.GeometryCollection{Dimension: dim, Geoms: []geom.Geometry{v}}, nil
		}
	case geom.LineString:
		switch kind {
		case schema.MultiLineString:
			if v.IsEmpty() {
				return geom.MultiLineString{Dimension: dim}, nil
			}
			return geom.MultiLineString{Dimension: dim, Lines: []geom.Sequence{v.Coords}}, nil
		case schema.GeometryCollection:
			return geom.GeometryCollection{Dimension: dim, Geoms: []geom.Geometry{v}}, nil
		}
	case geom.Polygon:
		switch kind {
		case schema.MultiPolygon:
			if v.IsEmpty() {
				return geom.MultiPolygon{Dimension: dim}, nil
			}
			return geom.MultiPolygon{Dimension: dim, Polygons: []geom.Polygon{v}}, nil
		case schema.GeometryCollection:
			return geom.GeometryCollection{Dimension: dim, Geoms: []geom.Geometry{v}}, nil
		}
	case geom.MultiPoint:
		if kind == schema.Point {
			switch v.Points.Len() {
			case 0:
				return geom.NewEmptyPoint(dim), nil
			case 1:
				return geom.Point{Coords: v.Points}, nil
			}
		}
		if kind == schema.GeometryCollection {
			return geom.GeometryCollection{Dimension: dim, Geoms: []geom.Geometry{v}}, nil
		}
	case geom.MultiLineString:
		if kind == schema.LineString {
			switch len(v.Lines) {
			case 0:
				return geom.LineString{Coords: geom.SequenceOf(dim)}, nil
			case 1:
				return geom.LineString{Coords: v.Lines[0]}, nil
			}
		}
		if kind == schema.GeometryCollection {
			return geom.GeometryCollection{Dimension: dim, Geoms: []geom.Geometry{v}}, nil
		}
	case geom.MultiPolygon:
		if kind == schema.Polygon {
			switch len(v.Polygons) {
			case 0:
				return geom.Polygon{Dimension: dim}, nil
			case 1:
				return v.Polygons[0], nil
			}
		}
		if kind == schema.GeometryCollection {
			return geom.GeometryCollection{Dimension: dim, Geoms: []geom.Geometry{v}}, nil
		}
	case geom.GeometryCollection:
		// A collection of at most one member downcasts to the member's
		// kind.
		if len(v.Geoms) == 1 {
			return coerce(v.Geoms[0], kind, dim)
		}
		if len(v.Geoms) == 0 {
			return emptyOf(kind, dim)
		}
	}
	return nil, fmt.Errorf("%w: cannot cast %s to %s", schema.ErrIncompatibleType, g.GeometryType(), kind)
}

func emptyOf(kind schema.GeometryType, dim schema.Dimension) (geom.Geometry, error) {
	switch kind {
	case schema.Point:
		return geom.NewEmptyPoint(dim), nil
	case schema.LineString:
		return geom.LineString{Coords: geom.SequenceOf(dim)}, nil
	case schema.Polygon:
		return geom.Polygon{Dimension: dim}, nil
	case schema.MultiPoint:
		return geom.MultiPoint{Points: geom.SequenceOf(dim)}, nil
	case schema.MultiLineString:
		return geom.MultiLineString{Dimension: dim}, nil
	case schema.MultiPolygon:
		return geom.MultiPolygon{Dimension: dim}, nil
	case schema.GeometryCollection:
		return geom.GeometryCollection{Dimension: dim}, nil
	default:
		return nil, fmt.Errorf("%w: no empty value for kind %s", schema.ErrUnsupportedCombination, kind)
	}
}

func promotable(from, to schema.Dimension) bool {
	if from == to {
		return true
	}
	switch from {
	case schema.DimXY:
		return true
	case schema.DimXYZ, schema.DimXYM:
		return to == schema.DimXYZM
	default:
		return false
	}
}
