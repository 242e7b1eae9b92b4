// Package array implements the GeoArrow geometry array family: the seven
// native kinds plus Box and the type-tagged union, all stored as Arrow
// arrays. Arrays are immutable once constructed; slicing shares buffers.
package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// Array is a geometry array: a typed column of geometry scalars.
type Array interface {
	// Type returns the descriptor travelling with the array.
	Type() schema.Type
	// Len returns the number of rows.
	Len() int
	// IsNull reports whether row i is null. Callers must bounds-check via
	// Len; IsNull on a valid index never fails.
	IsNull(i int) bool
	// Geometry returns the scalar at row i as a zero-copy view, or nil for
	// a null row. Fails with schema.ErrIndexOutOfRange past bounds.
	Geometry(i int) (geom.Geometry, error)
	// Slice returns a view of [start, start+length) sharing storage.
	Slice(start, length int) (Array, error)
	// Storage returns the backing Arrow array.
	Storage() arrow.Array
	// Retain increases the storage reference count.
	Retain()
	// Release decreases the storage reference count; the array must not be
	// used afterwards.
	Release()
}

// Builder appends geometry scalars and produces an Array.
type Builder interface {
	// AppendGeometry appends one scalar. The scalar's kind and dimension
	// must match the builder's type.
	AppendGeometry(g geom.Geometry) error
	// AppendNull appends a null row.
	AppendNull()
	// NewArray finishes the builder and returns the built array. The
	// builder is reset and may be reused.
	NewArray() (Array, error)
	// Release releases builder resources.
	Release()
}

func boundsCheck(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: index %d of array length %d", schema.ErrIndexOutOfRange, i, n)
	}
	return nil
}

func sliceCheck(start, length, n int) error {
	if start < 0 || length < 0 || start+length > n {
		return fmt.Errorf("%w: slice [%d, %d) of array length %d", schema.ErrIndexOutOfRange, start, start+length, n)
	}
	return nil
}

// FromArrow wraps an Arrow array as a geometry array of the given
// descriptor, validating every buffer invariant eagerly.
func FromArrow(typ schema.Type, storage arrow.Array) (Array, error) {
	switch typ.Kind() {
	case schema.Point:
		return NewPointArray(typ, storage)
	case schema.LineString:
		return NewLineStringArray(typ, storage)
	case schema.Polygon:
		return NewPolygonArray(typ, storage)
	case schema.MultiPoint:
		return NewMultiPointArray(typ, storage)
	case schema.MultiLineString:
		return NewMultiLineStringArray(typ, storage)
	case schema.MultiPolygon:
		return NewMultiPolygonArray(typ, storage)
	case schema.GeometryCollection:
		return NewGeometryCollectionArray(typ, storage)
	case schema.Box:
		return NewRectArray(typ, storage)
	case schema.Geometry:
		return NewGeometryArray(typ, storage)
	default:
		return nil, fmt.Errorf("%w: no native array for kind %s", schema.ErrUnsupportedCombination, typ.Kind())
	}
}

// FromArrowField reads the type descriptor off the field's extension
// metadata and wraps the storage array.
func FromArrowField(field arrow.Field, storage arrow.Array) (Array, error) {
	typ, err := schema.TypeFromField(field)
	if err != nil {
		return nil, err
	}
	return FromArrow(typ, storage)
}

// NewBuilder returns the builder for a native descriptor.
func NewBuilder(mem memory.Allocator, typ schema.Type) (Builder, error) {
	switch typ.Kind() {
	case schema.Point:
		return NewPointBuilder(mem, typ), nil
	case schema.LineString:
		return NewLineStringBuilder(mem, typ), nil
	case schema.Polygon:
		return NewPolygonBuilder(mem, typ), nil
	case schema.MultiPoint:
		return NewMultiPointBuilder(mem, typ), nil
	case schema.MultiLineString:
		return NewMultiLineStringBuilder(mem, typ), nil
	case schema.MultiPolygon:
		return NewMultiPolygonBuilder(mem, typ), nil
	case schema.GeometryCollection:
		return NewGeometryCollectionBuilder(mem, typ), nil
	case schema.Box:
		return NewRectBuilder(mem, typ), nil
	case schema.Geometry:
		return NewGeometryBuilder(mem, typ), nil
	default:
		return nil, fmt.Errorf("%w: no builder for kind %s", schema.ErrUnsupportedCombination, typ.Kind())
	}
}

// wrapBuilder adapts an already-allocated storage builder, such as a union
// child, into the kind's typed builder.
func wrapBuilder(typ schema.Type, raw arrowarray.Builder) (Builder, error) {
	dim, layout := typ.Dim(), typ.CoordLayout()
	switch typ.Kind() {
	case schema.Point:
		return &PointBuilder{typ: typ, b: raw, coords: newCoordAppender(raw, dim, layout)}, nil
	case schema.LineString:
		lb := raw.(*arrowarray.ListBuilder)
		return &LineStringBuilder{typ: typ, b: lb, coords: newCoordAppender(lb.ValueBuilder(), dim, layout)}, nil
	case schema.Polygon:
		lb := raw.(*arrowarray.ListBuilder)
		rings := lb.ValueBuilder().(*arrowarray.ListBuilder)
		return &PolygonBuilder{typ: typ, b: lb, rings: rings, coords: newCoordAppender(rings.ValueBuilder(), dim, layout)}, nil
	case schema.MultiPoint:
		lb := raw.(*arrowarray.ListBuilder)
		return &MultiPointBuilder{typ: typ, b: lb, coords: newCoordAppender(lb.ValueBuilder(), dim, layout)}, nil
	case schema.MultiLineString:
		lb := raw.(*arrowarray.ListBuilder)
		lines := lb.ValueBuilder().(*arrowarray.ListBuilder)
		return &MultiLineStringBuilder{typ: typ, b: lb, lines: lines, coords: newCoordAppender(lines.ValueBuilder(), dim, layout)}, nil
	case schema.MultiPolygon:
		lb := raw.(*arrowarray.ListBuilder)
		polygons := lb.ValueBuilder().(*arrowarray.ListBuilder)
		rings := polygons.ValueBuilder().(*arrowarray.ListBuilder)
		return &MultiPolygonBuilder{typ: typ, b: lb, polygons: polygons, rings: rings,
			coords: newCoordAppender(rings.ValueBuilder(), dim, layout)}, nil
	case schema.GeometryCollection:
		return wrapGeometryCollectionBuilder(typ, raw.(*arrowarray.ListBuilder))
	default:
		return nil, fmt.Errorf("%w: no builder for kind %s", schema.ErrUnsupportedCombination, typ.Kind())
	}
}

// Equal reports structural equality: same kind and dimension, same length,
// same null pattern, and structurally equal scalars row by row. Physical
// layout never participates, so interleaved and separated arrays of the
// same data compare equal.
func Equal(a, b Array) bool {
	if a.Type().Kind() != b.Type().Kind() || a.Type().Dim() != b.Type().Dim() || a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if a.IsNull(i) != b.IsNull(i) {
			return false
		}
		if a.IsNull(i) {
			continue
		}
		ga, err := a.Geometry(i)
		if err != nil {
			return false
		}
		gb, err := b.Geometry(i)
		if err != nil {
			return false
		}
		if !geom.Equal(ga, gb) {
			return false
		}
	}
	return true
}

// checkStorage verifies the storage's physical type matches the descriptor.
func checkStorage(typ schema.Type, storage arrow.Array) error {
	parsed, err := schema.TypeFromStorage(typ.Kind(), storage.DataType())
	if err != nil {
		return err
	}
	if !parsed.Equal(typ) {
		return fmt.Errorf("%w: storage is %s, descriptor is %s", schema.ErrMalformedBuffer, parsed, typ)
	}
	return nil
}

// validateOffsets checks the list invariants for one nesting level:
// non-decreasing bounds per row and an end never past the child length.
func validateOffsets(list *arrowarray.List, childLen int, level string) error {
	n := list.Len()
	if n == 0 {
		return nil
	}
	if list.Data().Offset() == 0 {
		if start, _ := list.ValueOffsets(0); start != 0 {
			return fmt.Errorf("%w: %s offsets start at %d, want 0", schema.ErrMalformedBuffer, level, start)
		}
	}
	prev := int64(-1)
	for i := 0; i < n; i++ {
		start, end := list.ValueOffsets(i)
		if start > end {
			return fmt.Errorf("%w: %s offsets decrease at row %d (%d > %d)", schema.ErrMalformedBuffer, level, i, start, end)
		}
		if prev >= 0 && start < prev {
			return fmt.Errorf("%w: %s offsets decrease at row %d", schema.ErrMalformedBuffer, level, i)
		}
		if end > int64(childLen) {
			return fmt.Errorf("%w: %s offset %d exceeds child length %d", schema.ErrMalformedBuffer, level, end, childLen)
		}
		prev = end
	}
	return nil
}
