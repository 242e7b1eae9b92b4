package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// GeometryArray is the type-tagged union holding heterogeneous kinds and
// dimensions: each row carries a type id of the form dimension*10+kind and
// an offset into the matching child array.
type GeometryArray struct {
	typ     schema.Type
	storage *arrowarray.DenseUnion
	reader  *unionReader
}

func NewGeometryArray(typ schema.Type, storage arrow.Array) (*GeometryArray, error) {
	if typ.Kind() != schema.Geometry {
		return nil, fmt.Errorf("%w: geometry array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	if err := checkStorage(typ, storage); err != nil {
		return nil, err
	}
	union, ok := storage.(*arrowarray.DenseUnion)
	if !ok {
		return nil, fmt.Errorf("%w: geometry storage must be a dense union, got %s",
			schema.ErrMalformedBuffer, storage.DataType())
	}
	reader, err := newUnionReader(union, typ.CoordLayout())
	if err != nil {
		return nil, err
	}
	storage.Retain()
	return &GeometryArray{typ: typ, storage: union, reader: reader}, nil
}

func (a *GeometryArray) Type() schema.Type    { return a.typ }
func (a *GeometryArray) Len() int             { return a.storage.Len() }
func (a *GeometryArray) IsNull(i int) bool    { return a.reader.isNull(i) }
func (a *GeometryArray) Storage() arrow.Array { return a.storage }
func (a *GeometryArray) Retain()              { a.storage.Retain() }

func (a *GeometryArray) Release() {
	a.reader.release()
	a.storage.Release()
}

// TypeID returns the type id tag of row i.
func (a *GeometryArray) TypeID(i int) (int8, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return 0, err
	}
	return a.reader.typeID(i), nil
}

func (a *GeometryArray) Geometry(i int) (geom.Geometry, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return nil, err
	}
	return a.reader.geometry(i)
}

func (a *GeometryArray) Slice(start, length int) (Array, error) {
	if err := sliceCheck(start, length, a.Len()); err != nil {
		return nil, err
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewGeometryArray(a.typ, sliced)
}

// CastTo converts the union to a concrete native type. When every row
// already lives contiguously in the matching child, the child's buffers are
// shared; otherwise rows are re-appended through a builder. Rows of a
// narrower dimension are NaN-promoted, and primitive rows upcast to their
// multi counterpart. Any other mix fails with ErrIncompatibleType.
func (a *GeometryArray) CastTo(mem memory.Allocator, target schema.Type) (Array, error) {
	if target.Kind() == schema.Geometry {
		a.Retain()
		out := *a
		out.typ = target
		return &out, nil
	}

	if child, ok := a.contiguousChild(target); ok {
		return child, nil
	}

	builder, err := NewBuilder(mem, target)
	if err != nil {
		return nil, err
	}
	defer builder.Release()
	for i := 0; i < a.Len(); i++ {
		g, err := a.reader.geometry(i)
		if err != nil {
			return nil, err
		}
		if g == nil {
			builder.AppendNull()
			continue
		}
		if !castable(g.GeometryType(), target.Kind()) {
			return nil, fmt.Errorf("%w: row %d is %s, cannot cast to %s",
				schema.ErrIncompatibleType, i, g.GeometryType(), target.Kind())
		}
		if g.Dim() != target.Dim() {
			if !promotable(g.Dim(), target.Dim()) {
				return nil, fmt.Errorf("%w: row %d is %s, cannot cast to %s",
					schema.ErrIncompatibleType, i, g.Dim(), target.Dim())
			}
			g = geom.Promote(g, target.Dim())
		}
		if err := builder.AppendGeometry(g); err != nil {
			return nil, err
		}
	}
	return builder.NewArray()
}

// contiguousChild returns the target-typed child when all rows point at it
// in order, which makes the cast a buffer-sharing slice.
func (a *GeometryArray) contiguousChild(target schema.Type) (Array, bool) {
	n := a.Len()
	if n == 0 {
		return nil, false
	}
	want := schema.TypeID(target.Kind(), target.Dim())
	first := int(a.storage.ValueOffset(0))
	for i := 0; i < n; i++ {
		if a.reader.typeID(i) != want || int(a.storage.ValueOffset(i)) != first+i {
			return nil, false
		}
	}
	child := a.reader.children[want]
	sliced, err := child.Slice(first, n)
	if err != nil {
		return nil, false
	}
	return sliced, true
}

func castable(from, to schema.GeometryType) bool {
	if from == to {
		return true
	}
	return from.Multi() == to
}

func promotable(from, to schema.Dimension) bool {
	switch from {
	case schema.DimXY:
		return true
	case schema.DimXYZ, schema.DimXYM:
		return to == schema.DimXYZM
	default:
		return false
	}
}

// GeometryBuilder builds a GeometryArray, materializing one child per type
// id on the canonical union of all kinds and dimensions.
type GeometryBuilder struct {
	typ      schema.Type
	b        *arrowarray.DenseUnionBuilder
	appender *unionAppender
}

func NewGeometryBuilder(mem memory.Allocator, typ schema.Type) *GeometryBuilder {
	ut := typ.Storage().(*arrow.DenseUnionType)
	b := arrowarray.NewDenseUnionBuilder(mem, ut)
	appender, err := newUnionAppender(b, ut, typ.CoordLayout())
	if err != nil {
		panic(err)
	}
	return &GeometryBuilder{typ: typ, b: b, appender: appender}
}

// Append adds one scalar of any kind and dimension.
func (b *GeometryBuilder) Append(g geom.Geometry) error {
	if g == nil {
		b.AppendNull()
		return nil
	}
	return b.appender.append(g)
}

func (b *GeometryBuilder) AppendGeometry(g geom.Geometry) error { return b.Append(g) }

func (b *GeometryBuilder) AppendNull() {
	// Nulls live in the xy point child, present on the canonical union.
	_ = b.appender.appendNull()
}

func (b *GeometryBuilder) NewGeometryArray() (*GeometryArray, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewGeometryArray(b.typ, storage)
}

func (b *GeometryBuilder) NewArray() (Array, error) { return b.NewGeometryArray() }
func (b *GeometryBuilder) Release()                 { b.b.Release() }
