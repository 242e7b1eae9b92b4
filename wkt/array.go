package wkt

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// Array is a column of WKT-encoded geometries over Arrow string storage.
// Rows are validated and decoded lazily, when read.
type Array struct {
	typ     schema.Type
	storage *arrowarray.String
}

var _ garray.Array = (*Array)(nil)

// NewArray wraps string storage as a WKT column.
func NewArray(typ schema.Type, storage arrow.Array) (*Array, error) {
	if typ.Kind() != schema.WKT {
		return nil, fmt.Errorf("%w: wkt array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	str, ok := storage.(*arrowarray.String)
	if !ok {
		return nil, fmt.Errorf("%w: wkt storage must be utf8, got %s", schema.ErrMalformedBuffer, storage.DataType())
	}
	storage.Retain()
	return &Array{typ: typ, storage: str}, nil
}

func (a *Array) Type() schema.Type    { return a.typ }
func (a *Array) Len() int             { return a.storage.Len() }
func (a *Array) IsNull(i int) bool    { return a.storage.IsNull(i) }
func (a *Array) Storage() arrow.Array { return a.storage }
func (a *Array) Retain()              { a.storage.Retain() }
func (a *Array) Release()             { a.storage.Release() }

// Value returns the raw WKT text of row i without decoding.
func (a *Array) Value(i int) (string, error) {
	if i < 0 || i >= a.Len() {
		return "", fmt.Errorf("%w: index %d of array length %d", schema.ErrIndexOutOfRange, i, a.Len())
	}
	return a.storage.Value(i), nil
}

// ScanType reads only the tag of row i: the kind and dimension without
// materializing coordinates.
func (a *Array) ScanType(i int) (schema.GeometryType, schema.Dimension, error) {
	s, err := a.Value(i)
	if err != nil {
		return 0, 0, err
	}
	return DecodeType(s)
}

func (a *Array) Geometry(i int) (geom.Geometry, error) {
	s, err := a.Value(i)
	if err != nil {
		return nil, err
	}
	if a.storage.IsNull(i) {
		return nil, nil
	}
	return Decode(s)
}

func (a *Array) Slice(start, length int) (garray.Array, error) {
	if start < 0 || length < 0 || start+length > a.Len() {
		return nil, fmt.Errorf("%w: slice [%d, %d) of array length %d",
			schema.ErrIndexOutOfRange, start, start+length, a.Len())
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewArray(a.typ, sliced)
}

// ArrayBuilder builds a WKT column, encoding appended scalars.
type ArrayBuilder struct {
	typ schema.Type
	b   *arrowarray.StringBuilder
}

var _ garray.Builder = (*ArrayBuilder)(nil)

func NewArrayBuilder(mem memory.Allocator, typ schema.Type) (*ArrayBuilder, error) {
	if typ.Kind() != schema.WKT {
		return nil, fmt.Errorf("%w: wkt builder cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	return &ArrayBuilder{typ: typ, b: arrowarray.NewStringBuilder(mem)}, nil
}

func (b *ArrayBuilder) AppendGeometry(g geom.Geometry) error {
	if g == nil {
		b.AppendNull()
		return nil
	}
	s, err := Encode(g)
	if err != nil {
		return err
	}
	b.b.Append(s)
	return nil
}

// AppendString appends already-encoded WKT after a tag scan.
func (b *ArrayBuilder) AppendString(s string) error {
	if _, _, err := DecodeType(s); err != nil {
		return err
	}
	b.b.Append(s)
	return nil
}

func (b *ArrayBuilder) AppendNull() { b.b.AppendNull() }

func (b *ArrayBuilder) NewWKTArray() (*Array, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewArray(b.typ, storage)
}

func (b *ArrayBuilder) NewArray() (garray.Array, error) { return b.NewWKTArray() }
func (b *ArrayBuilder) Release()                        { b.b.Release() }

// FromArray encodes every row of a geometry array into a WKT column,
// carrying the source metadata over.
func FromArray(mem memory.Allocator, src garray.Array) (*Array, error) {
	typ, err := schema.NewSerializedType(schema.WKT)
	if err != nil {
		return nil, err
	}
	typ = typ.WithMetadata(src.Type().Metadata())
	b, err := NewArrayBuilder(mem, typ)
	if err != nil {
		return nil, err
	}
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
		if err := b.AppendGeometry(g); err != nil {
			return nil, err
		}
	}
	return b.NewWKTArray()
}
