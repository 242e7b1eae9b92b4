package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// RectArray stores axis-aligned bounding boxes as a struct of per-ordinate
// min fields followed by max fields.
type RectArray struct {
	typ     schema.Type
	storage *arrowarray.Struct
	ords    [][]float64 // min block then max block, one slice per field
}

func NewRectArray(typ schema.Type, storage arrow.Array) (*RectArray, error) {
	if typ.Kind() != schema.Box {
		return nil, fmt.Errorf("%w: box array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	if err := checkStorage(typ, storage); err != nil {
		return nil, err
	}
	st, ok := storage.(*arrowarray.Struct)
	if !ok {
		return nil, fmt.Errorf("%w: box storage must be a struct, got %s", schema.ErrMalformedBuffer, storage.DataType())
	}
	size := typ.Dim().Size()
	if st.NumField() != 2*size {
		return nil, fmt.Errorf("%w: box struct has %d fields, dimension %s needs %d",
			schema.ErrMalformedBuffer, st.NumField(), typ.Dim(), 2*size)
	}
	ords := make([][]float64, 2*size)
	for i := range ords {
		f, ok := st.Field(i).(*arrowarray.Float64)
		if !ok {
			return nil, fmt.Errorf("%w: box field %d must be float64, got %s",
				schema.ErrMalformedBuffer, i, st.Field(i).DataType())
		}
		ords[i] = f.Float64Values()
	}
	storage.Retain()
	return &RectArray{typ: typ, storage: st, ords: ords}, nil
}

func (a *RectArray) Type() schema.Type    { return a.typ }
func (a *RectArray) Len() int             { return a.storage.Len() }
func (a *RectArray) IsNull(i int) bool    { return a.storage.IsNull(i) }
func (a *RectArray) Storage() arrow.Array { return a.storage }
func (a *RectArray) Retain()              { a.storage.Retain() }
func (a *RectArray) Release()             { a.storage.Release() }

func (a *RectArray) Value(i int) (geom.Rect, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return geom.Rect{}, err
	}
	size := a.typ.Dim().Size()
	min := make(geom.Coord, size)
	max := make(geom.Coord, size)
	for ord := 0; ord < size; ord++ {
		min[ord] = a.ords[ord][i]
		max[ord] = a.ords[size+ord][i]
	}
	return geom.Rect{Dimension: a.typ.Dim(), Min: min, Max: max}, nil
}

func (a *RectArray) Geometry(i int) (geom.Geometry, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return nil, err
	}
	if a.storage.IsNull(i) {
		return nil, nil
	}
	return a.Value(i)
}

func (a *RectArray) Slice(start, length int) (Array, error) {
	if err := sliceCheck(start, length, a.Len()); err != nil {
		return nil, err
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewRectArray(a.typ, sliced)
}

// RectBuilder builds a RectArray.
type RectBuilder struct {
	typ    schema.Type
	b      *arrowarray.StructBuilder
	fields []*arrowarray.Float64Builder
}

func NewRectBuilder(mem memory.Allocator, typ schema.Type) *RectBuilder {
	b := arrowarray.NewBuilder(mem, typ.Storage()).(*arrowarray.StructBuilder)
	fields := make([]*arrowarray.Float64Builder, 2*typ.Dim().Size())
	for i := range fields {
		fields[i] = b.FieldBuilder(i).(*arrowarray.Float64Builder)
	}
	return &RectBuilder{typ: typ, b: b, fields: fields}
}

func (b *RectBuilder) Append(r geom.Rect) error {
	if r.Dim() != b.typ.Dim() {
		return fmt.Errorf("%w: appending %s box to %s builder", schema.ErrIncompatibleType, r.Dim(), b.typ.Dim())
	}
	size := b.typ.Dim().Size()
	b.b.Append(true)
	for ord := 0; ord < size; ord++ {
		b.fields[ord].Append(ordinate(r.Min, ord))
		b.fields[size+ord].Append(ordinate(r.Max, ord))
	}
	return nil
}

func (b *RectBuilder) AppendGeometry(g geom.Geometry) error {
	r, ok := g.(geom.Rect)
	if !ok {
		return fmt.Errorf("%w: appending %s to box builder", schema.ErrIncompatibleType, g.GeometryType())
	}
	return b.Append(r)
}

func (b *RectBuilder) AppendNull() { b.b.AppendNull() }

func (b *RectBuilder) NewRectArray() (*RectArray, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewRectArray(b.typ, storage)
}

func (b *RectBuilder) NewArray() (Array, error) { return b.NewRectArray() }
func (b *RectBuilder) Release()                 { b.b.Release() }
