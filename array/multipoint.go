package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// MultiPointArray stores one coordinate run per row, each coordinate an
// independent point.
type MultiPointArray struct {
	typ     schema.Type
	storage *arrowarray.List
	coords  geom.Sequence
}

func NewMultiPointArray(typ schema.Type, storage arrow.Array) (*MultiPointArray, error) {
	if typ.Kind() != schema.MultiPoint {
		return nil, fmt.Errorf("%w: multipoint array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	list, coords, err := singleListStorage(typ, storage, "points")
	if err != nil {
		return nil, err
	}
	storage.Retain()
	return &MultiPointArray{typ: typ, storage: list, coords: coords}, nil
}

func (a *MultiPointArray) Type() schema.Type    { return a.typ }
func (a *MultiPointArray) Len() int             { return a.storage.Len() }
func (a *MultiPointArray) IsNull(i int) bool    { return a.storage.IsNull(i) }
func (a *MultiPointArray) Storage() arrow.Array { return a.storage }
func (a *MultiPointArray) Retain()              { a.storage.Retain() }
func (a *MultiPointArray) Release()             { a.storage.Release() }

func (a *MultiPointArray) Value(i int) (geom.MultiPoint, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return geom.MultiPoint{}, err
	}
	start, end := a.storage.ValueOffsets(i)
	return geom.MultiPoint{Points: a.coords.Slice(int(start), int(end-start))}, nil
}

func (a *MultiPointArray) Geometry(i int) (geom.Geometry, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return nil, err
	}
	if a.storage.IsNull(i) {
		return nil, nil
	}
	return a.Value(i)
}

func (a *MultiPointArray) Slice(start, length int) (Array, error) {
	if err := sliceCheck(start, length, a.Len()); err != nil {
		return nil, err
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewMultiPointArray(a.typ, sliced)
}

// MultiPointBuilder builds a MultiPointArray.
type MultiPointBuilder struct {
	typ    schema.Type
	b      *arrowarray.ListBuilder
	coords *coordAppender
}

func NewMultiPointBuilder(mem memory.Allocator, typ schema.Type) *MultiPointBuilder {
	b := arrowarray.NewBuilder(mem, typ.Storage()).(*arrowarray.ListBuilder)
	return &MultiPointBuilder{
		typ:    typ,
		b:      b,
		coords: newCoordAppender(b.ValueBuilder(), typ.Dim(), typ.CoordLayout()),
	}
}

func (b *MultiPointBuilder) Append(m geom.MultiPoint) error {
	if m.Points.Len() > 0 && m.Dim() != b.typ.Dim() {
		return fmt.Errorf("%w: appending %s multipoint to %s builder", schema.ErrIncompatibleType, m.Dim(), b.typ.Dim())
	}
	b.b.Append(true)
	b.coords.appendSeq(m.Points)
	return nil
}

func (b *MultiPointBuilder) AppendGeometry(g geom.Geometry) error {
	switch v := g.(type) {
	case geom.MultiPoint:
		return b.Append(v)
	case geom.Point:
		// A point appends as a single-member multipoint.
		if v.IsEmpty() {
			return b.Append(geom.MultiPoint{Points: geom.SequenceOf(b.typ.Dim())})
		}
		return b.Append(geom.MultiPoint{Points: v.Coords})
	default:
		return fmt.Errorf("%w: appending %s to multipoint builder", schema.ErrIncompatibleType, g.GeometryType())
	}
}

func (b *MultiPointBuilder) AppendNull() { b.b.AppendNull() }

func (b *MultiPointBuilder) NewMultiPointArray() (*MultiPointArray, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewMultiPointArray(b.typ, storage)
}

func (b *MultiPointBuilder) NewArray() (Array, error) { return b.NewMultiPointArray() }
func (b *MultiPointBuilder) Release()                 { b.b.Release() }
