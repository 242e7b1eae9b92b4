package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// LineStringArray stores one coordinate run per row behind a single list
// level.
type LineStringArray struct {
	typ     schema.Type
	storage *arrowarray.List
	coords  geom.Sequence
}

func NewLineStringArray(typ schema.Type, storage arrow.Array) (*LineStringArray, error) {
	if typ.Kind() != schema.LineString {
		return nil, fmt.Errorf("%w: linestring array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	list, coords, err := singleListStorage(typ, storage, "vertices")
	if err != nil {
		return nil, err
	}
	storage.Retain()
	return &LineStringArray{typ: typ, storage: list, coords: coords}, nil
}

// singleListStorage validates a one-level list of coordinates and returns
// the list plus the sequence over its child.
func singleListStorage(typ schema.Type, storage arrow.Array, level string) (*arrowarray.List, geom.Sequence, error) {
	if err := checkStorage(typ, storage); err != nil {
		return nil, geom.Sequence{}, err
	}
	list, ok := storage.(*arrowarray.List)
	if !ok {
		return nil, geom.Sequence{}, fmt.Errorf("%w: %s storage must be a list, got %s",
			schema.ErrMalformedBuffer, typ.Kind(), storage.DataType())
	}
	coords, err := coordSeq(list.ListValues(), typ.Dim(), typ.CoordLayout())
	if err != nil {
		return nil, geom.Sequence{}, err
	}
	if err := validateOffsets(list, coords.Len(), level); err != nil {
		return nil, geom.Sequence{}, err
	}
	return list, coords, nil
}

func (a *LineStringArray) Type() schema.Type    { return a.typ }
func (a *LineStringArray) Len() int             { return a.storage.Len() }
func (a *LineStringArray) IsNull(i int) bool    { return a.storage.IsNull(i) }
func (a *LineStringArray) Storage() arrow.Array { return a.storage }
func (a *LineStringArray) Retain()              { a.storage.Retain() }
func (a *LineStringArray) Release()             { a.storage.Release() }

// Value returns the line string at row i as a view over the coordinate
// buffer.
func (a *LineStringArray) Value(i int) (geom.LineString, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return geom.LineString{}, err
	}
	start, end := a.storage.ValueOffsets(i)
	return geom.LineString{Coords: a.coords.Slice(int(start), int(end-start))}, nil
}

func (a *LineStringArray) Geometry(i int) (geom.Geometry, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return nil, err
	}
	if a.storage.IsNull(i) {
		return nil, nil
	}
	return a.Value(i)
}

func (a *LineStringArray) Slice(start, length int) (Array, error) {
	if err := sliceCheck(start, length, a.Len()); err != nil {
		return nil, err
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewLineStringArray(a.typ, sliced)
}

// LineStringBuilder builds a LineStringArray.
type LineStringBuilder struct {
	typ    schema.Type
	b      *arrowarray.ListBuilder
	coords *coordAppender
}

func NewLineStringBuilder(mem memory.Allocator, typ schema.Type) *LineStringBuilder {
	b := arrowarray.NewBuilder(mem, typ.Storage()).(*arrowarray.ListBuilder)
	return &LineStringBuilder{
		typ:    typ,
		b:      b,
		coords: newCoordAppender(b.ValueBuilder(), typ.Dim(), typ.CoordLayout()),
	}
}

func (b *LineStringBuilder) Append(l geom.LineString) error {
	if l.Coords.Len() > 0 && l.Dim() != b.typ.Dim() {
		return fmt.Errorf("%w: appending %s linestring to %s builder", schema.ErrIncompatibleType, l.Dim(), b.typ.Dim())
	}
	b.b.Append(true)
	b.coords.appendSeq(l.Coords)
	return nil
}

func (b *LineStringBuilder) AppendGeometry(g geom.Geometry) error {
	l, ok := g.(geom.LineString)
	if !ok {
		return fmt.Errorf("%w: appending %s to linestring builder", schema.ErrIncompatibleType, g.GeometryType())
	}
	return b.Append(l)
}

func (b *LineStringBuilder) AppendNull() { b.b.AppendNull() }

func (b *LineStringBuilder) NewLineStringArray() (*LineStringArray, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewLineStringArray(b.typ, storage)
}

func (b *LineStringBuilder) NewArray() (Array, error) { return b.NewLineStringArray() }
func (b *LineStringBuilder) Release()                 { b.b.Release() }
