package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// PointArray stores one coordinate per row.
type PointArray struct {
	typ     schema.Type
	storage arrow.Array
	coords  geom.Sequence
}

// NewPointArray wraps point storage, validating shape and buffer lengths.
func NewPointArray(typ schema.Type, storage arrow.Array) (*PointArray, error) {
	if typ.Kind() != schema.Point {
		return nil, fmt.Errorf("%w: point array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	if err := checkStorage(typ, storage); err != nil {
		return nil, err
	}
	coords, err := coordSeq(storage, typ.Dim(), typ.CoordLayout())
	if err != nil {
		return nil, err
	}
	storage.Retain()
	return &PointArray{typ: typ, storage: storage, coords: coords}, nil
}

func (a *PointArray) Type() schema.Type    { return a.typ }
func (a *PointArray) Len() int             { return a.storage.Len() }
func (a *PointArray) IsNull(i int) bool    { return a.storage.IsNull(i) }
func (a *PointArray) Storage() arrow.Array { return a.storage }
func (a *PointArray) Retain()              { a.storage.Retain() }
func (a *PointArray) Release()             { a.storage.Release() }

// Value returns the point at row i. Null rows read as empty points; use
// IsNull to tell them apart.
func (a *PointArray) Value(i int) (geom.Point, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return geom.Point{}, err
	}
	if a.storage.IsNull(i) {
		return geom.NewEmptyPoint(a.typ.Dim()), nil
	}
	return geom.Point{Coords: a.coords.Slice(i, 1)}, nil
}

func (a *PointArray) Geometry(i int) (geom.Geometry, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return nil, err
	}
	if a.storage.IsNull(i) {
		return nil, nil
	}
	return geom.Point{Coords: a.coords.Slice(i, 1)}, nil
}

func (a *PointArray) Slice(start, length int) (Array, error) {
	if err := sliceCheck(start, length, a.Len()); err != nil {
		return nil, err
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewPointArray(a.typ, sliced)
}

// PointBuilder builds a PointArray.
type PointBuilder struct {
	typ    schema.Type
	b      arrowarray.Builder
	coords *coordAppender
}

func NewPointBuilder(mem memory.Allocator, typ schema.Type) *PointBuilder {
	b := arrowarray.NewBuilder(mem, typ.Storage())
	return &PointBuilder{typ: typ, b: b, coords: newCoordAppender(b, typ.Dim(), typ.CoordLayout())}
}

// Append adds one point. Empty points are stored as an all-NaN coordinate,
// distinct from a null row.
func (b *PointBuilder) Append(p geom.Point) error {
	if p.Dim() != b.typ.Dim() {
		return fmt.Errorf("%w: appending %s point to %s builder", schema.ErrIncompatibleType, p.Dim(), b.typ.Dim())
	}
	b.coords.append(p.Coord())
	return nil
}

func (b *PointBuilder) AppendGeometry(g geom.Geometry) error {
	p, ok := g.(geom.Point)
	if !ok {
		return fmt.Errorf("%w: appending %s to point builder", schema.ErrIncompatibleType, g.GeometryType())
	}
	return b.Append(p)
}

func (b *PointBuilder) AppendNull() { b.coords.appendNull() }

func (b *PointBuilder) NewPointArray() (*PointArray, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewPointArray(b.typ, storage)
}

func (b *PointBuilder) NewArray() (Array, error) { return b.NewPointArray() }
func (b *PointBuilder) Release()                 { b.b.Release() }
