package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// PolygonArray stores rings behind two list levels: rows to rings, rings
// to coordinates.
type PolygonArray struct {
	typ     schema.Type
	storage *arrowarray.List
	rings   *arrowarray.List
	coords  geom.Sequence
}

func NewPolygonArray(typ schema.Type, storage arrow.Array) (*PolygonArray, error) {
	if typ.Kind() != schema.Polygon {
		return nil, fmt.Errorf("%w: polygon array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	outer, inner, coords, err := doubleListStorage(typ, storage, "rings", "vertices")
	if err != nil {
		return nil, err
	}
	storage.Retain()
	return &PolygonArray{typ: typ, storage: outer, rings: inner, coords: coords}, nil
}

// doubleListStorage validates two nested list levels over coordinates.
func doubleListStorage(typ schema.Type, storage arrow.Array, outerLevel, innerLevel string) (*arrowarray.List, *arrowarray.List, geom.Sequence, error) {
	if err := checkStorage(typ, storage); err != nil {
		return nil, nil, geom.Sequence{}, err
	}
	outer, ok := storage.(*arrowarray.List)
	if !ok {
		return nil, nil, geom.Sequence{}, fmt.Errorf("%w: %s storage must be a list, got %s",
			schema.ErrMalformedBuffer, typ.Kind(), storage.DataType())
	}
	inner, ok := outer.ListValues().(*arrowarray.List)
	if !ok {
		return nil, nil, geom.Sequence{}, fmt.Errorf("%w: %s child must be a list, got %s",
			schema.ErrMalformedBuffer, typ.Kind(), outer.ListValues().DataType())
	}
	coords, err := coordSeq(inner.ListValues(), typ.Dim(), typ.CoordLayout())
	if err != nil {
		return nil, nil, geom.Sequence{}, err
	}
	if err := validateOffsets(outer, inner.Len(), outerLevel); err != nil {
		return nil, nil, geom.Sequence{}, err
	}
	if err := validateOffsets(inner, coords.Len(), innerLevel); err != nil {
		return nil, nil, geom.Sequence{}, err
	}
	return outer, inner, coords, nil
}

func (a *PolygonArray) Type() schema.Type    { return a.typ }
func (a *PolygonArray) Len() int             { return a.storage.Len() }
func (a *PolygonArray) IsNull(i int) bool    { return a.storage.IsNull(i) }
func (a *PolygonArray) Storage() arrow.Array { return a.storage }
func (a *PolygonArray) Retain()              { a.storage.Retain() }
func (a *PolygonArray) Release()             { a.storage.Release() }

func (a *PolygonArray) Value(i int) (geom.Polygon, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return geom.Polygon{}, err
	}
	ringStart, ringEnd := a.storage.ValueOffsets(i)
	rings := make([]geom.Sequence, 0, ringEnd-ringStart)
	for r := ringStart; r < ringEnd; r++ {
		start, end := a.rings.ValueOffsets(int(r))
		rings = append(rings, a.coords.Slice(int(start), int(end-start)))
	}
	return geom.Polygon{Dimension: a.typ.Dim(), Rings: rings}, nil
}

func (a *PolygonArray) Geometry(i int) (geom.Geometry, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return nil, err
	}
	if a.storage.IsNull(i) {
		return nil, nil
	}
	return a.Value(i)
}

func (a *PolygonArray) Slice(start, length int) (Array, error) {
	if err := sliceCheck(start, length, a.Len()); err != nil {
		return nil, err
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewPolygonArray(a.typ, sliced)
}

// PolygonBuilder builds a PolygonArray.
type PolygonBuilder struct {
	typ    schema.Type
	b      *arrowarray.ListBuilder
	rings  *arrowarray.ListBuilder
	coords *coordAppender
}

func NewPolygonBuilder(mem memory.Allocator, typ schema.Type) *PolygonBuilder {
	b := arrowarray.NewBuilder(mem, typ.Storage()).(*arrowarray.ListBuilder)
	rings := b.ValueBuilder().(*arrowarray.ListBuilder)
	return &PolygonBuilder{
		typ:    typ,
		b:      b,
		rings:  rings,
		coords: newCoordAppender(rings.ValueBuilder(), typ.Dim(), typ.CoordLayout()),
	}
}

func (b *PolygonBuilder) Append(p geom.Polygon) error {
	if !p.IsEmpty() && p.Dim() != b.typ.Dim() {
		return fmt.Errorf("%w: appending %s polygon to %s builder", schema.ErrIncompatibleType, p.Dim(), b.typ.Dim())
	}
	b.b.Append(true)
	for _, ring := range p.Rings {
		b.rings.Append(true)
		b.coords.appendSeq(ring)
	}
	return nil
}

func (b *PolygonBuilder) AppendGeometry(g geom.Geometry) error {
	p, ok := g.(geom.Polygon)
	if !ok {
		return fmt.Errorf("%w: appending %s to polygon builder", schema.ErrIncompatibleType, g.GeometryType())
	}
	return b.Append(p)
}

func (b *PolygonBuilder) AppendNull() { b.b.AppendNull() }

func (b *PolygonBuilder) NewPolygonArray() (*PolygonArray, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewPolygonArray(b.typ, storage)
}

func (b *PolygonBuilder) NewArray() (Array, error) { return b.NewPolygonArray() }
func (b *PolygonBuilder) Release()                 { b.b.Release() }
