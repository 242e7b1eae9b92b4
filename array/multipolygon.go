package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// MultiPolygonArray stores polygons behind three list levels: rows to
// polygons, polygons to rings, rings to coordinates.
type MultiPolygonArray struct {
	typ      schema.Type
	storage  *arrowarray.List
	polygons *arrowarray.List
	rings    *arrowarray.List
	coords   geom.Sequence
}

func NewMultiPolygonArray(typ schema.Type, storage arrow.Array) (*MultiPolygonArray, error) {
	if typ.Kind() != schema.MultiPolygon {
		return nil, fmt.Errorf("%w: multipolygon array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	if err := checkStorage(typ, storage); err != nil {
		return nil, err
	}
	outer, ok := storage.(*arrowarray.List)
	if !ok {
		return nil, fmt.Errorf("%w: multipolygon storage must be a list, got %s",
			schema.ErrMalformedBuffer, storage.DataType())
	}
	polygons, ok := outer.ListValues().(*arrowarray.List)
	if !ok {
		return nil, fmt.Errorf("%w: multipolygon child must be a list, got %s",
			schema.ErrMalformedBuffer, outer.ListValues().DataType())
	}
	rings, ok := polygons.ListValues().(*arrowarray.List)
	if !ok {
		return nil, fmt.Errorf("%w: polygon child must be a list, got %s",
			schema.ErrMalformedBuffer, polygons.ListValues().DataType())
	}
	coords, err := coordSeq(rings.ListValues(), typ.Dim(), typ.CoordLayout())
	if err != nil {
		return nil, err
	}
	if err := validateOffsets(outer, polygons.Len(), "polygons"); err != nil {
		return nil, err
	}
	if err := validateOffsets(polygons, rings.Len(), "rings"); err != nil {
		return nil, err
	}
	if err := validateOffsets(rings, coords.Len(), "vertices"); err != nil {
		return nil, err
	}
	storage.Retain()
	return &MultiPolygonArray{typ: typ, storage: outer, polygons: polygons, rings: rings, coords: coords}, nil
}

func (a *MultiPolygonArray) Type() schema.Type    { return a.typ }
func (a *MultiPolygonArray) Len() int             { return a.storage.Len() }
func (a *MultiPolygonArray) IsNull(i int) bool    { return a.storage.IsNull(i) }
func (a *MultiPolygonArray) Storage() arrow.Array { return a.storage }
func (a *MultiPolygonArray) Retain()              { a.storage.Retain() }
func (a *MultiPolygonArray) Release()             { a.storage.Release() }

func (a *MultiPolygonArray) Value(i int) (geom.MultiPolygon, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return geom.MultiPolygon{}, err
	}
	polyStart, polyEnd := a.storage.ValueOffsets(i)
	polys := make([]geom.Polygon, 0, polyEnd-polyStart)
	for p := polyStart; p < polyEnd; p++ {
		ringStart, ringEnd := a.polygons.ValueOffsets(int(p))
		rings := make([]geom.Sequence, 0, ringEnd-ringStart)
		for r := ringStart; r < ringEnd; r++ {
			start, end := a.rings.ValueOffsets(int(r))
			rings = append(rings, a.coords.Slice(int(start), int(end-start)))
		}
		polys = append(polys, geom.Polygon{Dimension: a.typ.Dim(), Rings: rings})
	}
	return geom.MultiPolygon{Dimension: a.typ.Dim(), Polygons: polys}, nil
}

func (a *MultiPolygonArray) Geometry(i int) (geom.Geometry, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return nil, err
	}
	if a.storage.IsNull(i) {
		return nil, nil
	}
	return a.Value(i)
}

func (a *MultiPolygonArray) Slice(start, length int) (Array, error) {
	if err := sliceCheck(start, length, a.Len()); err != nil {
		return nil, err
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewMultiPolygonArray(a.typ, sliced)
}

// MultiPolygonBuilder builds a MultiPolygonArray.
type MultiPolygonBuilder struct {
	typ      schema.Type
	b        *arrowarray.ListBuilder
	polygons *arrowarray.ListBuilder
	rings    *arrowarray.ListBuilder
	coords   *coordAppender
}

func NewMultiPolygonBuilder(mem memory.Allocator, typ schema.Type) *MultiPolygonBuilder {
	b := arrowarray.NewBuilder(mem, typ.Storage()).(*arrowarray.ListBuilder)
	polygons := b.ValueBuilder().(*arrowarray.ListBuilder)
	rings := polygons.ValueBuilder().(*arrowarray.ListBuilder)
	return &MultiPolygonBuilder{
		typ:      typ,
		b:        b,
		polygons: polygons,
		rings:    rings,
		coords:   newCoordAppender(rings.ValueBuilder(), typ.Dim(), typ.CoordLayout()),
	}
}

func (b *MultiPolygonBuilder) Append(m geom.MultiPolygon) error {
	if !m.IsEmpty() && m.Dim() != b.typ.Dim() {
		return fmt.Errorf("%w: appending %s multipolygon to %s builder", schema.ErrIncompatibleType, m.Dim(), b.typ.Dim())
	}
	b.b.Append(true)
	for _, poly := range m.Polygons {
		b.polygons.Append(true)
		for _, ring := range poly.Rings {
			b.rings.Append(true)
			b.coords.appendSeq(ring)
		}
	}
	return nil
}

func (b *MultiPolygonBuilder) AppendGeometry(g geom.Geometry) error {
	switch v := g.(type) {
	case geom.MultiPolygon:
		return b.Append(v)
	case geom.Polygon:
		// A polygon appends as a single-member multi.
		if v.IsEmpty() {
			return b.Append(geom.MultiPolygon{Dimension: b.typ.Dim()})
		}
		return b.Append(geom.MultiPolygon{Dimension: v.Dim(), Polygons: []geom.Polygon{v}})
	default:
		return fmt.Errorf("%w: appending %s to multipolygon builder", schema.ErrIncompatibleType, g.GeometryType())
	}
}

func (b *MultiPolygonBuilder) AppendNull() { b.b.AppendNull() }

func (b *MultiPolygonBuilder) NewMultiPolygonArray() (*MultiPolygonArray, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewMultiPolygonArray(b.typ, storage)
}

func (b *MultiPolygonBuilder) NewArray() (Array, error) { return b.NewMultiPolygonArray() }
func (b *MultiPolygonBuilder) Release()                 { b.b.Release() }
