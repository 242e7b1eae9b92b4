package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// GeometryCollectionArray stores collections as a list over a dense union
// of the primitive and multi kinds of the collection's dimension.
type GeometryCollectionArray struct {
	typ     schema.Type
	storage *arrowarray.List
	reader  *unionReader
}

func NewGeometryCollectionArray(typ schema.Type, storage arrow.Array) (*GeometryCollectionArray, error) {
	if typ.Kind() != schema.GeometryCollection {
		return nil, fmt.Errorf("%w: geometrycollection array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	if err := checkStorage(typ, storage); err != nil {
		return nil, err
	}
	list, ok := storage.(*arrowarray.List)
	if !ok {
		return nil, fmt.Errorf("%w: geometrycollection storage must be a list, got %s",
			schema.ErrMalformedBuffer, storage.DataType())
	}
	union, ok := list.ListValues().(*arrowarray.DenseUnion)
	if !ok {
		return nil, fmt.Errorf("%w: geometrycollection child must be a dense union, got %s",
			schema.ErrMalformedBuffer, list.ListValues().DataType())
	}
	if err := validateOffsets(list, union.Len(), "geometries"); err != nil {
		return nil, err
	}
	reader, err := newUnionReader(union, typ.CoordLayout())
	if err != nil {
		return nil, err
	}
	storage.Retain()
	return &GeometryCollectionArray{typ: typ, storage: list, reader: reader}, nil
}

func (a *GeometryCollectionArray) Type() schema.Type    { return a.typ }
func (a *GeometryCollectionArray) Len() int             { return a.storage.Len() }
func (a *GeometryCollectionArray) IsNull(i int) bool    { return a.storage.IsNull(i) }
func (a *GeometryCollectionArray) Storage() arrow.Array { return a.storage }
func (a *GeometryCollectionArray) Retain()              { a.storage.Retain() }

func (a *GeometryCollectionArray) Release() {
	a.reader.release()
	a.storage.Release()
}

func (a *GeometryCollectionArray) Value(i int) (geom.GeometryCollection, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return geom.GeometryCollection{}, err
	}
	start, end := a.storage.ValueOffsets(i)
	geoms := make([]geom.Geometry, 0, end-start)
	for pos := start; pos < end; pos++ {
		g, err := a.reader.geometry(int(pos))
		if err != nil {
			return geom.GeometryCollection{}, err
		}
		geoms = append(geoms, g)
	}
	return geom.GeometryCollection{Dimension: a.typ.Dim(), Geoms: geoms}, nil
}

func (a *GeometryCollectionArray) Geometry(i int) (geom.Geometry, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return nil, err
	}
	if a.storage.IsNull(i) {
		return nil, nil
	}
	return a.Value(i)
}

func (a *GeometryCollectionArray) Slice(start, length int) (Array, error) {
	if err := sliceCheck(start, length, a.Len()); err != nil {
		return nil, err
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewGeometryCollectionArray(a.typ, sliced)
}

// GeometryCollectionBuilder builds a GeometryCollectionArray.
type GeometryCollectionBuilder struct {
	typ      schema.Type
	b        *arrowarray.ListBuilder
	appender *unionAppender
}

func NewGeometryCollectionBuilder(mem memory.Allocator, typ schema.Type) *GeometryCollectionBuilder {
	b := arrowarray.NewBuilder(mem, typ.Storage()).(*arrowarray.ListBuilder)
	gcb, err := wrapGeometryCollectionBuilder(typ, b)
	if err != nil {
		panic(err)
	}
	return gcb
}

func wrapGeometryCollectionBuilder(typ schema.Type, b *arrowarray.ListBuilder) (*GeometryCollectionBuilder, error) {
	ub := b.ValueBuilder().(*arrowarray.DenseUnionBuilder)
	ut := ub.Type().(*arrow.DenseUnionType)
	appender, err := newUnionAppender(ub, ut, typ.CoordLayout())
	if err != nil {
		return nil, err
	}
	return &GeometryCollectionBuilder{typ: typ, b: b, appender: appender}, nil
}

func (b *GeometryCollectionBuilder) Append(gc geom.GeometryCollection) error {
	if !gc.IsEmpty() && gc.Dim() != b.typ.Dim() {
		return fmt.Errorf("%w: appending %s collection to %s builder", schema.ErrIncompatibleType, gc.Dim(), b.typ.Dim())
	}
	for _, g := range gc.Geoms {
		if g.GeometryType() == schema.GeometryCollection {
			return fmt.Errorf("%w: nested geometry collections are not storable", schema.ErrUnsupportedCombination)
		}
		if g.Dim() != b.typ.Dim() {
			return fmt.Errorf("%w: %s member in %s collection", schema.ErrIncompatibleType, g.Dim(), b.typ.Dim())
		}
	}
	b.b.Append(true)
	for _, g := range gc.Geoms {
		if err := b.appender.append(g); err != nil {
			return err
		}
	}
	return nil
}

func (b *GeometryCollectionBuilder) AppendGeometry(g geom.Geometry) error {
	gc, ok := g.(geom.GeometryCollection)
	if !ok {
		return fmt.Errorf("%w: appending %s to geometrycollection builder", schema.ErrIncompatibleType, g.GeometryType())
	}
	return b.Append(gc)
}

func (b *GeometryCollectionBuilder) AppendNull() { b.b.AppendNull() }

func (b *GeometryCollectionBuilder) NewGeometryCollectionArray() (*GeometryCollectionArray, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewGeometryCollectionArray(b.typ, storage)
}

func (b *GeometryCollectionBuilder) NewArray() (Array, error) { return b.NewGeometryCollectionArray() }
func (b *GeometryCollectionBuilder) Release()                 { b.b.Release() }
