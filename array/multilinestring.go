package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// MultiLineStringArray stores line strings behind two list levels: rows to
// line strings, line strings to coordinates.
type MultiLineStringArray struct {
	typ     schema.Type
	storage *arrowarray.List
	lines   *arrowarray.List
	coords  geom.Sequence
}

func NewMultiLineStringArray(typ schema.Type, storage arrow.Array) (*MultiLineStringArray, error) {
	if typ.Kind() != schema.MultiLineString {
		return nil, fmt.Errorf("%w: multilinestring array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	outer, inner, coords, err := doubleListStorage(typ, storage, "linestrings", "vertices")
	if err != nil {
		return nil, err
	}
	storage.Retain()
	return &MultiLineStringArray{typ: typ, storage: outer, lines: inner, coords: coords}, nil
}

func (a *MultiLineStringArray) Type() schema.Type    { return a.typ }
func (a *MultiLineStringArray) Len() int             { return a.storage.Len() }
func (a *MultiLineStringArray) IsNull(i int) bool    { return a.storage.IsNull(i) }
func (a *MultiLineStringArray) Storage() arrow.Array { return a.storage }
func (a *MultiLineStringArray) Retain()              { a.storage.Retain() }
func (a *MultiLineStringArray) Release()             { a.storage.Release() }

func (a *MultiLineStringArray) Value(i int) (geom.MultiLineString, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return geom.MultiLineString{}, err
	}
	lineStart, lineEnd := a.storage.ValueOffsets(i)
	lines := make([]geom.Sequence, 0, lineEnd-lineStart)
	for l := lineStart; l < lineEnd; l++ {
		start, end := a.lines.ValueOffsets(int(l))
		lines = append(lines, a.coords.Slice(int(start), int(end-start)))
	}
	return geom.MultiLineString{Dimension: a.typ.Dim(), Lines: lines}, nil
}

func (a *MultiLineStringArray) Geometry(i int) (geom.Geometry, error) {
	if err := boundsCheck(i, a.Len()); err != nil {
		return nil, err
	}
	if a.storage.IsNull(i) {
		return nil, nil
	}
	return a.Value(i)
}

func (a *MultiLineStringArray) Slice(start, length int) (Array, error) {
	if err := sliceCheck(start, length, a.Len()); err != nil {
		return nil, err
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewMultiLineStringArray(a.typ, sliced)
}

// MultiLineStringBuilder builds a MultiLineStringArray.
type MultiLineStringBuilder struct {
	typ    schema.Type
	b      *arrowarray.ListBuilder
	lines  *arrowarray.ListBuilder
	coords *coordAppender
}

func NewMultiLineStringBuilder(mem memory.Allocator, typ schema.Type) *MultiLineStringBuilder {
	b := arrowarray.NewBuilder(mem, typ.Storage()).(*arrowarray.ListBuilder)
	lines := b.ValueBuilder().(*arrowarray.ListBuilder)
	return &MultiLineStringBuilder{
		typ:    typ,
		b:      b,
		lines:  lines,
		coords: newCoordAppender(lines.ValueBuilder(), typ.Dim(), typ.CoordLayout()),
	}
}

func (b *MultiLineStringBuilder) Append(m geom.MultiLineString) error {
	if !m.IsEmpty() && m.Dim() != b.typ.Dim() {
		return fmt.Errorf("%w: appending %s multilinestring to %s builder", schema.ErrIncompatibleType, m.Dim(), b.typ.Dim())
	}
	b.b.Append(true)
	for _, line := range m.Lines {
		b.lines.Append(true)
		b.coords.appendSeq(line)
	}
	return nil
}

func (b *MultiLineStringBuilder) AppendGeometry(g geom.Geometry) error {
	switch v := g.(type) {
	case geom.MultiLineString:
		return b.Append(v)
	case geom.LineString:
		// A line string appends as a single-member multi.
		if v.IsEmpty() {
			return b.Append(geom.MultiLineString{Dimension: b.typ.Dim()})
		}
		return b.Append(geom.MultiLineString{Dimension: v.Dim(), Lines: []geom.Sequence{v.Coords}})
	default:
		return fmt.Errorf("%w: appending %s to multilinestring builder", schema.ErrIncompatibleType, g.GeometryType())
	}
}

func (b *MultiLineStringBuilder) AppendNull() { b.b.AppendNull() }

func (b *MultiLineStringBuilder) NewMultiLineStringArray() (*MultiLineStringArray, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewMultiLineStringArray(b.typ, storage)
}

func (b *MultiLineStringBuilder) NewArray() (Array, error) { return b.NewMultiLineStringArray() }
func (b *MultiLineStringBuilder) Release()                 { b.b.Release() }
