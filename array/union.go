package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// unionReader resolves rows of a dense geometry union: one wrapped child
// array per type code, rows dispatched by code and offset.
type unionReader struct {
	u        *arrowarray.DenseUnion
	children map[int8]Array
}

func newUnionReader(u *arrowarray.DenseUnion, coordType schema.CoordType) (*unionReader, error) {
	ut, ok := u.DataType().(*arrow.DenseUnionType)
	if !ok {
		return nil, fmt.Errorf("%w: geometry union must be dense, got %s", schema.ErrMalformedBuffer, u.DataType())
	}
	r := &unionReader{u: u, children: make(map[int8]Array, len(ut.TypeCodes()))}
	for pos, code := range ut.TypeCodes() {
		kind, dim, err := schema.FromTypeID(int8(code))
		if err != nil {
			r.release()
			return nil, err
		}
		child, err := FromArrow(schema.NewType(kind, dim, coordType), u.Field(pos))
		if err != nil {
			r.release()
			return nil, fmt.Errorf("union child %s %s: %w", kind, dim, err)
		}
		r.children[int8(code)] = child
	}
	// Every row must point inside its child.
	for i := 0; i < u.Len(); i++ {
		code := int8(u.RawTypeCodes()[i])
		child, ok := r.children[code]
		if !ok {
			r.release()
			return nil, fmt.Errorf("%w: union row %d has unknown type id %d", schema.ErrMalformedBuffer, i, code)
		}
		if off := int(u.ValueOffset(i)); off < 0 || off >= child.Len() {
			r.release()
			return nil, fmt.Errorf("%w: union row %d offset %d exceeds child length %d",
				schema.ErrMalformedBuffer, i, off, child.Len())
		}
	}
	return r, nil
}

func (r *unionReader) release() {
	for _, c := range r.children {
		c.Release()
	}
}

// row returns the child array and the row's position inside it.
func (r *unionReader) row(i int) (Array, int) {
	code := int8(r.u.RawTypeCodes()[i])
	return r.children[code], int(r.u.ValueOffset(i))
}

func (r *unionReader) typeID(i int) int8 {
	return int8(r.u.RawTypeCodes()[i])
}

func (r *unionReader) isNull(i int) bool {
	child, off := r.row(i)
	return child.IsNull(off)
}

func (r *unionReader) geometry(i int) (geom.Geometry, error) {
	child, off := r.row(i)
	return child.Geometry(off)
}

// unionAppender drives a dense union builder, routing scalars to the child
// builder matching their type id.
type unionAppender struct {
	ub       *arrowarray.DenseUnionBuilder
	children map[int8]Builder
}

func newUnionAppender(ub *arrowarray.DenseUnionBuilder, ut *arrow.DenseUnionType, coordType schema.CoordType) (*unionAppender, error) {
	a := &unionAppender{ub: ub, children: make(map[int8]Builder, len(ut.TypeCodes()))}
	for pos, code := range ut.TypeCodes() {
		kind, dim, err := schema.FromTypeID(int8(code))
		if err != nil {
			return nil, err
		}
		child, err := wrapBuilder(schema.NewType(kind, dim, coordType), ub.Child(pos))
		if err != nil {
			return nil, err
		}
		a.children[int8(code)] = child
	}
	return a, nil
}

func (a *unionAppender) append(g geom.Geometry) error {
	code := schema.TypeID(g.GeometryType(), g.Dim())
	child, ok := a.children[code]
	if !ok {
		return fmt.Errorf("%w: union has no child for %s %s", schema.ErrIncompatibleType, g.GeometryType(), g.Dim())
	}
	a.ub.Append(arrow.UnionTypeCode(code))
	return child.AppendGeometry(g)
}

// appendNull stores a null row in the xy point child, the union's
// convention for nulls.
func (a *unionAppender) appendNull() error {
	code := schema.TypeID(schema.Point, schema.DimXY)
	child, ok := a.children[code]
	if !ok {
		return fmt.Errorf("%w: union has no xy point child for nulls", schema.ErrIncompatibleType)
	}
	a.ub.Append(arrow.UnionTypeCode(code))
	child.AppendNull()
	return nil
}
