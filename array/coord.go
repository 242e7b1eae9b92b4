package array

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// coordSeq wraps a coordinate-level storage array (fixed-size list or
// struct) as a zero-copy sequence over its buffers. The storage array's own
// offset is applied, so index 0 of the sequence is the array's first
// logical coordinate.
func coordSeq(arr arrow.Array, dim schema.Dimension, layout schema.CoordType) (geom.Sequence, error) {
	switch layout {
	case schema.Interleaved:
		fsl, ok := arr.(*arrowarray.FixedSizeList)
		if !ok {
			return geom.Sequence{}, fmt.Errorf("%w: interleaved coordinates must be a fixed-size list, got %s",
				schema.ErrMalformedBuffer, arr.DataType())
		}
		child, ok := fsl.ListValues().(*arrowarray.Float64)
		if !ok {
			return geom.Sequence{}, fmt.Errorf("%w: coordinate values must be float64, got %s",
				schema.ErrMalformedBuffer, fsl.ListValues().DataType())
		}
		size := dim.Size()
		vals := child.Float64Values()
		start := fsl.Data().Offset() * size
		end := start + fsl.Len()*size
		if end > len(vals) {
			return geom.Sequence{}, fmt.Errorf("%w: coordinate buffer holds %d values, need %d",
				schema.ErrMalformedBuffer, len(vals), end)
		}
		return geom.NewSequence(vals[start:end], dim)
	case schema.Separated:
		st, ok := arr.(*arrowarray.Struct)
		if !ok {
			return geom.Sequence{}, fmt.Errorf("%w: separated coordinates must be a struct, got %s",
				schema.ErrMalformedBuffer, arr.DataType())
		}
		size := dim.Size()
		if st.NumField() != size {
			return geom.Sequence{}, fmt.Errorf("%w: separated coordinates have %d ordinate buffers, dimension %s needs %d",
				schema.ErrMalformedBuffer, st.NumField(), dim, size)
		}
		ords := make([][]float64, size)
		for i := 0; i < size; i++ {
			f, ok := st.Field(i).(*arrowarray.Float64)
			if !ok {
				return geom.Sequence{}, fmt.Errorf("%w: ordinate buffer %d must be float64, got %s",
					schema.ErrMalformedBuffer, i, st.Field(i).DataType())
			}
			ords[i] = f.Float64Values()
		}
		return geom.NewSeparatedSequence(ords, dim)
	default:
		return geom.Sequence{}, fmt.Errorf("%w: unknown coordinate layout", schema.ErrMalformedBuffer)
	}
}

// coordAppender drives the builders under one coordinate level.
type coordAppender struct {
	dim    schema.Dimension
	layout schema.CoordType

	fsl  *arrowarray.FixedSizeListBuilder
	vals *arrowarray.Float64Builder

	st     *arrowarray.StructBuilder
	fields []*arrowarray.Float64Builder
}

func newCoordAppender(b arrowarray.Builder, dim schema.Dimension, layout schema.CoordType) *coordAppender {
	a := &coordAppender{dim: dim, layout: layout}
	if layout == schema.Interleaved {
		a.fsl = b.(*arrowarray.FixedSizeListBuilder)
		a.vals = a.fsl.ValueBuilder().(*arrowarray.Float64Builder)
		return a
	}
	a.st = b.(*arrowarray.StructBuilder)
	a.fields = make([]*arrowarray.Float64Builder, dim.Size())
	for i := range a.fields {
		a.fields[i] = a.st.FieldBuilder(i).(*arrowarray.Float64Builder)
	}
	return a
}

// append adds one coordinate, NaN-padding ordinates the value does not
// carry.
func (a *coordAppender) append(c geom.Coord) {
	size := a.dim.Size()
	if a.layout == schema.Interleaved {
		a.fsl.Append(true)
		for ord := 0; ord < size; ord++ {
			a.vals.Append(ordinate(c, ord))
		}
		return
	}
	a.st.Append(true)
	for ord := 0; ord < size; ord++ {
		a.fields[ord].Append(ordinate(c, ord))
	}
}

// appendSeq adds every coordinate of a sequence.
func (a *coordAppender) appendSeq(s geom.Sequence) {
	for i := 0; i < s.Len(); i++ {
		a.append(s.Coord(i))
	}
}

// appendNull adds a null coordinate slot.
func (a *coordAppender) appendNull() {
	if a.layout == schema.Interleaved {
		a.fsl.AppendNull()
		return
	}
	a.st.AppendNull()
}

func ordinate(c geom.Coord, ord int) float64 {
	if ord < len(c) {
		return c[ord]
	}
	return math.NaN()
}
