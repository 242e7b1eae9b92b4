// Package geom holds the scalar geometry values exchanged between arrays,
// builders and codecs. Values returned by array accessors are views over the
// array's buffers; nothing here copies coordinates unless stated.
package geom

import (
	"fmt"
	"math"

	"github.com/geoarrow/geoarrow-go/schema"
)

// Coord is a single coordinate tuple, ordered x, y[, z][, m].
type Coord []float64

// XY builds a 2D coordinate.
func XY(x, y float64) Coord { return Coord{x, y} }

// XYZ builds a 3D coordinate.
func XYZ(x, y, z float64) Coord { return Coord{x, y, z} }

// XYM builds a 2D coordinate with measure.
func XYM(x, y, m float64) Coord { return Coord{x, y, m} }

// XYZM builds a 3D coordinate with measure.
func XYZM(x, y, z, m float64) Coord { return Coord{x, y, z, m} }

// Sequence is a read-only run of coordinates over either an interleaved
// buffer or per-ordinate separated buffers. The zero value is an empty XY
// interleaved sequence.
type Sequence struct {
	dim       schema.Dimension
	layout    schema.CoordType
	data      []float64    // interleaved, length n*size
	separated [][]float64  // one slice per ordinate, length n each
	n         int
}

// NewSequence wraps an interleaved buffer. The buffer length must be a
// multiple of the dimension size.
func NewSequence(data []float64, dim schema.Dimension) (Sequence, error) {
	size := dim.Size()
	if len(data)%size != 0 {
		return Sequence{}, fmt.Errorf("%w: interleaved buffer length %d is not a multiple of %d",
			schema.ErrMalformedBuffer, len(data), size)
	}
	return Sequence{dim: dim, layout: schema.Interleaved, data: data, n: len(data) / size}, nil
}

// NewSeparatedSequence wraps per-ordinate buffers, one per dimension, all of
// identical length.
func NewSeparatedSequence(bufs [][]float64, dim schema.Dimension) (Sequence, error) {
	if len(bufs) != dim.Size() {
		return Sequence{}, fmt.Errorf("%w: got %d separated buffers for dimension %s",
			schema.ErrMalformedBuffer, len(bufs), dim)
	}
	n := len(bufs[0])
	for i, b := range bufs {
		if len(b) != n {
			return Sequence{}, fmt.Errorf("%w: separated buffer %d has length %d, want %d",
				schema.ErrMalformedBuffer, i, len(b), n)
		}
	}
	return Sequence{dim: dim, layout: schema.Separated, separated: bufs, n: n}, nil
}

// SequenceOf copies coords into a new interleaved sequence. Convenience for
// tests and literal construction.
func SequenceOf(dim schema.Dimension, coords ...Coord) Sequence {
	size := dim.Size()
	data := make([]float64, 0, len(coords)*size)
	for _, c := range coords {
		for ord := 0; ord < size; ord++ {
			if ord < len(c) {
				data = append(data, c[ord])
			} else {
				data = append(data, math.NaN())
			}
		}
	}
	s, _ := NewSequence(data, dim)
	return s
}

// Len returns the number of coordinates.
func (s Sequence) Len() int { return s.n }

// Dim returns the coordinate dimension.
func (s Sequence) Dim() schema.Dimension {
	return s.dim
}

// At returns ordinate ord of coordinate i.
func (s Sequence) At(i, ord int) float64 {
	if s.layout == schema.Interleaved {
		return s.data[i*s.dim.Size()+ord]
	}
	return s.separated[ord][i]
}

// Coord returns coordinate i. For interleaved storage the result aliases the
// underlying buffer.
func (s Sequence) Coord(i int) Coord {
	size := s.dim.Size()
	if s.layout == schema.Interleaved {
		return Coord(s.data[i*size : (i+1)*size])
	}
	c := make(Coord, size)
	for ord := 0; ord < size; ord++ {
		c[ord] = s.separated[ord][i]
	}
	return c
}

// Slice returns the sub-run [start, start+n) sharing storage.
func (s Sequence) Slice(start, n int) Sequence {
	out := s
	out.n = n
	if s.layout == schema.Interleaved {
		size := s.dim.Size()
		out.data = s.data[start*size : (start+n)*size]
		return out
	}
	out.separated = make([][]float64, len(s.separated))
	for ord := range s.separated {
		out.separated[ord] = s.separated[ord][start : start+n]
	}
	return out
}

// Promote copies the sequence to a wider dimension, carrying matching
// ordinates over and padding the rest with NaN. Promoting to the same
// dimension returns the sequence unchanged.
func (s Sequence) Promote(dim schema.Dimension) Sequence {
	if dim == s.dim {
		return s
	}
	out := make([]float64, 0, s.n*dim.Size())
	for i := 0; i < s.n; i++ {
		c := s.Coord(i)
		out = append(out, c[0], c[1])
		if dim.HasZ() {
			out = append(out, s.ordinateOr(c, 'z'))
		}
		if dim.HasM() {
			out = append(out, s.ordinateOr(c, 'm'))
		}
	}
	p, _ := NewSequence(out, dim)
	return p
}

func (s Sequence) ordinateOr(c Coord, ord byte) float64 {
	switch ord {
	case 'z':
		if s.dim.HasZ() {
			return c[2]
		}
	case 'm':
		if s.dim == schema.DimXYM {
			return c[2]
		}
		if s.dim == schema.DimXYZM {
			return c[3]
		}
	}
	return math.NaN()
}

// Equal reports structural equality: same dimension, same length, same
// ordinate values position by position, independent of physical layout.
// NaN ordinates compare equal so padded and empty coordinates round-trip.
func (s Sequence) Equal(other Sequence) bool {
	if s.dim != other.dim || s.n != other.n {
		return false
	}
	size := s.dim.Size()
	for i := 0; i < s.n; i++ {
		for ord := 0; ord < size; ord++ {
			a, b := s.At(i, ord), other.At(i, ord)
			if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
				return false
			}
		}
	}
	return true
}
