package array

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// Chunked is an ordered run of same-typed arrays read as one logical
// column.
type Chunked struct {
	typ    schema.Type
	chunks []Array
	length int
}

// NewChunked groups chunks under one descriptor. Every chunk must carry
// the same type; an empty chunk list needs an explicit descriptor via
// NewChunkedOfType.
func NewChunked(chunks []Array) (*Chunked, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: chunked column needs at least one chunk", schema.ErrIncompatibleType)
	}
	typ := chunks[0].Type()
	return newChunked(typ, chunks)
}

// NewChunkedOfType groups chunks, possibly none, under the descriptor.
func NewChunkedOfType(typ schema.Type, chunks []Array) (*Chunked, error) {
	return newChunked(typ, chunks)
}

func newChunked(typ schema.Type, chunks []Array) (*Chunked, error) {
	length := 0
	for i, c := range chunks {
		if !c.Type().Equal(typ) {
			return nil, fmt.Errorf("%w: chunk %d is %s, column is %s", schema.ErrIncompatibleType, i, c.Type(), typ)
		}
		c.Retain()
		length += c.Len()
	}
	return &Chunked{typ: typ, chunks: chunks, length: length}, nil
}

func (c *Chunked) Type() schema.Type { return c.typ }
func (c *Chunked) Len() int          { return c.length }
func (c *Chunked) NumChunks() int    { return len(c.chunks) }
func (c *Chunked) Chunk(i int) Array { return c.chunks[i] }

func (c *Chunked) Release() {
	for _, chunk := range c.chunks {
		chunk.Release()
	}
}

// resolve maps a global row index to (chunk, local index).
func (c *Chunked) resolve(i int) (Array, int, error) {
	if i < 0 || i >= c.length {
		return nil, 0, fmt.Errorf("%w: index %d of chunked column length %d", schema.ErrIndexOutOfRange, i, c.length)
	}
	for _, chunk := range c.chunks {
		if i < chunk.Len() {
			return chunk, i, nil
		}
		i -= chunk.Len()
	}
	return nil, 0, fmt.Errorf("%w: index %d of chunked column length %d", schema.ErrIndexOutOfRange, i, c.length)
}

// IsNull reports whether global row i is null.
func (c *Chunked) IsNull(i int) bool {
	chunk, local, err := c.resolve(i)
	if err != nil {
		return false
	}
	return chunk.IsNull(local)
}

// Geometry returns the scalar at global row i.
func (c *Chunked) Geometry(i int) (geom.Geometry, error) {
	chunk, local, err := c.resolve(i)
	if err != nil {
		return nil, err
	}
	return chunk.Geometry(local)
}

// Concat rebuilds the column as a single array.
func (c *Chunked) Concat(mem memory.Allocator) (Array, error) {
	if len(c.chunks) == 1 {
		c.chunks[0].Retain()
		return c.chunks[0], nil
	}
	builder, err := NewBuilder(mem, c.typ)
	if err != nil {
		return nil, err
	}
	defer builder.Release()
	for _, chunk := range c.chunks {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				builder.AppendNull()
				continue
			}
			g, err := chunk.Geometry(i)
			if err != nil {
				return nil, err
			}
			if err := builder.AppendGeometry(g); err != nil {
				return nil, err
			}
		}
	}
	return builder.NewArray()
}
