package wkb

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// Array is a column of WKB-encoded geometries over Arrow binary storage.
// Rows are validated and decoded lazily, when read.
type Array struct {
	typ     schema.Type
	storage *arrowarray.Binary
}

var _ garray.Array = (*Array)(nil)

// NewArray wraps binary storage as a WKB column.
func NewArray(typ schema.Type, storage arrow.Array) (*Array, error) {
	if typ.Kind() != schema.WKB {
		return nil, fmt.Errorf("%w: wkb array cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	bin, ok := storage.(*arrowarray.Binary)
	if !ok {
		return nil, fmt.Errorf("%w: wkb storage must be binary, got %s", schema.ErrMalformedBuffer, storage.DataType())
	}
	storage.Retain()
	return &Array{typ: typ, storage: bin}, nil
}

func (a *Array) Type() schema.Type    { return a.typ }
func (a *Array) Len() int             { return a.storage.Len() }
func (a *Array) IsNull(i int) bool    { return a.storage.IsNull(i) }
func (a *Array) Storage() arrow.Array { return a.storage }
func (a *Array) Retain()              { a.storage.Retain() }
func (a *Array) Release()             { a.storage.Release() }

// Value returns the raw WKB bytes of row i without decoding.
func (a *Array) Value(i int) ([]byte, error) {
	if i < 0 || i >= a.Len() {
		return nil, fmt.Errorf("%w: index %d of array length %d", schema.ErrIndexOutOfRange, i, a.Len())
	}
	return a.storage.Value(i), nil
}

// ScanType reads only the header of row i: the kind and dimension without
// decoding coordinates.
func (a *Array) ScanType(i int) (schema.GeometryType, schema.Dimension, error) {
	buf, err := a.Value(i)
	if err != nil {
		return 0, 0, err
	}
	return DecodeType(buf)
}

func (a *Array) Geometry(i int) (geom.Geometry, error) {
	buf, err := a.Value(i)
	if err != nil {
		return nil, err
	}
	if a.storage.IsNull(i) {
		return nil, nil
	}
	return Decode(buf)
}

func (a *Array) Slice(start, length int) (garray.Array, error) {
	if start < 0 || length < 0 || start+length > a.Len() {
		return nil, fmt.Errorf("%w: slice [%d, %d) of array length %d",
			schema.ErrIndexOutOfRange, start, start+length, a.Len())
	}
	sliced := arrowarray.NewSlice(a.storage, int64(start), int64(start+length))
	defer sliced.Release()
	return NewArray(a.typ, sliced)
}

// ArrayBuilder builds a WKB column, encoding appended scalars.
type ArrayBuilder struct {
	typ schema.Type
	b   *arrowarray.BinaryBuilder
	enc Encoder
}

var _ garray.Builder = (*ArrayBuilder)(nil)

// NewArrayBuilder builds WKB rows with the given encoder. The zero Encoder
// writes little-endian ISO WKB.
func NewArrayBuilder(mem memory.Allocator, typ schema.Type, enc Encoder) (*ArrayBuilder, error) {
	if typ.Kind() != schema.WKB {
		return nil, fmt.Errorf("%w: wkb builder cannot hold %s", schema.ErrIncompatibleType, typ.Kind())
	}
	b := arrowarray.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	return &ArrayBuilder{typ: typ, b: b, enc: enc}, nil
}

func (b *ArrayBuilder) AppendGeometry(g geom.Geometry) error {
	if g == nil {
		b.AppendNull()
		return nil
	}
	data, err := b.enc.Encode(g)
	if err != nil {
		return err
	}
	b.b.Append(data)
	return nil
}

// AppendBytes appends already-encoded WKB after a header scan.
func (b *ArrayBuilder) AppendBytes(buf []byte) error {
	if _, _, err := DecodeType(buf); err != nil {
		return err
	}
	b.b.Append(buf)
	return nil
}

func (b *ArrayBuilder) AppendNull() { b.b.AppendNull() }

func (b *ArrayBuilder) NewWKBArray() (*Array, error) {
	storage := b.b.NewArray()
	defer storage.Release()
	return NewArray(b.typ, storage)
}

func (b *ArrayBuilder) NewArray() (garray.Array, error) { return b.NewWKBArray() }
func (b *ArrayBuilder) Release()                        { b.b.Release() }

// EncoderFor derives the encoder for a column descriptor. EWKB output
// carries the SRID word only when the column's CRS resolves to an integer
// code.
func EncoderFor(typ schema.Type, flavor Flavor) Encoder {
	enc := Encoder{Flavor: flavor}
	if flavor == EWKB {
		if srid, ok := typ.Metadata().SRID(); ok {
			enc.SRID = srid
			enc.HasSRID = true
		}
	}
	return enc
}

// FromArray encodes every row of a geometry array into a WKB column,
// carrying the source metadata over.
func FromArray(mem memory.Allocator, src garray.Array, flavor Flavor) (*Array, error) {
	typ, err := schema.NewSerializedType(schema.WKB)
	if err != nil {
		return nil, err
	}
	typ = typ.WithMetadata(src.Type().Metadata())
	b, err := NewArrayBuilder(mem, typ, EncoderFor(typ, flavor))
	if err != nil {
		return nil, err
	}
	defer b.Release()
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			b.AppendNull()
			continue
		}
		g, err := src.Geometry(i)
		if err != nil {
			return nil, err
		}
		if err := b.AppendGeometry(g); err != nil {
			return nil, err
		}
	}
	return b.NewWKBArray()
}
