// Package wkb reads and writes Well-Known Binary geometries, both the ISO
// encoding with dimension offsets and the EWKB flag encoding with an
// optional SRID word.
package wkb

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// EWKB dimension and SRID flags in the geometry-type word.
const (
	ewkbZ    = 0x80000000
	ewkbM    = 0x40000000
	ewkbSRID = 0x20000000
)

// Decode parses one WKB geometry. Malformed input fails with
// schema.ErrMalformedWKB naming the byte offset of the violation.
func Decode(buf []byte) (geom.Geometry, error) {
	d := &decoder{buf: buf}
	return d.geometry(nil)
}

// DecodeType reads only the header and reports the kind and dimension
// without touching coordinate data.
func DecodeType(buf []byte) (schema.GeometryType, schema.Dimension, error) {
	d := &decoder{buf: buf}
	h, err := d.header()
	if err != nil {
		return 0, 0, err
	}
	return h.kind, h.dim, nil
}

type decoder struct {
	buf []byte
	pos int
}

type header struct {
	order   binary.ByteOrder
	kind    schema.GeometryType
	dim     schema.Dimension
	srid    int32
	hasSRID bool
}

func (d *decoder) truncated() error {
	return fmt.Errorf("%w: truncated buffer at offset %d", schema.ErrMalformedWKB, d.pos)
}

func (d *decoder) u8() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, d.truncated()
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) u32(order binary.ByteOrder) (uint32, error) {
	if d.pos+4 > len(d.buf) {
		return 0, d.truncated()
	}
	v := order.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) f64(order binary.ByteOrder) (float64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, d.truncated()
	}
	v := math.Float64frombits(order.Uint64(d.buf[d.pos:]))
	d.pos += 8
	return v, nil
}

func (d *decoder) header() (header, error) {
	var h header
	b, err := d.u8()
	if err != nil {
		return h, err
	}
	switch b {
	case 0:
		h.order = binary.BigEndian
	case 1:
		h.order = binary.LittleEndian
	default:
		return h, fmt.Errorf("%w: invalid byte order %#02x at offset %d", schema.ErrMalformedWKB, b, d.pos-1)
	}

	codeOffset := d.pos
	code, err := d.u32(h.order)
	if err != nil {
		return h, err
	}

	hasZ := code&ewkbZ != 0
	hasM := code&ewkbM != 0
	h.hasSRID = code&ewkbSRID != 0
	code &^= ewkbZ | ewkbM | ewkbSRID

	// ISO encodes the dimension in thousands above the kind code.
	switch code / 1000 {
	case 0:
	case 1:
		hasZ = true
	case 2:
		hasM = true
	case 3:
		hasZ, hasM = true, true
	default:
		return h, fmt.Errorf("%w: invalid geometry type %d at offset %d", schema.ErrMalformedWKB, code, codeOffset)
	}
	kind := schema.GeometryType(code % 1000)
	if kind < schema.Point || kind > schema.GeometryCollection {
		return h, fmt.Errorf("%w: invalid geometry type %d at offset %d", schema.ErrMalformedWKB, code, codeOffset)
	}
	h.kind = kind
	h.dim = schema.DimensionOf(hasZ, hasM)

	if h.hasSRID {
		srid, err := d.u32(h.order)
		if err != nil {
			return h, err
		}
		h.srid = int32(srid)
	}
	return h, nil
}

// geometry parses one full geometry. A non-nil expect pins the dimension
// nested children must carry.
func (d *decoder) geometry(expect *schema.Dimension) (geom.Geometry, error) {
	h, err := d.header()
	if err != nil {
		return nil, err
	}
	if expect != nil && h.dim != *expect {
		return nil, fmt.Errorf("%w: child dimension %s does not match parent %s at offset %d",
			schema.ErrMalformedWKB, h.dim, *expect, d.pos)
	}
	return d.body(h)
}

func (d *decoder) body(h header) (geom.Geometry, error) {
	switch h.kind {
	case schema.Point:
		c, err := d.coord(h)
		if err != nil {
			return nil, err
		}
		return geom.Point{Coords: geom.SequenceOf(h.dim, c)}, nil
	case schema.LineString:
		seq, err := d.sequence(h, 2, false)
		if err != nil {
			return nil, err
		}
		return geom.LineString{Coords: seq}, nil
	case schema.Polygon:
		rings, err := d.rings(h)
		if err != nil {
			return nil, err
		}
		return geom.Polygon{Dimension: h.dim, Rings: rings}, nil
	case schema.MultiPoint:
		return d.multiPoint(h)
	case schema.MultiLineString:
		n, err := d.count(h)
		if err != nil {
			return nil, err
		}
		lines := make([]geom.Sequence, 0, n)
		for i := 0; i < n; i++ {
			child, err := d.child(h, schema.LineString)
			if err != nil {
				return nil, err
			}
			lines = append(lines, child.(geom.LineString).Coords)
		}
		return geom.MultiLineString{Dimension: h.dim, Lines: lines}, nil
	case schema.MultiPolygon:
		n, err := d.count(h)
		if err != nil {
			return nil, err
		}
		polys := make([]geom.Polygon, 0, n)
		for i := 0; i < n; i++ {
			child, err := d.child(h, schema.Polygon)
			if err != nil {
				return nil, err
			}
			polys = append(polys, child.(geom.Polygon))
		}
		return geom.MultiPolygon{Dimension: h.dim, Polygons: polys}, nil
	case schema.GeometryCollection:
		n, err := d.count(h)
		if err != nil {
			return nil, err
		}
		geoms := make([]geom.Geometry, 0, n)
		for i := 0; i < n; i++ {
			child, err := d.geometry(&h.dim)
			if err != nil {
				return nil, err
			}
			geoms = append(geoms, child)
		}
		return geom.GeometryCollection{Dimension: h.dim, Geoms: geoms}, nil
	default:
		return nil, fmt.Errorf("%w: invalid geometry kind %d", schema.ErrMalformedWKB, h.kind)
	}
}

func (d *decoder) child(parent header, want schema.GeometryType) (geom.Geometry, error) {
	at := d.pos
	h, err := d.header()
	if err != nil {
		return nil, err
	}
	if h.kind != want {
		return nil, fmt.Errorf("%w: expected %s child, got %s at offset %d",
			schema.ErrMalformedWKB, want, h.kind, at)
	}
	if h.dim != parent.dim {
		return nil, fmt.Errorf("%w: child dimension %s does not match parent %s at offset %d",
			schema.ErrMalformedWKB, h.dim, parent.dim, at)
	}
	return d.body(h)
}

func (d *decoder) count(h header) (int, error) {
	n, err := d.u32(h.order)
	if err != nil {
		return 0, err
	}
	// A count cannot exceed the remaining bytes; each member needs at
	// least one byte.
	if int64(n) > int64(len(d.buf)-d.pos) {
		return 0, fmt.Errorf("%w: count %d exceeds remaining buffer at offset %d",
			schema.ErrMalformedWKB, n, d.pos-4)
	}
	return int(n), nil
}

func (d *decoder) coord(h header) (geom.Coord, error) {
	size := h.dim.Size()
	c := make(geom.Coord, size)
	for i := 0; i < size; i++ {
		v, err := d.f64(h.order)
		if err != nil {
			return nil, err
		}
		c[i] = v
	}
	return c, nil
}

// sequence reads a counted coordinate run. Non-empty runs must hold at
// least minPoints coordinates; closed runs must end where they start.
func (d *decoder) sequence(h header, minPoints int, closed bool) (geom.Sequence, error) {
	countOffset := d.pos
	n, err := d.count(h)
	if err != nil {
		return geom.Sequence{}, err
	}
	if n > 0 && n < minPoints {
		return geom.Sequence{}, fmt.Errorf("%w: %d points at offset %d, need at least %d",
			schema.ErrMalformedWKB, n, countOffset, minPoints)
	}
	size := h.dim.Size()
	data := make([]float64, 0, n*size)
	for i := 0; i < n*size; i++ {
		v, err := d.f64(h.order)
		if err != nil {
			return geom.Sequence{}, err
		}
		data = append(data, v)
	}
	seq, err := geom.NewSequence(data, h.dim)
	if err != nil {
		return geom.Sequence{}, err
	}
	if closed && n > 0 && !seq.Slice(0, 1).Equal(seq.Slice(n-1, 1)) {
		return geom.Sequence{}, fmt.Errorf("%w: ring at offset %d is not closed",
			schema.ErrMalformedWKB, countOffset)
	}
	return seq, nil
}

func (d *decoder) rings(h header) ([]geom.Sequence, error) {
	n, err := d.count(h)
	if err != nil {
		return nil, err
	}
	rings := make([]geom.Sequence, 0, n)
	for i := 0; i < n; i++ {
		ring, err := d.sequence(h, 4, true)
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
	}
	return rings, nil
}

func (d *decoder) multiPoint(h header) (geom.Geometry, error) {
	n, err := d.count(h)
	if err != nil {
		return nil, err
	}
	size := h.dim.Size()
	data := make([]float64, 0, n*size)
	for i := 0; i < n; i++ {
		child, err := d.child(h, schema.Point)
		if err != nil {
			return nil, err
		}
		data = append(data, child.(geom.Point).Coord()...)
	}
	seq, err := geom.NewSequence(data, h.dim)
	if err != nil {
		return nil, err
	}
	return geom.MultiPoint{Points: seq}, nil
}

// Flavor selects the geometry-type word encoding.
type Flavor int

const (
	// ISO adds dimension offsets of 1000/2000/3000 to the kind code.
	ISO Flavor = iota
	// EWKB sets the high Z/M flag bits and may carry an SRID word.
	EWKB
)

// Encoder serializes geometries. The zero value writes little-endian ISO
// WKB.
type Encoder struct {
	// Order is the byte order, little-endian when nil.
	Order binary.AppendByteOrder
	// Flavor selects ISO or EWKB type words.
	Flavor Flavor
	// SRID is written after the top-level EWKB type word when HasSRID is
	// set. ISO output never carries it.
	SRID    int32
	HasSRID bool
}

// Encode serializes one geometry.
func (e Encoder) Encode(g geom.Geometry) ([]byte, error) {
	var order binary.AppendByteOrder = binary.LittleEndian
	if e.Order != nil {
		order = e.Order
	}
	w := &writer{order: order, little: order == binary.AppendByteOrder(binary.LittleEndian), flavor: e.Flavor}
	if err := w.geometry(g, e.Flavor == EWKB && e.HasSRID, e.SRID); err != nil {
		return nil, err
	}
	return w.buf, nil
}

// Encode serializes one geometry as little-endian ISO WKB.
func Encode(g geom.Geometry) ([]byte, error) {
	return Encoder{}.Encode(g)
}

type writer struct {
	order  binary.AppendByteOrder
	little bool
	flavor Flavor
	buf    []byte
}

func (w *writer) u8(v byte) { w.buf = append(w.buf, v) }

func (w *writer) u32(v uint32) {
	w.buf = w.order.AppendUint32(w.buf, v)
}

func (w *writer) f64(v float64) {
	w.buf = w.order.AppendUint64(w.buf, math.Float64bits(v))
}

func (w *writer) typeWord(kind schema.GeometryType, dim schema.Dimension, withSRID bool) {
	code := uint32(kind)
	if w.flavor == ISO {
		if dim.HasZ() {
			code += 1000
		}
		if dim.HasM() {
			code += 2000
		}
	} else {
		if dim.HasZ() {
			code |= ewkbZ
		}
		if dim.HasM() {
			code |= ewkbM
		}
		if withSRID {
			code |= ewkbSRID
		}
	}
	w.u32(code)
}

func (w *writer) geometry(g geom.Geometry, withSRID bool, srid int32) error {
	if g == nil {
		return fmt.Errorf("%w: cannot encode nil geometry", schema.ErrUnsupportedCombination)
	}
	if w.little {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.typeWord(g.GeometryType(), g.Dim(), withSRID)
	if withSRID {
		w.u32(uint32(srid))
	}

	switch v := g.(type) {
	case geom.Point:
		// Empty points serialize as an all-NaN coordinate.
		c := v.Coord()
		for _, ord := range c {
			w.f64(ord)
		}
		return nil
	case geom.LineString:
		w.sequence(v.Coords)
		return nil
	case geom.Polygon:
		w.u32(uint32(len(v.Rings)))
		for _, ring := range v.Rings {
			w.sequence(ring)
		}
		return nil
	case geom.MultiPoint:
		w.u32(uint32(v.Points.Len()))
		for i := 0; i < v.Points.Len(); i++ {
			if err := w.geometry(geom.Point{Coords: v.Points.Slice(i, 1)}, false, 0); err != nil {
				return err
			}
		}
		return nil
	case geom.MultiLineString:
		w.u32(uint32(len(v.Lines)))
		for _, line := range v.Lines {
			if err := w.geometry(geom.LineString{Coords: line}, false, 0); err != nil {
				return err
			}
		}
		return nil
	case geom.MultiPolygon:
		w.u32(uint32(len(v.Polygons)))
		for _, poly := range v.Polygons {
			if err := w.geometry(poly, false, 0); err != nil {
				return err
			}
		}
		return nil
	case geom.GeometryCollection:
		w.u32(uint32(len(v.Geoms)))
		for _, child := range v.Geoms {
			if err := w.geometry(child, false, 0); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: cannot encode %s as WKB", schema.ErrUnsupportedCombination, g.GeometryType())
	}
}

func (w *writer) sequence(s geom.Sequence) {
	w.u32(uint32(s.Len()))
	size := s.Dim().Size()
	for i := 0; i < s.Len(); i++ {
		for ord := 0; ord < size; ord++ {
			w.f64(s.At(i, ord))
		}
	}
}
