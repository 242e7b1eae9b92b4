package wkb

import (
	"encoding/binary"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

func testGeometries() map[string]geom.Geometry {
	ring := geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(4, 0), geom.XY(4, 4), geom.XY(0, 4), geom.XY(0, 0))
	ringZ := geom.SequenceOf(schema.DimXYZ, geom.XYZ(0, 0, 1), geom.XYZ(4, 0, 1), geom.XYZ(4, 4, 1), geom.XYZ(0, 0, 1))
	return map[string]geom.Geometry{
		"point":       geom.NewPoint(geom.XY(30, 10)),
		"point-z":     geom.NewPoint(geom.XYZ(30, 10, 5)),
		"point-empty": geom.NewEmptyPoint(schema.DimXY),
		"linestring":  geom.LineString{Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1), geom.XY(2, 0))},
		"linestring-empty": geom.LineString{Coords: geom.SequenceOf(schema.DimXY)},
		"polygon":          geom.Polygon{Dimension: schema.DimXY, Rings: []geom.Sequence{ring}},
		"polygon-z":        geom.Polygon{Dimension: schema.DimXYZ, Rings: []geom.Sequence{ringZ}},
		"multipoint":       geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(1, 2), geom.XY(3, 4))},
		"multilinestring": geom.MultiLineString{Dimension: schema.DimXY, Lines: []geom.Sequence{
			geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1)),
		}},
		"multipolygon": geom.MultiPolygon{Dimension: schema.DimXY, Polygons: []geom.Polygon{
			{Dimension: schema.DimXY, Rings: []geom.Sequence{ring}},
		}},
		"collection": geom.GeometryCollection{Dimension: schema.DimXY, Geoms: []geom.Geometry{
			geom.NewPoint(geom.XY(1, 2)),
			geom.LineString{Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1))},
		}},
		"collection-empty": geom.GeometryCollection{Dimension: schema.DimXY},
	}
}

func Test_RoundTrip(t *testing.T) {
	encoders := map[string]Encoder{
		"iso-le":  {},
		"iso-be":  {Order: binary.BigEndian},
		"ewkb-le": {Flavor: EWKB},
		"ewkb-be": {Flavor: EWKB, Order: binary.BigEndian},
	}
	for encName, enc := range encoders {
		for name, g := range testGeometries() {
			t.Run(encName+"/"+name, func(t *testing.T) {
				buf, err := enc.Encode(g)
				require.NoError(t, err)
				back, err := Decode(buf)
				require.NoError(t, err)
				require.True(t, geom.Equal(g, back), "round trip changed %s", name)
			})
		}
	}
}

func Test_DecodeType(t *testing.T) {
	buf, err := Encode(geom.Polygon{Dimension: schema.DimXYZM})
	require.NoError(t, err)
	kind, dim, err := DecodeType(buf)
	require.NoError(t, err)
	require.Equal(t, schema.Polygon, kind)
	require.Equal(t, schema.DimXYZM, dim)
}

func Test_Decode_EWKBWithSRID(t *testing.T) {
	enc := Encoder{Flavor: EWKB, SRID: 4326, HasSRID: true}
	buf, err := enc.Encode(geom.NewPoint(geom.XY(30, 10)))
	require.NoError(t, err)

	g, err := Decode(buf)
	require.NoError(t, err)
	require.True(t, geom.Equal(geom.NewPoint(geom.XY(30, 10)), g))
}

func Test_Decode_Malformed(t *testing.T) {
	testCases := map[string]struct {
		buf    []byte
		substr string
	}{
		"empty":            {[]byte{}, "offset 0"},
		"order-only":       {[]byte{0x00}, "offset 1"},
		"bad-order":        {[]byte{0x02, 0x01, 0x00, 0x00, 0x00}, "offset 0"},
		"bad-type":         {[]byte{0x01, 0x63, 0x00, 0x00, 0x00}, "offset 1"},
		"truncated-coords": {[]byte{0x01, 0x01, 0x00, 0x00, 0x00, 0x00}, "offset 5"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(tc.buf)
			require.ErrorIs(t, err, schema.ErrMalformedWKB)
			require.Contains(t, err.Error(), tc.substr)
		})
	}
}

func Test_Decode_RingRules(t *testing.T) {
	// Open ring: first and last points differ.
	open := geom.Polygon{Dimension: schema.DimXY, Rings: []geom.Sequence{
		geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 0), geom.XY(1, 1), geom.XY(0, 1)),
	}}
	buf, err := Encode(open)
	require.NoError(t, err)
	_, err = Decode(buf)
	require.ErrorIs(t, err, schema.ErrMalformedWKB)
	require.Contains(t, err.Error(), "not closed")

	// Closed but too short.
	short := geom.Polygon{Dimension: schema.DimXY, Rings: []geom.Sequence{
		geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 0), geom.XY(0, 0)),
	}}
	buf, err = Encode(short)
	require.NoError(t, err)
	_, err = Decode(buf)
	require.ErrorIs(t, err, schema.ErrMalformedWKB)
	require.Contains(t, err.Error(), "at least 4")
}

func Test_Decode_SinglePointLineString(t *testing.T) {
	buf, err := Encode(geom.LineString{Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0))})
	require.NoError(t, err)
	_, err = Decode(buf)
	require.ErrorIs(t, err, schema.ErrMalformedWKB)
	require.Contains(t, err.Error(), "at least 2")
}

func Test_Decode_MixedChildDimension(t *testing.T) {
	// A multilinestring whose child carries a different dimension.
	parent, err := Encode(geom.MultiLineString{Dimension: schema.DimXY, Lines: []geom.Sequence{
		geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1)),
	}})
	require.NoError(t, err)
	child, err := Encode(geom.LineString{Coords: geom.SequenceOf(schema.DimXYZ, geom.XYZ(0, 0, 0), geom.XYZ(1, 1, 1))})
	require.NoError(t, err)
	mixed := append(parent[:9:9], child...)

	_, err = Decode(mixed)
	require.ErrorIs(t, err, schema.ErrMalformedWKB)
	require.Contains(t, err.Error(), "does not match parent")
}

func Test_Array_RoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	typ := schema.NewType(schema.Point, schema.DimXY, schema.Interleaved)
	pb := array.NewPointBuilder(mem, typ)
	defer pb.Release()
	require.NoError(t, pb.Append(geom.NewPoint(geom.XY(1, 2))))
	pb.AppendNull()
	points, err := pb.NewPointArray()
	require.NoError(t, err)
	defer points.Release()

	col, err := FromArray(mem, points, ISO)
	require.NoError(t, err)
	defer col.Release()

	require.Equal(t, 2, col.Len())
	require.True(t, col.IsNull(1))

	kind, dim, err := col.ScanType(0)
	require.NoError(t, err)
	require.Equal(t, schema.Point, kind)
	require.Equal(t, schema.DimXY, dim)

	g, err := col.Geometry(0)
	require.NoError(t, err)
	require.True(t, geom.Equal(geom.NewPoint(geom.XY(1, 2)), g))
}

func Test_Array_EWKBCarriesResolvableSRID(t *testing.T) {
	mem := memory.NewGoAllocator()
	meta := schema.MetadataFromAuthorityCode("EPSG:3857")
	typ := schema.NewType(schema.Point, schema.DimXY, schema.Interleaved).WithMetadata(meta)
	pb := array.NewPointBuilder(mem, typ)
	defer pb.Release()
	require.NoError(t, pb.Append(geom.NewPoint(geom.XY(1, 2))))
	points, err := pb.NewPointArray()
	require.NoError(t, err)
	defer points.Release()

	col, err := FromArray(mem, points, EWKB)
	require.NoError(t, err)
	defer col.Release()

	buf, err := col.Value(0)
	require.NoError(t, err)
	// Little-endian EWKB: SRID flag in the type word, code after it.
	require.Equal(t, uint32(1)|ewkbSRID, binary.LittleEndian.Uint32(buf[1:5]))
	require.Equal(t, uint32(3857), binary.LittleEndian.Uint32(buf[5:9]))
}

func Test_ArrayBuilder_AppendBytes(t *testing.T) {
	typ, err := schema.NewSerializedType(schema.WKB)
	require.NoError(t, err)
	b, err := NewArrayBuilder(memory.NewGoAllocator(), typ, Encoder{})
	require.NoError(t, err)
	defer b.Release()

	buf, err := Encode(geom.NewPoint(geom.XY(1, 2)))
	require.NoError(t, err)
	require.NoError(t, b.AppendBytes(buf))
	require.ErrorIs(t, b.AppendBytes([]byte{0x00}), schema.ErrMalformedWKB)
}
