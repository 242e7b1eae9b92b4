package wkt

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

func Test_Decode(t *testing.T) {
	testCases := map[string]struct {
		input    string
		expected geom.Geometry
	}{
		"point": {"POINT (30 10)", geom.NewPoint(geom.XY(30, 10))},
		"point-z": {"POINT Z (1 2 3)", geom.NewPoint(geom.XYZ(1, 2, 3))},
		"point-m": {"POINT M (1 2 9)", geom.Point{Coords: geom.SequenceOf(schema.DimXYM, geom.XYM(1, 2, 9))}},
		"point-zm": {"POINT ZM (1 2 3 4)", geom.NewPoint(geom.XYZM(1, 2, 3, 4))},
		"point-empty": {"POINT EMPTY", geom.NewEmptyPoint(schema.DimXY)},
		"point-z-empty": {"POINT Z EMPTY", geom.NewEmptyPoint(schema.DimXYZ)},
		"point-unsuffixed-z": {"POINT (1 2 3)", geom.NewPoint(geom.XYZ(1, 2, 3))},
		"linestring": {
			"LINESTRING (0 0, 1 1, 2 0)",
			geom.LineString{Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1), geom.XY(2, 0))},
		},
		"linestring-empty": {"LINESTRING EMPTY", geom.LineString{Coords: geom.SequenceOf(schema.DimXY)}},
		"polygon": {
			"POLYGON ((30 10, 40 40, 20 40, 10 20, 30 10))",
			geom.Polygon{Dimension: schema.DimXY, Rings: []geom.Sequence{
				geom.SequenceOf(schema.DimXY, geom.XY(30, 10), geom.XY(40, 40), geom.XY(20, 40), geom.XY(10, 20), geom.XY(30, 10)),
			}},
		},
		"multipoint-wrapped": {
			"MULTIPOINT ((1 2), (3 4))",
			geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(1, 2), geom.XY(3, 4))},
		},
		"multipoint-bare": {
			"MULTIPOINT (1 2, 3 4)",
			geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(1, 2), geom.XY(3, 4))},
		},
		"multilinestring": {
			"MULTILINESTRING ((0 0, 1 1), (2 2, 3 3))",
			geom.MultiLineString{Dimension: schema.DimXY, Lines: []geom.Sequence{
				geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1)),
				geom.SequenceOf(schema.DimXY, geom.XY(2, 2), geom.XY(3, 3)),
			}},
		},
		"multipolygon": {
			"MULTIPOLYGON (((0 0, 1 0, 1 1, 0 0)))",
			geom.MultiPolygon{Dimension: schema.DimXY, Polygons: []geom.Polygon{
				{Dimension: schema.DimXY, Rings: []geom.Sequence{
					geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 0), geom.XY(1, 1), geom.XY(0, 0)),
				}},
			}},
		},
		"collection": {
			"GEOMETRYCOLLECTION (POINT (1 2), LINESTRING (0 0, 1 1))",
			geom.GeometryCollection{Dimension: schema.DimXY, Geoms: []geom.Geometry{
				geom.NewPoint(geom.XY(1, 2)),
				geom.LineString{Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1))},
			}},
		},
		"collection-empty": {"GEOMETRYCOLLECTION EMPTY", geom.GeometryCollection{Dimension: schema.DimXY}},
		"scientific":       {"POINT (1e3 -2.5E-2)", geom.NewPoint(geom.XY(1000, -0.025))},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			g, err := Decode(tc.input)
			require.NoError(t, err)
			require.True(t, geom.Equal(tc.expected, g), "decoded %#v", g)
		})
	}
}

func Test_RoundTrip(t *testing.T) {
	inputs := []string{
		"POINT (30 10)",
		"POINT Z (1 2 3)",
		"POINT EMPTY",
		"LINESTRING (0 0, 1 1, 2 0)",
		"POLYGON ((30 10, 40 40, 20 40, 10 20, 30 10))",
		"MULTIPOINT ((1 2), (3 4))",
		"MULTILINESTRING ((0 0, 1 1))",
		"MULTIPOLYGON (((0 0, 1 0, 1 1, 0 0)))",
		"GEOMETRYCOLLECTION (POINT (1 2), LINESTRING (0 0, 1 1))",
		"GEOMETRYCOLLECTION EMPTY",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			g, err := Decode(input)
			require.NoError(t, err)
			out, err := Encode(g)
			require.NoError(t, err)
			require.Equal(t, input, out)
		})
	}
}

func Test_Decode_Malformed(t *testing.T) {
	testCases := map[string]string{
		"garbage":         "SQUARE (1 2)",
		"unclosed":        "POINT (1 2",
		"bad-number":      "POINT (a b)",
		"short-ring":      "POLYGON ((0 0, 1 0, 0 0))",
		"open-ring":       "POLYGON ((0 0, 1 0, 1 1, 0 1))",
		"one-point-line":  "LINESTRING (1 2)",
		"mixed-ordinates": "LINESTRING (0 0, 1 1 1)",
		"trailing":        "POINT (1 2) POINT (3 4)",
		"mixed-members":   "GEOMETRYCOLLECTION (POINT (1 2), POINT Z (1 2 3))",
	}
	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(input)
			require.ErrorIs(t, err, schema.ErrMalformedWKT)
			require.Contains(t, err.Error(), "at position")
		})
	}
}

func Test_DecodeType(t *testing.T) {
	kind, dim, err := DecodeType("MULTIPOLYGON ZM EMPTY")
	require.NoError(t, err)
	require.Equal(t, schema.MultiPolygon, kind)
	require.Equal(t, schema.DimXYZM, dim)

	kind, dim, err = DecodeType("POINT (1 2 3)")
	require.NoError(t, err)
	require.Equal(t, schema.Point, kind)
	require.Equal(t, schema.DimXYZ, dim)
}

func Test_Array_RoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	typ := schema.NewType(schema.LineString, schema.DimXY, schema.Interleaved)
	lb := array.NewLineStringBuilder(mem, typ)
	defer lb.Release()
	line := geom.LineString{Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1))}
	require.NoError(t, lb.Append(line))
	lb.AppendNull()
	lines, err := lb.NewLineStringArray()
	require.NoError(t, err)
	defer lines.Release()

	col, err := FromArray(mem, lines)
	require.NoError(t, err)
	defer col.Release()

	require.Equal(t, 2, col.Len())
	require.True(t, col.IsNull(1))

	s, err := col.Value(0)
	require.NoError(t, err)
	require.Equal(t, "LINESTRING (0 0, 1 1)", s)

	kind, dim, err := col.ScanType(0)
	require.NoError(t, err)
	require.Equal(t, schema.LineString, kind)
	require.Equal(t, schema.DimXY, dim)

	g, err := col.Geometry(0)
	require.NoError(t, err)
	require.True(t, geom.Equal(line, g))
}

func Test_Encode_ShortestFloat(t *testing.T) {
	out, err := Encode(geom.NewPoint(geom.XY(0.1, 1.0/3.0)))
	require.NoError(t, err)
	require.Equal(t, "POINT (0.1 0.3333333333333333)", out)
}
