package geoparquet

import (
	"bytes"
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

var testCRS = json.RawMessage(`{"type":"GeographicCRS","id":{"authority":"EPSG","code":4326}}`)

func pointRecord(t *testing.T, mem memory.Allocator, points ...geom.Point) (arrow.Record, *arrow.Schema) {
	t.Helper()
	typ := schema.NewType(schema.Point, schema.DimXY, schema.Interleaved).
		WithMetadata(schema.MetadataFromProjjson(testCRS))

	gb := garray.NewPointBuilder(mem, typ)
	defer gb.Release()
	nb := arrowarray.NewStringBuilder(mem)
	defer nb.Release()
	for i, p := range points {
		require.NoError(t, gb.Append(p))
		nb.Append(string(rune('a' + i)))
	}
	geomArr, err := gb.NewPointArray()
	require.NoError(t, err)
	defer geomArr.Release()
	nameArr := nb.NewStringArray()
	defer nameArr.Release()

	sch := arrow.NewSchema([]arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		typ.Field("geometry", true),
	}, nil)
	return arrowarray.NewRecord(sch, []arrow.Array{nameArr, geomArr.Storage()}, int64(len(points))), sch
}

func Test_RoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	points := []geom.Point{
		geom.NewPoint(geom.XY(1, 2)),
		geom.NewPoint(geom.XY(-10, 40)),
		geom.NewPoint(geom.XY(5, -3)),
	}
	rec, sch := pointRecord(t, mem, points...)
	defer rec.Release()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, mem, sch)
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	tbl, err := ReadTable(context.Background(), bytes.NewReader(buf.Bytes()), mem)
	require.NoError(t, err)
	defer tbl.Release()

	meta := tbl.Metadata()
	require.Equal(t, Version, meta.Version)
	require.Equal(t, "geometry", meta.PrimaryColumn)
	col := meta.Columns["geometry"]
	require.NotNil(t, col)
	require.Equal(t, EncodingWKB, col.Encoding)
	require.Equal(t, []string{"Point"}, col.GeometryTypes)
	require.Equal(t, []float64{-10, -3, 5, 40}, col.Bbox)
	require.JSONEq(t, string(testCRS), string(col.CRS))

	chunked, err := tbl.Primary()
	require.NoError(t, err)
	defer chunked.Release()
	require.Equal(t, len(points), chunked.Len())
	require.Equal(t, schema.WKB, chunked.Type().Kind())
	require.Equal(t, schema.CRSTypeProjjson, chunked.Type().Metadata().CRSType)
	for i, want := range points {
		g, err := chunked.Geometry(i)
		require.NoError(t, err)
		require.True(t, geom.Equal(want, g))
	}
}

func Test_RoundTrip_MixedKindsAndZ(t *testing.T) {
	mem := memory.NewGoAllocator()
	typ := schema.NewGeometryType(schema.Interleaved)
	gb := garray.NewGeometryBuilder(mem, typ)
	defer gb.Release()
	require.NoError(t, gb.Append(geom.NewPoint(geom.XY(1, 2))))
	require.NoError(t, gb.Append(geom.LineString{
		Coords: geom.SequenceOf(schema.DimXYZ, geom.XYZ(0, 0, 5), geom.XYZ(1, 1, 7)),
	}))
	gb.AppendNull()
	arr, err := gb.NewGeometryArray()
	require.NoError(t, err)
	defer arr.Release()

	sch := arrow.NewSchema([]arrow.Field{typ.Field("geometry", true)}, nil)
	rec := arrowarray.NewRecord(sch, []arrow.Array{arr.Storage()}, int64(arr.Len()))
	defer rec.Release()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, mem, sch)
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	tbl, err := ReadTable(context.Background(), bytes.NewReader(buf.Bytes()), mem)
	require.NoError(t, err)
	defer tbl.Release()

	col := tbl.Metadata().Columns["geometry"]
	require.Equal(t, []string{"Point", "LineString Z"}, col.GeometryTypes)
	// z ordinates were seen, so the box carries six values.
	require.Equal(t, []float64{0, 0, 5, 1, 2, 7}, col.Bbox)

	chunked, err := tbl.Primary()
	require.NoError(t, err)
	defer chunked.Release()
	require.True(t, chunked.IsNull(2))
	g, err := chunked.Geometry(1)
	require.NoError(t, err)
	require.Equal(t, schema.DimXYZ, g.Dim())
}

func Test_Writer_MultipleBatches(t *testing.T) {
	mem := memory.NewGoAllocator()
	first, sch := pointRecord(t, mem, geom.NewPoint(geom.XY(0, 0)))
	defer first.Release()
	second, _ := pointRecord(t, mem, geom.NewPoint(geom.XY(9, 9)), geom.NewPoint(geom.XY(3, 3)))
	defer second.Release()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, mem, sch)
	require.NoError(t, err)
	require.NoError(t, w.Write(first))
	require.NoError(t, w.Write(second))
	require.NoError(t, w.Close())

	tbl, err := ReadTable(context.Background(), bytes.NewReader(buf.Bytes()), mem)
	require.NoError(t, err)
	defer tbl.Release()
	require.EqualValues(t, 3, tbl.NumRows())
	require.Equal(t, []float64{0, 0, 9, 9}, tbl.Metadata().Columns["geometry"].Bbox)
}

func Test_Writer_NoGeometryColumn(t *testing.T) {
	sch := arrow.NewSchema([]arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
	_, err := NewWriter(&bytes.Buffer{}, memory.NewGoAllocator(), sch)
	require.ErrorIs(t, err, schema.ErrIncompatibleType)
}

func Test_Writer_PrimaryColumnOption(t *testing.T) {
	mem := memory.NewGoAllocator()
	rec, sch := pointRecord(t, mem, geom.NewPoint(geom.XY(1, 1)))
	defer rec.Release()

	_, err := NewWriter(&bytes.Buffer{}, mem, sch, WithPrimaryColumn("name"))
	require.ErrorIs(t, err, schema.ErrIncompatibleType)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, mem, sch, WithPrimaryColumn("geometry"))
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
}

func Test_DeserializeMetadata_Malformed(t *testing.T) {
	_, err := DeserializeMetadata("{not json")
	require.ErrorIs(t, err, schema.ErrMalformedBuffer)

	_, err = DeserializeMetadata(`{"version":"1.1.0"}`)
	require.ErrorIs(t, err, schema.ErrMalformedBuffer)
}

func Test_ReadTable_MissingGeoMetadata(t *testing.T) {
	mem := memory.NewGoAllocator()
	rec, sch := pointRecord(t, mem, geom.NewPoint(geom.XY(1, 1)))
	defer rec.Release()

	// A plain parquet file written without the geo entry is rejected.
	var buf bytes.Buffer
	w, err := NewWriter(&buf, mem, sch)
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.fw.Close())
	w.closed = true

	_, err = ReadTable(context.Background(), bytes.NewReader(buf.Bytes()), mem)
	require.ErrorIs(t, err, schema.ErrMalformedBuffer)
}
