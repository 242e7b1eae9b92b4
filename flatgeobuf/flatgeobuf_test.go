package flatgeobuf

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
	"github.com/geoarrow/geoarrow-go/wkt"
)

func pointColumn(t *testing.T, mem memory.Allocator) *garray.PointArray {
	t.Helper()
	typ := schema.NewType(schema.Point, schema.DimXY, schema.Interleaved).
		WithMetadata(schema.MetadataFromAuthorityCode("EPSG:4326"))
	b := garray.NewPointBuilder(mem, typ)
	defer b.Release()
	require.NoError(t, b.Append(geom.NewPoint(geom.XY(1, 2))))
	b.AppendNull()
	require.NoError(t, b.Append(geom.NewPoint(geom.XY(30, 40))))
	arr, err := b.NewPointArray()
	require.NoError(t, err)
	return arr
}

// canonical renders rows as WKT strings so round trips can be compared
// without depending on feature order, which the spatial index rewrites.
func canonical(t *testing.T, arr garray.Array) []string {
	t.Helper()
	out := make([]string, 0, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		g, err := arr.Geometry(i)
		require.NoError(t, err)
		if g == nil {
			continue
		}
		s, err := wkt.Encode(g)
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func Test_RoundTrip_Points(t *testing.T) {
	mem := memory.NewGoAllocator()
	src := pointColumn(t, mem)
	defer src.Release()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src, &WriteOptions{Name: "cities", IncludeIndex: true}))

	r, err := NewReader(buf.Bytes())
	require.NoError(t, err)

	h := r.Header()
	require.Equal(t, "cities", h.Name)
	require.Equal(t, schema.Point, h.Kind)
	// The null row is dropped on write.
	require.EqualValues(t, 2, h.FeaturesCount)
	require.True(t, h.HasIndex)
	srid, ok := h.Metadata.SRID()
	require.True(t, ok)
	require.EqualValues(t, 4326, srid)

	back, err := r.ReadAll(mem)
	require.NoError(t, err)
	defer back.Release()
	require.Equal(t, schema.Point, back.Type().Kind())
	require.ElementsMatch(t,
		[]string{"POINT (1 2)", "POINT (30 40)"},
		canonical(t, back))
}

func Test_RoundTrip_Polygons(t *testing.T) {
	mem := memory.NewGoAllocator()
	typ := schema.NewType(schema.Polygon, schema.DimXY, schema.Separated)
	b := garray.NewPolygonBuilder(mem, typ)
	defer b.Release()
	square := func(x0, y0, size float64) geom.Polygon {
		return geom.Polygon{Dimension: schema.DimXY, Rings: []geom.Sequence{
			geom.SequenceOf(schema.DimXY,
				geom.XY(x0, y0), geom.XY(x0+size, y0),
				geom.XY(x0+size, y0+size), geom.XY(x0, y0+size), geom.XY(x0, y0)),
		}}
	}
	require.NoError(t, b.Append(square(0, 0, 10)))
	require.NoError(t, b.Append(square(50, 50, 5)))
	src, err := b.NewPolygonArray()
	require.NoError(t, err)
	defer src.Release()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src, nil))

	r, err := NewReader(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, schema.Polygon, r.Header().Kind)

	back, err := r.ReadAll(mem)
	require.NoError(t, err)
	defer back.Release()
	require.ElementsMatch(t, canonical(t, src), canonical(t, back))
}

func Test_Search_FiltersByBounds(t *testing.T) {
	mem := memory.NewGoAllocator()
	src := pointColumn(t, mem)
	defer src.Release()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src, nil))

	r, err := NewReader(buf.Bytes())
	require.NoError(t, err)

	hits, err := r.Search(mem, geom.Rect{
		Dimension: schema.DimXY,
		Min:       geom.XY(0, 0),
		Max:       geom.XY(5, 5),
	})
	require.NoError(t, err)
	defer hits.Release()
	require.Equal(t, []string{"POINT (1 2)"}, canonical(t, hits))
}

func Test_Write_RejectsNonXY(t *testing.T) {
	mem := memory.NewGoAllocator()
	typ := schema.NewType(schema.Point, schema.DimXYZ, schema.Interleaved)
	b := garray.NewPointBuilder(mem, typ)
	defer b.Release()
	require.NoError(t, b.Append(geom.NewPoint(geom.XYZ(1, 2, 3))))
	src, err := b.NewPointArray()
	require.NoError(t, err)
	defer src.Release()

	err = Write(&bytes.Buffer{}, src, nil)
	require.ErrorIs(t, err, schema.ErrUnsupportedCombination)
}

func Test_NewReader_InvalidData(t *testing.T) {
	_, err := NewReader([]byte("not a flatgeobuf file"))
	require.ErrorIs(t, err, schema.ErrMalformedBuffer)
}

func Test_RoundTrip_MixedKinds(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := garray.NewGeometryBuilder(mem, schema.NewGeometryType(schema.Interleaved))
	defer b.Release()
	require.NoError(t, b.Append(geom.NewPoint(geom.XY(7, 8))))
	require.NoError(t, b.Append(geom.LineString{
		Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(2, 2)),
	}))
	src, err := b.NewGeometryArray()
	require.NoError(t, err)
	defer src.Release()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src, nil))

	r, err := NewReader(buf.Bytes())
	require.NoError(t, err)
	// Mixed kinds leave the header's declared type unknown; the column
	// comes back generic.
	require.Equal(t, schema.Geometry, r.Header().Kind)

	back, err := r.ReadAll(mem)
	require.NoError(t, err)
	defer back.Release()
	require.Equal(t, schema.Geometry, back.Type().Kind())
	require.ElementsMatch(t,
		[]string{"POINT (7 8)", "LINESTRING (0 0, 2 2)"},
		canonical(t, back))
}
