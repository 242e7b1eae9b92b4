package cast

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
	"github.com/geoarrow/geoarrow-go/wkb"
	"github.com/geoarrow/geoarrow-go/wkt"
)

func geometryArrayOf(t *testing.T, geoms ...geom.Geometry) *garray.GeometryArray {
	t.Helper()
	b := garray.NewGeometryBuilder(memory.NewGoAllocator(), schema.NewGeometryType(schema.Interleaved))
	defer b.Release()
	for _, g := range geoms {
		require.NoError(t, b.Append(g))
	}
	arr, err := b.NewGeometryArray()
	require.NoError(t, err)
	return arr
}

func Test_Infer(t *testing.T) {
	line := geom.LineString{Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1))}
	testCases := map[string]struct {
		geoms    []geom.Geometry
		kind     schema.GeometryType
		dim      schema.Dimension
		promoted bool
	}{
		"points": {
			[]geom.Geometry{geom.NewPoint(geom.XY(1, 2)), geom.NewPoint(geom.XY(3, 4))},
			schema.Point, schema.DimXY, false,
		},
		"point-and-multipoint": {
			[]geom.Geometry{
				geom.NewPoint(geom.XY(1, 2)),
				geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(1, 2), geom.XY(3, 4))},
			},
			schema.MultiPoint, schema.DimXY, false,
		},
		"single-part-multipoints-keep-union-kind": {
			[]geom.Geometry{
				geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(1, 2))},
				geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY)},
			},
			schema.MultiPoint, schema.DimXY, false,
		},
		"collection-and-linestring-stay-generic": {
			[]geom.Geometry{
				geom.GeometryCollection{Dimension: schema.DimXY, Geoms: []geom.Geometry{line}},
				line,
			},
			schema.Geometry, schema.DimXY, false,
		},
		"mixed-dimensions-promote": {
			[]geom.Geometry{
				geom.NewPoint(geom.XY(1, 2)),
				geom.NewPoint(geom.XYZ(1, 2, 3)),
			},
			schema.Point, schema.DimXYZ, true,
		},
		"z-and-m-promote-to-zm": {
			[]geom.Geometry{
				geom.NewPoint(geom.XYZ(1, 2, 3)),
				geom.Point{Coords: geom.SequenceOf(schema.DimXYM, geom.XYM(1, 2, 9))},
			},
			schema.Point, schema.DimXYZM, true,
		},
		"incompatible-mix-stays-generic": {
			[]geom.Geometry{geom.NewPoint(geom.XY(1, 2)), line},
			schema.Geometry, schema.DimXY, false,
		},
		"multi-collection-stays-collection": {
			[]geom.Geometry{
				geom.GeometryCollection{Dimension: schema.DimXY, Geoms: []geom.Geometry{geom.NewPoint(geom.XY(1, 2)), line}},
			},
			schema.GeometryCollection, schema.DimXY, false,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			arr := geometryArrayOf(t, tc.geoms...)
			defer arr.Release()
			inf, err := Infer(arr)
			require.NoError(t, err)
			require.Equal(t, tc.kind, inf.Type.Kind())
			if tc.kind != schema.Geometry {
				require.Equal(t, tc.dim, inf.Type.Dim())
			}
			require.Equal(t, tc.promoted, inf.DimensionPromoted)
		})
	}
}

func Test_Infer_WKBColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	src := geometryArrayOf(t,
		geom.NewPoint(geom.XY(1, 2)),
		geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(3, 4))},
	)
	defer src.Release()
	col, err := wkb.FromArray(mem, src, wkb.ISO)
	require.NoError(t, err)
	defer col.Release()

	// The header kind decides: a one-part multipoint row is still a
	// multipoint row.
	inf, err := Infer(col)
	require.NoError(t, err)
	require.Equal(t, schema.MultiPoint, inf.Type.Kind())
	require.Equal(t, schema.DimXY, inf.Type.Dim())
}

func Test_Infer_ConcreteMultiPointNarrows(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := garray.NewMultiPointBuilder(mem, schema.NewType(schema.MultiPoint, schema.DimXY, schema.Interleaved))
	defer b.Release()
	require.NoError(t, b.Append(geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(1, 2))}))
	require.NoError(t, b.Append(geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY)}))
	b.AppendNull()
	arr, err := b.NewMultiPointArray()
	require.NoError(t, err)
	defer arr.Release()

	inf, err := Infer(arr)
	require.NoError(t, err)
	require.Equal(t, schema.Point, inf.Type.Kind())
	require.Equal(t, schema.DimXY, inf.Type.Dim())

	// One two-part row pins the whole column to multipoint.
	require.NoError(t, b.Append(geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(1, 2))}))
	require.NoError(t, b.Append(geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(3, 4), geom.XY(5, 6))}))
	wide, err := b.NewMultiPointArray()
	require.NoError(t, err)
	defer wide.Release()

	inf, err = Infer(wide)
	require.NoError(t, err)
	require.Equal(t, schema.MultiPoint, inf.Type.Kind())
}

func Test_Infer_ConcreteCollectionNarrows(t *testing.T) {
	mem := memory.NewGoAllocator()
	line := geom.LineString{Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1))}
	b := garray.NewGeometryCollectionBuilder(mem, schema.NewType(schema.GeometryCollection, schema.DimXY, schema.Interleaved))
	defer b.Release()
	require.NoError(t, b.Append(geom.GeometryCollection{Dimension: schema.DimXY, Geoms: []geom.Geometry{line}}))
	arr, err := b.NewGeometryCollectionArray()
	require.NoError(t, err)
	defer arr.Release()

	inf, err := Infer(arr)
	require.NoError(t, err)
	require.Equal(t, schema.LineString, inf.Type.Kind())
	require.Equal(t, schema.DimXY, inf.Type.Dim())
}

func Test_Downcast(t *testing.T) {
	mem := memory.NewGoAllocator()
	arr := geometryArrayOf(t,
		geom.NewPoint(geom.XY(1, 2)),
		geom.NewPoint(geom.XYZ(3, 4, 5)),
	)
	defer arr.Release()

	down, err := Downcast(mem, arr)
	require.NoError(t, err)
	defer down.Release()

	require.Equal(t, schema.Point, down.Type().Kind())
	require.Equal(t, schema.DimXYZ, down.Type().Dim())

	// The xy row is NaN-padded.
	g, err := down.Geometry(0)
	require.NoError(t, err)
	require.True(t, math.IsNaN(g.(geom.Point).Coord()[2]))

	// Downcasting again is the identity.
	again, err := Downcast(mem, down)
	require.NoError(t, err)
	defer again.Release()
	require.True(t, again.Type().Equal(down.Type()))
	require.True(t, garray.Equal(down, again))
}

func Test_Downcast_PointAndMultiPoint(t *testing.T) {
	mem := memory.NewGoAllocator()
	src := geometryArrayOf(t,
		geom.NewPoint(geom.XY(1, 2)),
		geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(3, 4))},
	)
	defer src.Release()

	sources := map[string]func(t *testing.T) garray.Array{
		"generic": func(t *testing.T) garray.Array {
			src.Retain()
			return src
		},
		"wkb": func(t *testing.T) garray.Array {
			col, err := wkb.FromArray(mem, src, wkb.ISO)
			require.NoError(t, err)
			return col
		},
		"wkt": func(t *testing.T) garray.Array {
			col, err := wkt.FromArray(mem, src)
			require.NoError(t, err)
			return col
		},
	}
	for name, build := range sources {
		t.Run(name, func(t *testing.T) {
			col := build(t)
			defer col.Release()

			down, err := Downcast(mem, col)
			require.NoError(t, err)
			defer down.Release()

			// Point and MultiPoint rows meet at MultiPoint, with the point
			// row wrapped as a one-part multipoint.
			require.Equal(t, schema.MultiPoint, down.Type().Kind())
			require.Equal(t, 2, down.Len())
			first, err := down.Geometry(0)
			require.NoError(t, err)
			require.True(t, geom.Equal(geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(1, 2))}, first))
			second, err := down.Geometry(1)
			require.NoError(t, err)
			require.True(t, geom.Equal(geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(3, 4))}, second))
		})
	}
}

func Test_To_SameTypeSharesStorage(t *testing.T) {
	mem := memory.NewGoAllocator()
	typ := schema.NewType(schema.Point, schema.DimXY, schema.Interleaved)
	b := garray.NewPointBuilder(mem, typ)
	defer b.Release()
	require.NoError(t, b.Append(geom.NewPoint(geom.XY(1, 2))))
	arr, err := b.NewPointArray()
	require.NoError(t, err)
	defer arr.Release()

	same, err := To(mem, arr, typ)
	require.NoError(t, err)
	defer same.Release()
	require.Same(t, arr.Storage(), same.Storage())
}

func Test_To_LayoutConversion(t *testing.T) {
	mem := memory.NewGoAllocator()
	typ := schema.NewType(schema.Point, schema.DimXY, schema.Interleaved)
	b := garray.NewPointBuilder(mem, typ)
	defer b.Release()
	require.NoError(t, b.Append(geom.NewPoint(geom.XY(1, 2))))
	arr, err := b.NewPointArray()
	require.NoError(t, err)
	defer arr.Release()

	sep, err := To(mem, arr, schema.NewType(schema.Point, schema.DimXY, schema.Separated))
	require.NoError(t, err)
	defer sep.Release()
	require.Equal(t, schema.Separated, sep.Type().CoordLayout())
	require.True(t, garray.Equal(arr, sep))
}

func Test_To_Serialized_RoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	line := geom.LineString{Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1))}
	typ := schema.NewType(schema.LineString, schema.DimXY, schema.Interleaved)
	b := garray.NewLineStringBuilder(mem, typ)
	defer b.Release()
	require.NoError(t, b.Append(line))
	arr, err := b.NewLineStringArray()
	require.NoError(t, err)
	defer arr.Release()

	wkbType, err := schema.NewSerializedType(schema.WKB)
	require.NoError(t, err)
	serialized, err := To(mem, arr, wkbType)
	require.NoError(t, err)
	defer serialized.Release()
	require.Equal(t, schema.WKB, serialized.Type().Kind())

	back, err := To(mem, serialized, typ)
	require.NoError(t, err)
	defer back.Release()
	require.True(t, garray.Equal(arr, back))
}

func Test_To_Incompatible(t *testing.T) {
	mem := memory.NewGoAllocator()
	arr := geometryArrayOf(t, geom.NewPoint(geom.XYZ(1, 2, 3)))
	defer arr.Release()

	// XYZ cannot narrow to XY.
	_, err := To(mem, arr, schema.NewType(schema.Point, schema.DimXY, schema.Interleaved))
	require.ErrorIs(t, err, schema.ErrIncompatibleType)

	two := geometryArrayOf(t,
		geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(1, 2), geom.XY(3, 4))},
	)
	defer two.Release()
	_, err = To(mem, two, schema.NewType(schema.Point, schema.DimXY, schema.Interleaved))
	require.ErrorIs(t, err, schema.ErrIncompatibleType)
}

func Test_ForceDimension(t *testing.T) {
	mem := memory.NewGoAllocator()
	typ := schema.NewType(schema.LineString, schema.DimXYZ, schema.Interleaved)
	b := garray.NewLineStringBuilder(mem, typ)
	defer b.Release()
	require.NoError(t, b.Append(geom.LineString{
		Coords: geom.SequenceOf(schema.DimXYZ, geom.XYZ(0, 0, 5), geom.XYZ(1, 1, 7)),
	}))
	b.AppendNull()
	arr, err := b.NewLineStringArray()
	require.NoError(t, err)
	defer arr.Release()

	flat, err := ForceDimension(mem, arr, schema.DimXY)
	require.NoError(t, err)
	defer flat.Release()
	require.Equal(t, schema.DimXY, flat.Type().Dim())
	require.True(t, flat.IsNull(1))

	g, err := flat.Geometry(0)
	require.NoError(t, err)
	want := geom.LineString{Coords: geom.SequenceOf(schema.DimXY, geom.XY(0, 0), geom.XY(1, 1))}
	require.True(t, geom.Equal(want, g))
}

func Test_ForceDimension_Serialized(t *testing.T) {
	mem := memory.NewGoAllocator()
	src := geometryArrayOf(t, geom.NewPoint(geom.XYZ(1, 2, 3)))
	defer src.Release()
	col, err := wkb.FromArray(mem, src, wkb.ISO)
	require.NoError(t, err)
	defer col.Release()

	flat, err := ForceDimension(mem, col, schema.DimXY)
	require.NoError(t, err)
	defer flat.Release()
	require.Equal(t, schema.WKB, flat.Type().Kind())

	g, err := flat.Geometry(0)
	require.NoError(t, err)
	require.True(t, geom.Equal(geom.NewPoint(geom.XY(1, 2)), g))
}

func Test_DowncastChunked(t *testing.T) {
	mem := memory.NewGoAllocator()
	a := geometryArrayOf(t, geom.NewPoint(geom.XY(1, 2)))
	defer a.Release()
	b := geometryArrayOf(t, geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(3, 4), geom.XY(5, 6))})
	defer b.Release()

	chunked, err := garray.NewChunked([]garray.Array{a, b})
	require.NoError(t, err)
	defer chunked.Release()

	// Cross-chunk inference settles on multipoint for both chunks.
	down, err := DowncastChunked(mem, chunked)
	require.NoError(t, err)
	defer down.Release()
	require.Equal(t, schema.MultiPoint, down.Type().Kind())
	require.Equal(t, 2, down.Len())

	g, err := down.Geometry(0)
	require.NoError(t, err)
	require.True(t, geom.Equal(geom.MultiPoint{Points: geom.SequenceOf(schema.DimXY, geom.XY(1, 2))}, g))
}
