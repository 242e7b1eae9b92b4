package geom

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/geoarrow/geoarrow-go/schema"
)

func Test_Sequence_Layouts(t *testing.T) {
	interleaved, err := NewSequence([]float64{1, 2, 3, 4, 5, 6}, schema.DimXY)
	require.NoError(t, err)
	separated, err := NewSeparatedSequence([][]float64{{1, 3, 5}, {2, 4, 6}}, schema.DimXY)
	require.NoError(t, err)

	require.Equal(t, 3, interleaved.Len())
	require.Equal(t, 3, separated.Len())
	require.Equal(t, 5.0, interleaved.At(2, 0))
	require.Equal(t, 5.0, separated.At(2, 0))
	require.True(t, interleaved.Equal(separated))
	require.True(t, separated.Equal(interleaved))

	// Slices of the two layouts stay equal.
	require.True(t, interleaved.Slice(1, 2).Equal(separated.Slice(1, 2)))
	require.Equal(t, Coord{3, 4}, interleaved.Slice(1, 2).Coord(0))
}

func Test_Sequence_Invalid(t *testing.T) {
	_, err := NewSequence([]float64{1, 2, 3}, schema.DimXY)
	require.ErrorIs(t, err, schema.ErrMalformedBuffer)

	_, err = NewSeparatedSequence([][]float64{{1}, {2, 3}}, schema.DimXY)
	require.ErrorIs(t, err, schema.ErrMalformedBuffer)

	_, err = NewSeparatedSequence([][]float64{{1}, {2}}, schema.DimXYZ)
	require.ErrorIs(t, err, schema.ErrMalformedBuffer)
}

func Test_Sequence_Promote(t *testing.T) {
	s := SequenceOf(schema.DimXY, XY(1, 2), XY(3, 4))

	promoted := s.Promote(schema.DimXYZ)
	require.Equal(t, schema.DimXYZ, promoted.Dim())
	require.Equal(t, 2, promoted.Len())
	require.Equal(t, 1.0, promoted.At(0, 0))
	require.True(t, math.IsNaN(promoted.At(0, 2)))

	// XYM keeps the measure, drops nothing.
	m := SequenceOf(schema.DimXYM, XYM(1, 2, 9))
	zm := m.Promote(schema.DimXYZM)
	require.True(t, math.IsNaN(zm.At(0, 2)))
	require.Equal(t, 9.0, zm.At(0, 3))

	// XYZ keeps Z in place.
	z := SequenceOf(schema.DimXYZ, XYZ(1, 2, 7))
	zm = z.Promote(schema.DimXYZM)
	require.Equal(t, 7.0, zm.At(0, 2))
	require.True(t, math.IsNaN(zm.At(0, 3)))
}

func Test_Point_Empty(t *testing.T) {
	empty := NewEmptyPoint(schema.DimXY)
	require.True(t, empty.IsEmpty())
	require.True(t, math.IsNaN(empty.Coord()[0]))

	p := NewPoint(XY(1, 2))
	require.False(t, p.IsEmpty())
	require.True(t, Equal(empty, NewEmptyPoint(schema.DimXY)))
	require.False(t, Equal(empty, p))
}

func Test_Equal(t *testing.T) {
	ring := SequenceOf(schema.DimXY, XY(0, 0), XY(2, 0), XY(2, 2), XY(0, 2), XY(0, 0))
	poly := Polygon{Dimension: schema.DimXY, Rings: []Sequence{ring}}

	testCases := map[string]struct {
		a, b     Geometry
		expected bool
	}{
		"same-point":     {NewPoint(XY(1, 2)), NewPoint(XY(1, 2)), true},
		"diff-point":     {NewPoint(XY(1, 2)), NewPoint(XY(1, 3)), false},
		"diff-dim":       {NewPoint(XY(1, 2)), NewPoint(XYZ(1, 2, 3)), false},
		"diff-kind":      {NewPoint(XY(1, 2)), MultiPoint{Points: SequenceOf(schema.DimXY, XY(1, 2))}, false},
		"same-polygon":   {poly, Polygon{Dimension: schema.DimXY, Rings: []Sequence{ring}}, true},
		"empty-polygons": {Polygon{Dimension: schema.DimXY}, Polygon{Dimension: schema.DimXY}, true},
		"collection": {
			GeometryCollection{Dimension: schema.DimXY, Geoms: []Geometry{NewPoint(XY(1, 2)), poly}},
			GeometryCollection{Dimension: schema.DimXY, Geoms: []Geometry{NewPoint(XY(1, 2)), poly}},
			true,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, Equal(tc.a, tc.b))
			require.Equal(t, tc.expected, Equal(tc.b, tc.a))
		})
	}
}

func Test_Orb_RoundTrip(t *testing.T) {
	ring := SequenceOf(schema.DimXY, XY(0, 0), XY(2, 0), XY(2, 2), XY(0, 2), XY(0, 0))
	testCases := map[string]Geometry{
		"point":      NewPoint(XY(1, 2)),
		"linestring": LineString{Coords: SequenceOf(schema.DimXY, XY(0, 0), XY(1, 1))},
		"polygon":    Polygon{Dimension: schema.DimXY, Rings: []Sequence{ring}},
		"multipoint": MultiPoint{Points: SequenceOf(schema.DimXY, XY(3, 4), XY(5, 6))},
		"multilinestring": MultiLineString{Dimension: schema.DimXY, Lines: []Sequence{
			SequenceOf(schema.DimXY, XY(0, 0), XY(1, 1)),
			SequenceOf(schema.DimXY, XY(2, 2), XY(3, 3)),
		}},
		"multipolygon": MultiPolygon{Dimension: schema.DimXY, Polygons: []Polygon{
			{Dimension: schema.DimXY, Rings: []Sequence{ring}},
		}},
		"collection": GeometryCollection{Dimension: schema.DimXY, Geoms: []Geometry{
			NewPoint(XY(1, 2)),
			LineString{Coords: SequenceOf(schema.DimXY, XY(0, 0), XY(1, 1))},
		}},
	}
	for name, g := range testCases {
		t.Run(name, func(t *testing.T) {
			o, err := ToOrb(g)
			require.NoError(t, err)
			back, err := FromOrb(o)
			require.NoError(t, err)
			require.True(t, Equal(g, back), "round trip changed %s", name)
		})
	}
}

func Test_Orb_RejectsNonXY(t *testing.T) {
	_, err := ToOrb(NewPoint(XYZ(1, 2, 3)))
	require.ErrorIs(t, err, schema.ErrUnsupportedCombination)
}

func Test_FromOrb_Ring(t *testing.T) {
	g, err := FromOrb(orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}})
	require.NoError(t, err)
	require.Equal(t, schema.Polygon, g.GeometryType())
	require.Len(t, g.(Polygon).Rings, 1)
}
