package flatgeobuf

import (
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
)

// flattenPoints packs points into the interleaved xy vector the container
// stores.
func flattenPoints(points []orb.Point) []float64 {
	xy := make([]float64, 0, len(points)*2)
	for _, p := range points {
		xy = append(xy, p[0], p[1])
	}
	return xy
}

// flattenRuns packs runs of points into one xy vector plus the cumulative
// ends vector separating them.
func flattenRuns(runs [][]orb.Point) ([]float64, []uint32) {
	total := 0
	for _, run := range runs {
		total += len(run)
	}
	xy := make([]float64, 0, total*2)
	ends := make([]uint32, 0, len(runs))
	cum := uint32(0)
	for _, run := range runs {
		for _, p := range run {
			xy = append(xy, p[0], p[1])
		}
		cum += uint32(len(run))
		ends = append(ends, cum)
	}
	return xy, ends
}

func polygonRuns(poly orb.Polygon) [][]orb.Point {
	runs := make([][]orb.Point, len(poly))
	for i, ring := range poly {
		runs[i] = ring
	}
	return runs
}

// toFlat encodes an orb geometry as a container geometry.
func toFlat(g orb.Geometry, builder *flatbuffers.Builder) *writer.Geometry {
	out := writer.NewGeometry(builder)
	switch v := g.(type) {
	case orb.Point:
		out.SetType(flattypes.GeometryTypePoint)
		out.SetXY([]float64{v[0], v[1]})
	case orb.MultiPoint:
		out.SetType(flattypes.GeometryTypeMultiPoint)
		out.SetXY(flattenPoints(v))
	case orb.LineString:
		out.SetType(flattypes.GeometryTypeLineString)
		out.SetXY(flattenPoints(v))
	case orb.MultiLineString:
		out.SetType(flattypes.GeometryTypeMultiLineString)
		runs := make([][]orb.Point, len(v))
		for i, line := range v {
			runs[i] = line
		}
		xy, ends := flattenRuns(runs)
		out.SetXY(xy)
		out.SetEnds(ends)
	case orb.Ring:
		out.SetType(flattypes.GeometryTypePolygon)
		out.SetXY(flattenPoints(v))
		out.SetEnds([]uint32{uint32(len(v))})
	case orb.Polygon:
		out.SetType(flattypes.GeometryTypePolygon)
		xy, ends := flattenRuns(polygonRuns(v))
		out.SetXY(xy)
		out.SetEnds(ends)
	case orb.MultiPolygon:
		out.SetType(flattypes.GeometryTypeMultiPolygon)
		parts := make([]writer.Geometry, 0, len(v))
		for _, poly := range v {
			part := writer.NewGeometry(builder)
			part.SetType(flattypes.GeometryTypePolygon)
			xy, ends := flattenRuns(polygonRuns(poly))
			part.SetXY(xy)
			part.SetEnds(ends)
			parts = append(parts, *part)
		}
		out.SetParts(parts)
	case orb.Collection:
		out.SetType(flattypes.GeometryTypeGeometryCollection)
		parts := make([]writer.Geometry, 0, len(v))
		for _, child := range v {
			part := toFlat(child, builder)
			if part != nil {
				parts = append(parts, *part)
			}
		}
		out.SetParts(parts)
	case orb.Bound:
		out.SetType(flattypes.GeometryTypePolygon)
		xy, ends := flattenRuns(polygonRuns(v.ToPolygon()))
		out.SetXY(xy)
		out.SetEnds(ends)
	default:
		return nil
	}
	return out
}

// flatPoints reads the xy run [start, end) as points.
func flatPoints(fg *flattypes.Geometry, start, end uint32) []orb.Point {
	limit := fg.XyLength() / 2
	if int(end) > limit {
		end = uint32(limit)
	}
	points := make([]orb.Point, 0, end-start)
	for i := start; i < end; i++ {
		points = append(points, orb.Point{fg.Xy(int(i) * 2), fg.Xy(int(i)*2 + 1)})
	}
	return points
}

func flatRuns(fg *flattypes.Geometry) [][]orb.Point {
	pointCount := uint32(fg.XyLength() / 2)
	if fg.EndsLength() == 0 {
		if pointCount == 0 {
			return nil
		}
		return [][]orb.Point{flatPoints(fg, 0, pointCount)}
	}
	runs := make([][]orb.Point, 0, fg.EndsLength())
	start := uint32(0)
	for i := 0; i < fg.EndsLength(); i++ {
		end := fg.Ends(i)
		runs = append(runs, flatPoints(fg, start, end))
		start = end
	}
	return runs
}

func flatPolygon(fg *flattypes.Geometry) orb.Polygon {
	runs := flatRuns(fg)
	poly := make(orb.Polygon, len(runs))
	for i, run := range runs {
		poly[i] = orb.Ring(run)
	}
	return poly
}

// fromFlat decodes a container geometry as an orb geometry.
func fromFlat(fg *flattypes.Geometry) orb.Geometry {
	if fg == nil {
		return nil
	}
	switch fg.Type() {
	case flattypes.GeometryTypePoint:
		if fg.XyLength() < 2 {
			return orb.Point{}
		}
		return orb.Point{fg.Xy(0), fg.Xy(1)}
	case flattypes.GeometryTypeMultiPoint:
		return orb.MultiPoint(flatPoints(fg, 0, uint32(fg.XyLength()/2)))
	case flattypes.GeometryTypeLineString:
		return orb.LineString(flatPoints(fg, 0, uint32(fg.XyLength()/2)))
	case flattypes.GeometryTypeMultiLineString:
		runs := flatRuns(fg)
		mls := make(orb.MultiLineString, len(runs))
		for i, run := range runs {
			mls[i] = orb.LineString(run)
		}
		return mls
	case flattypes.GeometryTypePolygon:
		return flatPolygon(fg)
	case flattypes.GeometryTypeMultiPolygon:
		mp := make(orb.MultiPolygon, 0, fg.PartsLength())
		for i := 0; i < fg.PartsLength(); i++ {
			var part flattypes.Geometry
			if fg.Parts(&part, i) {
				mp = append(mp, flatPolygon(&part))
			}
		}
		return mp
	case flattypes.GeometryTypeGeometryCollection:
		coll := make(orb.Collection, 0, fg.PartsLength())
		for i := 0; i < fg.PartsLength(); i++ {
			var part flattypes.Geometry
			if fg.Parts(&part, i) {
				if child := fromFlat(&part); child != nil {
					coll = append(coll, child)
				}
			}
		}
		return coll
	default:
		return nil
	}
}
