package geom

// Equal reports structural equality of two geometries: same kind, same
// dimension, and coordinate sequences equal position by position. Physical
// layout never participates; NaN ordinates compare equal.
func Equal(a, b Geometry) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.GeometryType() != b.GeometryType() || a.Dim() != b.Dim() {
		return false
	}
	switch av := a.(type) {
	case Point:
		bv := b.(Point)
		if av.IsEmpty() || bv.IsEmpty() {
			return av.IsEmpty() == bv.IsEmpty()
		}
		return av.Coords.Equal(bv.Coords)
	case LineString:
		return av.Coords.Equal(b.(LineString).Coords)
	case Polygon:
		return ringsEqual(av.Rings, b.(Polygon).Rings)
	case MultiPoint:
		return av.Points.Equal(b.(MultiPoint).Points)
	case MultiLineString:
		return ringsEqual(av.Lines, b.(MultiLineString).Lines)
	case MultiPolygon:
		bv := b.(MultiPolygon)
		if len(av.Polygons) != len(bv.Polygons) {
			return false
		}
		for i := range av.Polygons {
			if !Equal(av.Polygons[i], bv.Polygons[i]) {
				return false
			}
		}
		return true
	case GeometryCollection:
		bv := b.(GeometryCollection)
		if len(av.Geoms) != len(bv.Geoms) {
			return false
		}
		for i := range av.Geoms {
			if !Equal(av.Geoms[i], bv.Geoms[i]) {
				return false
			}
		}
		return true
	case Rect:
		bv := b.(Rect)
		return coordEqual(av.Min, bv.Min) && coordEqual(av.Max, bv.Max)
	default:
		return false
	}
}

func ringsEqual(a, b []Sequence) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func coordEqual(a, b Coord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] && !(a[i] != a[i] && b[i] != b[i]) {
			return false
		}
	}
	return true
}
