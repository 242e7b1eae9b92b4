package schema

import "fmt"

// GeometryType identifies the geometry kind of an array or scalar. The first
// seven values match the WKB geometry-type codes.
type GeometryType int

const (
	Point GeometryType = iota + 1
	LineString
	Polygon
	MultiPoint
	MultiLineString
	MultiPolygon
	GeometryCollection
	Box
	// Geometry is the type-tagged union of heterogeneous concrete kinds.
	Geometry
	// WKB and WKT are serialized encodings carried as byte/string columns.
	WKB
	WKT
)

func (t GeometryType) String() string {
	switch t {
	case Point:
		return "Point"
	case LineString:
		return "LineString"
	case Polygon:
		return "Polygon"
	case MultiPoint:
		return "MultiPoint"
	case MultiLineString:
		return "MultiLineString"
	case MultiPolygon:
		return "MultiPolygon"
	case GeometryCollection:
		return "GeometryCollection"
	case Box:
		return "Box"
	case Geometry:
		return "Geometry"
	case WKB:
		return "WKB"
	case WKT:
		return "WKT"
	default:
		return fmt.Sprintf("GeometryType(%d)", int(t))
	}
}

// ExtensionName returns the Arrow extension name for the kind, e.g.
// "geoarrow.multipolygon".
func (t GeometryType) ExtensionName() string {
	switch t {
	case Point:
		return "geoarrow.point"
	case LineString:
		return "geoarrow.linestring"
	case Polygon:
		return "geoarrow.polygon"
	case MultiPoint:
		return "geoarrow.multipoint"
	case MultiLineString:
		return "geoarrow.multilinestring"
	case MultiPolygon:
		return "geoarrow.multipolygon"
	case GeometryCollection:
		return "geoarrow.geometrycollection"
	case Box:
		return "geoarrow.box"
	case Geometry:
		return "geoarrow.geometry"
	case WKB:
		return "geoarrow.wkb"
	case WKT:
		return "geoarrow.wkt"
	default:
		return ""
	}
}

// IsNative reports whether the kind has a native coordinate-buffer
// representation (as opposed to serialized WKB/WKT or the union).
func (t GeometryType) IsNative() bool {
	return t >= Point && t <= Box
}

// Multi returns the multi-part counterpart in the promotion lattice, or the
// kind itself when it has none.
func (t GeometryType) Multi() GeometryType {
	switch t {
	case Point:
		return MultiPoint
	case LineString:
		return MultiLineString
	case Polygon:
		return MultiPolygon
	default:
		return t
	}
}

func typeFromExtensionName(name string) (GeometryType, error) {
	for _, t := range []GeometryType{
		Point, LineString, Polygon, MultiPoint, MultiLineString,
		MultiPolygon, GeometryCollection, Box, Geometry, WKB, WKT,
	} {
		if t.ExtensionName() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown extension name %q", ErrMalformedBuffer, name)
}

// TypeID returns the union discriminant for a (kind, dimension) pair:
// dimension block (XY=0, XYZ=10, XYM=20, XYZM=30) plus the WKB kind code.
func TypeID(t GeometryType, dim Dimension) int8 {
	return int8(int(dim)*10 + int(t))
}

// FromTypeID is the inverse of TypeID.
func FromTypeID(id int8) (GeometryType, Dimension, error) {
	dim := Dimension(id / 10)
	kind := GeometryType(id % 10)
	if dim < DimXY || dim > DimXYZM || kind < Point || kind > GeometryCollection {
		return 0, 0, fmt.Errorf("%w: invalid union type id %d", ErrMalformedBuffer, id)
	}
	return kind, dim, nil
}
