// Package flatgeobuf moves geometry columns in and out of the FlatGeobuf
// file container. Coordinates are XY only; columns of any other dimension
// are rejected rather than truncated.
package flatgeobuf

import (
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"

	"github.com/geoarrow/geoarrow-go/schema"
)

// WriteOptions configures a FlatGeobuf write.
type WriteOptions struct {
	Name         string
	Description  string
	IncludeIndex bool
}

// DefaultWriteOptions enables the spatial index, which is what makes the
// file searchable.
func DefaultWriteOptions() *WriteOptions {
	return &WriteOptions{IncludeIndex: true}
}

// Header is the file-level metadata of a FlatGeobuf file.
type Header struct {
	Name          string
	Description   string
	Kind          schema.GeometryType
	FeaturesCount uint64
	Envelope      [4]float64
	HasEnvelope   bool
	HasIndex      bool
	// Metadata carries the CRS as an authority code when the file declares
	// one.
	Metadata schema.Metadata
}

func kindToFlat(kind schema.GeometryType) flattypes.GeometryType {
	switch kind {
	case schema.Point:
		return flattypes.GeometryTypePoint
	case schema.LineString:
		return flattypes.GeometryTypeLineString
	case schema.Polygon, schema.Box:
		return flattypes.GeometryTypePolygon
	case schema.MultiPoint:
		return flattypes.GeometryTypeMultiPoint
	case schema.MultiLineString:
		return flattypes.GeometryTypeMultiLineString
	case schema.MultiPolygon:
		return flattypes.GeometryTypeMultiPolygon
	case schema.GeometryCollection:
		return flattypes.GeometryTypeGeometryCollection
	default:
		return flattypes.GeometryTypeUnknown
	}
}

func kindFromFlat(ft flattypes.GeometryType) (schema.GeometryType, bool) {
	switch ft {
	case flattypes.GeometryTypePoint:
		return schema.Point, true
	case flattypes.GeometryTypeLineString:
		return schema.LineString, true
	case flattypes.GeometryTypePolygon:
		return schema.Polygon, true
	case flattypes.GeometryTypeMultiPoint:
		return schema.MultiPoint, true
	case flattypes.GeometryTypeMultiLineString:
		return schema.MultiLineString, true
	case flattypes.GeometryTypeMultiPolygon:
		return schema.MultiPolygon, true
	case flattypes.GeometryTypeGeometryCollection:
		return schema.GeometryCollection, true
	default:
		return schema.Geometry, false
	}
}
