// Package geoparquet writes and reads GeoParquet files: Parquet files
// whose geometry columns hold WKB and are described by the "geo" file
// metadata entry.
package geoparquet

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/geoarrow/geoarrow-go/schema"
)

const (
	// MetadataKey is the Parquet key-value metadata key holding the geo
	// metadata JSON.
	MetadataKey = "geo"
	// Version is the GeoParquet specification version written.
	Version = "1.1.0"
	// EncodingWKB is the only geometry encoding written and accepted.
	EncodingWKB = "WKB"
)

// Metadata is the file-level geo metadata.
type Metadata struct {
	Version       string                     `json:"version"`
	PrimaryColumn string                     `json:"primary_column"`
	Columns       map[string]*ColumnMetadata `json:"columns"`
}

// ColumnMetadata describes one geometry column.
type ColumnMetadata struct {
	Encoding      string          `json:"encoding"`
	GeometryTypes []string        `json:"geometry_types"`
	CRS           json.RawMessage `json:"crs,omitempty"`
	Edges         string          `json:"edges,omitempty"`
	Bbox          []float64       `json:"bbox,omitempty"`
}

// Serialize encodes the metadata for the key-value entry.
func (m *Metadata) Serialize() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("serializing geo metadata: %w", err)
	}
	return string(data), nil
}

// DeserializeMetadata decodes the "geo" key-value entry.
func DeserializeMetadata(data string) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("%w: invalid geo metadata: %v", schema.ErrMalformedBuffer, err)
	}
	if m.Columns == nil {
		return nil, fmt.Errorf("%w: geo metadata has no columns", schema.ErrMalformedBuffer)
	}
	return &m, nil
}

// columnMetadata translates a column descriptor into its geo metadata
// entry. Only PROJJSON reference systems survive; other CRS encodings have
// no geo representation and are dropped.
func columnMetadata(typ schema.Type) *ColumnMetadata {
	col := &ColumnMetadata{Encoding: EncodingWKB}
	meta := typ.Metadata()
	if meta.CRSType == schema.CRSTypeProjjson {
		col.CRS = meta.CRS
	}
	if meta.Edges != "" && meta.Edges != schema.EdgesPlanar {
		col.Edges = string(meta.Edges)
	}
	return col
}

// columnType rebuilds the column descriptor carried by a geo entry.
func (c *ColumnMetadata) columnType() (schema.Type, error) {
	if c.Encoding != EncodingWKB {
		return schema.Type{}, fmt.Errorf("%w: geometry encoding %q", schema.ErrUnsupportedCombination, c.Encoding)
	}
	typ, err := schema.NewSerializedType(schema.WKB)
	if err != nil {
		return schema.Type{}, err
	}
	var meta schema.Metadata
	if len(c.CRS) > 0 {
		meta = schema.MetadataFromProjjson(c.CRS)
	}
	if c.Edges != "" {
		meta.Edges = schema.Edges(c.Edges)
	}
	return typ.WithMetadata(meta), nil
}

// geometryTypeString renders a (kind, dimension) pair the way geo metadata
// spells it, e.g. "MultiPolygon Z".
func geometryTypeString(kind schema.GeometryType, dim schema.Dimension) string {
	name := kind.String()
	switch dim {
	case schema.DimXYZ:
		return name + " Z"
	case schema.DimXYM:
		return name + " M"
	case schema.DimXYZM:
		return name + " ZM"
	default:
		return name
	}
}
