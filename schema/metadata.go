package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Edges identifies how the edge between two vertices is interpreted.
type Edges string

const (
	EdgesPlanar    Edges = "planar"
	EdgesSpherical Edges = "spherical"
	EdgesVincenty  Edges = "vincenty"
	EdgesThomas    Edges = "thomas"
	EdgesAndoyer   Edges = "andoyer"
	EdgesKarney    Edges = "karney"
)

// CRSType disambiguates the value held in the "crs" metadata key.
type CRSType string

const (
	CRSTypeProjjson      CRSType = "projjson"
	CRSTypeWKT2          CRSType = "wkt2:2019"
	CRSTypeAuthorityCode CRSType = "authority_code"
	CRSTypeSRID          CRSType = "srid"
)

// Metadata is the extension metadata carried next to every geometry column:
// an opaque CRS token and an optional edge interpretation. An absent "crs"
// key means unspecified, never a default reference system.
type Metadata struct {
	CRS     json.RawMessage `json:"crs,omitempty"`
	CRSType CRSType         `json:"crs_type,omitempty"`
	Edges   Edges           `json:"edges,omitempty"`
}

// MetadataFromAuthorityCode builds metadata from an "AUTHORITY:CODE" token
// such as "EPSG:4326".
func MetadataFromAuthorityCode(code string) Metadata {
	raw, _ := json.Marshal(code)
	return Metadata{CRS: raw, CRSType: CRSTypeAuthorityCode}
}

// MetadataFromProjjson builds metadata from an already-encoded PROJJSON
// object.
func MetadataFromProjjson(projjson json.RawMessage) Metadata {
	return Metadata{CRS: projjson, CRSType: CRSTypeProjjson}
}

// IsEmpty reports whether there is nothing to serialize.
func (m Metadata) IsEmpty() bool {
	return len(m.CRS) == 0 && m.Edges == ""
}

// Serialize encodes the metadata as the extension-metadata JSON string.
// Empty metadata serializes to "{}" so the key round-trips.
func (m Metadata) Serialize() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("serializing geometry metadata: %w", err)
	}
	return string(data), nil
}

// DeserializeMetadata decodes the extension-metadata JSON string. An empty
// string yields empty metadata.
func DeserializeMetadata(data string) (Metadata, error) {
	var m Metadata
	if data == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return m, fmt.Errorf("%w: invalid extension metadata: %v", ErrMalformedBuffer, err)
	}
	return m, nil
}

// SRID resolves the CRS token to an integer authority code if possible.
// It understands "AUTHORITY:CODE" and bare-integer string tokens, and
// PROJJSON objects with an "id" member. The second return is false when no
// integer code can be derived; callers must then omit the EWKB SRID word.
func (m Metadata) SRID() (int32, bool) {
	if len(m.CRS) == 0 {
		return 0, false
	}

	var s string
	if err := json.Unmarshal(m.CRS, &s); err == nil {
		if idx := strings.LastIndex(s, ":"); idx >= 0 {
			s = s[idx+1:]
		}
		code, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return 0, false
		}
		return int32(code), true
	}

	var projjson struct {
		ID struct {
			Code json.RawMessage `json:"code"`
		} `json:"id"`
	}
	if err := json.Unmarshal(m.CRS, &projjson); err != nil || len(projjson.ID.Code) == 0 {
		return 0, false
	}
	var code int32
	if err := json.Unmarshal(projjson.ID.Code, &code); err != nil {
		return 0, false
	}
	return code, true
}
