package flatgeobuf

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow/memory"
	fgb "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// Reader reads geometry columns out of an in-memory FlatGeobuf file.
type Reader struct {
	fgb    *fgb.FlatGeoBuf
	header Header
}

// NewReader opens a FlatGeobuf file held in memory.
func NewReader(data []byte) (*Reader, error) {
	f, err := fgb.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrMalformedBuffer, err)
	}
	r := &Reader{fgb: f}
	r.header = r.readHeader()
	return r, nil
}

func (r *Reader) readHeader() Header {
	h := r.fgb.Header()
	out := Header{
		Name:          string(h.Name()),
		Description:   string(h.Description()),
		FeaturesCount: h.FeaturesCount(),
		HasIndex:      h.IndexNodeSize() > 0,
	}
	out.Kind, _ = kindFromFlat(h.GeometryType())

	if h.EnvelopeLength() >= 4 {
		out.HasEnvelope = true
		for i := range out.Envelope {
			out.Envelope[i] = h.Envelope(i)
		}
	}

	var crs flattypes.Crs
	if h.Crs(&crs) != nil && crs.Code() != 0 {
		org := string(crs.Org())
		if org == "" {
			org = "EPSG"
		}
		out.Metadata = schema.MetadataFromAuthorityCode(fmt.Sprintf("%s:%d", org, crs.Code()))
	}
	return out
}

// Header returns the file metadata.
func (r *Reader) Header() Header { return r.header }

// arrayType picks the narrowest descriptor the header's declared geometry
// type allows.
func (r *Reader) arrayType() schema.Type {
	typ := schema.NewGeometryType(schema.Interleaved)
	if r.header.Kind != schema.Geometry {
		typ = schema.NewType(r.header.Kind, schema.DimXY, schema.Interleaved)
	}
	return typ.WithMetadata(r.header.Metadata)
}

// Search returns the features whose bounds intersect the query rectangle,
// as a geometry column. The file must carry a spatial index.
func (r *Reader) Search(mem memory.Allocator, bounds geom.Rect) (garray.Array, error) {
	if !r.header.HasIndex {
		return nil, fmt.Errorf("%w: file has no spatial index", schema.ErrUnsupportedCombination)
	}
	features, err := r.fgb.Search(bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1])
	if err != nil {
		return nil, fmt.Errorf("searching flatgeobuf: %w", err)
	}

	typ := r.arrayType()
	builder, err := garray.NewBuilder(mem, typ)
	if err != nil {
		return nil, err
	}
	defer builder.Release()
	for i, feature := range features {
		var fg flattypes.Geometry
		converted := fromFlat(feature.Geometry(&fg))
		if converted == nil {
			continue
		}
		scalar, err := geom.FromOrb(converted)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if err := builder.AppendGeometry(scalar); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
	}
	return builder.NewArray()
}

// ReadAll returns every feature in the file as a geometry column, using the
// header envelope when present and the whole plane otherwise.
func (r *Reader) ReadAll(mem memory.Allocator) (garray.Array, error) {
	bounds := geom.Rect{
		Dimension: schema.DimXY,
		Min:       geom.XY(-math.MaxFloat64, -math.MaxFloat64),
		Max:       geom.XY(math.MaxFloat64, math.MaxFloat64),
	}
	if r.header.HasEnvelope {
		bounds.Min = geom.XY(r.header.Envelope[0], r.header.Envelope[1])
		bounds.Max = geom.XY(r.header.Envelope[2], r.header.Envelope[3])
	}
	return r.Search(mem, bounds)
}
