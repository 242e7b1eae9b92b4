package flatgeobuf

import (
	"fmt"
	"io"

	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// rowGenerator feeds array rows to the container writer one feature at a
// time. Null rows are skipped; a conversion failure is parked in err and
// stops generation.
type rowGenerator struct {
	src garray.Array
	row int
	err error
}

func (g *rowGenerator) Generate() *writer.Feature {
	for g.row < g.src.Len() {
		i := g.row
		g.row++
		if g.src.IsNull(i) {
			continue
		}
		scalar, err := g.src.Geometry(i)
		if err != nil {
			g.err = fmt.Errorf("row %d: %w", i, err)
			return nil
		}
		if scalar == nil {
			continue
		}
		converted, err := geom.ToOrb(scalar)
		if err != nil {
			g.err = fmt.Errorf("row %d: %w", i, err)
			return nil
		}

		builder := flatbuffers.NewBuilder(1024)
		fg := toFlat(converted, builder)
		if fg == nil {
			g.err = fmt.Errorf("%w: row %d has no container encoding", schema.ErrUnsupportedCombination, i)
			return nil
		}
		feature := writer.NewFeature(builder)
		feature.SetGeometry(fg)
		return feature
	}
	return nil
}

// Write streams an XY geometry column into a FlatGeobuf file. Null rows
// are dropped, since the container stores features, not slots. The CRS is
// carried as an EPSG code when the column metadata resolves to one.
func Write(w io.Writer, src garray.Array, opts *WriteOptions) error {
	if opts == nil {
		opts = DefaultWriteOptions()
	}
	if src.Type().Kind().IsNative() && src.Type().Kind() != schema.Geometry && src.Type().Dim() != schema.DimXY {
		return fmt.Errorf("%w: flatgeobuf holds XY coordinates, column is %s",
			schema.ErrUnsupportedCombination, src.Type().Dim())
	}

	builder := flatbuffers.NewBuilder(4096)
	header := writer.NewHeader(builder)
	header.SetGeometryType(kindToFlat(src.Type().Kind()))
	if opts.Name != "" {
		header.SetName(opts.Name)
	}
	if opts.Description != "" {
		header.SetDescription(opts.Description)
	}
	if code, ok := src.Type().Metadata().SRID(); ok {
		crs := writer.NewCrs(builder)
		crs.SetOrg("EPSG")
		crs.SetCode(code)
		header.SetCrs(crs)
	}

	gen := &rowGenerator{src: src}
	fw := writer.NewWriter(header, opts.IncludeIndex, gen, nil)
	if _, err := fw.Write(w); err != nil {
		return fmt.Errorf("writing flatgeobuf: %w", err)
	}
	return gen.err
}
