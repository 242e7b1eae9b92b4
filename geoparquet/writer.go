package geoparquet

import (
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
	"github.com/geoarrow/geoarrow-go/wkb"
	"github.com/geoarrow/geoarrow-go/wkt"
)

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	primary      string
	parquetProps *parquet.WriterProperties
	arrowProps   *pqarrow.ArrowWriterProperties
}

// WithPrimaryColumn names the primary geometry column. The default is the
// first geometry column in schema order.
func WithPrimaryColumn(name string) WriterOption {
	return func(c *writerConfig) { c.primary = name }
}

// WithWriterProps overrides the Parquet writer properties.
func WithWriterProps(props *parquet.WriterProperties) WriterOption {
	return func(c *writerConfig) { c.parquetProps = props }
}

// WithArrowWriterProps overrides the Arrow writer properties.
func WithArrowWriterProps(props pqarrow.ArrowWriterProperties) WriterOption {
	return func(c *writerConfig) { c.arrowProps = &props }
}

// columnState accumulates the geo metadata of one geometry column while
// records stream through: the set of geometry types seen and a running
// bounding box over x, y, z, m.
type columnState struct {
	typ      schema.Type
	kinds    map[string]bool
	min, max [4]float64
	seen     bool
}

func newColumnState(typ schema.Type) *columnState {
	s := &columnState{typ: typ, kinds: make(map[string]bool)}
	for i := range s.min {
		s.min[i] = math.Inf(1)
		s.max[i] = math.Inf(-1)
	}
	return s
}

func (s *columnState) fold(r geom.Rect) {
	if len(r.Min) == 0 || r.Min[0] > r.Max[0] {
		return
	}
	s.seen = true
	fold := func(ord, at int) {
		if !math.IsInf(r.Min[at], 1) {
			s.min[ord] = math.Min(s.min[ord], r.Min[at])
		}
		if !math.IsInf(r.Max[at], -1) {
			s.max[ord] = math.Max(s.max[ord], r.Max[at])
		}
	}
	fold(0, 0)
	fold(1, 1)
	if r.Dimension.HasZ() {
		fold(2, 2)
	}
	if r.Dimension.HasM() {
		at := 2
		if r.Dimension.HasZ() {
			at = 3
		}
		fold(3, at)
	}
}

func (s *columnState) bbox() []float64 {
	if !s.seen {
		return nil
	}
	// The box carries z only when finite z ordinates were seen; m never
	// appears in a geo bbox.
	if s.min[2] <= s.max[2] {
		return []float64{s.min[0], s.min[1], s.min[2], s.max[0], s.max[1], s.max[2]}
	}
	return []float64{s.min[0], s.min[1], s.max[0], s.max[1]}
}

func (s *columnState) metadata() *ColumnMetadata {
	col := columnMetadata(s.typ)
	col.GeometryTypes = make([]string, 0, len(s.kinds))
	for _, name := range orderedKinds {
		if s.kinds[name] {
			col.GeometryTypes = append(col.GeometryTypes, name)
		}
	}
	col.Bbox = s.bbox()
	return col
}

// orderedKinds fixes the geometry_types output order so metadata is
// deterministic.
var orderedKinds = func() []string {
	kinds := []schema.GeometryType{
		schema.Point, schema.LineString, schema.Polygon,
		schema.MultiPoint, schema.MultiLineString, schema.MultiPolygon,
		schema.GeometryCollection,
	}
	dims := []schema.Dimension{schema.DimXY, schema.DimXYZ, schema.DimXYM, schema.DimXYZM}
	names := make([]string, 0, len(kinds)*len(dims))
	for _, kind := range kinds {
		for _, dim := range dims {
			names = append(names, geometryTypeString(kind, dim))
		}
	}
	return names
}()

// Writer streams Arrow records into a GeoParquet file. Geometry columns,
// recognized by their extension metadata, are re-encoded as ISO WKB binary
// columns; the "geo" file metadata entry is assembled from the rows
// actually written and attached on Close.
type Writer struct {
	mem      memory.Allocator
	fw       *pqarrow.FileWriter
	in       *arrow.Schema
	out      *arrow.Schema
	columns  map[int]*columnState
	names    map[int]string
	primary  string
	wkbTypes map[int]schema.Type
	closed   bool
}

// NewWriter prepares a GeoParquet writer over w for records of the given
// schema. The schema must contain at least one geometry column.
func NewWriter(w io.Writer, mem memory.Allocator, sch *arrow.Schema, opts ...WriterOption) (*Writer, error) {
	cfg := writerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.parquetProps == nil {
		cfg.parquetProps = parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	}
	if cfg.arrowProps == nil {
		props := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
		cfg.arrowProps = &props
	}

	columns := make(map[int]*columnState)
	names := make(map[int]string)
	wkbTypes := make(map[int]schema.Type)
	outFields := make([]arrow.Field, sch.NumFields())
	primary := cfg.primary
	for i := 0; i < sch.NumFields(); i++ {
		f := sch.Field(i)
		outFields[i] = f
		if f.Metadata.FindKey(schema.ExtensionNameKey) < 0 {
			continue
		}
		typ, err := schema.TypeFromField(f)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		wkbType, err := schema.NewSerializedType(schema.WKB)
		if err != nil {
			return nil, err
		}
		wkbType = wkbType.WithMetadata(typ.Metadata())
		columns[i] = newColumnState(typ)
		names[i] = f.Name
		wkbTypes[i] = wkbType
		outFields[i] = wkbType.Field(f.Name, f.Nullable)
		if primary == "" {
			primary = f.Name
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: schema has no geometry columns", schema.ErrIncompatibleType)
	}
	primaryOK := false
	for _, name := range names {
		if name == primary {
			primaryOK = true
			break
		}
	}
	if !primaryOK {
		return nil, fmt.Errorf("%w: primary column %q is not a geometry column", schema.ErrIncompatibleType, primary)
	}

	md := sch.Metadata()
	out := arrow.NewSchema(outFields, &md)
	fw, err := pqarrow.NewFileWriter(out, w, cfg.parquetProps, *cfg.arrowProps)
	if err != nil {
		return nil, fmt.Errorf("opening parquet writer: %w", err)
	}
	return &Writer{
		mem:      mem,
		fw:       fw,
		in:       sch,
		out:      out,
		columns:  columns,
		names:    names,
		primary:  primary,
		wkbTypes: wkbTypes,
	}, nil
}

// wrapColumn reads a record column as a geometry array, accepting native,
// WKB, and WKT storage.
func wrapColumn(typ schema.Type, arr arrow.Array) (garray.Array, error) {
	switch typ.Kind() {
	case schema.WKB:
		return wkb.NewArray(typ, arr)
	case schema.WKT:
		return wkt.NewArray(typ, arr)
	default:
		return garray.FromArrow(typ, arr)
	}
}

// Write appends one record. The record's schema must match the schema the
// writer was built with.
func (w *Writer) Write(rec arrow.Record) error {
	if w.closed {
		return fmt.Errorf("geoparquet writer already closed")
	}
	if !rec.Schema().Equal(w.in) {
		return fmt.Errorf("%w: record schema does not match writer schema", schema.ErrIncompatibleType)
	}

	cols := make([]arrow.Array, rec.NumCols())
	var encoded []garray.Array
	defer func() {
		for _, e := range encoded {
			e.Release()
		}
	}()
	for i := 0; i < int(rec.NumCols()); i++ {
		state, ok := w.columns[i]
		if !ok {
			cols[i] = rec.Column(i)
			continue
		}
		src, err := wrapColumn(state.typ, rec.Column(i))
		if err != nil {
			return fmt.Errorf("column %q: %w", w.names[i], err)
		}
		out, err := wkb.FromArray(w.mem, src, wkb.ISO)
		src.Release()
		if err != nil {
			return fmt.Errorf("column %q: %w", w.names[i], err)
		}
		encoded = append(encoded, out)
		cols[i] = out.Storage()

		for row := 0; row < out.Len(); row++ {
			if out.IsNull(row) {
				continue
			}
			kind, dim, err := out.ScanType(row)
			if err != nil {
				return fmt.Errorf("column %q row %d: %w", w.names[i], row, err)
			}
			state.kinds[geometryTypeString(kind, dim)] = true
		}
		rect, err := garray.Bounds(out)
		if err != nil {
			return fmt.Errorf("column %q: %w", w.names[i], err)
		}
		state.fold(rect)
	}

	wkbRec := arrowarray.NewRecord(w.out, cols, rec.NumRows())
	defer wkbRec.Release()
	if err := w.fw.Write(wkbRec); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// Close attaches the geo file metadata and finishes the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	meta := &Metadata{
		Version:       Version,
		PrimaryColumn: w.primary,
		Columns:       make(map[string]*ColumnMetadata, len(w.columns)),
	}
	for i, state := range w.columns {
		meta.Columns[w.names[i]] = state.metadata()
	}
	encoded, err := meta.Serialize()
	if err != nil {
		return err
	}
	if err := w.fw.AppendKeyValueMetadata(MetadataKey, encoded); err != nil {
		return fmt.Errorf("attaching geo metadata: %w", err)
	}
	return w.fw.Close()
}
