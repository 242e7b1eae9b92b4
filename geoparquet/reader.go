package geoparquet

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/schema"
	"github.com/geoarrow/geoarrow-go/wkb"
)

// Table is a GeoParquet file materialized as an Arrow table plus its geo
// metadata. Geometry columns come out as WKB columns carrying the CRS the
// file declares.
type Table struct {
	table arrow.Table
	meta  *Metadata
	types map[string]schema.Type
}

// ReadTable reads a whole GeoParquet file. The file must carry a "geo"
// metadata entry naming at least one geometry column.
func ReadTable(ctx context.Context, r parquet.ReaderAtSeeker, mem memory.Allocator) (*Table, error) {
	pf, err := file.NewParquetReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening parquet file: %w", err)
	}

	raw := pf.MetaData().KeyValueMetadata().FindValue(MetadataKey)
	if raw == nil {
		pf.Close()
		return nil, fmt.Errorf("%w: file has no %s metadata", schema.ErrMalformedBuffer, MetadataKey)
	}
	meta, err := DeserializeMetadata(*raw)
	if err != nil {
		pf.Close()
		return nil, err
	}

	types := make(map[string]schema.Type, len(meta.Columns))
	for name, col := range meta.Columns {
		typ, err := col.columnType()
		if err != nil {
			pf.Close()
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		types[name] = typ
	}

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: 64 * 1024}, mem)
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("opening arrow reader: %w", err)
	}
	table, err := fr.ReadTable(ctx)
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("reading table: %w", err)
	}
	// The table is fully materialized; the file handle is no longer needed.
	if err := pf.Close(); err != nil {
		table.Release()
		return nil, fmt.Errorf("closing parquet file: %w", err)
	}
	return &Table{table: table, meta: meta, types: types}, nil
}

// Metadata returns the parsed geo file metadata.
func (t *Table) Metadata() *Metadata { return t.meta }

// Arrow returns the underlying Arrow table, geometry columns included as
// plain binary columns.
func (t *Table) Arrow() arrow.Table { return t.table }

// NumRows returns the row count.
func (t *Table) NumRows() int64 { return t.table.NumRows() }

// GeometryColumn returns the named geometry column as a chunked WKB array.
func (t *Table) GeometryColumn(name string) (*garray.Chunked, error) {
	typ, ok := t.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a geometry column", schema.ErrIncompatibleType, name)
	}
	indices := t.table.Schema().FieldIndices(name)
	if len(indices) != 1 {
		return nil, fmt.Errorf("%w: column %q missing from table", schema.ErrMalformedBuffer, name)
	}

	raw := t.table.Column(indices[0]).Data().Chunks()
	chunks := make([]garray.Array, len(raw))
	for i, chunk := range raw {
		arr, err := wkb.NewArray(typ, chunk)
		if err != nil {
			for _, done := range chunks[:i] {
				done.Release()
			}
			return nil, fmt.Errorf("column %q chunk %d: %w", name, i, err)
		}
		chunks[i] = arr
	}
	out, err := garray.NewChunkedOfType(typ, chunks)
	for _, chunk := range chunks {
		chunk.Release()
	}
	return out, err
}

// Primary returns the primary geometry column.
func (t *Table) Primary() (*garray.Chunked, error) {
	return t.GeometryColumn(t.meta.PrimaryColumn)
}

// Release drops the table's reference to the underlying data.
func (t *Table) Release() { t.table.Release() }
