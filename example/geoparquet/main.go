//go:build example

package main

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/apache/arrow-go/v18/arrow"
	arrowarray "github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/geoparquet"
	"github.com/geoarrow/geoarrow-go/schema"
)

func main() {
	mem := memory.NewGoAllocator()

	crs := json.RawMessage(`{"type":"GeographicCRS","id":{"authority":"EPSG","code":4326}}`)
	typ := schema.NewType(schema.Point, schema.DimXY, schema.Interleaved).
		WithMetadata(schema.MetadataFromProjjson(crs))

	gb := garray.NewPointBuilder(mem, typ)
	defer gb.Release()
	nb := arrowarray.NewStringBuilder(mem)
	defer nb.Release()
	for _, city := range []struct {
		name string
		x, y float64
	}{
		{"paris", 2.349, 48.853},
		{"london", -0.128, 51.507},
		{"berlin", 13.405, 52.520},
	} {
		if err := gb.Append(geom.NewPoint(geom.XY(city.x, city.y))); err != nil {
			log.Fatal(err)
		}
		nb.Append(city.name)
	}
	geomArr, err := gb.NewPointArray()
	if err != nil {
		log.Fatal(err)
	}
	defer geomArr.Release()
	nameArr := nb.NewStringArray()
	defer nameArr.Release()

	sch := arrow.NewSchema([]arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		typ.Field("geometry", true),
	}, nil)
	rec := arrowarray.NewRecord(sch, []arrow.Array{nameArr, geomArr.Storage()}, int64(geomArr.Len()))
	defer rec.Release()

	var buf bytes.Buffer
	w, err := geoparquet.NewWriter(&buf, mem, sch)
	if err != nil {
		log.Fatal(err)
	}
	if err := w.Write(rec); err != nil {
		log.Fatal(err)
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %d bytes\n", buf.Len())

	tbl, err := geoparquet.ReadTable(context.Background(), bytes.NewReader(buf.Bytes()), mem)
	if err != nil {
		log.Fatal(err)
	}
	defer tbl.Release()

	meta := tbl.Metadata()
	fmt.Printf("geoparquet %s, primary column %q\n", meta.Version, meta.PrimaryColumn)
	col := meta.Columns[meta.PrimaryColumn]
	fmt.Printf("geometry types: %v, bbox: %v\n", col.GeometryTypes, col.Bbox)

	geoms, err := tbl.Primary()
	if err != nil {
		log.Fatal(err)
	}
	defer geoms.Release()
	for i := 0; i < geoms.Len(); i++ {
		g, err := geoms.Geometry(i)
		if err != nil {
			log.Fatal(err)
		}
		c := g.(geom.Point).Coord()
		fmt.Printf("row %d: (%g, %g)\n", i, c[0], c[1])
	}
}
