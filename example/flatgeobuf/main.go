//go:build example

package main

import (
	"bytes"
	"fmt"
	"log"

	"github.com/apache/arrow-go/v18/arrow/memory"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/flatgeobuf"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
	"github.com/geoarrow/geoarrow-go/wkt"
)

func main() {
	mem := memory.NewGoAllocator()

	typ := schema.NewType(schema.Point, schema.DimXY, schema.Interleaved).
		WithMetadata(schema.MetadataFromAuthorityCode("EPSG:4326"))
	b := garray.NewPointBuilder(mem, typ)
	defer b.Release()
	for _, c := range []geom.Coord{
		geom.XY(2.349, 48.853),
		geom.XY(-0.128, 51.507),
		geom.XY(13.405, 52.520),
	} {
		if err := b.Append(geom.NewPoint(c)); err != nil {
			log.Fatal(err)
		}
	}
	arr, err := b.NewPointArray()
	if err != nil {
		log.Fatal(err)
	}
	defer arr.Release()

	var buf bytes.Buffer
	if err := flatgeobuf.Write(&buf, arr, &flatgeobuf.WriteOptions{
		Name:         "cities",
		IncludeIndex: true,
	}); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %d bytes\n", buf.Len())

	r, err := flatgeobuf.NewReader(buf.Bytes())
	if err != nil {
		log.Fatal(err)
	}
	h := r.Header()
	srid, _ := h.Metadata.SRID()
	fmt.Printf("layer %q, %d features, kind %s, srid %d\n",
		h.Name, h.FeaturesCount, h.Kind, srid)

	// Spatial query over western Europe.
	hits, err := r.Search(mem, geom.Rect{
		Dimension: schema.DimXY,
		Min:       geom.XY(-5, 45),
		Max:       geom.XY(5, 55),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer hits.Release()
	for i := 0; i < hits.Len(); i++ {
		g, err := hits.Geometry(i)
		if err != nil {
			log.Fatal(err)
		}
		s, err := wkt.Encode(g)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("hit %d: %s\n", i, s)
	}
}
