//go:build example

package main

import (
	"encoding/hex"
	"fmt"
	"log"

	"github.com/apache/arrow-go/v18/arrow/memory"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/cast"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
	"github.com/geoarrow/geoarrow-go/wkb"
	"github.com/geoarrow/geoarrow-go/wkt"
)

func main() {
	// Scalar codecs.
	g, err := wkt.Decode("LINESTRING Z (0 0 1, 2 2 3)")
	if err != nil {
		log.Fatal(err)
	}
	iso, err := wkb.Encode(g)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wkb: %s\n", hex.EncodeToString(iso))

	back, err := wkb.Decode(iso)
	if err != nil {
		log.Fatal(err)
	}
	s, err := wkt.Encode(back)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wkt: %s\n", s)

	// A generic column holding mixed kinds downcasts to the narrowest
	// type its rows allow.
	mem := memory.NewGoAllocator()
	b := garray.NewGeometryBuilder(mem, schema.NewGeometryType(schema.Interleaved))
	defer b.Release()
	if err := b.Append(geom.NewPoint(geom.XY(1, 2))); err != nil {
		log.Fatal(err)
	}
	if err := b.Append(geom.MultiPoint{
		Points: geom.SequenceOf(schema.DimXY, geom.XY(3, 4), geom.XY(5, 6)),
	}); err != nil {
		log.Fatal(err)
	}
	generic, err := b.NewGeometryArray()
	if err != nil {
		log.Fatal(err)
	}
	defer generic.Release()

	inf, err := cast.Infer(generic)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("inferred: %s\n", inf.Type)

	narrow, err := cast.Downcast(mem, generic)
	if err != nil {
		log.Fatal(err)
	}
	defer narrow.Release()
	fmt.Printf("downcast: %s, %d rows\n", narrow.Type(), narrow.Len())

	// Round trip the narrow column through a serialized WKT column.
	wktType, err := schema.NewSerializedType(schema.WKT)
	if err != nil {
		log.Fatal(err)
	}
	serialized, err := cast.To(mem, narrow, wktType)
	if err != nil {
		log.Fatal(err)
	}
	defer serialized.Release()
	for i := 0; i < serialized.Len(); i++ {
		v, err := serialized.(*wkt.Array).Value(i)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("row %d: %s\n", i, v)
	}
}
