//go:build example

package main

import (
	"fmt"
	"log"

	"github.com/apache/arrow-go/v18/arrow/memory"

	garray "github.com/geoarrow/geoarrow-go/array"
	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

func main() {
	mem := memory.NewGoAllocator()

	typ := schema.NewType(schema.Point, schema.DimXY, schema.Interleaved).
		WithMetadata(schema.MetadataFromAuthorityCode("EPSG:4326"))

	b := garray.NewPointBuilder(mem, typ)
	defer b.Release()
	if err := b.Append(geom.NewPoint(geom.XY(2.349, 48.853))); err != nil {
		log.Fatal(err)
	}
	if err := b.Append(geom.NewPoint(geom.XY(-0.128, 51.507))); err != nil {
		log.Fatal(err)
	}
	b.AppendNull()
	if err := b.Append(geom.NewPoint(geom.XY(13.405, 52.520))); err != nil {
		log.Fatal(err)
	}

	arr, err := b.NewPointArray()
	if err != nil {
		log.Fatal(err)
	}
	defer arr.Release()

	fmt.Printf("column type: %s\n", arr.Type())
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			fmt.Printf("row %d: null\n", i)
			continue
		}
		p, err := arr.Value(i)
		if err != nil {
			log.Fatal(err)
		}
		c := p.Coord()
		fmt.Printf("row %d: (%g, %g)\n", i, c[0], c[1])
	}

	// Zero-copy slice of the last two rows.
	tail, err := arr.Slice(2, 2)
	if err != nil {
		log.Fatal(err)
	}
	defer tail.Release()
	fmt.Printf("slice length: %d\n", tail.Len())

	bounds, err := garray.Bounds(arr)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("bounds: min (%g, %g) max (%g, %g)\n",
		bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1])

	// The column travels through Arrow schemas as a storage field plus
	// extension metadata.
	field := typ.Field("geometry", true)
	roundTripped, err := schema.TypeFromField(field)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("field round trip: %s\n", roundTripped)
}
