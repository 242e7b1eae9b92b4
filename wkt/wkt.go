// Package wkt reads and writes Well-Known Text geometries.
package wkt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/geoarrow/geoarrow-go/geom"
	"github.com/geoarrow/geoarrow-go/schema"
)

// Decode parses one WKT geometry. Malformed input fails with
// schema.ErrMalformedWKT naming the character position of the violation.
func Decode(s string) (geom.Geometry, error) {
	p := &parser{s: s}
	g, err := p.geometry(nil)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.s) {
		return nil, p.errorf("trailing input")
	}
	return g, nil
}

// DecodeType reads only the tag and dimension suffix. The dimension of an
// unsuffixed non-empty geometry is inferred from its first coordinate.
func DecodeType(s string) (schema.GeometryType, schema.Dimension, error) {
	p := &parser{s: s}
	kind, dim, known, err := p.tag()
	if err != nil {
		return 0, 0, err
	}
	if !known {
		g, err := Decode(s)
		if err != nil {
			return 0, 0, err
		}
		return kind, g.Dim(), nil
	}
	return kind, dim, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at position %d", schema.ErrMalformedWKT, fmt.Sprintf(format, args...), p.pos)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n' || p.s[p.pos] == '\r') {
		p.pos++
	}
}

// word consumes a run of letters, upper-cased.
func (p *parser) word() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			break
		}
		p.pos++
	}
	return strings.ToUpper(p.s[start:p.pos])
}

func (p *parser) accept(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(c byte) error {
	if !p.accept(c) {
		return p.errorf("expected %q", string(c))
	}
	return nil
}

// tag reads the geometry keyword and an optional Z/M/ZM suffix.
func (p *parser) tag() (schema.GeometryType, schema.Dimension, bool, error) {
	at := p.pos
	word := p.word()
	var kind schema.GeometryType
	switch word {
	case "POINT":
		kind = schema.Point
	case "LINESTRING":
		kind = schema.LineString
	case "POLYGON":
		kind = schema.Polygon
	case "MULTIPOINT":
		kind = schema.MultiPoint
	case "MULTILINESTRING":
		kind = schema.MultiLineString
	case "MULTIPOLYGON":
		kind = schema.MultiPolygon
	case "GEOMETRYCOLLECTION":
		kind = schema.GeometryCollection
	default:
		p.pos = at
		return 0, 0, false, p.errorf("unknown geometry tag %q", word)
	}

	at = p.pos
	switch p.word() {
	case "Z":
		return kind, schema.DimXYZ, true, nil
	case "M":
		return kind, schema.DimXYM, true, nil
	case "ZM":
		return kind, schema.DimXYZM, true, nil
	case "EMPTY", "":
		p.pos = at
		return kind, schema.DimXY, false, nil
	default:
		p.pos = at
		return 0, 0, false, p.errorf("unexpected token")
	}
}

// geometry parses one tagged geometry. A non-nil expect pins the dimension
// collection members must carry.
func (p *parser) geometry(expect *schema.Dimension) (geom.Geometry, error) {
	kind, dim, known, err := p.tag()
	if err != nil {
		return nil, err
	}
	if expect != nil {
		if known && dim != *expect {
			return nil, p.errorf("member dimension %s does not match collection %s", dim, *expect)
		}
		dim, known = *expect, true
	}
	d := dims{dim: dim, known: known}

	switch kind {
	case schema.Point:
		if p.empty() {
			return geom.NewEmptyPoint(d.dim), nil
		}
		if err := p.expect('('); err != nil {
			return nil, err
		}
		c, err := p.coord(&d)
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return geom.Point{Coords: geom.SequenceOf(d.dim, c)}, nil
	case schema.LineString:
		seq, err := p.sequence(&d, 2, false)
		if err != nil {
			return nil, err
		}
		return geom.LineString{Coords: seq}, nil
	case schema.Polygon:
		rings, err := p.rings(&d)
		if err != nil {
			return nil, err
		}
		return geom.Polygon{Dimension: d.dim, Rings: rings}, nil
	case schema.MultiPoint:
		if p.empty() {
			return geom.MultiPoint{Points: geom.SequenceOf(d.dim)}, nil
		}
		if err := p.expect('('); err != nil {
			return nil, err
		}
		var coords []geom.Coord
		for {
			// Members may be wrapped in parentheses or bare.
			wrapped := p.accept('(')
			c, err := p.coord(&d)
			if err != nil {
				return nil, err
			}
			if wrapped {
				if err := p.expect(')'); err != nil {
					return nil, err
				}
			}
			coords = append(coords, c)
			if !p.accept(',') {
				break
			}
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return geom.MultiPoint{Points: geom.SequenceOf(d.dim, coords...)}, nil
	case schema.MultiLineString:
		if p.empty() {
			return geom.MultiLineString{Dimension: d.dim}, nil
		}
		if err := p.expect('('); err != nil {
			return nil, err
		}
		var lines []geom.Sequence
		for {
			seq, err := p.sequence(&d, 2, false)
			if err != nil {
				return nil, err
			}
			lines = append(lines, seq)
			if !p.accept(',') {
				break
			}
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return geom.MultiLineString{Dimension: d.dim, Lines: lines}, nil
	case schema.MultiPolygon:
		if p.empty() {
			return geom.MultiPolygon{Dimension: d.dim}, nil
		}
		if err := p.expect('('); err != nil {
			return nil, err
		}
		var polys []geom.Polygon
		for {
			rings, err := p.rings(&d)
			if err != nil {
				return nil, err
			}
			polys = append(polys, geom.Polygon{Dimension: d.dim, Rings: rings})
			if !p.accept(',') {
				break
			}
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return geom.MultiPolygon{Dimension: d.dim, Polygons: polys}, nil
	case schema.GeometryCollection:
		if p.empty() {
			return geom.GeometryCollection{Dimension: d.dim}, nil
		}
		if err := p.expect('('); err != nil {
			return nil, err
		}
		var geoms []geom.Geometry
		for {
			var child geom.Geometry
			var err error
			if d.known {
				child, err = p.geometry(&d.dim)
			} else {
				// First member settles the collection dimension.
				child, err = p.geometry(nil)
				if err == nil {
					d.dim, d.known = child.Dim(), true
				}
			}
			if err != nil {
				return nil, err
			}
			geoms = append(geoms, child)
			if !p.accept(',') {
				break
			}
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return geom.GeometryCollection{Dimension: d.dim, Geoms: geoms}, nil
	default:
		return nil, p.errorf("unknown geometry kind")
	}
}

// dims tracks a dimension that may still be unsettled when no Z/M suffix
// was given; the first coordinate's width settles it.
type dims struct {
	dim   schema.Dimension
	known bool
}

func (p *parser) empty() bool {
	at := p.pos
	if p.word() == "EMPTY" {
		return true
	}
	p.pos = at
	return false
}

func (p *parser) number() (float64, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == ',' || c == ')' || c == '(' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return 0, p.errorf("expected number")
	}
	v, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		p.pos = start
		return 0, p.errorf("invalid number %q", p.s[start:p.pos])
	}
	return v, nil
}

// coord reads space-separated ordinates until a delimiter, settling or
// checking the dimension.
func (p *parser) coord(d *dims) (geom.Coord, error) {
	at := p.pos
	var c geom.Coord
	for {
		v, err := p.number()
		if err != nil {
			return nil, err
		}
		c = append(c, v)
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] == ',' || p.s[p.pos] == ')' {
			break
		}
	}
	if !d.known {
		switch len(c) {
		case 2:
			d.dim = schema.DimXY
		case 3:
			d.dim = schema.DimXYZ
		case 4:
			d.dim = schema.DimXYZM
		default:
			p.pos = at
			return nil, p.errorf("coordinate has %d ordinates", len(c))
		}
		d.known = true
	}
	if len(c) != d.dim.Size() {
		p.pos = at
		return nil, p.errorf("coordinate has %d ordinates, dimension %s needs %d", len(c), d.dim, d.dim.Size())
	}
	return c, nil
}

// sequence reads a parenthesized coordinate run.
func (p *parser) sequence(d *dims, minPoints int, closed bool) (geom.Sequence, error) {
	if p.empty() {
		return geom.SequenceOf(d.dim), nil
	}
	at := p.pos
	if err := p.expect('('); err != nil {
		return geom.Sequence{}, err
	}
	var coords []geom.Coord
	for {
		c, err := p.coord(d)
		if err != nil {
			return geom.Sequence{}, err
		}
		coords = append(coords, c)
		if !p.accept(',') {
			break
		}
	}
	if err := p.expect(')'); err != nil {
		return geom.Sequence{}, err
	}
	if len(coords) < minPoints {
		p.pos = at
		return geom.Sequence{}, p.errorf("%d points, need at least %d", len(coords), minPoints)
	}
	if closed && !coordsEqual(coords[0], coords[len(coords)-1]) {
		p.pos = at
		return geom.Sequence{}, p.errorf("ring is not closed")
	}
	return geom.SequenceOf(d.dim, coords...), nil
}

func (p *parser) rings(d *dims) ([]geom.Sequence, error) {
	if p.empty() {
		return nil, nil
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var rings []geom.Sequence
	for {
		ring, err := p.sequence(d, 4, true)
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
		if !p.accept(',') {
			break
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return rings, nil
}

func coordsEqual(a, b geom.Coord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Encode serializes one geometry as WKT. Floats render in their shortest
// exact form.
func Encode(g geom.Geometry) (string, error) {
	if g == nil {
		return "", fmt.Errorf("%w: cannot encode nil geometry", schema.ErrUnsupportedCombination)
	}
	var b strings.Builder
	if err := encode(&b, g); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encode(b *strings.Builder, g geom.Geometry) error {
	writeTag(b, g)
	switch v := g.(type) {
	case geom.Point:
		if v.IsEmpty() {
			b.WriteString("EMPTY")
			return nil
		}
		b.WriteByte('(')
		writeCoord(b, v.Coords, 0)
		b.WriteByte(')')
		return nil
	case geom.LineString:
		writeSequence(b, v.Coords)
		return nil
	case geom.Polygon:
		writeRings(b, v.Rings)
		return nil
	case geom.MultiPoint:
		if v.IsEmpty() {
			b.WriteString("EMPTY")
			return nil
		}
		b.WriteByte('(')
		for i := 0; i < v.Points.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('(')
			writeCoord(b, v.Points, i)
			b.WriteByte(')')
		}
		b.WriteByte(')')
		return nil
	case geom.MultiLineString:
		if v.IsEmpty() {
			b.WriteString("EMPTY")
			return nil
		}
		b.WriteByte('(')
		for i, line := range v.Lines {
			if i > 0 {
				b.WriteString(", ")
			}
			writeSequence(b, line)
		}
		b.WriteByte(')')
		return nil
	case geom.MultiPolygon:
		if v.IsEmpty() {
			b.WriteString("EMPTY")
			return nil
		}
		b.WriteByte('(')
		for i, poly := range v.Polygons {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRings(b, poly.Rings)
		}
		b.WriteByte(')')
		return nil
	case geom.GeometryCollection:
		if v.IsEmpty() {
			b.WriteString("EMPTY")
			return nil
		}
		b.WriteByte('(')
		for i, child := range v.Geoms {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := encode(b, child); err != nil {
				return err
			}
		}
		b.WriteByte(')')
		return nil
	default:
		return fmt.Errorf("%w: cannot encode %s as WKT", schema.ErrUnsupportedCombination, g.GeometryType())
	}
}

func writeTag(b *strings.Builder, g geom.Geometry) {
	switch g.GeometryType() {
	case schema.Point:
		b.WriteString("POINT ")
	case schema.LineString:
		b.WriteString("LINESTRING ")
	case schema.Polygon:
		b.WriteString("POLYGON ")
	case schema.MultiPoint:
		b.WriteString("MULTIPOINT ")
	case schema.MultiLineString:
		b.WriteString("MULTILINESTRING ")
	case schema.MultiPolygon:
		b.WriteString("MULTIPOLYGON ")
	case schema.GeometryCollection:
		b.WriteString("GEOMETRYCOLLECTION ")
	}
	switch g.Dim() {
	case schema.DimXYZ:
		b.WriteString("Z ")
	case schema.DimXYM:
		b.WriteString("M ")
	case schema.DimXYZM:
		b.WriteString("ZM ")
	}
}

func writeCoord(b *strings.Builder, s geom.Sequence, i int) {
	size := s.Dim().Size()
	for ord := 0; ord < size; ord++ {
		if ord > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(s.At(i, ord), 'g', -1, 64))
	}
}

func writeSequence(b *strings.Builder, s geom.Sequence) {
	if s.Len() == 0 {
		b.WriteString("EMPTY")
		return
	}
	b.WriteByte('(')
	for i := 0; i < s.Len(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		writeCoord(b, s, i)
	}
	b.WriteByte(')')
}

func writeRings(b *strings.Builder, rings []geom.Sequence) {
	if len(rings) == 0 {
		b.WriteString("EMPTY")
		return
	}
	b.WriteByte('(')
	for i, ring := range rings {
		if i > 0 {
			b.WriteString(", ")
		}
		writeSequence(b, ring)
	}
	b.WriteByte(')')
}
