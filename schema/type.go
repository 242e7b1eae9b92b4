package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Arrow field metadata keys used to round-trip the type descriptor through a
// schema.
const (
	ExtensionNameKey     = "ARROW:extension:name"
	ExtensionMetadataKey = "ARROW:extension:metadata"
)

// Type is the immutable descriptor travelling with every geometry array:
// kind, dimension, coordinate layout, and the CRS/edges metadata. Kind and
// dimension jointly determine the buffer nesting depth; CRS and edges are
// carried, never computed.
type Type struct {
	kind      GeometryType
	dim       Dimension
	coordType CoordType
	metadata  Metadata
}

// NewType builds a descriptor for a native kind. For WKB, WKT and Geometry
// the dimension is not part of the physical type; use NewSerializedType and
// NewGeometryType instead.
func NewType(kind GeometryType, dim Dimension, coordType CoordType) Type {
	return Type{kind: kind, dim: dim, coordType: coordType}
}

// NewGeometryType builds the descriptor for the type-tagged union of
// heterogeneous kinds. Dimension varies per row.
func NewGeometryType(coordType CoordType) Type {
	return Type{kind: Geometry, dim: DimXY, coordType: coordType}
}

// NewSerializedType builds a descriptor for a WKB or WKT column.
func NewSerializedType(kind GeometryType) (Type, error) {
	if kind != WKB && kind != WKT {
		return Type{}, fmt.Errorf("%w: %s is not a serialized kind", ErrUnsupportedCombination, kind)
	}
	return Type{kind: kind}, nil
}

// WithMetadata returns a copy of the descriptor carrying m.
func (t Type) WithMetadata(m Metadata) Type {
	t.metadata = m
	return t
}

// Kind returns the geometry kind.
func (t Type) Kind() GeometryType { return t.kind }

// Dim returns the coordinate dimension.
func (t Type) Dim() Dimension { return t.dim }

// CoordLayout returns the physical coordinate layout.
func (t Type) CoordLayout() CoordType { return t.coordType }

// Metadata returns the CRS/edges metadata.
func (t Type) Metadata() Metadata { return t.metadata }

// Equal compares kind, dimension and layout. Metadata does not participate:
// two columns of the same physical type compare equal regardless of CRS.
func (t Type) Equal(other Type) bool {
	return t.kind == other.kind && t.dim == other.dim && t.coordType == other.coordType
}

func (t Type) String() string {
	switch t.kind {
	case WKB, WKT:
		return t.kind.String()
	case Geometry:
		return fmt.Sprintf("Geometry[%s]", t.coordType)
	default:
		return fmt.Sprintf("%s[%s, %s]", t.kind, t.dim, t.coordType)
	}
}

// coordStorage returns the Arrow type for one coordinate tuple.
func (t Type) coordStorage(dim Dimension) arrow.DataType {
	if t.coordType == Interleaved {
		return arrow.FixedSizeListOfField(int32(dim.Size()), arrow.Field{
			Name: dim.String(),
			Type: arrow.PrimitiveTypes.Float64,
		})
	}
	names := dim.FieldNames()
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64}
	}
	return arrow.StructOf(fields...)
}

func listOf(name string, child arrow.DataType) arrow.DataType {
	return arrow.ListOfField(arrow.Field{Name: name, Type: child})
}

// Storage returns the physical Arrow data type for this descriptor.
func (t Type) Storage() arrow.DataType {
	return t.storageFor(t.kind, t.dim)
}

func (t Type) storageFor(kind GeometryType, dim Dimension) arrow.DataType {
	coords := t.coordStorage(dim)
	switch kind {
	case Point:
		return coords
	case LineString:
		return listOf("vertices", coords)
	case Polygon:
		return listOf("rings", listOf("vertices", coords))
	case MultiPoint:
		return listOf("points", coords)
	case MultiLineString:
		return listOf("linestrings", listOf("vertices", coords))
	case MultiPolygon:
		return listOf("polygons", listOf("rings", listOf("vertices", coords)))
	case GeometryCollection:
		return listOf("geometries", t.childUnionStorage(dim))
	case Box:
		return t.boxStorage(dim)
	case Geometry:
		return t.unionStorage()
	case WKB:
		return arrow.BinaryTypes.Binary
	case WKT:
		return arrow.BinaryTypes.String
	default:
		return coords
	}
}

func (t Type) boxStorage(dim Dimension) arrow.DataType {
	names := dim.FieldNames()
	fields := make([]arrow.Field, 0, 2*len(names))
	for _, suffix := range []string{"min", "max"} {
		for _, name := range names {
			fields = append(fields, arrow.Field{Name: name + suffix, Type: arrow.PrimitiveTypes.Float64})
		}
	}
	return arrow.StructOf(fields...)
}

// unionStorage builds the dense union over concrete children: kinds 1-7
// across all four dimensions. The union nested inside a GeometryCollection
// child is restricted to that child's dimension and excludes further
// collections to keep the Arrow type finite.
func (t Type) unionStorage() arrow.DataType {
	kinds := []GeometryType{Point, LineString, Polygon, MultiPoint, MultiLineString, MultiPolygon, GeometryCollection}
	var fields []arrow.Field
	var codes []arrow.UnionTypeCode
	for _, dim := range []Dimension{DimXY, DimXYZ, DimXYM, DimXYZM} {
		for _, kind := range kinds {
			fields = append(fields, arrow.Field{
				Name: kind.String(),
				Type: t.storageFor(kind, dim),
			})
			codes = append(codes, arrow.UnionTypeCode(TypeID(kind, dim)))
		}
	}
	return arrow.DenseUnionOf(fields, codes)
}

// childUnionStorage is the union held inside a GeometryCollection: primitive
// and multi kinds of the collection's own dimension.
func (t Type) childUnionStorage(dim Dimension) arrow.DataType {
	kinds := []GeometryType{Point, LineString, Polygon, MultiPoint, MultiLineString, MultiPolygon}
	var fields []arrow.Field
	var codes []arrow.UnionTypeCode
	for _, kind := range kinds {
		fields = append(fields, arrow.Field{
			Name: kind.String(),
			Type: t.storageFor(kind, dim),
		})
		codes = append(codes, arrow.UnionTypeCode(TypeID(kind, dim)))
	}
	return arrow.DenseUnionOf(fields, codes)
}

// Field encodes the descriptor as an Arrow field with extension metadata
// attached, the form in which it travels through schemas and files.
func (t Type) Field(name string, nullable bool) arrow.Field {
	meta, _ := t.metadata.Serialize()
	return arrow.Field{
		Name:     name,
		Type:     t.Storage(),
		Nullable: nullable,
		Metadata: arrow.NewMetadata(
			[]string{ExtensionNameKey, ExtensionMetadataKey},
			[]string{t.kind.ExtensionName(), meta},
		),
	}
}

// TypeFromField is the inverse of Field: it reads the extension name and
// metadata off an Arrow field and re-derives dimension and layout from the
// physical storage type.
func TypeFromField(f arrow.Field) (Type, error) {
	idx := f.Metadata.FindKey(ExtensionNameKey)
	if idx < 0 {
		return Type{}, fmt.Errorf("%w: field %q has no %s metadata", ErrMalformedBuffer, f.Name, ExtensionNameKey)
	}
	kind, err := typeFromExtensionName(f.Metadata.Values()[idx])
	if err != nil {
		return Type{}, err
	}

	var metadata Metadata
	if mi := f.Metadata.FindKey(ExtensionMetadataKey); mi >= 0 {
		if metadata, err = DeserializeMetadata(f.Metadata.Values()[mi]); err != nil {
			return Type{}, err
		}
	}

	typ, err := TypeFromStorage(kind, f.Type)
	if err != nil {
		return Type{}, err
	}
	return typ.WithMetadata(metadata), nil
}

// TypeFromStorage re-derives dimension and coordinate layout from a physical
// storage type for a known kind.
func TypeFromStorage(kind GeometryType, dt arrow.DataType) (Type, error) {
	switch kind {
	case WKB:
		if dt.ID() != arrow.BINARY && dt.ID() != arrow.LARGE_BINARY {
			return Type{}, fmt.Errorf("%w: WKB storage must be binary, got %s", ErrMalformedBuffer, dt)
		}
		return Type{kind: WKB}, nil
	case WKT:
		if dt.ID() != arrow.STRING && dt.ID() != arrow.LARGE_STRING {
			return Type{}, fmt.Errorf("%w: WKT storage must be utf8, got %s", ErrMalformedBuffer, dt)
		}
		return Type{kind: WKT}, nil
	case Geometry:
		union, ok := dt.(*arrow.DenseUnionType)
		if !ok || len(union.Fields()) == 0 {
			return Type{}, fmt.Errorf("%w: geometry storage must be a dense union, got %s", ErrMalformedBuffer, dt)
		}
		childKind, _, err := FromTypeID(int8(union.TypeCodes()[0]))
		if err != nil {
			return Type{}, err
		}
		child, err := TypeFromStorage(childKind, union.Fields()[0].Type)
		if err != nil {
			return Type{}, err
		}
		return NewGeometryType(child.coordType), nil
	case GeometryCollection:
		list, ok := dt.(*arrow.ListType)
		if !ok {
			return Type{}, fmt.Errorf("%w: geometrycollection storage must be a list, got %s", ErrMalformedBuffer, dt)
		}
		union, ok := list.Elem().(*arrow.DenseUnionType)
		if !ok || len(union.Fields()) == 0 {
			return Type{}, fmt.Errorf("%w: geometrycollection child must be a dense union, got %s", ErrMalformedBuffer, list.Elem())
		}
		childKind, childDim, err := FromTypeID(int8(union.TypeCodes()[0]))
		if err != nil {
			return Type{}, err
		}
		child, err := TypeFromStorage(childKind, union.Fields()[0].Type)
		if err != nil {
			return Type{}, err
		}
		return NewType(GeometryCollection, childDim, child.coordType), nil
	case Box:
		st, ok := dt.(*arrow.StructType)
		if !ok {
			return Type{}, fmt.Errorf("%w: box storage must be a struct, got %s", ErrMalformedBuffer, dt)
		}
		switch st.NumFields() {
		case 4:
			return NewType(Box, DimXY, Separated), nil
		case 6:
			if st.Field(2).Name == "zmin" {
				return NewType(Box, DimXYZ, Separated), nil
			}
			return NewType(Box, DimXYM, Separated), nil
		case 8:
			return NewType(Box, DimXYZM, Separated), nil
		default:
			return Type{}, fmt.Errorf("%w: box struct has %d fields", ErrMalformedBuffer, st.NumFields())
		}
	}

	// Native nested kinds: unwrap the list nesting down to the coordinate
	// storage, checking depth along the way.
	depth := nestingDepth(kind)
	cur := dt
	for i := 0; i < depth; i++ {
		list, ok := cur.(*arrow.ListType)
		if !ok {
			return Type{}, fmt.Errorf("%w: %s storage expects list nesting depth %d, got %s",
				ErrMalformedBuffer, kind, depth, dt)
		}
		cur = list.Elem()
	}

	dim, coordType, err := parseCoordStorage(cur)
	if err != nil {
		return Type{}, err
	}
	return NewType(kind, dim, coordType), nil
}

func parseCoordStorage(dt arrow.DataType) (Dimension, CoordType, error) {
	switch ct := dt.(type) {
	case *arrow.FixedSizeListType:
		dim, err := dimensionFromName(ct.ElemField().Name)
		if err != nil {
			// Unnamed children still identify dimension by width.
			switch ct.Len() {
			case 2:
				return DimXY, Interleaved, nil
			case 3:
				return DimXYZ, Interleaved, nil
			case 4:
				return DimXYZM, Interleaved, nil
			}
			return 0, 0, err
		}
		if int32(dim.Size()) != ct.Len() {
			return 0, 0, fmt.Errorf("%w: interleaved width %d does not match dimension %s",
				ErrMalformedBuffer, ct.Len(), dim)
		}
		return dim, Interleaved, nil
	case *arrow.StructType:
		switch ct.NumFields() {
		case 2:
			return DimXY, Separated, nil
		case 3:
			if ct.Field(2).Name == "m" {
				return DimXYM, Separated, nil
			}
			return DimXYZ, Separated, nil
		case 4:
			return DimXYZM, Separated, nil
		default:
			return 0, 0, fmt.Errorf("%w: separated coords have %d fields", ErrMalformedBuffer, ct.NumFields())
		}
	default:
		return 0, 0, fmt.Errorf("%w: coordinates must be fixed-size list or struct, got %s", ErrMalformedBuffer, dt)
	}
}

// nestingDepth returns the number of variable-length list levels above the
// coordinate storage for a native kind.
func nestingDepth(kind GeometryType) int {
	switch kind {
	case Point:
		return 0
	case LineString, MultiPoint:
		return 1
	case Polygon, MultiLineString:
		return 2
	case MultiPolygon:
		return 3
	default:
		return 0
	}
}
