package schema

import "fmt"

// Dimension identifies which ordinates each coordinate tuple carries.
type Dimension int

const (
	DimXY Dimension = iota
	DimXYZ
	DimXYM
	DimXYZM
)

// Size returns the number of ordinates per coordinate.
func (d Dimension) Size() int {
	switch d {
	case DimXY:
		return 2
	case DimXYZ, DimXYM:
		return 3
	case DimXYZM:
		return 4
	default:
		return 2
	}
}

// HasZ reports whether coordinates carry a Z ordinate.
func (d Dimension) HasZ() bool { return d == DimXYZ || d == DimXYZM }

// HasM reports whether coordinates carry an M ordinate.
func (d Dimension) HasM() bool { return d == DimXYM || d == DimXYZM }

// String returns the lower-case name used as the interleaved child field
// name, e.g. "xyz".
func (d Dimension) String() string {
	switch d {
	case DimXY:
		return "xy"
	case DimXYZ:
		return "xyz"
	case DimXYM:
		return "xym"
	case DimXYZM:
		return "xyzm"
	default:
		return "unknown"
	}
}

// FieldNames returns the per-ordinate field names for separated storage.
func (d Dimension) FieldNames() []string {
	switch d {
	case DimXY:
		return []string{"x", "y"}
	case DimXYZ:
		return []string{"x", "y", "z"}
	case DimXYM:
		return []string{"x", "y", "m"}
	case DimXYZM:
		return []string{"x", "y", "z", "m"}
	default:
		return []string{"x", "y"}
	}
}

// DimensionOf maps (hasZ, hasM) to a Dimension.
func DimensionOf(hasZ, hasM bool) Dimension {
	switch {
	case hasZ && hasM:
		return DimXYZM
	case hasZ:
		return DimXYZ
	case hasM:
		return DimXYM
	default:
		return DimXY
	}
}

func dimensionFromName(name string) (Dimension, error) {
	switch name {
	case "xy":
		return DimXY, nil
	case "xyz":
		return DimXYZ, nil
	case "xym":
		return DimXYM, nil
	case "xyzm":
		return DimXYZM, nil
	default:
		return DimXY, fmt.Errorf("%w: unknown dimension field name %q", ErrMalformedBuffer, name)
	}
}

// CoordType identifies the physical layout of coordinate storage.
type CoordType int

const (
	// Interleaved stores each coordinate tuple contiguously in one buffer.
	Interleaved CoordType = iota
	// Separated stores one buffer per ordinate.
	Separated
)

func (c CoordType) String() string {
	switch c {
	case Interleaved:
		return "interleaved"
	case Separated:
		return "separated"
	default:
		return "unknown"
	}
}
