package schema

import "errors"

// Error kinds surfaced by the array and codec packages. Callers match them
// with errors.Is; wrapped messages carry the detail (first violated
// invariant, byte or character offset, offending type).
var (
	// ErrMalformedBuffer reports an invariant violation while constructing an
	// array from raw coordinate or offset storage.
	ErrMalformedBuffer = errors.New("malformed geometry buffer")

	// ErrIndexOutOfRange reports scalar or slice access past array bounds.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrIncompatibleType reports a cast or downcast target that cannot
	// represent every row.
	ErrIncompatibleType = errors.New("incompatible geometry type")

	// ErrMalformedWKB reports a structural violation in WKB input, located
	// by byte offset.
	ErrMalformedWKB = errors.New("malformed WKB")

	// ErrMalformedWKT reports a structural violation in WKT input, located
	// by character offset.
	ErrMalformedWKT = errors.New("malformed WKT")

	// ErrUnsupportedCombination reports a kind combination that has no
	// single-type native representation.
	ErrUnsupportedCombination = errors.New("unsupported geometry combination")
)
