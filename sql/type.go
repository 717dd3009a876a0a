package sql

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Kind is the family of values a type belongs to. Values of types of the same
// kind can be compared with each other.
type Kind byte

const (
	// UnknownKind is the kind of types that can't be ordered.
	UnknownKind Kind = iota
	// IntegerKind is the kind of all signed integer types.
	IntegerKind
	// FloatKind is the kind of all floating point types.
	FloatKind
	// TextKind is the kind of all character string types.
	TextKind
	// BooleanKind is the kind of the boolean type.
	BooleanKind
)

func (k Kind) String() string {
	switch k {
	case IntegerKind:
		return "integer"
	case FloatKind:
		return "float"
	case TextKind:
		return "text"
	case BooleanKind:
		return "boolean"
	default:
		return "unknown"
	}
}

// IsNumeric returns whether values of this kind are numbers.
func (k Kind) IsNumeric() bool {
	return k == IntegerKind || k == FloatKind
}

// Type represent a SQL type.
type Type interface {
	fmt.Stringer
	// Kind returns the family of the type.
	Kind() Kind
	// Compare returns an integer comparing two values.
	// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
	Compare(interface{}, interface{}) (int, error)
	// Convert a value of a compatible type to a most accurate type.
	Convert(interface{}) (interface{}, error)
	// Zero returns the golang zero value for this type.
	Zero() interface{}
}

var (
	// Int32 is an integer of 32 bits.
	Int32 Type = numberT{name: "INT32", kind: IntegerKind, bits: 32}
	// Int64 is an integer of 64 bits.
	Int64 Type = numberT{name: "INT64", kind: IntegerKind, bits: 64}
	// Float32 is a floating point number of 32 bits.
	Float32 Type = numberT{name: "FLOAT32", kind: FloatKind, bits: 32}
	// Float64 is a floating point number of 64 bits.
	Float64 Type = numberT{name: "FLOAT64", kind: FloatKind, bits: 64}
	// Text is a string type.
	Text Type = textT{}
	// Boolean is a boolean type.
	Boolean Type = booleanT{}
)

type numberT struct {
	name string
	kind Kind
	bits int
}

func (t numberT) String() string { return t.name }

// Kind implements the Type interface.
func (t numberT) Kind() Kind { return t.kind }

// Convert implements the Type interface.
func (t numberT) Convert(v interface{}) (interface{}, error) {
	switch {
	case t.kind == IntegerKind && t.bits == 32:
		return cast.ToInt32E(v)
	case t.kind == IntegerKind:
		return cast.ToInt64E(v)
	case t.bits == 32:
		return cast.ToFloat32E(v)
	default:
		return cast.ToFloat64E(v)
	}
}

// Compare implements the Type interface.
func (t numberT) Compare(a, b interface{}) (int, error) {
	if hasNulls, res := compareNulls(a, b); hasNulls {
		return res, nil
	}

	if t.kind == IntegerKind {
		ca, err := cast.ToInt64E(a)
		if err != nil {
			return 0, err
		}
		cb, err := cast.ToInt64E(b)
		if err != nil {
			return 0, err
		}
		return compareOrdered(ca, cb), nil
	}

	ca, err := cast.ToFloat64E(a)
	if err != nil {
		return 0, err
	}
	cb, err := cast.ToFloat64E(b)
	if err != nil {
		return 0, err
	}
	return compareOrdered(ca, cb), nil
}

// Zero implements the Type interface.
func (t numberT) Zero() interface{} {
	v, _ := t.Convert(0)
	return v
}

type textT struct{}

func (textT) String() string { return "TEXT" }

// Kind implements the Type interface.
func (textT) Kind() Kind { return TextKind }

// Convert implements the Type interface.
func (textT) Convert(v interface{}) (interface{}, error) {
	return cast.ToStringE(v)
}

// Compare implements the Type interface.
func (t textT) Compare(a, b interface{}) (int, error) {
	if hasNulls, res := compareNulls(a, b); hasNulls {
		return res, nil
	}

	ca, err := cast.ToStringE(a)
	if err != nil {
		return 0, err
	}
	cb, err := cast.ToStringE(b)
	if err != nil {
		return 0, err
	}
	return strings.Compare(ca, cb), nil
}

// Zero implements the Type interface.
func (textT) Zero() interface{} { return "" }

type booleanT struct{}

func (booleanT) String() string { return "BOOLEAN" }

// Kind implements the Type interface.
func (booleanT) Kind() Kind { return BooleanKind }

// Convert implements the Type interface.
func (booleanT) Convert(v interface{}) (interface{}, error) {
	return cast.ToBoolE(v)
}

// Compare implements the Type interface.
func (booleanT) Compare(a, b interface{}) (int, error) {
	if hasNulls, res := compareNulls(a, b); hasNulls {
		return res, nil
	}

	ca, err := cast.ToBoolE(a)
	if err != nil {
		return 0, err
	}
	cb, err := cast.ToBoolE(b)
	if err != nil {
		return 0, err
	}

	switch {
	case ca == cb:
		return 0, nil
	case !ca:
		return -1, nil
	default:
		return 1, nil
	}
}

// Zero implements the Type interface.
func (booleanT) Zero() interface{} { return false }

// compareNulls orders NULL before any other value.
func compareNulls(a, b interface{}) (bool, int) {
	switch {
	case a == nil && b == nil:
		return true, 0
	case a == nil:
		return true, -1
	case b == nil:
		return true, 1
	default:
		return false, 0
	}
}

// compareOrdered orders NaN before any other number and as equal to another
// NaN, so that sorting by it is consistent.
func compareOrdered[T int64 | float64](a, b T) int {
	return cmp.Compare(a, b)
}
