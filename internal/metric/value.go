package metric

import (
	"time"
)

// Kind identifies the shape of an attribute value.
//
// The set is closed: every raw attribute value decodes to exactly one of
// these kinds before classification. This replaces runtime type inspection
// with an explicit predicate chain.
type Kind int

const (
	// KindNull is an absent or JSON null value.
	KindNull Kind = iota

	// KindBool is a boolean value.
	KindBool

	// KindNumber is an integer or floating-point value.
	KindNumber

	// KindTemporal is a timestamp value produced in-process.
	KindTemporal

	// KindText is a free-form string value.
	KindText

	// KindComposite is a list, map, or other non-scalar value.
	KindComposite
)

// String returns a human-readable kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindTemporal:
		return "temporal"
	case KindText:
		return "text"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// Value is one attribute value as a closed tagged union.
//
// Construct values with Null, Bool, Number, Temporal, Text or Composite.
// The zero Value is Null.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	text    string
	instant time.Time
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, number: f} }

// Temporal returns a timestamp value.
func Temporal(t time.Time) Value { return Value{kind: KindTemporal, instant: t} }

// Text returns a string value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Composite returns a marker for list/map/tuple-shaped values.
// The contents are never inspected; composites are always dropped.
func Composite() Value { return Value{kind: KindComposite} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// DecodeValue maps a raw value decoded by encoding/json onto the closed
// tagged type: nil to Null, bool to Bool, float64 to Number, string to
// Text, and slices/maps to Composite. Anything unrecognised is treated as
// composite so it is dropped rather than mis-tagged.
func DecodeValue(raw any) Value {
	switch val := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(val)
	case float64:
		return Number(val)
	case string:
		return Text(val)
	case time.Time:
		return Temporal(val)
	default:
		return Composite()
	}
}
