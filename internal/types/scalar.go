package types

import "fmt"

// Value represents a single element value. Concrete types use native Go types:
//   UInt8 -> uint8, UInt16 -> uint16, ..., DateTime -> uint32,
//   Category -> string (the decoded dictionary value).
type Value = interface{}

// Scalar is a single tagged value with a validity flag. An invalid scalar
// still carries its type tag; its Data is ignored and may be nil.
type Scalar struct {
	Type  DataType
	Data  Value
	Valid bool
}

// NewScalar builds a valid scalar of the given type.
func NewScalar(dt DataType, v Value) Scalar {
	return Scalar{Type: dt, Data: v, Valid: true}
}

// NullScalar builds an invalid (null) scalar of the given type.
func NullScalar(dt DataType) Scalar {
	return Scalar{Type: dt, Valid: false}
}

func (s Scalar) String() string {
	if !s.Valid {
		return fmt.Sprintf("%s(NULL)", s.Type.Name())
	}
	return fmt.Sprintf("%s(%v)", s.Type.Name(), s.Data)
}

// ValueToString converts a value to its string representation.
func ValueToString(v Value) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
