// Package value holds the typed property values stored in buckets and their canonical text
// encoding.
package value

import (
	"fmt"
	"github.com/google/uuid"
	"time"
)

// Type tags the kind of value a property holds.
type Type uint8

const (
	String Type = iota
	Binary
	Boolean
	DateTime
	Double
	Guid
	Int32
	Int64
)

// wire names as they appear in the Type attribute of a bucket file
var typeNames = map[Type]string{
	String:   "String",
	Binary:   "Binary",
	Boolean:  "Boolean",
	DateTime: "DateTime",
	Double:   "Double",
	Guid:     "Guid",
	Int32:    "Int",
	Int64:    "Long",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType maps a wire type name back to a Type. An empty name means String.
func ParseType(name string) (Type, bool) {
	if name == "" {
		return String, true
	}
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return String, false
}

// IsNumeric reports whether values of t widen to float64 when compared.
func (t Type) IsNumeric() bool {
	return t == Double || t == Int32 || t == Int64
}

// Value is a typed value. Data is nil for an unset value, otherwise it holds the Go type
// matching Type: []byte, bool, time.Time, float64, uuid.UUID, int32, int64 or string.
type Value struct {
	Type Type
	Data any
}

// IsNull reports whether the value is unset.
func (v Value) IsNull() bool {
	if v.Data == nil {
		return true
	}
	if b, ok := v.Data.([]byte); ok && b == nil {
		return true
	}
	return false
}

func (v Value) String() string {
	if v.IsNull() {
		return v.Type.String() + "(null)"
	}
	return fmt.Sprintf("%s(%s)", v.Type, *Encode(v))
}

func Null(t Type) Value { return Value{Type: t} }

func StringValue(s string) Value { return Value{Type: String, Data: s} }
func BinaryValue(b []byte) Value { return Value{Type: Binary, Data: b} }
func BooleanValue(b bool) Value { return Value{Type: Boolean, Data: b} }
func DateTimeValue(t time.Time) Value { return Value{Type: DateTime, Data: t} }
func DoubleValue(f float64) Value { return Value{Type: Double, Data: f} }
func GuidValue(g uuid.UUID) Value { return Value{Type: Guid, Data: g} }
func Int32Value(i int32) Value { return Value{Type: Int32, Data: i} }
func Int64Value(i int64) Value { return Value{Type: Int64, Data: i} }

// Of returns the Value holding v. v must be one of the Go types listed on Value, a pointer
// to one of them (nil meaning unset) or an int, which is stored as Int64.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case string:
		return StringValue(x), nil
	case []byte:
		return BinaryValue(x), nil
	case bool:
		return BooleanValue(x), nil
	case time.Time:
		return DateTimeValue(x), nil
	case float64:
		return DoubleValue(x), nil
	case uuid.UUID:
		return GuidValue(x), nil
	case int32:
		return Int32Value(x), nil
	case int64:
		return Int64Value(x), nil
	case int:
		return Int64Value(int64(x)), nil
	case *string:
		return ofPointer(String, x)
	case *bool:
		return ofPointer(Boolean, x)
	case *time.Time:
		return ofPointer(DateTime, x)
	case *float64:
		return ofPointer(Double, x)
	case *uuid.UUID:
		return ofPointer(Guid, x)
	case *int32:
		return ofPointer(Int32, x)
	case *int64:
		return ofPointer(Int64, x)
	}
	return Value{}, fmt.Errorf("not supported property type: %T", v)
}

func ofPointer[T any](t Type, p *T) (Value, error) {
	if p == nil {
		return Null(t), nil
	}
	return Of(*p)
}
