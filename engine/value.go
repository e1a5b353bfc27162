package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/c360/semalign/errors"
)

// Kind identifies the shape of a Value crossing the channel.
type Kind int

const (
	// KindNil is the absence of a value
	KindNil Kind = iota
	// KindRef is a reference to an engine-side object
	KindRef
	// KindBool is a native boolean
	KindBool
	// KindInt is a native integer
	KindInt
	// KindFloat is a native float
	KindFloat
	// KindString is a native string
	KindString
	// KindList is an ordered sequence of values
	KindList
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindRef:
		return "ref"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the tagged union exchanged with the engine. Refs name
// engine-side objects; the remaining kinds are plain host values the
// engine returns directly, such as cardinalities or truth values.
type Value struct {
	kind Kind
	data any
}

// Nil returns the empty value
func Nil() Value { return Value{} }

// NewRef wraps an engine reference
func NewRef(r Ref) Value { return Value{kind: KindRef, data: r} }

// NewBool wraps a boolean
func NewBool(b bool) Value { return Value{kind: KindBool, data: b} }

// NewInt wraps an integer
func NewInt(i int64) Value { return Value{kind: KindInt, data: i} }

// NewFloat wraps a float
func NewFloat(f float64) Value { return Value{kind: KindFloat, data: f} }

// NewString wraps a string
func NewString(s string) Value { return Value{kind: KindString, data: s} }

// NewList wraps a sequence of values
func NewList(elems ...Value) Value {
	list := make([]Value, len(elems))
	copy(list, elems)
	return Value{kind: KindList, data: list}
}

// Kind returns the value's kind tag
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether the value is empty
func (v Value) IsNil() bool { return v.kind == KindNil }

// IsRef reports whether the value names an engine object
func (v Value) IsRef() bool { return v.kind == KindRef }

// Ref returns the engine reference, or the zero Ref for other kinds
func (v Value) Ref() Ref {
	if v.kind == KindRef {
		return v.data.(Ref)
	}
	return ""
}

// Bool returns the boolean payload, or false for other kinds
func (v Value) Bool() bool {
	if v.kind == KindBool {
		return v.data.(bool)
	}
	return false
}

// Int returns the integer payload, coercing floats, or 0 for other kinds
func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.data.(int64)
	case KindFloat:
		return int64(v.data.(float64))
	default:
		return 0
	}
}

// Float returns the float payload, coercing integers, or 0 for other kinds
func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.data.(float64)
	case KindInt:
		return float64(v.data.(int64))
	default:
		return 0
	}
}

// Str returns the string payload, or "" for other kinds
func (v Value) Str() string {
	if v.kind == KindString {
		return v.data.(string)
	}
	return ""
}

// List returns the element slice, or nil for other kinds. The slice is
// shared; callers must not mutate it.
func (v Value) List() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.data.([]Value)
}

// String renders the value for logs and diagnostics
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindRef:
		return fmt.Sprintf("ref(%s)", v.data.(Ref))
	case KindBool:
		if v.data.(bool) {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.data.(int64))
	case KindFloat:
		return fmt.Sprintf("%g", v.data.(float64))
	case KindString:
		return fmt.Sprintf("%q", v.data.(string))
	case KindList:
		elems := v.data.([]Value)
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.String()
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("<%v>", v.kind)
	}
}

// Equal compares two values structurally
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindList:
		a, b := v.data.([]Value), other.data.([]Value)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	default:
		return v.data == other.data
	}
}

// valueJSON is the wire form shared by both transports.
type valueJSON struct {
	Kind  string   `json:"kind"`
	Ref   string   `json:"ref,omitempty"`
	Bool  *bool    `json:"bool,omitempty"`
	Int   *int64   `json:"int,omitempty"`
	Float *float64 `json:"float,omitempty"`
	Str   *string  `json:"string,omitempty"`
	List  []Value  `json:"list,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{Kind: v.kind.String()}
	switch v.kind {
	case KindNil:
	case KindRef:
		out.Ref = string(v.data.(Ref))
	case KindBool:
		b := v.data.(bool)
		out.Bool = &b
	case KindInt:
		i := v.data.(int64)
		out.Int = &i
	case KindFloat:
		f := v.data.(float64)
		out.Float = &f
	case KindString:
		s := v.data.(string)
		out.Str = &s
	case KindList:
		list := v.data.([]Value)
		if list == nil {
			list = []Value{}
		}
		out.List = list
	default:
		return nil, errors.WrapInvalid(errors.ErrBadArgument, "Value", "MarshalJSON",
			fmt.Sprintf("encoding kind %v", v.kind))
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.WrapInvalid(err, "Value", "UnmarshalJSON", "decoding wire value")
	}
	switch in.Kind {
	case "", "nil":
		*v = Nil()
	case "ref":
		*v = NewRef(Ref(in.Ref))
	case "bool":
		if in.Bool == nil {
			return errors.WrapInvalid(errors.ErrBadResult, "Value", "UnmarshalJSON", "bool value missing payload")
		}
		*v = NewBool(*in.Bool)
	case "int":
		if in.Int == nil {
			return errors.WrapInvalid(errors.ErrBadResult, "Value", "UnmarshalJSON", "int value missing payload")
		}
		*v = NewInt(*in.Int)
	case "float":
		if in.Float == nil {
			return errors.WrapInvalid(errors.ErrBadResult, "Value", "UnmarshalJSON", "float value missing payload")
		}
		*v = NewFloat(*in.Float)
	case "string":
		if in.Str == nil {
			return errors.WrapInvalid(errors.ErrBadResult, "Value", "UnmarshalJSON", "string value missing payload")
		}
		*v = NewString(*in.Str)
	case "list":
		list := in.List
		if list == nil {
			list = []Value{}
		}
		*v = Value{kind: KindList, data: list}
	default:
		return errors.WrapInvalid(errors.ErrBadResult, "Value", "UnmarshalJSON",
			fmt.Sprintf("decoding kind %q", in.Kind))
	}
	return nil
}
