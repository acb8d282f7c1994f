// Package eval executes synthesized member descriptors and lowered update
// programs over runtime values. Hand-written members have no body in the
// declaration model; callers bind them as Go functions.
package eval

import (
	"maps"
	"math"
	"strconv"
	"strings"

	"aggsynth/internal/synth"
	"aggsynth/internal/types"
)

// Kind enumerates runtime value kinds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindLong
	KindFloat
	KindChar
	KindString
	KindObject
	KindTuple
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindTuple:
		return "tuple"
	case KindSink:
		return "sink"
	default:
		return "kind?"
	}
}

// Value is a runtime value. Aggregate instances live behind Obj; value
// aggregates are copied explicitly by the operations that need a copy.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Obj   *Object
	Tuple []Value
	Sink  *strings.Builder
}

// Object is an aggregate or plain struct instance.
type Object struct {
	Type types.TypeID
	// Set is the member set of the runtime type, nil for plain structs.
	Set    *synth.MemberSet
	Fields map[string]Value
}

func Null() Value             { return Value{} }
func Bool(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func Int(v int64) Value       { return Value{Kind: KindInt, Int: v} }
func Long(v int64) Value      { return Value{Kind: KindLong, Int: v} }
func Float(v float64) Value   { return Value{Kind: KindFloat, Float: v} }
func Char(r rune) Value       { return Value{Kind: KindChar, Int: int64(r)} }
func Str(s string) Value      { return Value{Kind: KindString, Str: s} }
func Tuple(vs ...Value) Value { return Value{Kind: KindTuple, Tuple: vs} }
func ObjectValue(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{Kind: KindObject, Obj: o}
}

// IsNull reports the null reference.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Field returns the raw backing storage of name.
func (v Value) Field(name string) Value {
	if v.Obj == nil {
		return Null()
	}
	return v.Obj.Fields[name]
}

func (o *Object) shallowCopy() *Object {
	return &Object{Type: o.Type, Set: o.Set, Fields: maps.Clone(o.Fields)}
}

// String renders primitive values; objects render as their type name.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt, KindLong:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindChar:
		return string(rune(v.Int))
	case KindString:
		return v.Str
	case KindTuple:
		parts := make([]string, len(v.Tuple))
		for i, e := range v.Tuple {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindObject:
		if v.Obj.Set != nil {
			return v.Obj.Set.TypeName
		}
		return "object"
	default:
		return v.Kind.String()
	}
}

// primitiveEqual compares non-object values by kind and payload.
func primitiveEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt, KindLong, KindChar:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float || (math.IsNaN(a.Float) && math.IsNaN(b.Float))
	case KindString:
		return a.Str == b.Str
	case KindSink:
		return a.Sink == b.Sink
	}
	return false
}

// canonicalNaN is the bit pattern every NaN hashes as; NaNs compare equal.
const canonicalNaN uint64 = 0x7FF8000000000000

func primitiveHash(v Value) int32 {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	case KindInt, KindChar:
		return int32(v.Int) //nolint:gosec // truncation intended
	case KindLong:
		return int32(v.Int ^ (v.Int >> 32)) //nolint:gosec // folding intended
	case KindFloat:
		if v.Float == 0 {
			return 0
		}
		bits := math.Float64bits(v.Float)
		if math.IsNaN(v.Float) {
			bits = canonicalNaN
		}
		return int32(bits ^ (bits >> 32)) //nolint:gosec // folding intended
	case KindString:
		return synth.StringHash(v.Str)
	}
	return 0
}
