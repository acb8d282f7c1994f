package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindInt
	KindLong
	KindFloat
	KindChar
	KindString
	KindObject   // the universal reference type
	KindTextSink // mutable text builder passed to formatter-contents
	KindStruct   // plain value type
	KindClass    // plain reference type
	KindInterface
	KindAggregate // declared value aggregate (value or reference representation)
	KindPointer
	KindStackOnly // value type that may never escape to the heap
	KindStatic    // static-only type, cannot be instantiated
	KindNullable
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
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
	case KindTextSink:
		return "textsink"
	case KindStruct:
		return "struct"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindAggregate:
		return "aggregate"
	case KindPointer:
		return "pointer"
	case KindStackOnly:
		return "stackonly"
	case KindStatic:
		return "static"
	case KindNullable:
		return "nullable"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Nominal reports whether types of this kind are identified by name.
func (k Kind) Nominal() bool {
	switch k {
	case KindStruct, KindClass, KindInterface, KindAggregate, KindStackOnly, KindStatic:
		return true
	}
	return false
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // pointer, nullable, array
	Payload uint32 // index into nominal infos
}

// MakePointer describes T*.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// MakeNullable describes T?.
func MakeNullable(elem TypeID) Type {
	return Type{Kind: KindNullable, Elem: elem}
}

// MakeArray describes T[].
func MakeArray(elem TypeID) Type {
	return Type{Kind: KindArray, Elem: elem}
}

// Field is one instance or static storage slot of a nominal type, used to
// walk value containment.
type Field struct {
	Name   string
	Type   TypeID
	Static bool
}

// NominalInfo stores metadata for a named type.
type NominalInfo struct {
	Name   string
	Value  bool // value representation (structs, value aggregates)
	Sealed bool
	Base   TypeID
	Fields []Field
}
