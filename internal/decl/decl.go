// Package decl models aggregate declarations as handed over by the type
// checker: partial fragments, positional parameter lists and hand-written
// member candidates. Merge folds the fragments of one type into a single
// immutable Aggregate.
package decl

import (
	"fmt"
	"strings"

	"aggsynth/internal/source"
	"aggsynth/internal/types"
)

// Accessibility of a member or declaration.
type Accessibility uint8

const (
	AccessDefault Accessibility = iota // private for members, internal for types
	AccessPrivate
	AccessProtected
	AccessInternal
	AccessPublic
)

func (a Accessibility) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessProtected:
		return "protected"
	case AccessInternal:
		return "internal"
	case AccessPublic:
		return "public"
	default:
		return "default"
	}
}

// Effective resolves AccessDefault for members.
func (a Accessibility) Effective() Accessibility {
	if a == AccessDefault {
		return AccessPrivate
	}
	return a
}

// Modifiers is a set of declaration and member modifiers.
type Modifiers uint16

const (
	ModStatic Modifiers = 1 << iota
	ModOverride
	ModVirtual
	ModSealed
	ModAbstract
	ModReadonly // immutable variant on declarations, readonly on members
	ModPartial
	ModNew
)

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModStatic, "static"},
	{ModOverride, "override"},
	{ModVirtual, "virtual"},
	{ModSealed, "sealed"},
	{ModAbstract, "abstract"},
	{ModReadonly, "readonly"},
	{ModPartial, "partial"},
	{ModNew, "new"},
}

// Has reports whether every bit of m2 is set.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }

func (m Modifiers) String() string {
	parts := make([]string, 0, 4)
	for _, mn := range modifierNames {
		if m.Has(mn.mod) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseModifier maps a keyword to its modifier or accessibility.
func ParseModifier(word string) (Modifiers, Accessibility, bool) {
	switch word {
	case "public":
		return 0, AccessPublic, true
	case "private":
		return 0, AccessPrivate, true
	case "protected":
		return 0, AccessProtected, true
	case "internal":
		return 0, AccessInternal, true
	}
	for _, mn := range modifierNames {
		if mn.name == word {
			return mn.mod, AccessDefault, true
		}
	}
	return 0, AccessDefault, false
}

// PassMode is how a parameter is passed.
type PassMode uint8

const (
	PassValue PassMode = iota
	PassIn
	PassRef
	PassOut
	PassParams
	PassThis // implicit receiver
)

func (p PassMode) String() string {
	switch p {
	case PassIn:
		return "in"
	case PassRef:
		return "ref"
	case PassOut:
		return "out"
	case PassParams:
		return "params"
	case PassThis:
		return "this"
	default:
		return "value"
	}
}

// Representation selects value or reference semantics.
type Representation uint8

const (
	RepReference Representation = iota
	RepValue
)

func (r Representation) String() string {
	if r == RepValue {
		return "struct"
	}
	return "class"
}

// Param is one parameter of a positional list or of a member signature.
type Param struct {
	Name       string
	Type       types.TypeID
	Mode       PassMode
	Default    string // source text of the default value
	HasDefault bool
	Span       source.Span
}

// ParamList is a positional parameter list as written on one fragment.
type ParamList struct {
	Params []Param
	Span   source.Span
}

// MemberKind classifies member candidates.
type MemberKind uint8

const (
	MemberMethod MemberKind = iota
	MemberProperty
	MemberField
	MemberConstructor
	MemberOperator
)

func (k MemberKind) String() string {
	switch k {
	case MemberProperty:
		return "property"
	case MemberField:
		return "field"
	case MemberConstructor:
		return "constructor"
	case MemberOperator:
		return "operator"
	default:
		return "method"
	}
}

// Accessors describes the accessor shape of a property.
type Accessors uint8

const (
	AccGet Accessors = 1 << iota
	AccSet
	AccInit
)

// Member is a hand-written member that may collide with a synthesis target.
type Member struct {
	Name   string
	Kind   MemberKind
	Params []Param
	// Result is the return type for methods and operators, the value type
	// for properties and fields.
	Result types.TypeID
	Access Accessibility
	Mods   Modifiers

	Accessors      Accessors
	MutatingGetter bool   // getter writes instance state
	Storage        bool   // field or auto-property with backing storage
	Init           string // storage initializer source text

	ChainsToPrimary bool     // constructors: `: this(...)`
	Reads           []string // positional parameters read by the initializer

	Fragment int
	Span     source.Span
}

func (m *Member) Static() bool { return m.Mods.Has(ModStatic) }

// Writable reports whether an update expression may assign the member.
func (m *Member) Writable() bool {
	switch m.Kind {
	case MemberField:
		return !m.Static() && !m.Mods.Has(ModReadonly)
	case MemberProperty:
		return !m.Static() && m.Accessors&(AccSet|AccInit) != 0
	}
	return false
}

// ReadsParam reports whether the member initializer reads parameter name.
func (m *Member) ReadsParam(name string) bool {
	for _, r := range m.Reads {
		if r == name {
			return true
		}
	}
	return false
}

// Fragment is one partial declaration of an aggregate.
type Fragment struct {
	Index      int
	Params     *ParamList
	Members    []Member
	Access     Accessibility
	Mods       Modifiers
	Rep        Representation
	Base       types.TypeID
	BaseSpan   source.Span
	Interfaces []types.TypeID
	Span       source.Span
}

// Immutable reports whether the fragment declares the immutable variant.
func (f *Fragment) Immutable() bool { return f.Mods.Has(ModReadonly) }

// Identity is the declared identity of an aggregate.
type Identity struct {
	Name  string
	Arity int
}

func (id Identity) String() string {
	if id.Arity == 0 {
		return id.Name
	}
	return fmt.Sprintf("%s`%d", id.Name, id.Arity)
}

// Aggregate is the merged, immutable view of all fragments of one type.
type Aggregate struct {
	ID         Identity
	Type       types.TypeID
	Fragments  []Fragment
	Immutable  bool
	Rep        Representation
	Sealed     bool
	Base       types.TypeID
	Interfaces []types.TypeID

	// Params is the adopted positional list; ParamFragment is -1 when no
	// fragment declares one.
	Params        *ParamList
	ParamFragment int

	// Members lists every candidate of every fragment in source order.
	Members []Member
	Span    source.Span
}

// IsValue reports value representation.
func (a *Aggregate) IsValue() bool { return a.Rep == RepValue }

// Inheritable reports whether other aggregates may derive from a.
func (a *Aggregate) Inheritable() bool { return a.Rep == RepReference && !a.Sealed }

// MembersNamed returns the candidates called name, in source order.
func (a *Aggregate) MembersNamed(name string) []*Member {
	var out []*Member
	for i := range a.Members {
		if a.Members[i].Name == name {
			out = append(out, &a.Members[i])
		}
	}
	return out
}
