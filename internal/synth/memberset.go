// Package synth decides, for every merged aggregate declaration, which
// members are synthesized, which hand-written members are adopted in their
// place and which diagnostics are due. The output is one MemberSet per
// declaration, published through an immutable Table.
package synth

import (
	"aggsynth/internal/decl"
	"aggsynth/internal/source"
	"aggsynth/internal/types"
)

// Target enumerates the reserved synthesis slots of a member set.
type Target uint8

const (
	TargetPrimaryCtor Target = iota
	TargetCopyCtor
	TargetClone
	TargetEqualityContract
	TargetObjectEquals
	TargetTypedEquals
	TargetHash
	TargetFormatEntry
	TargetFormatContents
	TargetDeconstruct
	TargetOpEquality
	TargetOpInequality

	targetCount
)

// Targets lists every slot in resolution order.
func Targets() []Target {
	out := make([]Target, 0, targetCount)
	for t := Target(0); t < targetCount; t++ {
		out = append(out, t)
	}
	return out
}

func (t Target) String() string {
	switch t {
	case TargetPrimaryCtor:
		return "primary-ctor"
	case TargetCopyCtor:
		return "copy-ctor"
	case TargetClone:
		return "clone"
	case TargetEqualityContract:
		return "equality-contract"
	case TargetObjectEquals:
		return "object-equality"
	case TargetTypedEquals:
		return "typed-equality"
	case TargetHash:
		return "hash"
	case TargetFormatEntry:
		return "formatter-entry"
	case TargetFormatContents:
		return "formatter-contents"
	case TargetDeconstruct:
		return "decomposition"
	case TargetOpEquality:
		return "op-equality"
	case TargetOpInequality:
		return "op-inequality"
	default:
		return "target?"
	}
}

// Reserved member names.
const (
	NameEquals           = "Equals"
	NameGetHashCode      = "GetHashCode"
	NameToString         = "ToString"
	NamePrintMembers     = "PrintMembers"
	NameDeconstruct      = "Deconstruct"
	NameEqualityContract = "EqualityContract"
	NameClone            = "<Clone>$"
	NameOpEquality       = "=="
	NameOpInequality     = "!="
)

// reservedNames may never be declared by hand, whatever their signature.
var reservedNames = []string{NameClone}

// IsReservedName reports whether name belongs to the engine.
func IsReservedName(name string) bool {
	for _, r := range reservedNames {
		if r == name {
			return true
		}
	}
	return false
}

// SlotState is the tri-state outcome of a slot.
type SlotState uint8

const (
	SlotAbsent SlotState = iota
	SlotSynthesized
	SlotAdopted
)

func (s SlotState) String() string {
	switch s {
	case SlotSynthesized:
		return "synthesized"
	case SlotAdopted:
		return "adopted"
	default:
		return "absent"
	}
}

// Slot holds the decision for one target. Desc is set for synthesized
// slots, Candidate for adopted ones; Valid is false when the adopted member
// failed validation.
type Slot struct {
	State     SlotState    `msgpack:"state" json:"state"`
	Desc      *Descriptor  `msgpack:"desc,omitempty" json:"desc,omitempty"`
	Candidate *decl.Member `msgpack:"cand,omitempty" json:"candidate,omitempty"`
	Valid     bool         `msgpack:"valid" json:"valid"`
}

// Present reports whether the slot has a member, synthesized or adopted.
func (s *Slot) Present() bool { return s != nil && s.State != SlotAbsent }

func synthesized(d *Descriptor) Slot {
	return Slot{State: SlotSynthesized, Desc: d, Valid: true}
}

func adopted(m *decl.Member, valid bool) Slot {
	cp := *m
	return Slot{State: SlotAdopted, Candidate: &cp, Valid: valid}
}

// Component is one positional component.
type Component struct {
	Index      int           `msgpack:"index" json:"index"`
	Name       string        `msgpack:"name" json:"name"`
	Type       types.TypeID  `msgpack:"type" json:"type"`
	Mode       decl.PassMode `msgpack:"mode" json:"mode"`
	Default    string        `msgpack:"default,omitempty" json:"default,omitempty"`
	HasDefault bool          `msgpack:"has_default" json:"has_default"`
	Span       source.Span   `msgpack:"span" json:"-"`
}

// Storage is an instance backing-storage slot that is not covered by a
// positional component.
type Storage struct {
	Name string       `msgpack:"name" json:"name"`
	Type types.TypeID `msgpack:"type" json:"type"`
	// Init is the initializer source text, empty for the default value.
	Init string `msgpack:"init,omitempty" json:"init,omitempty"`
	// Writable reports whether an update expression may assign the slot.
	Writable bool        `msgpack:"writable" json:"writable"`
	Span     source.Span `msgpack:"span" json:"-"`
}

// MemberSet is the synthesis result for one declaration. It is never
// mutated after publication.
type MemberSet struct {
	ID        decl.Identity       `msgpack:"id" json:"id"`
	Type      types.TypeID        `msgpack:"type" json:"type"`
	TypeName  string              `msgpack:"type_name" json:"type_name"`
	Rep       decl.Representation `msgpack:"rep" json:"rep"`
	Immutable bool                `msgpack:"immutable" json:"immutable"`
	Sealed    bool                `msgpack:"sealed" json:"sealed"`
	// Base is set when the declaration derives from another aggregate.
	Base types.TypeID `msgpack:"base" json:"base"`
	// Fatal marks a declaration whose synthesis was aborted; every slot is
	// then Absent.
	Fatal bool `msgpack:"fatal" json:"fatal"`

	Components []Component `msgpack:"components" json:"components"`
	Storage    []Storage   `msgpack:"storage" json:"storage"`
	Slots      []Slot      `msgpack:"slots" json:"slots"`
	// Accessors holds one slot per positional component.
	Accessors []Slot `msgpack:"accessors" json:"accessors"`
}

func newMemberSet(agg *decl.Aggregate) *MemberSet {
	return &MemberSet{
		ID:        agg.ID,
		Type:      agg.Type,
		TypeName:  agg.ID.Name,
		Rep:       agg.Rep,
		Immutable: agg.Immutable,
		Sealed:    agg.Sealed || agg.IsValue(),
		Slots:     make([]Slot, targetCount),
	}
}

// Slot returns the slot for target t.
func (ms *MemberSet) Slot(t Target) *Slot {
	if ms == nil || int(t) >= len(ms.Slots) {
		return nil
	}
	return &ms.Slots[t]
}

// IsValue reports value representation.
func (ms *MemberSet) IsValue() bool { return ms.Rep == decl.RepValue }

// Inheritable reports whether other aggregates may derive from the type.
func (ms *MemberSet) Inheritable() bool { return !ms.IsValue() && !ms.Sealed }

// Component returns the positional component called name.
func (ms *MemberSet) Component(name string) (*Component, bool) {
	for i := range ms.Components {
		if ms.Components[i].Name == name {
			return &ms.Components[i], true
		}
	}
	return nil, false
}

// Accessor returns the accessor slot of component name.
func (ms *MemberSet) Accessor(name string) (*Slot, bool) {
	c, ok := ms.Component(name)
	if !ok || c.Index >= len(ms.Accessors) {
		return nil, false
	}
	return &ms.Accessors[c.Index], true
}

// CanClone reports whether a non-destructive update can copy an instance.
func (ms *MemberSet) CanClone() bool {
	if ms == nil || ms.Fatal {
		return false
	}
	if ms.IsValue() {
		return true
	}
	return ms.Slot(TargetClone).Present()
}
