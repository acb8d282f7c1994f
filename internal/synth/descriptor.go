package synth

import (
	"aggsynth/internal/decl"
	"aggsynth/internal/types"
)

// Op is the operation a synthesized member performs.
type Op uint8

const (
	OpConstruct Op = iota + 1
	OpCopyConstruct
	OpClone
	OpEqualityContract
	OpObjectEquals
	OpTypedEquals
	OpHash
	OpToString
	OpPrintMembers
	OpDeconstruct
	OpEqOperator
	OpNeOperator
	OpAccessor
)

func (o Op) String() string {
	switch o {
	case OpConstruct:
		return "construct"
	case OpCopyConstruct:
		return "copy-construct"
	case OpClone:
		return "clone"
	case OpEqualityContract:
		return "equality-contract"
	case OpObjectEquals:
		return "object-equals"
	case OpTypedEquals:
		return "typed-equals"
	case OpHash:
		return "hash"
	case OpToString:
		return "to-string"
	case OpPrintMembers:
		return "print-members"
	case OpDeconstruct:
		return "deconstruct"
	case OpEqOperator:
		return "op-equality"
	case OpNeOperator:
		return "op-inequality"
	case OpAccessor:
		return "accessor"
	default:
		return "op?"
	}
}

// SigParam is one parameter of a synthesized signature.
type SigParam struct {
	Name string        `msgpack:"name" json:"name"`
	Type types.TypeID  `msgpack:"type" json:"type"`
	Mode decl.PassMode `msgpack:"mode" json:"mode"`
}

// Signature of a synthesized member.
type Signature struct {
	Name      string             `msgpack:"name" json:"name"`
	Params    []SigParam         `msgpack:"params,omitempty" json:"params,omitempty"`
	Result    types.TypeID       `msgpack:"result" json:"result"`
	Access    decl.Accessibility `msgpack:"access" json:"access"`
	Mods      decl.Modifiers     `msgpack:"mods" json:"mods"`
	Accessors decl.Accessors     `msgpack:"accessors,omitempty" json:"accessors,omitempty"`
}

// StepSource says where a step reads its value from.
type StepSource uint8

const (
	// StepComponent reads a positional component.
	StepComponent StepSource = iota
	// StepStorage reads an additional backing-storage slot.
	StepStorage
	// StepContract compares the runtime equality contract.
	StepContract
)

// Step is one element of a member's evaluation order.
type Step struct {
	Source StepSource   `msgpack:"src" json:"source"`
	Name   string       `msgpack:"name" json:"name"`
	Type   types.TypeID `msgpack:"type" json:"type"`
	// Index is the component index, -1 for other sources.
	Index int `msgpack:"index" json:"index"`
	// ViaAccessor reads through the component accessor rather than the
	// raw backing storage.
	ViaAccessor bool `msgpack:"via_accessor,omitempty" json:"via_accessor,omitempty"`
}

// Descriptor carries what a code generator needs to emit a synthesized
// member without re-deriving the synthesis rules.
type Descriptor struct {
	Op    Op        `msgpack:"op" json:"op"`
	Sig   Signature `msgpack:"sig" json:"sig"`
	Steps []Step    `msgpack:"steps,omitempty" json:"steps,omitempty"`

	// Hash combination parameters.
	Seed       int32 `msgpack:"seed,omitempty" json:"seed,omitempty"`
	Multiplier int32 `msgpack:"mul,omitempty" json:"multiplier,omitempty"`

	// CallsBase chains to the base aggregate's member of the same role.
	CallsBase bool `msgpack:"calls_base,omitempty" json:"calls_base,omitempty"`
	// ExactType makes object equality reject subtypes.
	ExactType bool `msgpack:"exact,omitempty" json:"exact_type,omitempty"`
	// ReadOnly marks members that never mutate the instance.
	ReadOnly bool   `msgpack:"readonly,omitempty" json:"readonly,omitempty"`
	TypeName string `msgpack:"type_name,omitempty" json:"type_name,omitempty"`
}
