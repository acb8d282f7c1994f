package synth

import (
	"aggsynth/internal/decl"
)

// buildToString describes the entry point:
// TypeName + " { " + contents + (contents non-empty ? " " : "") + "}".
func (s *synthesizer) buildToString() *Descriptor {
	return &Descriptor{
		Op: OpToString,
		Sig: Signature{
			Name:   NameToString,
			Result: s.b.String,
			Access: decl.AccessPublic,
			Mods:   decl.ModOverride,
		},
		TypeName: s.ms.TypeName,
	}
}

// buildPrintMembers describes the contents helper. It appends
// "name = value" per component and extra storage slot, separated by ", ",
// after the base contents when the declaration derives from an aggregate.
func (s *synthesizer) buildPrintMembers() *Descriptor {
	return &Descriptor{
		Op: OpPrintMembers,
		Sig: Signature{
			Name:   NamePrintMembers,
			Params: []SigParam{{Name: "builder", Type: s.b.TextSink}},
			Result: s.b.Bool,
			Access: s.hierarchyAccess(),
			Mods:   s.virtualMods(),
		},
		Steps:     s.storageSteps(),
		CallsBase: s.baseAggregate,
		TypeName:  s.ms.TypeName,
	}
}
