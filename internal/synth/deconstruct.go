package synth

import (
	"aggsynth/internal/decl"
)

// buildDeconstruct writes every component to its out parameter in
// declaration order, reading through the accessor so hand-written accessors
// are respected.
func (s *synthesizer) buildDeconstruct() *Descriptor {
	params := make([]SigParam, 0, len(s.ms.Components))
	for _, c := range s.ms.Components {
		params = append(params, SigParam{Name: c.Name, Type: c.Type, Mode: decl.PassOut})
	}
	return &Descriptor{
		Op: OpDeconstruct,
		Sig: Signature{
			Name:   NameDeconstruct,
			Params: params,
			Result: s.b.Void,
			Access: decl.AccessPublic,
		},
		Steps:    s.componentSteps(true),
		TypeName: s.ms.TypeName,
	}
}
