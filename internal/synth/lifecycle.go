package synth

import (
	"fmt"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
)

// resolveAccessors decides one accessor slot per positional component. A
// hand-written property or field with the component's name replaces the
// synthesized accessor.
func (s *synthesizer) resolveAccessors() {
	s.ms.Accessors = make([]Slot, len(s.ms.Components))
	for i, c := range s.ms.Components {
		cand := s.accessorCandidate(c.Name)
		if cand == nil {
			s.ms.Accessors[i] = synthesized(s.buildAccessor(c))
			continue
		}
		s.claimed[cand] = struct{}{}
		var vs []violation
		if cand.Result != c.Type {
			vs = append(vs, violation{
				code: diag.SemaAccessorTypeMismatch,
				span: cand.Span,
				msg: fmt.Sprintf("the positional member '%s' has type '%s' but the component has type '%s'",
					cand.Name, s.label(cand.Result), s.label(c.Type)),
				args: []string{cand.Name, s.label(c.Type)},
			})
		}
		vs = append(vs, wantInstance(cand)...)
		s.report(vs)
		s.ms.Accessors[i] = adopted(cand, len(vs) == 0)

		if !s.componentRead(c.Name) {
			diag.ReportWarning(s.r, diag.SemaUnreadComponent, c.Span,
				fmt.Sprintf("parameter '%s' is unread; did you forget to use it to initialize the member with that name?", c.Name)).
				WithArgs(c.Name).
				Emit()
		}
	}
}

func (s *synthesizer) accessorCandidate(name string) *decl.Member {
	for _, m := range s.agg.MembersNamed(name) {
		if s.isClaimed(m) {
			continue
		}
		if m.Kind == decl.MemberProperty || m.Kind == decl.MemberField {
			return m
		}
	}
	return nil
}

func (s *synthesizer) componentRead(name string) bool {
	for i := range s.agg.Members {
		if s.agg.Members[i].ReadsParam(name) {
			return true
		}
	}
	return false
}

func (s *synthesizer) buildAccessor(c Component) *Descriptor {
	acc := decl.AccGet | decl.AccInit
	if s.agg.IsValue() && !s.ms.Immutable {
		acc = decl.AccGet | decl.AccSet
	}
	return &Descriptor{
		Op: OpAccessor,
		Sig: Signature{
			Name:      c.Name,
			Result:    c.Type,
			Access:    decl.AccessPublic,
			Accessors: acc,
		},
		Steps: []Step{{Source: StepComponent, Name: c.Name, Type: c.Type, Index: c.Index}},
	}
}

func (s *synthesizer) buildPrimaryCtor() *Descriptor {
	params := make([]SigParam, 0, len(s.ms.Components))
	for _, c := range s.ms.Components {
		mode := c.Mode
		if mode != decl.PassIn && mode != decl.PassParams {
			mode = decl.PassValue
		}
		params = append(params, SigParam{Name: c.Name, Type: c.Type, Mode: mode})
	}
	return &Descriptor{
		Op: OpConstruct,
		Sig: Signature{
			Name:   s.ms.TypeName,
			Params: params,
			Access: decl.AccessPublic,
		},
		Steps:    s.storageSteps(),
		TypeName: s.ms.TypeName,
	}
}

func (s *synthesizer) buildCopyCtor() *Descriptor {
	access := decl.AccessPrivate
	if s.inheritable() {
		access = decl.AccessProtected
	}
	return &Descriptor{
		Op: OpCopyConstruct,
		Sig: Signature{
			Name:   s.ms.TypeName,
			Params: []SigParam{s.selfParam("original")},
			Access: access,
		},
		Steps:     s.storageSteps(),
		CallsBase: s.baseAggregate,
		TypeName:  s.ms.TypeName,
	}
}

func (s *synthesizer) buildClone() *Descriptor {
	return &Descriptor{
		Op: OpClone,
		Sig: Signature{
			Name:   NameClone,
			Result: s.agg.Type,
			Access: decl.AccessPublic,
			Mods:   s.virtualMods(),
		},
		TypeName: s.ms.TypeName,
	}
}

func (s *synthesizer) buildContract() *Descriptor {
	return &Descriptor{
		Op: OpEqualityContract,
		Sig: Signature{
			Name:      NameEqualityContract,
			Result:    s.b.String,
			Access:    decl.AccessProtected,
			Mods:      s.virtualMods(),
			Accessors: decl.AccGet,
		},
		TypeName: s.ms.TypeName,
	}
}
