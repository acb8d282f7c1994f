package synth

import (
	"fmt"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
	"aggsynth/internal/source"
)

// violation is one broken rule of an adopted candidate.
type violation struct {
	code diag.Code
	span source.Span
	msg  string
	args []string
}

// rule decides one target. The table below replaces looking members up by
// name at runtime: each target owns a typed matcher and validator.
type rule struct {
	// applies reports whether the declaration has the slot at all.
	applies func(s *synthesizer) bool
	// match reports whether a hand-written member claims the slot.
	match func(s *synthesizer, m *decl.Member) bool
	// fallback picks a candidate when nothing matches the exact shape.
	fallback func(s *synthesizer) (*decl.Member, []violation)
	// validate lists every accept condition the candidate breaks.
	validate func(s *synthesizer, m *decl.Member) []violation
	// build describes the synthesized member.
	build func(s *synthesizer) *Descriptor
}

var rules = [targetCount]rule{
	TargetPrimaryCtor: {
		applies:  func(s *synthesizer) bool { return s.agg.Params != nil },
		match:    (*synthesizer).matchesPrimaryCtor,
		validate: (*synthesizer).validateAlreadyExists,
		build:    (*synthesizer).buildPrimaryCtor,
	},
	TargetCopyCtor: {
		applies:  func(s *synthesizer) bool { return !s.agg.IsValue() },
		match:    (*synthesizer).matchesCopyCtor,
		validate: (*synthesizer).validateCopyCtor,
		build:    (*synthesizer).buildCopyCtor,
	},
	TargetClone: {
		applies: func(s *synthesizer) bool { return !s.agg.IsValue() },
		// reserved: never adopted
		match: func(*synthesizer, *decl.Member) bool { return false },
		build: (*synthesizer).buildClone,
	},
	TargetEqualityContract: {
		applies:  (*synthesizer).hasContract,
		match:    matchProperty(NameEqualityContract),
		validate: (*synthesizer).validateContract,
		build:    (*synthesizer).buildContract,
	},
	TargetObjectEquals: {
		applies:  always,
		match:    (*synthesizer).matchesObjectEquals,
		validate: (*synthesizer).validateAlreadyExists,
		build:    (*synthesizer).buildObjectEquals,
	},
	TargetTypedEquals: {
		applies:  always,
		match:    (*synthesizer).matchesTypedEquals,
		validate: (*synthesizer).validateTypedEquals,
		build:    (*synthesizer).buildTypedEquals,
	},
	TargetHash: {
		applies:  always,
		match:    matchMethod(NameGetHashCode, 0),
		validate: (*synthesizer).validateHash,
		build:    (*synthesizer).buildHash,
	},
	TargetFormatEntry: {
		applies:  always,
		match:    matchMethod(NameToString, 0),
		validate: (*synthesizer).validateToString,
		build:    (*synthesizer).buildToString,
	},
	TargetFormatContents: {
		applies:  always,
		match:    (*synthesizer).matchesPrintMembers,
		validate: (*synthesizer).validatePrintMembers,
		build:    (*synthesizer).buildPrintMembers,
	},
	TargetDeconstruct: {
		applies:  func(s *synthesizer) bool { return len(s.ms.Components) > 0 },
		match:    (*synthesizer).matchesDeconstruct,
		fallback: (*synthesizer).deconstructFallback,
		validate: (*synthesizer).validateDeconstruct,
		build:    (*synthesizer).buildDeconstruct,
	},
	TargetOpEquality: {
		applies:  always,
		match:    matchOperator(NameOpEquality),
		validate: (*synthesizer).validateOperator,
		build:    buildOperator(OpEqOperator, NameOpEquality),
	},
	TargetOpInequality: {
		applies:  always,
		match:    matchOperator(NameOpInequality),
		validate: (*synthesizer).validateOperator,
		build:    buildOperator(OpNeOperator, NameOpInequality),
	},
}

func always(*synthesizer) bool { return true }

func matchMethod(name string, arity int) func(*synthesizer, *decl.Member) bool {
	return func(_ *synthesizer, m *decl.Member) bool {
		return m.Kind == decl.MemberMethod && m.Name == name && len(m.Params) == arity
	}
}

func matchProperty(name string) func(*synthesizer, *decl.Member) bool {
	return func(_ *synthesizer, m *decl.Member) bool {
		return m.Kind == decl.MemberProperty && m.Name == name
	}
}

func (s *synthesizer) matchesPrimaryCtor(m *decl.Member) bool {
	if m.Kind != decl.MemberConstructor || m.Static() || len(m.Params) != len(s.ms.Components) {
		return false
	}
	for i, p := range m.Params {
		if p.Type != s.ms.Components[i].Type {
			return false
		}
	}
	return true
}

func (s *synthesizer) matchesCopyCtor(m *decl.Member) bool {
	return m.Kind == decl.MemberConstructor && !m.Static() && len(m.Params) == 1 && s.isSelf(m.Params[0].Type)
}

func (s *synthesizer) matchesObjectEquals(m *decl.Member) bool {
	return m.Kind == decl.MemberMethod && m.Name == NameEquals && len(m.Params) == 1 &&
		s.in.ValueElem(m.Params[0].Type) == s.b.Object
}

func (s *synthesizer) matchesTypedEquals(m *decl.Member) bool {
	return m.Kind == decl.MemberMethod && m.Name == NameEquals && len(m.Params) == 1 && s.isSelf(m.Params[0].Type)
}

func (s *synthesizer) matchesPrintMembers(m *decl.Member) bool {
	return m.Kind == decl.MemberMethod && m.Name == NamePrintMembers && len(m.Params) == 1 &&
		m.Params[0].Type == s.b.TextSink
}

func (s *synthesizer) matchesDeconstruct(m *decl.Member) bool {
	return m.Kind == decl.MemberMethod && m.Name == NameDeconstruct && len(m.Params) == len(s.ms.Components)
}

// deconstructFallback adopts the first Deconstruct of any arity so that a
// hand-written decomposition is never silently shadowed.
func (s *synthesizer) deconstructFallback() (*decl.Member, []violation) {
	for _, m := range s.agg.MembersNamed(NameDeconstruct) {
		if m.Kind != decl.MemberMethod || s.isClaimed(m) {
			continue
		}
		return m, []violation{{
			code: diag.SemaDeconstructArity,
			span: m.Span,
			msg: fmt.Sprintf("'%s' must have %d out parameters to match the positional components of '%s', found %d",
				NameDeconstruct, len(s.ms.Components), s.ms.TypeName, len(m.Params)),
			args: []string{fmt.Sprint(len(s.ms.Components)), fmt.Sprint(len(m.Params))},
		}}
	}
	return nil, nil
}

func matchOperator(name string) func(*synthesizer, *decl.Member) bool {
	return func(s *synthesizer, m *decl.Member) bool {
		return m.Kind == decl.MemberOperator && m.Name == name && len(m.Params) == 2 &&
			s.isSelf(m.Params[0].Type) && s.isSelf(m.Params[1].Type)
	}
}

// Validators. Every rule appends its own violation; a candidate that breaks
// several rules yields several diagnostics.

func (s *synthesizer) validateAlreadyExists(m *decl.Member) []violation {
	return []violation{{
		code: diag.SemaMemberAlreadyExists,
		span: m.Span,
		msg:  fmt.Sprintf("type '%s' already defines a member called '%s' with the same parameter types", s.ms.TypeName, m.Name),
		args: []string{m.Name, s.ms.TypeName},
	}}
}

func (s *synthesizer) wantResult(m *decl.Member, want string, ok bool) []violation {
	if ok {
		return nil
	}
	return []violation{{
		code: diag.SemaMemberWrongReturnType,
		span: m.Span,
		msg:  fmt.Sprintf("'%s' must return '%s', found '%s'", m.Name, want, s.label(m.Result)),
		args: []string{m.Name, want},
	}}
}

func wantPublic(m *decl.Member) []violation {
	if m.Access.Effective() == decl.AccessPublic {
		return nil
	}
	return []violation{{
		code: diag.SemaMemberMustBePublic,
		span: m.Span,
		msg:  fmt.Sprintf("'%s' must be public", m.Name),
		args: []string{m.Name},
	}}
}

func wantInstance(m *decl.Member) []violation {
	if !m.Static() {
		return nil
	}
	return []violation{{
		code: diag.SemaMemberMustNotBeStatic,
		span: m.Span,
		msg:  fmt.Sprintf("'%s' must not be static", m.Name),
		args: []string{m.Name},
	}}
}

func wantOverride(m *decl.Member) []violation {
	if m.Mods.Has(decl.ModOverride) {
		return nil
	}
	return []violation{{
		code: diag.SemaMemberDoesNotOverride,
		span: m.Span,
		msg:  fmt.Sprintf("'%s' must override the inherited member", m.Name),
		args: []string{m.Name},
	}}
}

func wantAccess(m *decl.Member, want decl.Accessibility) []violation {
	if m.Access.Effective() == want {
		return nil
	}
	return []violation{{
		code: diag.SemaMemberAccessibility,
		span: m.Span,
		msg:  fmt.Sprintf("'%s' must be %s", m.Name, want),
		args: []string{m.Name, want.String()},
	}}
}

func (s *synthesizer) validateCopyCtor(m *decl.Member) []violation {
	if !s.inheritable() {
		return nil
	}
	switch m.Access.Effective() {
	case decl.AccessPublic, decl.AccessProtected:
		return nil
	}
	return []violation{{
		code: diag.SemaCopyCtorInaccessible,
		span: m.Span,
		msg:  fmt.Sprintf("a copy constructor in '%s' must be public or protected because the type is not sealed", s.ms.TypeName),
		args: []string{s.ms.TypeName},
	}}
}

func (s *synthesizer) validateContract(m *decl.Member) []violation {
	var out []violation
	out = append(out, wantInstance(m)...)
	out = append(out, wantAccess(m, decl.AccessProtected)...)
	switch {
	case s.baseAggregate:
		out = append(out, wantOverride(m)...)
	case !m.Mods.Has(decl.ModVirtual) && !m.Mods.Has(decl.ModOverride):
		out = append(out, violation{
			code: diag.SemaMemberDoesNotOverride,
			span: m.Span,
			msg:  fmt.Sprintf("'%s' must be virtual so derived types can override it", m.Name),
			args: []string{m.Name},
		})
	}
	return out
}

func (s *synthesizer) validateTypedEquals(m *decl.Member) []violation {
	var out []violation
	out = append(out, s.wantResult(m, "bool", m.Result == s.b.Bool)...)
	out = append(out, wantPublic(m)...)
	out = append(out, wantInstance(m)...)
	if p := m.Params[0]; p.Mode != decl.PassValue {
		out = append(out, violation{
			code: diag.SemaEqualityParamByRef,
			span: p.Span,
			msg:  fmt.Sprintf("the parameter of '%s' cannot be passed as '%s'", m.Name, p.Mode),
			args: []string{m.Name, p.Mode.String()},
		})
	}
	return out
}

func (s *synthesizer) validateHash(m *decl.Member) []violation {
	var out []violation
	out = append(out, s.wantResult(m, "int", m.Result == s.b.Int)...)
	out = append(out, wantPublic(m)...)
	out = append(out, wantInstance(m)...)
	if !m.Static() {
		out = append(out, wantOverride(m)...)
	}
	return out
}

func (s *synthesizer) validateToString(m *decl.Member) []violation {
	var out []violation
	if !m.Static() {
		out = append(out, wantOverride(m)...)
	} else {
		out = append(out, wantInstance(m)...)
	}
	out = append(out, wantPublic(m)...)
	out = append(out, s.wantResult(m, "string", m.Result == s.b.String)...)
	if m.Mods.Has(decl.ModSealed) && !s.ms.Sealed {
		out = append(out, violation{
			code: diag.SemaMemberSealedInUnsealed,
			span: m.Span,
			msg:  fmt.Sprintf("'%s' cannot be sealed because '%s' is not sealed", m.Name, s.ms.TypeName),
			args: []string{m.Name, s.ms.TypeName},
		})
	}
	return out
}

func (s *synthesizer) validatePrintMembers(m *decl.Member) []violation {
	var out []violation
	out = append(out, s.wantResult(m, "bool", m.Result == s.b.Bool)...)
	out = append(out, wantAccess(m, s.hierarchyAccess())...)
	out = append(out, wantInstance(m)...)
	return out
}

func (s *synthesizer) validateDeconstruct(m *decl.Member) []violation {
	var out []violation
	out = append(out, s.wantResult(m, "void", s.isVoid(m.Result))...)
	out = append(out, wantPublic(m)...)
	out = append(out, wantInstance(m)...)
	if len(m.Params) != len(s.ms.Components) {
		return out
	}
	for i, p := range m.Params {
		c := s.ms.Components[i]
		if p.Mode == decl.PassOut && p.Type == c.Type {
			continue
		}
		out = append(out, violation{
			code: diag.SemaDeconstructParam,
			span: p.Span,
			msg: fmt.Sprintf("parameter %d of '%s' must be 'out %s' to match component '%s'",
				i+1, NameDeconstruct, s.label(c.Type), c.Name),
			args: []string{fmt.Sprint(i + 1), c.Name},
		})
	}
	return out
}

func (s *synthesizer) validateOperator(m *decl.Member) []violation {
	var out []violation
	out = append(out, s.wantResult(m, "bool", m.Result == s.b.Bool)...)
	if m.Access.Effective() != decl.AccessPublic || !m.Static() {
		out = append(out, violation{
			code: diag.SemaOperatorNotPublicStatic,
			span: m.Span,
			msg:  fmt.Sprintf("operator '%s' must be declared public and static", m.Name),
			args: []string{m.Name},
		})
	}
	return out
}
