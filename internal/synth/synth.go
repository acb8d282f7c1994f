package synth

import (
	"fmt"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
	"aggsynth/internal/layout"
	"aggsynth/internal/types"
)

// Options configure synthesis of one declaration.
type Options struct {
	// Types is the published symbol table. It must be frozen.
	Types *types.Interner
	// Reporter receives the diagnostics of this declaration only.
	Reporter diag.Reporter
	// Layout walks value containment; one walker per worker. When nil a
	// fresh walker is created.
	Layout *layout.Walker
}

type synthesizer struct {
	agg    *decl.Aggregate
	in     *types.Interner
	b      types.Builtins
	r      diag.Reporter
	walker *layout.Walker
	ms     *MemberSet

	// baseAggregate is set when the declaration derives from another
	// aggregate whose members are chained to.
	baseAggregate bool
	// claimed marks candidates already matched to a slot.
	claimed map[*decl.Member]struct{}
}

// Synthesize computes the member set of one merged declaration. It is pure:
// the only outputs are the returned set and the diagnostics sent to
// opts.Reporter.
func Synthesize(agg *decl.Aggregate, opts Options) *MemberSet {
	if agg == nil {
		return nil
	}
	if opts.Types == nil {
		opts.Types = types.NewInterner()
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	if opts.Layout == nil {
		opts.Layout = layout.New(opts.Types)
	}
	s := &synthesizer{
		agg:     agg,
		in:      opts.Types,
		b:       opts.Types.Builtins(),
		r:       opts.Reporter,
		walker:  opts.Layout,
		ms:      newMemberSet(agg),
		claimed: make(map[*decl.Member]struct{}),
	}
	if !agg.IsValue() && agg.Base != types.NoTypeID && s.in.Kind(agg.Base) == types.KindAggregate {
		s.baseAggregate = true
		s.ms.Base = agg.Base
	}
	s.run()
	return s.ms
}

func (s *synthesizer) run() {
	if !s.resolveComponents() {
		s.ms.Fatal = true
		s.ms.Accessors = make([]Slot, len(s.ms.Components))
		return
	}
	s.checkReservedNames()
	s.resolveAccessors()
	for _, t := range Targets() {
		s.ms.Slots[t] = s.resolve(t)
	}
	s.pairOperators()
	s.checkConstructorChaining()
	s.checkEqualsWithoutHash()
	s.markReadOnly()
}

func (s *synthesizer) checkReservedNames() {
	for i := range s.agg.Members {
		m := &s.agg.Members[i]
		if !IsReservedName(m.Name) {
			continue
		}
		s.claimed[m] = struct{}{}
		diag.ReportError(s.r, diag.SemaReservedMemberName, m.Span,
			fmt.Sprintf("the member name '%s' is reserved", m.Name)).
			WithArgs(m.Name).
			Emit()
	}
}

func (s *synthesizer) label(id types.TypeID) string {
	if id == types.NoTypeID {
		return "void"
	}
	return types.Label(s.in, id)
}

// isSelf reports whether id names the declaration itself. Reference
// aggregates also accept the nullable form.
func (s *synthesizer) isSelf(id types.TypeID) bool {
	if id == s.agg.Type {
		return true
	}
	if s.agg.IsValue() {
		return false
	}
	return s.in.Kind(id) == types.KindNullable && s.in.ValueElem(id) == s.agg.Type
}

func (s *synthesizer) isVoid(id types.TypeID) bool {
	return id == types.NoTypeID || id == s.b.Void
}

func (s *synthesizer) selfParam(name string) SigParam {
	return SigParam{Name: name, Type: s.agg.Type}
}

// inheritable reports whether derived aggregates may exist.
func (s *synthesizer) inheritable() bool { return s.ms.Inheritable() }

// virtualMods returns the modifiers of a member that derived aggregates
// override.
func (s *synthesizer) virtualMods() decl.Modifiers {
	switch {
	case s.baseAggregate && s.ms.Sealed:
		return decl.ModOverride | decl.ModSealed
	case s.baseAggregate:
		return decl.ModOverride
	case s.inheritable():
		return decl.ModVirtual
	}
	return 0
}

// hierarchyAccess is private for closed declarations and protected when
// derived aggregates may chain to the member.
func (s *synthesizer) hierarchyAccess() decl.Accessibility {
	if s.inheritable() || s.baseAggregate {
		return decl.AccessProtected
	}
	return decl.AccessPrivate
}

func (s *synthesizer) componentSteps(viaAccessor bool) []Step {
	steps := make([]Step, 0, len(s.ms.Components)+len(s.ms.Storage)+1)
	for _, c := range s.ms.Components {
		steps = append(steps, Step{Source: StepComponent, Name: c.Name, Type: c.Type, Index: c.Index, ViaAccessor: viaAccessor})
	}
	return steps
}

func (s *synthesizer) storageSteps() []Step {
	steps := s.componentSteps(false)
	for _, st := range s.ms.Storage {
		steps = append(steps, Step{Source: StepStorage, Name: st.Name, Type: st.Type, Index: -1})
	}
	return steps
}

// equalitySteps is the shared evaluation order of equality and hashing.
func (s *synthesizer) equalitySteps() []Step {
	steps := s.storageSteps()
	if s.hasContract() {
		contract := Step{Source: StepContract, Name: NameEqualityContract, Type: s.b.String, Index: -1}
		steps = append([]Step{contract}, steps...)
	}
	return steps
}

func (s *synthesizer) hasContract() bool {
	return !s.agg.IsValue() && (s.inheritable() || s.baseAggregate)
}
