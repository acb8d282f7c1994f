package synth

import (
	"fmt"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
)

// resolve decides target t: Absent when the slot does not apply, Adopted
// when a hand-written member claims it (valid or not) and Synthesized
// otherwise.
func (s *synthesizer) resolve(t Target) Slot {
	r := &rules[t]
	if !r.applies(s) {
		return Slot{}
	}
	cand, extra := s.findCandidate(r)
	if cand == nil {
		return synthesized(r.build(s))
	}
	s.claimed[cand] = struct{}{}
	vs := extra
	if r.validate != nil {
		vs = append(vs, r.validate(s, cand)...)
	}
	s.report(vs)
	return adopted(cand, len(vs) == 0)
}

func (s *synthesizer) findCandidate(r *rule) (*decl.Member, []violation) {
	for i := range s.agg.Members {
		m := &s.agg.Members[i]
		if s.isClaimed(m) {
			continue
		}
		if r.match(s, m) {
			return m, nil
		}
	}
	if r.fallback != nil {
		return r.fallback(s)
	}
	return nil, nil
}

func (s *synthesizer) isClaimed(m *decl.Member) bool {
	_, ok := s.claimed[m]
	return ok
}

func (s *synthesizer) report(vs []violation) {
	for _, v := range vs {
		diag.ReportError(s.r, v.code, v.span, v.msg).WithArgs(v.args...).Emit()
	}
}

// pairOperators enforces that equality operators are written by hand only
// as a matched pair. A lone operator is rejected and its partner stays
// synthesized.
func (s *synthesizer) pairOperators() {
	eq, ne := s.ms.Slot(TargetOpEquality), s.ms.Slot(TargetOpInequality)
	lone := func(have, missing *Slot, missingName string) {
		if have.State != SlotAdopted || missing.State == SlotAdopted {
			return
		}
		m := have.Candidate
		diag.ReportError(s.r, diag.SemaMemberAlreadyExists, m.Span,
			fmt.Sprintf("operator '%s' of '%s' cannot be declared without operator '%s'", m.Name, s.ms.TypeName, missingName)).
			WithArgs(m.Name, s.ms.TypeName).
			Emit()
		have.Valid = false
	}
	lone(eq, ne, NameOpInequality)
	lone(ne, eq, NameOpEquality)
}

// checkConstructorChaining requires every hand-written constructor other
// than the copy constructor to chain to the primary constructor.
func (s *synthesizer) checkConstructorChaining() {
	if s.agg.Params == nil {
		return
	}
	for i := range s.agg.Members {
		m := &s.agg.Members[i]
		if m.Kind != decl.MemberConstructor || m.Static() || m.ChainsToPrimary {
			continue
		}
		// the primary and copy constructor candidates are claimed
		if s.isClaimed(m) {
			continue
		}
		diag.ReportError(s.r, diag.SemaCtorMustChain, m.Span,
			fmt.Sprintf("a constructor declared in '%s' with a parameter list must call the primary constructor", s.ms.TypeName)).
			WithArgs(s.ms.TypeName).
			Emit()
	}
}

// checkEqualsWithoutHash warns about a hand-written typed equality without
// a hand-written hash. The default hash is still synthesized.
func (s *synthesizer) checkEqualsWithoutHash() {
	eq := s.ms.Slot(TargetTypedEquals)
	if eq.State != SlotAdopted || s.ms.Slot(TargetHash).State == SlotAdopted {
		return
	}
	diag.ReportWarning(s.r, diag.SemaEqualsWithoutHash, eq.Candidate.Span,
		fmt.Sprintf("'%s' defines '%s' but not '%s'", s.ms.TypeName, NameEquals, NameGetHashCode)).
		WithArgs(s.ms.TypeName).
		Emit()
}

// markReadOnly propagates read-only capability to the synthesized
// formatter members: the declaration is the immutable variant and no
// component accessor mutates state.
func (s *synthesizer) markReadOnly() {
	if !s.readOnlyCapable() {
		return
	}
	for _, t := range []Target{TargetFormatEntry, TargetFormatContents} {
		if sl := s.ms.Slot(t); sl.State == SlotSynthesized {
			sl.Desc.ReadOnly = true
		}
	}
}

func (s *synthesizer) readOnlyCapable() bool {
	if !s.ms.Immutable {
		return false
	}
	for i := range s.ms.Accessors {
		acc := &s.ms.Accessors[i]
		if acc.State == SlotAdopted && acc.Candidate.MutatingGetter {
			return false
		}
	}
	return true
}
