package lower

import (
	"fmt"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
	"aggsynth/internal/hir"
	"aggsynth/internal/synth"
	"aggsynth/internal/types"
)

// Options configure lowering at one use site.
type Options struct {
	Types    *types.Interner
	Table    *synth.Table
	Reporter diag.Reporter
}

// member describes an assignment target.
type member struct {
	component int
	writable  bool
}

// With lowers an update expression. Every static error (cannot clone,
// unknown or read-only member, member already initialized) is reported
// before any op is produced; on error the program is nil.
func With(e *hir.Expr, opts Options) (*Program, bool) {
	if e == nil || e.Kind != hir.ExprWith {
		return nil, false
	}
	data, ok := e.Data.(hir.WithData)
	if !ok || data.Source == nil {
		return nil, false
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	l := lowerer{opts: opts}
	return l.with(e, data)
}

type lowerer struct {
	opts   Options
	failed bool
}

func (l *lowerer) with(e *hir.Expr, data hir.WithData) (*Program, bool) {
	typ := data.Source.Type
	valueCopy, ok := l.cloneKind(typ)
	if !ok {
		label := l.label(typ)
		diag.ReportError(l.opts.Reporter, diag.SemaWithCannotClone, data.Source.Span,
			fmt.Sprintf("the receiver type '%s' is not a valid aggregate type and has no clone operation", label)).
			WithArgs(label).
			Emit()
		l.failed = true
	}

	targets := make([]member, len(data.Patches))
	first := make(map[string]int, len(data.Patches))
	for i, p := range data.Patches {
		if prev, dup := first[p.Member]; dup {
			diag.ReportError(l.opts.Reporter, diag.SemaWithDuplicateMember, p.Span,
				fmt.Sprintf("member '%s' has already been initialized", p.Member)).
				WithNote(data.Patches[prev].Span, "first initialized here").
				WithArgs(p.Member).
				Emit()
			l.failed = true
			continue
		}
		first[p.Member] = i
		if !ok {
			continue
		}
		m, found := l.lookup(typ, p.Member)
		switch {
		case !found:
			diag.ReportError(l.opts.Reporter, diag.SemaWithUnknownMember, p.Span,
				fmt.Sprintf("'%s' does not contain a member named '%s'", l.label(typ), p.Member)).
				WithArgs(l.label(typ), p.Member).
				Emit()
			l.failed = true
		case !m.writable:
			diag.ReportError(l.opts.Reporter, diag.SemaWithMemberNotAssignable, p.Span,
				fmt.Sprintf("member '%s' of '%s' cannot be assigned in an update expression", p.Member, l.label(typ))).
				WithArgs(p.Member).
				Emit()
			l.failed = true
		}
		targets[i] = m
	}
	if l.failed {
		return nil, false
	}

	prog := &Program{Type: typ, Temps: 2, Span: e.Span}
	prog.Ops = append(prog.Ops, Op{Kind: OpEvalSource, Dst: 0, Value: data.Source, Component: -1, Span: data.Source.Span})
	copyOp := OpClone
	if valueCopy {
		copyOp = OpCopy
	}
	prog.Ops = append(prog.Ops, Op{Kind: copyOp, Dst: 1, Src: 0, Component: -1, Span: e.Span})
	for i, p := range data.Patches {
		prog.Ops = append(prog.Ops, Op{
			Kind:      OpAssign,
			Dst:       1,
			Member:    p.Member,
			Component: targets[i].component,
			Value:     p.Value,
			Span:      p.Span,
		})
	}
	prog.Ops = append(prog.Ops, Op{Kind: OpResult, Src: 1, Component: -1, Span: e.Span})
	return prog, true
}

// cloneKind reports whether typ can be copied and whether the copy is a
// plain value copy.
func (l *lowerer) cloneKind(typ types.TypeID) (valueCopy, ok bool) {
	if ms, found := l.opts.Table.Lookup(typ); found {
		return ms.IsValue(), ms.CanClone()
	}
	if l.opts.Types != nil && l.opts.Types.Kind(typ) == types.KindStruct {
		return true, true
	}
	return false, false
}

// lookup finds name among the components and storage of typ and its base
// aggregates.
func (l *lowerer) lookup(typ types.TypeID, name string) (member, bool) {
	seen := 0
	for typ != types.NoTypeID && seen < 64 {
		seen++
		ms, found := l.opts.Table.Lookup(typ)
		if !found {
			return l.lookupStruct(typ, name)
		}
		if c, ok := ms.Component(name); ok {
			acc, _ := ms.Accessor(name)
			return member{component: c.Index, writable: accessorWritable(acc)}, true
		}
		for _, st := range ms.Storage {
			if st.Name == name {
				return member{component: -1, writable: st.Writable}, true
			}
		}
		typ = ms.Base
	}
	return member{}, false
}

func (l *lowerer) lookupStruct(typ types.TypeID, name string) (member, bool) {
	if l.opts.Types == nil || l.opts.Types.Kind(typ) != types.KindStruct {
		return member{}, false
	}
	for _, f := range l.opts.Types.Fields(typ) {
		if f.Name == name && !f.Static {
			return member{component: -1, writable: true}, true
		}
	}
	return member{}, false
}

func accessorWritable(acc *synth.Slot) bool {
	switch {
	case acc == nil:
		return false
	case acc.State == synth.SlotSynthesized:
		return acc.Desc.Sig.Accessors&(decl.AccSet|decl.AccInit) != 0
	case acc.State == synth.SlotAdopted:
		return acc.Candidate.Writable()
	}
	return false
}

func (l *lowerer) label(typ types.TypeID) string {
	if l.opts.Types == nil {
		return fmt.Sprintf("type#%d", typ)
	}
	return types.Label(l.opts.Types, typ)
}
