package decl

import (
	"fmt"
	"slices"

	"aggsynth/internal/diag"
	"aggsynth/internal/types"
)

// Merge folds every fragment sharing identity id into one Aggregate.
//
// Fragments are processed in stable source order. Only the first positional
// parameter list is adopted; every further list is reported once. The first
// fragment's immutable flag and representation win; the first disagreeing
// fragment is reported and the remaining ones are not.
func Merge(id Identity, typeID types.TypeID, frags []Fragment, r diag.Reporter) *Aggregate {
	if r == nil {
		r = diag.NopReporter{}
	}
	ordered := slices.Clone(frags)
	slices.SortStableFunc(ordered, func(a, b Fragment) int {
		switch {
		case a.Span.Before(b.Span):
			return -1
		case b.Span.Before(a.Span):
			return 1
		}
		return 0
	})

	agg := &Aggregate{
		ID:            id,
		Type:          typeID,
		ParamFragment: -1,
	}
	if len(ordered) == 0 {
		return agg
	}

	first := &ordered[0]
	agg.Immutable = first.Immutable()
	agg.Rep = first.Rep
	agg.Span = first.Span

	flagsReported := false
	seenIface := make(map[types.TypeID]struct{})
	for i := range ordered {
		frag := &ordered[i]
		frag.Index = i

		if i > 0 && !flagsReported && (frag.Immutable() != agg.Immutable || frag.Rep != agg.Rep) {
			msg := fmt.Sprintf("partial declarations of %s disagree: %s", id, describeFlags(frag))
			diag.ReportError(r, diag.SemaFragmentFlagsMismatch, frag.Span, msg).
				WithNote(first.Span, "first declared as "+describeFlags(first)).
				WithArgs(id.String()).
				Emit()
			flagsReported = true
		}

		if frag.Mods.Has(ModSealed) {
			agg.Sealed = true
		}
		if agg.Base == types.NoTypeID && frag.Base != types.NoTypeID {
			agg.Base = frag.Base
		}
		for _, iface := range frag.Interfaces {
			if _, dup := seenIface[iface]; dup {
				continue
			}
			seenIface[iface] = struct{}{}
			agg.Interfaces = append(agg.Interfaces, iface)
		}

		if frag.Params != nil {
			if agg.Params == nil {
				agg.Params = frag.Params
				agg.ParamFragment = i
			} else {
				diag.ReportError(r, diag.SemaDuplicatePositionalList, frag.Params.Span,
					fmt.Sprintf("only a single partial declaration of %s may have a parameter list", id)).
					WithNote(agg.Params.Span, "parameter list adopted here").
					WithArgs(id.String()).
					Emit()
			}
		}

		for _, m := range frag.Members {
			m.Fragment = i
			agg.Members = append(agg.Members, m)
		}
	}
	if agg.Rep == RepValue {
		// value aggregates cannot be derived from
		agg.Sealed = true
		agg.Base = types.NoTypeID
	}
	agg.Fragments = ordered
	return agg
}

func describeFlags(f *Fragment) string {
	s := f.Rep.String()
	if f.Immutable() {
		s = "readonly " + s
	}
	return s
}
