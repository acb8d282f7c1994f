package synth

import (
	"testing"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
	"aggsynth/internal/source"
	"aggsynth/internal/types"
)

type fixture struct {
	t    *testing.T
	in   *types.Interner
	b    types.Builtins
	next uint32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	in := types.NewInterner()
	return &fixture{t: t, in: in, b: in.Builtins()}
}

// span hands out distinct spans in source order.
func (f *fixture) span() source.Span {
	f.next += 10
	return source.Span{Start: f.next, End: f.next + 5}
}

func (f *fixture) declare(name string, value bool) types.TypeID {
	f.t.Helper()
	id, err := f.in.RegisterNominal(types.KindAggregate, types.NominalInfo{Name: name, Value: value, Sealed: value})
	if err != nil {
		f.t.Fatalf("register %s: %v", name, err)
	}
	return id
}

func (f *fixture) param(name string, typ types.TypeID) decl.Param {
	return decl.Param{Name: name, Type: typ, Span: f.span()}
}

func (f *fixture) params(ps ...decl.Param) *decl.ParamList {
	return &decl.ParamList{Params: ps, Span: f.span()}
}

func (f *fixture) method(name string, result types.TypeID, access decl.Accessibility, mods decl.Modifiers, ps ...decl.Param) decl.Member {
	return decl.Member{Name: name, Kind: decl.MemberMethod, Result: result, Access: access, Mods: mods, Params: ps, Span: f.span()}
}

// aggregate merges a single fragment and registers its storage.
func (f *fixture) aggregate(name string, typ types.TypeID, rep decl.Representation, mods decl.Modifiers, pl *decl.ParamList, members ...decl.Member) *decl.Aggregate {
	f.t.Helper()
	frag := decl.Fragment{Params: pl, Members: members, Mods: mods, Rep: rep, Access: decl.AccessPublic, Span: f.span()}
	agg := decl.Merge(decl.Identity{Name: name}, typ, []decl.Fragment{frag}, nil)
	f.in.SetFields(typ, StorageFields(agg))
	return agg
}

func (f *fixture) synthesize(agg *decl.Aggregate) (*MemberSet, *diag.Bag) {
	f.t.Helper()
	if !f.in.Frozen() {
		f.in.Freeze()
	}
	bag := diag.NewBag(64)
	ms := Synthesize(agg, Options{Types: f.in, Reporter: &diag.BagReporter{Bag: bag}})
	return ms, bag
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func expectState(t *testing.T, ms *MemberSet, target Target, want SlotState) {
	t.Helper()
	if got := ms.Slot(target).State; got != want {
		t.Fatalf("%s: expected %s, got %s", target, want, got)
	}
}
