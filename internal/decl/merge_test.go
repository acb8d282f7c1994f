package decl

import (
	"testing"

	"aggsynth/internal/diag"
	"aggsynth/internal/source"
	"aggsynth/internal/types"
)

func span(start uint32) source.Span {
	return source.Span{File: 0, Start: start, End: start + 1}
}

func TestMergeKeepsFirstPositionalList(t *testing.T) {
	in := types.NewInterner()
	first := &ParamList{Params: []Param{{Name: "X", Type: in.Builtins().Int}}, Span: span(20)}
	second := &ParamList{Params: []Param{{Name: "Y", Type: in.Builtins().Int}}, Span: span(60)}

	// discovery order differs from source order on purpose
	frags := []Fragment{
		{Params: second, Span: span(50), Mods: ModPartial, Members: []Member{{Name: "B"}}},
		{Params: first, Span: span(10), Mods: ModPartial, Members: []Member{{Name: "A"}}},
	}
	bag := diag.NewBag(8)
	agg := Merge(Identity{Name: "P"}, types.NoTypeID, frags, diag.BagReporter{Bag: bag})

	if agg.Params != first || agg.ParamFragment != 0 {
		t.Fatalf("adopted list = %+v (fragment %d)", agg.Params, agg.ParamFragment)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.SemaDuplicatePositionalList {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}
	if bag.Items()[0].Primary != second.Span {
		t.Fatalf("duplicate list reported at %v, want %v", bag.Items()[0].Primary, second.Span)
	}
	if len(agg.Members) != 2 || agg.Members[0].Name != "A" || agg.Members[1].Fragment != 1 {
		t.Fatalf("members = %+v", agg.Members)
	}
}

func TestMergeFlagDisagreementReportedOnce(t *testing.T) {
	frags := []Fragment{
		{Span: span(0), Rep: RepValue, Mods: ModPartial | ModReadonly},
		{Span: span(10), Rep: RepReference, Mods: ModPartial},
		{Span: span(20), Rep: RepValue, Mods: ModPartial},
	}
	bag := diag.NewBag(8)
	agg := Merge(Identity{Name: "S"}, types.NoTypeID, frags, diag.BagReporter{Bag: bag})

	if bag.Count(diag.SemaFragmentFlagsMismatch) != 1 {
		t.Fatalf("want exactly one mismatch, got %+v", bag.Items())
	}
	if !agg.IsValue() || !agg.Immutable || !agg.Sealed {
		t.Fatalf("fallback flags wrong: rep=%v immutable=%v sealed=%v", agg.Rep, agg.Immutable, agg.Sealed)
	}
}

func TestMergeUnionsInterfacesAndSealed(t *testing.T) {
	in := types.NewInterner()
	iface, _ := in.RegisterNominal(types.KindInterface, types.NominalInfo{Name: "IShape"})
	frags := []Fragment{
		{Span: span(0), Interfaces: []types.TypeID{iface}},
		{Span: span(5), Mods: ModSealed, Interfaces: []types.TypeID{iface}},
	}
	agg := Merge(Identity{Name: "R"}, types.NoTypeID, frags, nil)
	if !agg.Sealed || len(agg.Interfaces) != 1 || agg.Inheritable() {
		t.Fatalf("sealed=%v interfaces=%v", agg.Sealed, agg.Interfaces)
	}
	if agg.ParamFragment != -1 {
		t.Fatal("no positional list expected")
	}
}

func TestModifierParsing(t *testing.T) {
	mod, acc, ok := ParseModifier("protected")
	if !ok || mod != 0 || acc != AccessProtected {
		t.Fatal("protected must parse as accessibility")
	}
	mod, _, ok = ParseModifier("override")
	if !ok || mod != ModOverride {
		t.Fatal("override must parse as modifier")
	}
	if _, _, ok := ParseModifier("virtualish"); ok {
		t.Fatal("unknown modifier accepted")
	}
	if got := (ModStatic | ModSealed).String(); got != "static sealed" {
		t.Fatalf("String = %q", got)
	}
}
