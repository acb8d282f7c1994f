package synth

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
)

func TestReferenceAggregateSynthesizesEverything(t *testing.T) {
	f := newFixture(t)
	point := f.declare("Point", false)
	agg := f.aggregate("Point", point, decl.RepReference, 0,
		f.params(f.param("X", f.b.Int), f.param("Y", f.b.String)))
	ms, bag := f.synthesize(agg)

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(bag))
	}
	for _, target := range Targets() {
		expectState(t, ms, target, SlotSynthesized)
	}
	eq := ms.Slot(TargetTypedEquals).Desc
	want := []Step{
		{Source: StepContract, Name: NameEqualityContract, Type: f.b.String, Index: -1},
		{Source: StepComponent, Name: "X", Type: f.b.Int, Index: 0},
		{Source: StepComponent, Name: "Y", Type: f.b.String, Index: 1},
	}
	if diff := cmp.Diff(want, eq.Steps); diff != "" {
		t.Fatalf("equality steps mismatch (-want +got):\n%s", diff)
	}
	if !eq.Sig.Mods.Has(decl.ModVirtual) {
		t.Fatalf("typed equality of an unsealed aggregate must be virtual")
	}
	if ms.Slot(TargetObjectEquals).Desc.ExactType {
		t.Fatalf("unsealed aggregates compare through the equality contract")
	}
	hash := ms.Slot(TargetHash).Desc
	if hash.Seed != HashSeed("Point") || hash.Multiplier != HashMultiplier {
		t.Fatalf("hash parameters: seed=%d mul=%d", hash.Seed, hash.Multiplier)
	}
	if got := ms.Slot(TargetFormatContents).Desc.Sig.Access; got != decl.AccessProtected {
		t.Fatalf("PrintMembers access = %s, want protected", got)
	}
	for _, st := range ms.Slot(TargetDeconstruct).Desc.Steps {
		if !st.ViaAccessor {
			t.Fatalf("decomposition must read through accessors: %+v", st)
		}
	}
	for i, acc := range ms.Accessors {
		if acc.State != SlotSynthesized || acc.Desc.Sig.Accessors != decl.AccGet|decl.AccInit {
			t.Fatalf("accessor %d: %+v", i, acc)
		}
	}
}

func TestSealedValueAggregate(t *testing.T) {
	f := newFixture(t)
	pair := f.declare("Pair", true)
	agg := f.aggregate("Pair", pair, decl.RepValue, decl.ModReadonly,
		f.params(f.param("A", f.b.Int), f.param("B", f.b.Int)),
		decl.Member{Name: "Note", Kind: decl.MemberField, Result: f.b.String, Storage: true, Access: decl.AccessPublic, Span: f.span()})
	ms, bag := f.synthesize(agg)

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(bag))
	}
	for _, target := range []Target{TargetCopyCtor, TargetClone, TargetEqualityContract} {
		expectState(t, ms, target, SlotAbsent)
	}
	if !ms.CanClone() {
		t.Fatalf("value aggregates are cloned by value copy")
	}
	if !ms.Slot(TargetObjectEquals).Desc.ExactType {
		t.Fatalf("value aggregates use an exact type test")
	}
	if got := ms.Slot(TargetFormatContents).Desc.Sig.Access; got != decl.AccessPrivate {
		t.Fatalf("PrintMembers access = %s, want private", got)
	}
	steps := ms.Slot(TargetTypedEquals).Desc.Steps
	if len(steps) != 3 || steps[2].Source != StepStorage || steps[2].Name != "Note" {
		t.Fatalf("extra storage must follow components: %+v", steps)
	}
	if !ms.Slot(TargetFormatEntry).Desc.ReadOnly || !ms.Slot(TargetFormatContents).Desc.ReadOnly {
		t.Fatalf("immutable variant formatter must be read-only capable")
	}
}

func TestZeroComponents(t *testing.T) {
	f := newFixture(t)
	empty := f.declare("Empty", false)
	agg := f.aggregate("Empty", empty, decl.RepReference, decl.ModSealed, f.params())
	ms, bag := f.synthesize(agg)

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(bag))
	}
	expectState(t, ms, TargetDeconstruct, SlotAbsent)
	expectState(t, ms, TargetPrimaryCtor, SlotSynthesized)
	expectState(t, ms, TargetEqualityContract, SlotAbsent)
	if len(ms.Slot(TargetHash).Desc.Steps) != 0 {
		t.Fatalf("sealed empty aggregate has nothing to hash")
	}
}

func TestNoParameterListHasNoPrimaryCtor(t *testing.T) {
	f := newFixture(t)
	bare := f.declare("Bare", false)
	ms, _ := f.synthesize(f.aggregate("Bare", bare, decl.RepReference, 0, nil))
	expectState(t, ms, TargetPrimaryCtor, SlotAbsent)
	expectState(t, ms, TargetDeconstruct, SlotAbsent)
}

func TestDerivedAggregateChainsToBase(t *testing.T) {
	f := newFixture(t)
	base := f.declare("Shape", false)
	derived := f.declare("Circle", false)
	f.aggregate("Shape", base, decl.RepReference, 0, f.params(f.param("Name", f.b.String)))
	frag := decl.Fragment{
		Params: f.params(f.param("Radius", f.b.Float)),
		Mods:   decl.ModSealed,
		Base:   base,
		Span:   f.span(),
	}
	agg := decl.Merge(decl.Identity{Name: "Circle"}, derived, []decl.Fragment{frag}, nil)
	f.in.SetFields(derived, StorageFields(agg))

	ms, bag := f.synthesize(agg)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(bag))
	}
	for _, target := range []Target{TargetTypedEquals, TargetHash, TargetFormatContents, TargetCopyCtor} {
		if !ms.Slot(target).Desc.CallsBase {
			t.Fatalf("%s must chain to the base aggregate", target)
		}
	}
	expectState(t, ms, TargetEqualityContract, SlotSynthesized)
	if got := ms.Slot(TargetClone).Desc.Sig.Mods; !got.Has(decl.ModOverride) {
		t.Fatalf("clone of a derived aggregate must override, got %q", got)
	}
	if got := ms.Slot(TargetFormatContents).Desc.Sig.Access; got != decl.AccessProtected {
		t.Fatalf("derived PrintMembers access = %s", got)
	}
}

func TestTableQueries(t *testing.T) {
	f := newFixture(t)
	a := f.declare("A", true)
	b := f.declare("B", false)
	aggA := f.aggregate("A", a, decl.RepValue, decl.ModReadonly, f.params(f.param("V", f.b.Int)))
	aggB := f.aggregate("B", b, decl.RepReference, 0, nil)
	msA, _ := f.synthesize(aggA)
	msB, _ := f.synthesize(aggB)

	tbl := NewTable([]*MemberSet{msA, msB, msA})
	if tbl.Len() != 2 {
		t.Fatalf("duplicates must be ignored, len=%d", tbl.Len())
	}
	if !tbl.HasEquality(a) || !tbl.HasEquality(b) {
		t.Fatalf("both declarations have typed equality")
	}
	if !tbl.IsImmutable(a) || tbl.IsImmutable(b) {
		t.Fatalf("immutable flags wrong")
	}
	comps := tbl.Components(a)
	if len(comps) != 1 || comps[0].Name != "V" {
		t.Fatalf("components = %+v", comps)
	}
	comps[0].Name = "changed"
	if tbl.Components(a)[0].Name != "V" {
		t.Fatalf("Components must return a copy")
	}
	if _, ok := tbl.LookupIdentity(decl.Identity{Name: "B"}); !ok {
		t.Fatalf("lookup by identity failed")
	}
	if tbl.HasEquality(f.b.Int) {
		t.Fatalf("builtins are not published")
	}
}

func TestHashSeedIsDeterministic(t *testing.T) {
	if HashSeed("Point") != HashSeed("Point") {
		t.Fatal("seed must be deterministic")
	}
	if HashSeed("Point") == HashSeed("Pair") {
		t.Fatal("different names should seed differently")
	}
	if HashSeed("") == 0 {
		t.Fatal("seed must be non-zero")
	}
	var acc int32 = 1 << 30
	if got := CombineHash(acc, 7); got != acc*HashMultiplier+7 {
		t.Fatalf("CombineHash = %d", got)
	}
}

func TestStringHashIsFNV1a(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"", -2128831035},
		{"a", -468965076},
		{"Point", -358027471},
	}
	for _, tt := range tests {
		if got := StringHash(tt.in); got != tt.want {
			t.Fatalf("StringHash(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if HashSeed("Point") != StringHash("Point") {
		t.Fatal("seed of a non-zero hash is the hash itself")
	}
}

func TestSynthesizeIsPerDeclaration(t *testing.T) {
	f := newFixture(t)
	bad := f.declare("Bad", false)
	good := f.declare("Good", false)
	aggBad := f.aggregate("Bad", bad, decl.RepReference, 0, f.params(f.param("X", f.b.Int)),
		f.method(NameGetHashCode, f.b.String, decl.AccessPublic, decl.ModOverride))
	aggGood := f.aggregate("Good", good, decl.RepReference, 0, f.params(f.param("X", f.b.Int)))

	_, badBag := f.synthesize(aggBad)
	_, goodBag := f.synthesize(aggGood)
	if badBag.Count(diag.SemaMemberWrongReturnType) != 1 {
		t.Fatalf("bad: %v", codes(badBag))
	}
	if goodBag.Len() != 0 {
		t.Fatalf("good declaration must be unaffected: %v", codes(goodBag))
	}
}
