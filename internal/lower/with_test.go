package lower

import (
	"slices"
	"testing"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
	"aggsynth/internal/hir"
	"aggsynth/internal/source"
	"aggsynth/internal/synth"
	"aggsynth/internal/types"
)

type world struct {
	in    *types.Interner
	b     types.Builtins
	table *synth.Table
	next  uint32
}

func (w *world) span() source.Span {
	w.next += 10
	return source.Span{Start: w.next, End: w.next + 3}
}

func (w *world) declare(t *testing.T, name string, rep decl.Representation, mods decl.Modifiers, ps []decl.Param, members ...decl.Member) *decl.Aggregate {
	t.Helper()
	id, err := w.in.RegisterNominal(types.KindAggregate, types.NominalInfo{Name: name, Value: rep == decl.RepValue})
	if err != nil {
		t.Fatal(err)
	}
	frag := decl.Fragment{Params: &decl.ParamList{Params: ps}, Members: members, Mods: mods, Rep: rep}
	agg := decl.Merge(decl.Identity{Name: name}, id, []decl.Fragment{frag}, nil)
	w.in.SetFields(id, synth.StorageFields(agg))
	return agg
}

func (w *world) publish(aggs ...*decl.Aggregate) {
	w.in.Freeze()
	sets := make([]*synth.MemberSet, 0, len(aggs))
	for _, agg := range aggs {
		sets = append(sets, synth.Synthesize(agg, synth.Options{Types: w.in}))
	}
	w.table = synth.NewTable(sets)
}

func (w *world) lower(e *hir.Expr) (*Program, *diag.Bag) {
	bag := diag.NewBag(16)
	prog, _ := With(e, Options{Types: w.in, Table: w.table, Reporter: &diag.BagReporter{Bag: bag}})
	return prog, bag
}

func newWorld() *world {
	in := types.NewInterner()
	return &world{in: in, b: in.Builtins()}
}

func (w *world) patch(name string, v int64) hir.Patch {
	sp := w.span()
	return hir.Patch{Member: name, Value: hir.Int(w.b.Int, v, sp), Span: sp}
}

func kinds(p *Program) []OpKind {
	out := make([]OpKind, 0, len(p.Ops))
	for _, op := range p.Ops {
		out = append(out, op.Kind)
	}
	return out
}

func TestLowerReferenceAggregateKeepsTextualOrder(t *testing.T) {
	w := newWorld()
	agg := w.declare(t, "P", decl.RepReference, 0, []decl.Param{{Name: "X", Type: w.b.Int}, {Name: "Y", Type: w.b.Int}})
	w.publish(agg)

	src := hir.Var(agg.Type, "p", w.span())
	prog, bag := w.lower(hir.With(src, w.span(), w.patch("Y", 1), w.patch("X", 2)))
	if bag.Len() != 0 || prog == nil {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	want := []OpKind{OpEvalSource, OpClone, OpAssign, OpAssign, OpResult}
	if got := kinds(prog); !slices.Equal(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	if prog.Ops[2].Member != "Y" || prog.Ops[2].Component != 1 || prog.Ops[3].Member != "X" {
		t.Fatalf("assignments out of order: %+v", prog.Ops[2:4])
	}
	wantText := "t0 = p\nt1 = t0.<Clone>$()\nt1.Y = 1\nt1.X = 2\nresult t1\n"
	if got := prog.String(); got != wantText {
		t.Fatalf("program:\n%s", got)
	}
}

func TestLowerValueAggregateCopies(t *testing.T) {
	w := newWorld()
	agg := w.declare(t, "V", decl.RepValue, decl.ModReadonly, []decl.Param{{Name: "A", Type: w.b.Int}})
	w.publish(agg)
	prog, bag := w.lower(hir.With(hir.Var(agg.Type, "v", w.span()), w.span()))
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if got := kinds(prog); !slices.Equal(got, []OpKind{OpEvalSource, OpCopy, OpResult}) {
		t.Fatalf("ops = %v", got)
	}
}

func TestLowerReportsAllStaticErrorsFirst(t *testing.T) {
	w := newWorld()
	getOnly := decl.Member{Name: "X", Kind: decl.MemberProperty, Result: w.b.Int, Access: decl.AccessPublic,
		Accessors: decl.AccGet, Reads: []string{"X"}}
	agg := w.declare(t, "P", decl.RepReference, 0, []decl.Param{{Name: "X", Type: w.b.Int}, {Name: "Y", Type: w.b.Int}}, getOnly)
	w.publish(agg)

	first := w.patch("Y", 1)
	dup := w.patch("Y", 2)
	prog, bag := w.lower(hir.With(hir.Var(agg.Type, "p", w.span()), w.span(),
		first, w.patch("X", 3), w.patch("Nope", 4), dup))
	if prog != nil {
		t.Fatalf("program must not be produced on error")
	}
	want := []diag.Code{
		diag.SemaWithMemberNotAssignable,
		diag.SemaWithUnknownMember,
		diag.SemaWithDuplicateMember,
	}
	got := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		got = append(got, d.Code)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
	dupDiag := bag.Items()[2]
	if dupDiag.Primary != dup.Span || len(dupDiag.Notes) != 1 || dupDiag.Notes[0].Span != first.Span {
		t.Fatalf("duplicate diagnostic = %+v", dupDiag)
	}
}

func TestLowerCannotClone(t *testing.T) {
	w := newWorld()
	class, err := w.in.RegisterNominal(types.KindClass, types.NominalInfo{Name: "Plain"})
	if err != nil {
		t.Fatal(err)
	}
	outer := w.declare(t, "Outer", decl.RepValue, 0, nil)
	inner := w.declare(t, "Inner", decl.RepValue, 0, nil)
	w.in.SetFields(outer.Type, []types.Field{{Name: "I", Type: inner.Type}})
	w.in.SetFields(inner.Type, []types.Field{{Name: "O", Type: outer.Type}})
	w.publish(outer, inner)

	for _, typ := range []types.TypeID{class, outer.Type} {
		prog, bag := w.lower(hir.With(hir.Var(typ, "x", w.span()), w.span(), w.patch("A", 1)))
		if prog != nil || bag.Len() != 1 || bag.Items()[0].Code != diag.SemaWithCannotClone {
			t.Fatalf("%s: %+v", types.Label(w.in, typ), bag.Items())
		}
	}
}

func TestLowerPlainStructAndBaseMembers(t *testing.T) {
	w := newWorld()
	vec, err := w.in.RegisterNominal(types.KindStruct, types.NominalInfo{Name: "Vec", Value: true,
		Fields: []types.Field{{Name: "X", Type: w.b.Float}, {Name: "Count", Type: w.b.Int, Static: true}}})
	if err != nil {
		t.Fatal(err)
	}
	base := w.declare(t, "Shape", decl.RepReference, 0, []decl.Param{{Name: "Name", Type: w.b.String}})
	derivedID, err := w.in.RegisterNominal(types.KindAggregate, types.NominalInfo{Name: "Circle"})
	if err != nil {
		t.Fatal(err)
	}
	frag := decl.Fragment{Params: &decl.ParamList{Params: []decl.Param{{Name: "R", Type: w.b.Float}}}, Base: base.Type}
	derived := decl.Merge(decl.Identity{Name: "Circle"}, derivedID, []decl.Fragment{frag}, nil)
	w.publish(base, derived)

	prog, bag := w.lower(hir.With(hir.Var(vec, "v", w.span()), w.span(), w.patch("X", 1)))
	if bag.Len() != 0 || prog.Ops[1].Kind != OpCopy {
		t.Fatalf("plain struct: %+v", bag.Items())
	}
	_, bag = w.lower(hir.With(hir.Var(vec, "v", w.span()), w.span(), w.patch("Count", 1)))
	if bag.Count(diag.SemaWithUnknownMember) != 1 {
		t.Fatalf("static fields are not instance members: %+v", bag.Items())
	}

	prog, bag = w.lower(hir.With(hir.Var(derivedID, "c", w.span()), w.span(), w.patch("Name", 1), w.patch("R", 2)))
	if bag.Len() != 0 || prog.Ops[1].Kind != OpClone {
		t.Fatalf("derived: %+v", bag.Items())
	}
}

func TestLowerRejectsNonUpdateExpressions(t *testing.T) {
	if prog, ok := With(hir.Var(types.NoTypeID, "x", source.Span{}), Options{}); ok || prog != nil {
		t.Fatal("only update expressions are lowered")
	}
}
