package eval

import (
	"testing"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
	"aggsynth/internal/source"
	"aggsynth/internal/synth"
	"aggsynth/internal/types"
)

type program struct {
	t    *testing.T
	in   *types.Interner
	b    types.Builtins
	aggs []*decl.Aggregate
	bags map[string]*diag.Bag
	next uint32
}

func newProgram(t *testing.T) *program {
	t.Helper()
	in := types.NewInterner()
	return &program{t: t, in: in, b: in.Builtins(), bags: make(map[string]*diag.Bag)}
}

func (p *program) span() source.Span {
	p.next += 10
	return source.Span{Start: p.next, End: p.next + 2}
}

type declSpec struct {
	name    string
	rep     decl.Representation
	mods    decl.Modifiers
	base    types.TypeID
	params  []decl.Param
	noList  bool
	members []decl.Member
}

func (p *program) declare(ds declSpec) types.TypeID {
	p.t.Helper()
	id, err := p.in.RegisterNominal(types.KindAggregate, types.NominalInfo{Name: ds.name, Value: ds.rep == decl.RepValue, Sealed: ds.rep == decl.RepValue})
	if err != nil {
		p.t.Fatal(err)
	}
	var pl *decl.ParamList
	if !ds.noList {
		pl = &decl.ParamList{Params: ds.params, Span: p.span()}
	}
	frag := decl.Fragment{Params: pl, Members: ds.members, Mods: ds.mods, Rep: ds.rep, Base: ds.base, Access: decl.AccessPublic, Span: p.span()}
	agg := decl.Merge(decl.Identity{Name: ds.name}, id, []decl.Fragment{frag}, nil)
	p.in.SetFields(id, synth.StorageFields(agg))
	p.aggs = append(p.aggs, agg)
	return id
}

func (p *program) param(name string, typ types.TypeID) decl.Param {
	return decl.Param{Name: name, Type: typ, Span: p.span()}
}

// machine publishes every declared aggregate.
func (p *program) machine() *Machine {
	p.t.Helper()
	p.in.Freeze()
	sets := make([]*synth.MemberSet, 0, len(p.aggs))
	for _, agg := range p.aggs {
		bag := diag.NewBag(32)
		sets = append(sets, synth.Synthesize(agg, synth.Options{Types: p.in, Reporter: &diag.BagReporter{Bag: bag}}))
		p.bags[agg.ID.Name] = bag
	}
	return New(p.in, synth.NewTable(sets))
}

// value unwraps a (Value, error) result, failing the test on error.
func (p *program) value(v Value, err error) Value {
	p.t.Helper()
	if err != nil {
		p.t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func (p *program) truth(b bool, err error) bool {
	p.t.Helper()
	if err != nil {
		p.t.Fatalf("unexpected error: %v", err)
	}
	return b
}
