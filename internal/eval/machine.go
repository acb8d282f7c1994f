package eval

import (
	"errors"
	"fmt"

	"aggsynth/internal/synth"
	"aggsynth/internal/types"
)

var (
	// ErrFatalDeclaration is returned for declarations whose synthesis was
	// aborted.
	ErrFatalDeclaration = errors.New("declaration has no usable member set")
	// ErrUnbound is returned when an adopted hand-written member is invoked
	// but no implementation was bound for it.
	ErrUnbound = errors.New("hand-written member has no binding")
	// ErrNullReceiver is returned when a member is invoked on null.
	ErrNullReceiver = errors.New("null receiver")
	// ErrNotAggregate is returned for operations on non-aggregate values.
	ErrNotAggregate = errors.New("value is not an aggregate instance")
)

// Method implements a hand-written member. Static members get a null self.
type Method func(m *Machine, self Value, args []Value) (Value, error)

// Func is a host function callable from expressions.
type Func func(args []Value) (Value, error)

type methodKey struct {
	typ   types.TypeID
	name  string
	arity int
}

// Machine evaluates members and expressions against a published table.
// A Machine is not safe for concurrent use.
type Machine struct {
	Types *types.Interner
	Table *synth.Table

	methods map[methodKey]Method
	funcs   map[string]Func
}

// New creates a machine over a published interner and table.
func New(in *types.Interner, table *synth.Table) *Machine {
	return &Machine{
		Types:   in,
		Table:   table,
		methods: make(map[methodKey]Method),
		funcs:   make(map[string]Func),
	}
}

// Bind installs the body of a hand-written member of typ. Constructors are
// bound under the name ".ctor", accessors under the component name with
// arity 0.
func (m *Machine) Bind(typ types.TypeID, name string, arity int, fn Method) {
	m.methods[methodKey{typ: typ, name: name, arity: arity}] = fn
}

// BindFunc installs a host function.
func (m *Machine) BindFunc(name string, fn Func) {
	m.funcs[name] = fn
}

func (m *Machine) method(typ types.TypeID, name string, arity int) (Method, bool) {
	fn, ok := m.methods[methodKey{typ: typ, name: name, arity: arity}]
	return fn, ok
}

// callAdopted invokes the binding of an adopted candidate.
func (m *Machine) callAdopted(ms *synth.MemberSet, sl *synth.Slot, self Value, args []Value) (Value, error) {
	name, arity := sl.Candidate.Name, len(sl.Candidate.Params)
	fn, ok := m.method(ms.Type, name, arity)
	if !ok {
		return Null(), fmt.Errorf("%s.%s/%d: %w", ms.TypeName, name, arity, ErrUnbound)
	}
	return fn(m, self, args)
}

func (m *Machine) memberSet(typ types.TypeID) (*synth.MemberSet, error) {
	ms, ok := m.Table.Lookup(typ)
	if !ok {
		return nil, fmt.Errorf("type#%d: %w", typ, ErrNotAggregate)
	}
	if ms.Fatal {
		return nil, fmt.Errorf("%s: %w", ms.TypeName, ErrFatalDeclaration)
	}
	return ms, nil
}

// runtimeSet returns the member set of v's runtime type.
func runtimeSet(v Value) (*synth.MemberSet, error) {
	if v.IsNull() {
		return nil, ErrNullReceiver
	}
	if v.Kind != KindObject || v.Obj.Set == nil {
		return nil, fmt.Errorf("%s: %w", v.Kind, ErrNotAggregate)
	}
	if v.Obj.Set.Fatal {
		return nil, fmt.Errorf("%s: %w", v.Obj.Set.TypeName, ErrFatalDeclaration)
	}
	return v.Obj.Set, nil
}

// derivesFrom reports whether typ is base or derives from it.
func (m *Machine) derivesFrom(typ, base types.TypeID) bool {
	for seen := 0; typ != types.NoTypeID && seen < 64; seen++ {
		if typ == base {
			return true
		}
		ms, ok := m.Table.Lookup(typ)
		if !ok {
			return false
		}
		typ = ms.Base
	}
	return false
}

// Zero returns the default value of typ.
func (m *Machine) Zero(typ types.TypeID) Value {
	switch m.Types.Kind(typ) {
	case types.KindBool:
		return Bool(false)
	case types.KindInt:
		return Int(0)
	case types.KindLong:
		return Long(0)
	case types.KindFloat:
		return Float(0)
	case types.KindChar:
		return Char(0)
	case types.KindStruct:
		obj := &Object{Type: typ, Fields: make(map[string]Value)}
		for _, f := range m.Types.Fields(typ) {
			if !f.Static {
				obj.Fields[f.Name] = m.Zero(f.Type)
			}
		}
		return ObjectValue(obj)
	case types.KindAggregate:
		ms, ok := m.Table.Lookup(typ)
		if !ok || !ms.IsValue() || ms.Fatal {
			return Null()
		}
		obj := &Object{Type: typ, Set: ms, Fields: make(map[string]Value)}
		m.initStorage(ms, obj)
		for _, c := range ms.Components {
			obj.Fields[c.Name] = m.Zero(c.Type)
		}
		return ObjectValue(obj)
	}
	return Null()
}
