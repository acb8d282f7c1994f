package eval

import (
	"fmt"
	"strconv"
	"strings"

	"aggsynth/internal/synth"
	"aggsynth/internal/types"
)

// CtorName is the binding name of hand-written constructors.
const CtorName = ".ctor"

// Construct builds an instance of typ through its primary constructor.
// Arguments for the components of base aggregates come first.
func (m *Machine) Construct(typ types.TypeID, args ...Value) (Value, error) {
	ms, err := m.memberSet(typ)
	if err != nil {
		return Null(), err
	}
	obj := &Object{Type: typ, Set: ms, Fields: make(map[string]Value)}
	if err := m.constructInto(ms, obj, args); err != nil {
		return Null(), err
	}
	return ObjectValue(obj), nil
}

// Arity is the number of constructor arguments of typ, base components
// included.
func (m *Machine) Arity(typ types.TypeID) int {
	n := 0
	for seen := 0; typ != types.NoTypeID && seen < 64; seen++ {
		ms, ok := m.Table.Lookup(typ)
		if !ok {
			break
		}
		n += len(ms.Components)
		typ = ms.Base
	}
	return n
}

func (m *Machine) constructInto(ms *synth.MemberSet, obj *Object, args []Value) error {
	own := args
	if ms.Base != types.NoTypeID {
		base, err := m.memberSet(ms.Base)
		if err != nil {
			return err
		}
		n := m.Arity(ms.Base)
		if len(args) < n {
			return fmt.Errorf("%s: base %s needs %d arguments, got %d", ms.TypeName, base.TypeName, n, len(args))
		}
		if err := m.constructInto(base, obj, args[:n]); err != nil {
			return err
		}
		own = args[n:]
	}
	m.initStorage(ms, obj)
	for _, c := range ms.Components {
		obj.Fields[c.Name] = m.Zero(c.Type)
	}

	sl := ms.Slot(synth.TargetPrimaryCtor)
	switch sl.State {
	case synth.SlotAbsent:
		if len(own) != 0 {
			return fmt.Errorf("%s has no positional components, got %d arguments", ms.TypeName, len(own))
		}
	case synth.SlotSynthesized:
		if len(own) != len(ms.Components) {
			return fmt.Errorf("%s: expected %d arguments, got %d", ms.TypeName, len(ms.Components), len(own))
		}
		for i, c := range ms.Components {
			obj.Fields[c.Name] = own[i]
		}
	case synth.SlotAdopted:
		fn, ok := m.method(ms.Type, CtorName, len(own))
		if !ok {
			return fmt.Errorf("%s.%s/%d: %w", ms.TypeName, CtorName, len(own), ErrUnbound)
		}
		if _, err := fn(m, ObjectValue(obj), own); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) initStorage(ms *synth.MemberSet, obj *Object) {
	for _, st := range ms.Storage {
		obj.Fields[st.Name] = m.parseInit(st.Type, st.Init)
	}
}

// parseInit evaluates a literal initializer; anything else yields the
// default value of typ.
func (m *Machine) parseInit(typ types.TypeID, text string) Value {
	if text == "" {
		return m.Zero(typ)
	}
	switch m.Types.Kind(typ) {
	case types.KindBool:
		if b, err := strconv.ParseBool(text); err == nil {
			return Bool(b)
		}
	case types.KindInt:
		if v, err := strconv.ParseInt(text, 10, 32); err == nil {
			return Int(v)
		}
	case types.KindLong:
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Long(v)
		}
	case types.KindFloat:
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			return Float(v)
		}
	case types.KindString:
		if s, err := strconv.Unquote(text); err == nil {
			return Str(s)
		}
		return Str(text)
	}
	return m.Zero(typ)
}

// declaring returns the set in the base chain of ms that declares the
// component name.
func (m *Machine) declaring(ms *synth.MemberSet, name string) *synth.MemberSet {
	for seen := 0; ms != nil && seen < 64; seen++ {
		if _, ok := ms.Component(name); ok {
			return ms
		}
		next, ok := m.Table.Lookup(ms.Base)
		if !ok {
			return nil
		}
		ms = next
	}
	return nil
}

// Get reads member name through its accessor. Adopted accessors with a
// binding run it; everything else reads the backing storage.
func (m *Machine) Get(v Value, name string) (Value, error) {
	if v.IsNull() {
		return Null(), ErrNullReceiver
	}
	if v.Kind != KindObject {
		return Null(), fmt.Errorf("%s.%s: %w", v.Kind, name, ErrNotAggregate)
	}
	if owner := m.declaring(v.Obj.Set, name); owner != nil {
		if acc, ok := owner.Accessor(name); ok && acc.State == synth.SlotAdopted {
			if fn, bound := m.method(owner.Type, name, 0); bound {
				return fn(m, v, nil)
			}
		}
	}
	val, ok := v.Obj.Fields[name]
	if !ok {
		return Null(), fmt.Errorf("no member %q", name)
	}
	return val, nil
}

// Set writes the backing storage of member name.
func (m *Machine) Set(v Value, name string, val Value) error {
	if v.IsNull() {
		return ErrNullReceiver
	}
	if v.Kind != KindObject {
		return fmt.Errorf("%s.%s: %w", v.Kind, name, ErrNotAggregate)
	}
	if _, ok := v.Obj.Fields[name]; !ok {
		return fmt.Errorf("no member %q", name)
	}
	v.Obj.Fields[name] = val
	return nil
}

// Equals invokes typed equality of a's runtime type.
func (m *Machine) Equals(a, b Value) (bool, error) {
	ms, err := runtimeSet(a)
	if err != nil {
		return false, err
	}
	return m.equalsAs(ms, a, b)
}

func (m *Machine) equalsAs(ms *synth.MemberSet, a, b Value) (bool, error) {
	sl := ms.Slot(synth.TargetTypedEquals)
	switch sl.State {
	case synth.SlotAdopted:
		r, err := m.callAdopted(ms, sl, a, []Value{b})
		return r.Bool, err
	case synth.SlotSynthesized:
		return m.synthEquals(ms, sl.Desc, a, b)
	}
	return false, fmt.Errorf("%s: no typed equality", ms.TypeName)
}

func (m *Machine) synthEquals(ms *synth.MemberSet, d *synth.Descriptor, a, b Value) (bool, error) {
	if b.Kind != KindObject {
		return false, nil
	}
	if !ms.IsValue() && a.Obj == b.Obj {
		return true, nil
	}
	if d.CallsBase {
		base, err := m.memberSet(ms.Base)
		if err != nil {
			return false, err
		}
		eq, err := m.equalsAs(base, a, b)
		if err != nil || !eq {
			return false, err
		}
	}
	for _, st := range d.Steps {
		if st.Source == synth.StepContract {
			if a.Obj.Type != b.Obj.Type {
				return false, nil
			}
			continue
		}
		eq, err := m.valueEquals(a.Field(st.Name), b.Field(st.Name))
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// valueEquals is the default equality of a component type.
func (m *Machine) valueEquals(x, y Value) (bool, error) {
	switch {
	case x.IsNull() || y.IsNull():
		return x.IsNull() && y.IsNull(), nil
	case x.Kind == KindTuple:
		if y.Kind != KindTuple || len(x.Tuple) != len(y.Tuple) {
			return false, nil
		}
		for i := range x.Tuple {
			eq, err := m.valueEquals(x.Tuple[i], y.Tuple[i])
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	case x.Kind == KindObject:
		if y.Kind != KindObject {
			return false, nil
		}
		if x.Obj.Set == nil {
			return m.structEquals(x, y)
		}
		return m.Equals(x, y)
	}
	return primitiveEqual(x, y), nil
}

func (m *Machine) structEquals(x, y Value) (bool, error) {
	if x.Obj.Type != y.Obj.Type {
		return false, nil
	}
	for _, f := range m.Types.Fields(x.Obj.Type) {
		if f.Static {
			continue
		}
		eq, err := m.valueEquals(x.Field(f.Name), y.Field(f.Name))
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// ObjectEquals invokes object equality of a's runtime type. Mismatched
// types yield false.
func (m *Machine) ObjectEquals(a, b Value) (bool, error) {
	ms, err := runtimeSet(a)
	if err != nil {
		return false, err
	}
	sl := ms.Slot(synth.TargetObjectEquals)
	switch sl.State {
	case synth.SlotAdopted:
		r, err := m.callAdopted(ms, sl, a, []Value{b})
		return r.Bool, err
	case synth.SlotSynthesized:
		if b.Kind != KindObject || b.Obj.Set == nil {
			return false, nil
		}
		if sl.Desc.ExactType && b.Obj.Type != ms.Type {
			return false, nil
		}
		if !m.derivesFrom(b.Obj.Type, ms.Type) {
			return false, nil
		}
		return m.equalsAs(ms, a, b)
	}
	return false, fmt.Errorf("%s: no object equality", ms.TypeName)
}

// OpEquals evaluates `a == b` for the static type typ.
func (m *Machine) OpEquals(typ types.TypeID, a, b Value) (bool, error) {
	ms, err := m.memberSet(typ)
	if err != nil {
		return false, err
	}
	sl := ms.Slot(synth.TargetOpEquality)
	if sl.State == synth.SlotAdopted {
		r, err := m.callAdopted(ms, sl, Null(), []Value{a, b})
		return r.Bool, err
	}
	switch {
	case a.IsNull() || b.IsNull():
		return a.IsNull() && b.IsNull(), nil
	case !ms.IsValue() && a.Obj == b.Obj:
		return true, nil
	}
	return m.Equals(a, b)
}

// OpNotEquals evaluates `a != b` for the static type typ.
func (m *Machine) OpNotEquals(typ types.TypeID, a, b Value) (bool, error) {
	ms, err := m.memberSet(typ)
	if err != nil {
		return false, err
	}
	sl := ms.Slot(synth.TargetOpInequality)
	if sl.State == synth.SlotAdopted {
		r, err := m.callAdopted(ms, sl, Null(), []Value{a, b})
		return r.Bool, err
	}
	eq, err := m.OpEquals(typ, a, b)
	return !eq, err
}

// Hash invokes the hash member of v's runtime type.
func (m *Machine) Hash(v Value) (int32, error) {
	ms, err := runtimeSet(v)
	if err != nil {
		return 0, err
	}
	return m.hashAs(ms, v)
}

func (m *Machine) hashAs(ms *synth.MemberSet, v Value) (int32, error) {
	sl := ms.Slot(synth.TargetHash)
	switch sl.State {
	case synth.SlotAdopted:
		r, err := m.callAdopted(ms, sl, v, nil)
		return int32(r.Int), err //nolint:gosec // int result
	case synth.SlotSynthesized:
	default:
		return 0, fmt.Errorf("%s: no hash", ms.TypeName)
	}
	d := sl.Desc
	acc := d.Seed
	if d.CallsBase {
		base, err := m.memberSet(ms.Base)
		if err != nil {
			return 0, err
		}
		bh, err := m.hashAs(base, v)
		if err != nil {
			return 0, err
		}
		acc = synth.CombineHash(acc, bh)
	}
	for _, st := range d.Steps {
		if st.Source == synth.StepContract {
			acc = synth.CombineHash(acc, synth.StringHash(v.Obj.Set.TypeName))
			continue
		}
		h, err := m.valueHash(v.Field(st.Name))
		if err != nil {
			return 0, err
		}
		acc = synth.CombineHash(acc, h)
	}
	return acc, nil
}

// HashValue hashes any value the way a synthesized hash member hashes a
// component.
func (m *Machine) HashValue(v Value) (int32, error) { return m.valueHash(v) }

func (m *Machine) valueHash(x Value) (int32, error) {
	switch x.Kind {
	case KindObject:
		if x.Obj.Set != nil {
			return m.Hash(x)
		}
		acc := synth.StringHash(types.Label(m.Types, x.Obj.Type))
		for _, f := range m.Types.Fields(x.Obj.Type) {
			if f.Static {
				continue
			}
			h, err := m.valueHash(x.Field(f.Name))
			if err != nil {
				return 0, err
			}
			acc = synth.CombineHash(acc, h)
		}
		return acc, nil
	case KindTuple:
		var acc int32
		for _, e := range x.Tuple {
			h, err := m.valueHash(e)
			if err != nil {
				return 0, err
			}
			acc = synth.CombineHash(acc, h)
		}
		return acc, nil
	}
	return primitiveHash(x), nil
}

// ToString invokes the formatter entry of v's runtime type.
func (m *Machine) ToString(v Value) (string, error) {
	ms, err := runtimeSet(v)
	if err != nil {
		return "", err
	}
	sl := ms.Slot(synth.TargetFormatEntry)
	switch sl.State {
	case synth.SlotAdopted:
		r, err := m.callAdopted(ms, sl, v, nil)
		return r.Str, err
	case synth.SlotSynthesized:
	default:
		return "", fmt.Errorf("%s: no formatter", ms.TypeName)
	}
	var sb strings.Builder
	sb.WriteString(ms.TypeName)
	sb.WriteString(" { ")
	appended, err := m.printMembersAs(ms, v, &sb)
	if err != nil {
		return "", err
	}
	if appended {
		sb.WriteByte(' ')
	}
	sb.WriteByte('}')
	return sb.String(), nil
}

// PrintMembers invokes the formatter contents of v's runtime type and
// reports whether anything was appended.
func (m *Machine) PrintMembers(v Value, sink *strings.Builder) (bool, error) {
	ms, err := runtimeSet(v)
	if err != nil {
		return false, err
	}
	return m.printMembersAs(ms, v, sink)
}

func (m *Machine) printMembersAs(ms *synth.MemberSet, v Value, sink *strings.Builder) (bool, error) {
	sl := ms.Slot(synth.TargetFormatContents)
	switch sl.State {
	case synth.SlotAdopted:
		r, err := m.callAdopted(ms, sl, v, []Value{{Kind: KindSink, Sink: sink}})
		return r.Bool, err
	case synth.SlotSynthesized:
	default:
		return false, fmt.Errorf("%s: no formatter contents", ms.TypeName)
	}
	d := sl.Desc
	appended := false
	if d.CallsBase {
		base, err := m.memberSet(ms.Base)
		if err != nil {
			return false, err
		}
		if appended, err = m.printMembersAs(base, v, sink); err != nil {
			return false, err
		}
	}
	if len(d.Steps) == 0 {
		return appended, nil
	}
	if appended {
		sink.WriteString(", ")
	}
	for i, st := range d.Steps {
		if i > 0 {
			sink.WriteString(", ")
		}
		val, err := m.stepValue(v, st)
		if err != nil {
			return false, err
		}
		text, err := m.text(val)
		if err != nil {
			return false, err
		}
		sink.WriteString(st.Name)
		sink.WriteString(" = ")
		sink.WriteString(text)
	}
	return true, nil
}

// stepValue reads components through their accessor and other storage
// directly.
func (m *Machine) stepValue(v Value, st synth.Step) (Value, error) {
	if st.Source == synth.StepComponent {
		return m.Get(v, st.Name)
	}
	return v.Field(st.Name), nil
}

func (m *Machine) text(x Value) (string, error) {
	if x.Kind != KindObject {
		return x.String(), nil
	}
	if x.Obj.Set != nil {
		return m.ToString(x)
	}
	fields := m.Types.Fields(x.Obj.Type)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Static {
			continue
		}
		t, err := m.text(x.Field(f.Name))
		if err != nil {
			return "", err
		}
		parts = append(parts, f.Name+" = "+t)
	}
	return types.Label(m.Types, x.Obj.Type) + " { " + strings.Join(parts, ", ") + " }", nil
}

// Deconstruct returns the components of v in declaration order.
func (m *Machine) Deconstruct(v Value) ([]Value, error) {
	ms, err := runtimeSet(v)
	if err != nil {
		return nil, err
	}
	sl := ms.Slot(synth.TargetDeconstruct)
	switch sl.State {
	case synth.SlotAdopted:
		r, err := m.callAdopted(ms, sl, v, nil)
		if err != nil {
			return nil, err
		}
		return r.Tuple, nil
	case synth.SlotSynthesized:
	default:
		return nil, fmt.Errorf("%s: no decomposition", ms.TypeName)
	}
	out := make([]Value, 0, len(sl.Desc.Steps))
	for _, st := range sl.Desc.Steps {
		val, err := m.Get(v, st.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

// Clone copies v: value aggregates and plain structs by value, reference
// aggregates through the clone primitive of their runtime type.
func (m *Machine) Clone(v Value) (Value, error) {
	if v.IsNull() {
		return Null(), ErrNullReceiver
	}
	if v.Kind != KindObject {
		return Null(), ErrNotAggregate
	}
	if v.Obj.Set == nil {
		return ObjectValue(v.Obj.shallowCopy()), nil
	}
	ms, err := runtimeSet(v)
	if err != nil {
		return Null(), err
	}
	if ms.IsValue() {
		return ObjectValue(v.Obj.shallowCopy()), nil
	}
	if !ms.Slot(synth.TargetClone).Present() {
		return Null(), fmt.Errorf("%s: no clone primitive", ms.TypeName)
	}
	cc := ms.Slot(synth.TargetCopyCtor)
	if cc.State != synth.SlotAdopted {
		return ObjectValue(v.Obj.shallowCopy()), nil
	}
	fn, ok := m.method(ms.Type, CtorName, 1)
	if !ok {
		return Null(), fmt.Errorf("%s copy constructor: %w", ms.TypeName, ErrUnbound)
	}
	obj := &Object{Type: v.Obj.Type, Set: ms, Fields: make(map[string]Value, len(v.Obj.Fields))}
	for name := range v.Obj.Fields {
		obj.Fields[name] = Null()
	}
	if _, err := fn(m, ObjectValue(obj), []Value{v}); err != nil {
		return Null(), err
	}
	return ObjectValue(obj), nil
}
