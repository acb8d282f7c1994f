package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the predefined types.
type Builtins struct {
	Void     TypeID
	Bool     TypeID
	Int      TypeID
	Long     TypeID
	Float    TypeID
	Char     TypeID
	String   TypeID
	Object   TypeID
	TextSink TypeID
}

// Interner provides stable TypeIDs. Structural types are hashed by
// descriptor; nominal types are registered by name. Once Freeze is called the
// interner is a published, read-only symbol table shared by synthesis
// workers.
type Interner struct {
	types    []Type
	index    map[Type]TypeID
	names    map[string]TypeID
	nominals []NominalInfo
	builtins Builtins
	frozen   bool
}

// NewInterner constructs an interner seeded with the predefined types.
func NewInterner() *Interner {
	in := &Interner{
		types: make([]Type, 1, 64), // reserve NoTypeID
		index: make(map[Type]TypeID, 64),
		names: make(map[string]TypeID, 32),
	}
	in.nominals = append(in.nominals, NominalInfo{}) // 0 is the invalid sentinel
	in.builtins = Builtins{
		Void:     in.builtin("void", KindVoid),
		Bool:     in.builtin("bool", KindBool),
		Int:      in.builtin("int", KindInt),
		Long:     in.builtin("long", KindLong),
		Float:    in.builtin("float", KindFloat),
		Char:     in.builtin("char", KindChar),
		String:   in.builtin("string", KindString),
		Object:   in.builtin("object", KindObject),
		TextSink: in.builtin("TextSink", KindTextSink),
	}
	return in
}

func (in *Interner) builtin(name string, kind Kind) TypeID {
	id := in.Intern(Type{Kind: kind})
	in.names[name] = id
	return id
}

// Builtins returns TypeIDs for the predefined types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Freeze publishes the interner. Any later mutation panics.
func (in *Interner) Freeze() {
	in.frozen = true
}

// Frozen reports whether the interner was published.
func (in *Interner) Frozen() bool {
	return in.frozen
}

func (in *Interner) mustBeMutable() {
	if in.frozen {
		panic("types: mutation of a published interner")
	}
}

// Intern ensures the provided structural descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	in.mustBeMutable()
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// RegisterNominal allocates a named type. Registering the same name twice
// returns the existing TypeID.
func (in *Interner) RegisterNominal(kind Kind, info NominalInfo) (TypeID, error) {
	if !kind.Nominal() {
		return NoTypeID, fmt.Errorf("types: kind %s is not nominal", kind)
	}
	if id, ok := in.names[info.Name]; ok {
		if tt, _ := in.Lookup(id); tt.Kind != kind {
			return id, fmt.Errorf("types: %q already registered as %s", info.Name, tt.Kind)
		}
		return id, nil
	}
	in.mustBeMutable()
	slot, err := safecast.Conv[uint32](len(in.nominals))
	if err != nil {
		return NoTypeID, fmt.Errorf("types: nominal overflow: %w", err)
	}
	info.Fields = slices.Clone(info.Fields)
	in.nominals = append(in.nominals, info)
	id := in.Intern(Type{Kind: kind, Payload: slot})
	in.names[info.Name] = id
	return id, nil
}

// SetFields stores the resolved storage slots of a nominal type.
func (in *Interner) SetFields(id TypeID, fields []Field) {
	info := in.nominal(id)
	if info == nil {
		return
	}
	in.mustBeMutable()
	info.Fields = slices.Clone(fields)
}

// SetBase records the base aggregate of a reference aggregate.
func (in *Interner) SetBase(id, base TypeID) {
	info := in.nominal(id)
	if info == nil {
		return
	}
	in.mustBeMutable()
	info.Base = base
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// Kind returns the kind of id, KindInvalid when unknown.
func (in *Interner) Kind(id TypeID) Kind {
	tt, _ := in.Lookup(id)
	return tt.Kind
}

// ByName resolves a predefined or nominal type name.
func (in *Interner) ByName(name string) (TypeID, bool) {
	id, ok := in.names[name]
	return id, ok
}

// Nominal returns metadata for a named type.
func (in *Interner) Nominal(id TypeID) (*NominalInfo, bool) {
	info := in.nominal(id)
	if info == nil {
		return nil, false
	}
	return info, true
}

// Fields returns a copy of the storage slots of id.
func (in *Interner) Fields(id TypeID) []Field {
	info := in.nominal(id)
	if info == nil {
		return nil
	}
	return slices.Clone(info.Fields)
}

func (in *Interner) nominal(id TypeID) *NominalInfo {
	tt, ok := in.Lookup(id)
	if !ok || !tt.Kind.Nominal() {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.nominals) {
		return nil
	}
	return &in.nominals[tt.Payload]
}

// IsValue reports whether instances of id are copied by value.
func (in *Interner) IsValue(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindBool, KindInt, KindLong, KindFloat, KindChar, KindStruct, KindStackOnly, KindNullable, KindPointer:
		return true
	case KindAggregate:
		info := in.nominal(id)
		return info != nil && info.Value
	}
	return false
}

// ContainsByValue reports whether storing a value of id embeds the storage
// of ValueElem(id) inline (value nominal types and nullable value types).
func (in *Interner) ContainsByValue(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindStruct, KindStackOnly:
		return true
	case KindAggregate:
		return in.IsValue(id)
	case KindNullable:
		return in.ContainsByValue(tt.Elem)
	}
	return false
}

// ValueElem unwraps nullable wrappers.
func (in *Interner) ValueElem(id TypeID) TypeID {
	for {
		tt, ok := in.Lookup(id)
		if !ok || tt.Kind != KindNullable {
			return id
		}
		id = tt.Elem
	}
}
