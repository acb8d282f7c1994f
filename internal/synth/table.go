package synth

import (
	"slices"

	"aggsynth/internal/decl"
	"aggsynth/internal/types"
)

// Table is the per-compilation map of published member sets. It is built
// once after every declaration has been synthesized and only read
// afterwards, so concurrent lookups need no locking.
type Table struct {
	byType map[types.TypeID]*MemberSet
	byID   map[decl.Identity]*MemberSet
	order  []*MemberSet
}

// NewTable publishes sets. Later duplicates of an identity are ignored.
func NewTable(sets []*MemberSet) *Table {
	t := &Table{
		byType: make(map[types.TypeID]*MemberSet, len(sets)),
		byID:   make(map[decl.Identity]*MemberSet, len(sets)),
		order:  make([]*MemberSet, 0, len(sets)),
	}
	for _, ms := range sets {
		if ms == nil {
			continue
		}
		if _, dup := t.byID[ms.ID]; dup {
			continue
		}
		t.byID[ms.ID] = ms
		if ms.Type != types.NoTypeID {
			t.byType[ms.Type] = ms
		}
		t.order = append(t.order, ms)
	}
	return t
}

// Len returns the number of published sets.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// All returns the sets in publication order.
func (t *Table) All() []*MemberSet {
	if t == nil {
		return nil
	}
	return slices.Clone(t.order)
}

// Lookup returns the member set of a type.
func (t *Table) Lookup(id types.TypeID) (*MemberSet, bool) {
	if t == nil {
		return nil, false
	}
	ms, ok := t.byType[id]
	return ms, ok
}

// LookupIdentity returns the member set by declared identity.
func (t *Table) LookupIdentity(id decl.Identity) (*MemberSet, bool) {
	if t == nil {
		return nil, false
	}
	ms, ok := t.byID[id]
	return ms, ok
}

// HasEquality reports whether the type has an adopted or synthesized typed
// equality member.
func (t *Table) HasEquality(id types.TypeID) bool {
	ms, ok := t.Lookup(id)
	return ok && ms.Slot(TargetTypedEquals).Present()
}

// Components returns a copy of the positional component list.
func (t *Table) Components(id types.TypeID) []Component {
	ms, ok := t.Lookup(id)
	if !ok {
		return nil
	}
	return slices.Clone(ms.Components)
}

// IsImmutable reports whether the type is the immutable variant.
func (t *Table) IsImmutable(id types.TypeID) bool {
	ms, ok := t.Lookup(id)
	return ok && ms.Immutable
}
