package layout

import (
	"aggsynth/internal/types"
)

// Walker detects value-containment cycles over a published type graph.
// Only storage that is embedded by value is followed: reference types,
// pointers and arrays break the chain.
type Walker struct {
	Types *types.Interner

	cache map[types.TypeID]*LayoutError
}

// New creates a walker over typesIn.
func New(typesIn *types.Interner) *Walker {
	return &Walker{Types: typesIn, cache: make(map[types.TypeID]*LayoutError, 16)}
}

type walkState struct {
	stack []types.TypeID
	via   []string
	index map[types.TypeID]int
	seen  map[types.TypeID]struct{}
}

// CycleThrough reports the value-containment cycle that leads from root back
// to root, or nil when root can be laid out. Cycles that do not pass through
// root are ignored: they belong to another declaration.
func (w *Walker) CycleThrough(root types.TypeID) *LayoutError {
	if w == nil || w.Types == nil || root == types.NoTypeID {
		return nil
	}
	if err, ok := w.cache[root]; ok {
		return err
	}
	st := &walkState{
		index: make(map[types.TypeID]int, 8),
		seen:  make(map[types.TypeID]struct{}, 8),
	}
	err := w.walk(root, root, "", st)
	if w.cache != nil {
		w.cache[root] = err
	}
	return err
}

func (w *Walker) walk(root, id types.TypeID, via string, st *walkState) *LayoutError {
	id = w.Types.ValueElem(id)
	if !w.Types.ContainsByValue(id) {
		return nil
	}
	if id == root && len(st.stack) > 0 {
		cycle := append([]types.TypeID(nil), st.stack...)
		cycle = append(cycle, root)
		path := append([]string(nil), st.via...)
		path = append(path, via)
		// path[i] is the field that leads out of cycle[i]
		return &LayoutError{Kind: LayoutErrRecursiveValue, Type: root, Cycle: cycle, Path: path[1:]}
	}
	if _, onStack := st.index[id]; onStack {
		return nil
	}
	if _, done := st.seen[id]; done {
		return nil
	}
	st.index[id] = len(st.stack)
	st.stack = append(st.stack, id)
	st.via = append(st.via, via)
	for _, f := range w.Types.Fields(id) {
		if f.Static {
			continue
		}
		if err := w.walk(root, f.Type, f.Name, st); err != nil {
			return err
		}
	}
	st.stack = st.stack[:len(st.stack)-1]
	st.via = st.via[:len(st.via)-1]
	delete(st.index, id)
	st.seen[id] = struct{}{}
	return nil
}
