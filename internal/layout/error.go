package layout

import (
	"fmt"
	"strings"

	"aggsynth/internal/types"
)

// LayoutErrorKind enumerates layout failures.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveValue indicates a value type that contains itself.
	LayoutErrRecursiveValue LayoutErrorKind = iota + 1
)

// LayoutError reports a value-containment cycle. Cycle starts and ends with
// Type; Path names the storage slot followed at every step.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  types.TypeID
	Cycle []types.TypeID
	Path  []string
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrRecursiveValue:
		return fmt.Sprintf("recursive value layout for type#%d (cycle length %d)", e.Type, len(e.Cycle))
	default:
		return "layout error"
	}
}

// Describe renders the cycle as `A.b -> B.a -> A` using in for labels.
func (e *LayoutError) Describe(in *types.Interner) string {
	if e == nil || len(e.Cycle) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e.Cycle))
	for i, id := range e.Cycle {
		label := types.Label(in, id)
		if i < len(e.Path) && e.Path[i] != "" {
			label += "." + e.Path[i]
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " -> ")
}
