// Package lower turns non-destructive update expressions into explicit
// straight-line programs: evaluate the source once, copy it, assign the
// patched members in the order written at the use site.
package lower

import (
	"fmt"
	"strings"

	"aggsynth/internal/hir"
	"aggsynth/internal/source"
	"aggsynth/internal/types"
)

// OpKind enumerates lowered operations.
type OpKind uint8

const (
	// OpEvalSource evaluates the source expression into Dst exactly once.
	OpEvalSource OpKind = iota
	// OpCopy copies a value aggregate or plain struct from Src into Dst.
	OpCopy
	// OpClone calls the clone primitive of Src and stores the copy in Dst.
	OpClone
	// OpAssign evaluates Value and stores it into member Member of Dst.
	OpAssign
	// OpResult yields Src.
	OpResult
)

func (k OpKind) String() string {
	switch k {
	case OpEvalSource:
		return "eval"
	case OpCopy:
		return "copy"
	case OpClone:
		return "clone"
	case OpAssign:
		return "assign"
	case OpResult:
		return "result"
	default:
		return "op?"
	}
}

// Op is one lowered operation.
type Op struct {
	Kind   OpKind
	Dst    int
	Src    int
	Member string
	// Component is the positional index of Member, -1 for other storage.
	Component int
	Value     *hir.Expr
	Span      source.Span
}

// Program is the lowered form of one update expression.
type Program struct {
	Type  types.TypeID
	Ops   []Op
	Temps int
	Span  source.Span
}

// String renders the program one op per line.
func (p *Program) String() string {
	if p == nil {
		return "<nil>"
	}
	var sb strings.Builder
	for _, op := range p.Ops {
		switch op.Kind {
		case OpEvalSource:
			fmt.Fprintf(&sb, "t%d = %s\n", op.Dst, op.Value)
		case OpCopy:
			fmt.Fprintf(&sb, "t%d = copy t%d\n", op.Dst, op.Src)
		case OpClone:
			fmt.Fprintf(&sb, "t%d = t%d.<Clone>$()\n", op.Dst, op.Src)
		case OpAssign:
			fmt.Fprintf(&sb, "t%d.%s = %s\n", op.Dst, op.Member, op.Value)
		case OpResult:
			fmt.Fprintf(&sb, "result t%d\n", op.Src)
		}
	}
	return sb.String()
}
