package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint // instant event
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // whole run
	ScopePhase                   // load, bind, merge, synthesize, lower
	ScopeDecl                    // one aggregate declaration
	ScopeUse                     // one update expression
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePhase:
		return "phase"
	case ScopeDecl:
		return "decl"
	case ScopeUse:
		return "use"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // global, monotonic
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Name     string // phase name, or "decl" and "use"
	Subject  string // declaration or use-site name
	Detail   string
	Extra    map[string]string
}
