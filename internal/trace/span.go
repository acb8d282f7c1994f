package trace

import (
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

func nextSeq() uint64 { return seqCounter.Add(1) }

// Span is an open begin/end pair. A nil *Span is returned when the tracer
// drops the scope; every method accepts it.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	subject string
	started time.Time
	extra   map[string]string
}

func begin(t Tracer, scope Scope, name, subject string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return nil
	}
	s := &Span{
		tracer:  t,
		id:      spanCounter.Add(1),
		parent:  parent,
		scope:   scope,
		name:    name,
		subject: subject,
		started: time.Now(),
	}
	s.emit(KindSpanBegin, s.started, "")
	return s
}

func (s *Span) emit(kind Kind, at time.Time, detail string) {
	ev := &Event{
		Time:     at,
		Seq:      nextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Subject:  s.subject,
		Detail:   detail,
	}
	if kind == KindSpanEnd {
		ev.Extra = s.extra
	}
	s.tracer.Emit(ev)
}

// End emits the end event and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	s.emit(KindSpanEnd, now, detail)
	return now.Sub(s.started)
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil {
		return nil
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, 0 for a dropped span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
