package trace

import (
	"context"
	"time"
)

type (
	tracerKey struct{}
	spanKey   struct{}
)

// WithTracer attaches t to ctx. A nil t disables tracing.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

func parentOf(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s.ID()
}

// Start opens a span under the one carried by ctx. The returned context
// carries the new span, so spans started from it nest below. When the
// scope is dropped, ctx is returned unchanged with a nil span.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	s := begin(FromContext(ctx), scope, name, "", parentOf(ctx))
	if s == nil {
		return ctx, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey{}, s), s
}

// Decl opens the span of one declaration's synthesis.
func Decl(ctx context.Context, declaration string) *Span {
	return begin(FromContext(ctx), ScopeDecl, "decl", declaration, parentOf(ctx))
}

// Use records the outcome of lowering one use site.
func Use(ctx context.Context, use, outcome string) {
	t := FromContext(ctx)
	if !t.Enabled() || !t.Level().ShouldEmit(ScopeUse) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      nextSeq(),
		Kind:     KindPoint,
		Scope:    ScopeUse,
		ParentID: parentOf(ctx),
		Name:     "use",
		Subject:  use,
		Detail:   outcome,
	})
}
