// Package trace records the phases of a synthesis run.
//
// Enable tracing via command-line flags:
//
//	aggsynth synth --trace=- --trace-level=detail decls.yaml
//
// The tracer and the open span travel in the context, so nested work is
// parented without passing IDs around:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, phase := trace.Start(ctx, trace.ScopePhase, "synthesize")
//	defer phase.End("")
//	trace.Decl(ctx, "Point").End("")
//	trace.Use(ctx, "moved", "lowered")
//
// Implementations: the nop tracer (tracing disabled), StreamTracer
// (immediate write in text or NDJSON), RingTracer (last N events kept in
// memory) and MultiTracer (fan-out).
package trace
