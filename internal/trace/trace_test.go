package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestStreamTracerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithTracer(context.Background(), NewStreamTracer(&buf, LevelPhase, FormatText))
	ctx, root := Start(ctx, ScopeDriver, "run")
	phaseCtx, phase := Start(ctx, ScopePhase, "synthesize")
	Decl(phaseCtx, "Point").End("")
	Use(phaseCtx, "moved", "lowered")
	phase.WithExtra("member_sets", "3").End("ok")
	root.End("")

	out := buf.String()
	if strings.Contains(out, "Point") || strings.Contains(out, "moved") {
		t.Fatalf("declaration and use events must be filtered at phase level:\n%s", out)
	}
	if !strings.Contains(out, "← synthesize (ok) {member_sets=3}") {
		t.Fatalf("missing phase end:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", got, out)
	}
}

func TestSpansNestThroughContext(t *testing.T) {
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	ctx, root := Start(ctx, ScopeDriver, "run")
	phaseCtx, phase := Start(ctx, ScopePhase, "synthesize")
	decl := Decl(phaseCtx, "Point")
	decl.End("")
	Use(phaseCtx, "moved", "lowered")
	phase.End("")
	root.End("")

	snap := ring.Snapshot()
	if len(snap) != 7 {
		t.Fatalf("events = %+v", snap)
	}
	if snap[1].ParentID != root.ID() || snap[2].ParentID != phase.ID() || snap[4].ParentID != phase.ID() {
		t.Fatalf("spans must nest: %+v", snap)
	}
	if snap[2].Name != "decl" || snap[2].Subject != "Point" || snap[4].Subject != "moved" {
		t.Fatalf("subjects = %+v", snap)
	}
	for i := 1; i < len(snap); i++ {
		if snap[i].Seq <= snap[i-1].Seq {
			t.Fatalf("sequence must increase: %+v", snap)
		}
	}
}

func TestNDJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithTracer(context.Background(), NewStreamTracer(&buf, LevelDebug, FormatFor("trace.ndjson")))
	Use(ctx, "moved", "rejected")
	var ev map[string]any
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if ev["kind"] != "point" || ev["scope"] != "use" || ev["subject"] != "moved" || ev["detail"] != "rejected" {
		t.Fatalf("event = %v", ev)
	}
}

func TestRingTracerKeepsLatest(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Use(ctx, name, "")
	}
	snap := ring.Snapshot()
	if len(snap) != 3 || snap[0].Subject != "c" || snap[2].Subject != "e" {
		t.Fatalf("snapshot = %+v", snap)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 3 || !strings.Contains(buf.String(), "• use e") {
		t.Fatalf("dump = %q", buf.String())
	}
}

func TestMultiAndContext(t *testing.T) {
	a := NewRingTracer(8, LevelDetail)
	b := NewRingTracer(8, LevelDetail)
	ctx := WithTracer(context.Background(), NewMultiTracer(LevelDetail, a, b))
	Decl(ctx, "R").End("")
	if len(a.Snapshot()) != 2 || len(b.Snapshot()) != 2 {
		t.Fatalf("fan-out failed: %d %d", len(a.Snapshot()), len(b.Snapshot()))
	}
	if FromContext(context.Background()).Enabled() {
		t.Fatalf("missing tracer must be the nop tracer")
	}
	if err := FromContext(ctx).Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDroppedScopesAreInert(t *testing.T) {
	ctx := WithTracer(context.Background(), NewRingTracer(4, LevelOff))
	next, span := Start(ctx, ScopePhase, "load")
	if span != nil || next != ctx {
		t.Fatalf("dropped scope must return the input context and a nil span")
	}
	if span.WithExtra("k", "v").End("") != 0 || span.ID() != 0 {
		t.Fatalf("nil span must be inert")
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "phase", "DETAIL", "debug"} {
		if _, err := ParseLevel(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error")
	}
}
