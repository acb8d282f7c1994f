package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const pointDoc = `aggregates:
  - name: Point
    fragments:
      - kind: struct
        modifiers: [readonly]
        params: [{name: X, type: int}, {name: Y, type: int}]
samples:
  - {name: a, type: Point, args: [{int: 1}, {int: 2}]}
  - {name: b, type: Point, args: [{int: 1}, {int: 2}]}
uses:
  - name: moved
    source: a
    with:
      - {member: X, value: {int: 9}}
`

const badDoc = `aggregates:
  - name: Point
    fragments:
      - kind: struct
        params: [{name: X, type: int}]
uses:
  - name: twice
    source: {new: Point, args: [{int: 1}]}
    with:
      - {member: X, value: {int: 2}}
      - {member: X, value: {int: 3}}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "none", "--color", "off"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSynthEmitsMembers(t *testing.T) {
	p := writeDoc(t, "point.yaml", pointDoc)
	out, err := execute(t, "synth", "--no-cache", "--emit", "members", p)
	if err != nil {
		t.Fatalf("synth failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Point (struct, readonly)", "typed-equality", "synthesized"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestSynthReportsErrors(t *testing.T) {
	p := writeDoc(t, "bad.yaml", badDoc)
	out, err := execute(t, "synth", "--no-cache", "--format", "short", "--emit", "lowered", p)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("expected errDiagnostics, got %v", err)
	}
	if !strings.Contains(out, "SEM3260") || !strings.Contains(out, "twice: rejected") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestEvalPrintsOutcomes(t *testing.T) {
	p := writeDoc(t, "point.yaml", pointDoc)
	out, err := execute(t, "eval", "--no-cache", p)
	if err != nil {
		t.Fatalf("eval failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Point { X = 1, Y = 2 }", "Point { X = 9, Y = 2 }", "a == b: true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestSynthRequiresInputs(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := execute(t, "synth", "--no-cache"); err == nil || errors.Is(err, errDiagnostics) {
		t.Fatalf("expected an input error, got %v", err)
	}
}

func TestSynthReadsManifestInputs(t *testing.T) {
	p := writeDoc(t, "point.yaml", pointDoc)
	manifest := "[synth]\ninputs = [\"point.yaml\"]\ncache = false\n"
	if err := os.WriteFile(filepath.Join(filepath.Dir(p), "aggsynth.toml"), []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "synth", "--emit", "json")
	if err != nil {
		t.Fatalf("synth failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"type_name": "Point"`) {
		t.Fatalf("json output lacks the member set:\n%s", out)
	}
}
