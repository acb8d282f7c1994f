package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"aggsynth/internal/eval"
)

const hashed = `aggregates:
  - name: Point
    fragments:
      - kind: struct
        modifiers: [readonly]
        params: [{name: X, type: int}, {name: Y, type: int}]
        members:
          - name: GetHashCode
            type: int
            access: public
            modifiers: [override]
            body: {call: hash, args: [{field: X, of: this}]}
samples:
  - {name: p, type: Point, args: [{int: 1}, {int: 2}]}
  - {name: q, type: Point, args: [{field: Y, of: p}, {int: 7}]}
uses:
  - name: moved
    source: p
    with:
      - {member: Y, value: {field: X, of: p}}
  - name: bad
    source: p
    with:
      - {member: Z, value: {int: 1}}
`

func TestEvaluateSamplesAndUses(t *testing.T) {
	paths := writeDocs(t, map[string]string{"a.yaml": hashed})
	res, err := Run(context.Background(), paths, Options{})
	if err != nil {
		t.Fatal(err)
	}
	outcomes := res.Evaluate()

	type row struct {
		Name string
		Use  bool
		Text string
	}
	var got []row
	for _, o := range outcomes[:3] {
		if o.Err != nil {
			t.Fatalf("%s: %v", o.Name, o.Err)
		}
		got = append(got, row{o.Name, o.Use, o.Text})
	}
	want := []row{
		{"p", false, "Point { X = 1, Y = 2 }"},
		{"q", false, "Point { X = 2, Y = 7 }"},
		{"moved", true, "Point { X = 1, Y = 1 }"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
	if last := outcomes[3]; last.Name != "bad" || !errors.Is(last.Err, eval.ErrLowering) {
		t.Fatalf("rejected use = %+v", last)
	}
}

func TestMachineBindsBodies(t *testing.T) {
	paths := writeDocs(t, map[string]string{"a.yaml": hashed})
	res, err := Run(context.Background(), paths, Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := res.Machine()
	p := res.Evaluate()[0].Value
	h, err := m.Hash(p)
	if err != nil {
		t.Fatal(err)
	}
	want, err := m.HashValue(eval.Int(1))
	if err != nil {
		t.Fatal(err)
	}
	if h != want {
		t.Fatalf("hand-written hash = %d, want %d", h, want)
	}
}
