package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"aggsynth/internal/diag"
	"aggsynth/internal/source"
)

const doc = "aggregates:\n  - name: Point\n    params: [{name: X, type: int}]\n"

func fixture(t *testing.T) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSetWithBase("/work")
	id := fs.AddVirtual("point.yaml", []byte(doc))
	f := fs.Get(id)
	bag := diag.NewBag(8)
	bag.Add(diag.NewError(diag.SemaWithUnknownMember, f.SpanAt(2, 11, 5), "no member 'Point'").
		WithNote(f.SpanAt(3, 21, 1), "declared here"))
	bag.Add(diag.Diagnostic{Severity: diag.SevInfo, Code: diag.ObsTimings, Message: "timings", Notes: []diag.Note{{Msg: `{"total_ms":1}`}}})
	return fs, bag
}

func TestPrettyPlain(t *testing.T) {
	fs, bag := fixture(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true})

	want := strings.Join([]string{
		"point.yaml:2:11: ERROR SEM3262: no member 'Point'",
		"2 |   - name: Point",
		"  | " + strings.Repeat(" ", 10) + "^~~~~",
		"  note: point.yaml:3:21: declared here",
		"3 |     params: [{name: X, type: int}]",
		"  | " + strings.Repeat(" ", 20) + "^",
		"",
		"INFO OBS6001: timings",
		`  note: {"total_ms":1}`,
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrettyContextAndWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("w.yaml", []byte("a: 1\nname: 日本 x\n"))
	f := fs.Get(id)
	bag := diag.NewBag(1)
	// "x" sits after two double-width runes
	bag.Add(diag.NewError(diag.IODecodeError, f.SpanAt(2, 14, 1), "bad"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 5})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 || lines[1] != "1 | a: 1" {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	if got, want := lines[3], "  | "+strings.Repeat(" ", 11)+"^"; got != want {
		t.Fatalf("caret line = %q", got)
	}
}

func TestJSON(t *testing.T) {
	fs, bag := fixture(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	first := out.Diagnostics[0]
	wantLoc := LocationJSON{File: "point.yaml", StartByte: 22, EndByte: 27, StartLine: 2, StartCol: 11, EndLine: 2, EndCol: 16}
	if diff := cmp.Diff(wantLoc, first.Location); diff != "" {
		t.Fatalf("location mismatch (-want +got):\n%s", diff)
	}
	if first.Code != "SEM3262" || first.Severity != "ERROR" || first.Notes != nil {
		t.Fatalf("first = %+v", first)
	}
	if len(out.Diagnostics[1].Notes) != 1 {
		t.Fatalf("timing notes must always be included")
	}

	buf.Reset()
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 1}); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil || out.Count != 1 {
		t.Fatalf("max not applied: %v %d", err, out.Count)
	}
}
