package diag

import (
	"testing"

	"aggsynth/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")
	file := fs.Add("/workspace/testdata/point.yaml", []byte("a\nb\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     SemaEqualsWithoutHash,
			Message:  "another",
			Primary:  source.Span{File: file, Start: 2, End: 3},
		},
		{
			Severity: SevError,
			Code:     SemaMemberWrongReturnType,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: file, Start: 0, End: 1},
			Notes:    []Note{{Span: source.Span{File: file, Start: 2, End: 3}, Msg: "note line"}},
		},
	}

	expected := "error SEM3230 testdata/point.yaml:1:1 first line second\n" +
		"note SEM3230 testdata/point.yaml:2:1 note line\n" +
		"warning SEM3244 testdata/point.yaml:2:1 another"

	if got := FormatShortDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagLimitMergeSort(t *testing.T) {
	a := NewBag(1)
	if !a.Add(NewError(SemaMemberMustBePublic, source.Span{Start: 9}, "x")) {
		t.Fatal("first Add must succeed")
	}
	if a.Add(NewError(SemaMemberMustBePublic, source.Span{Start: 1}, "y")) {
		t.Fatal("Add past the limit must fail")
	}

	b := NewBag(4)
	b.Add(New(SevWarning, SemaEqualsWithoutHash, source.Span{Start: 3}, "w"))
	b.Add(NewError(SemaMemberAlreadyExists, source.Span{Start: 3}, "e"))
	a.Merge(b)
	if a.Len() != 3 || a.Cap() != 3 {
		t.Fatalf("merge: len=%d cap=%d", a.Len(), a.Cap())
	}

	a.Sort()
	items := a.Items()
	if items[0].Code != SemaMemberAlreadyExists || items[1].Code != SemaEqualsWithoutHash || items[2].Primary.Start != 9 {
		t.Fatalf("unexpected order: %+v", items)
	}
	if !a.HasErrors() || a.Count(SemaEqualsWithoutHash) != 1 {
		t.Fatal("HasErrors/Count mismatch")
	}
}

func TestCodeID(t *testing.T) {
	if got := SemaWithDuplicateMember.ID(); got != "SEM3260" {
		t.Fatalf("ID = %q", got)
	}
	if got := IODecodeError.ID(); got != "IO4002" {
		t.Fatalf("ID = %q", got)
	}
	if Code(9999).Title() != UnknownCode.Title() {
		t.Fatal("unknown codes must fall back to the generic title")
	}
}
