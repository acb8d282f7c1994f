package source

import "testing"

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("decls.yaml", []byte("ab\ncde\n\nf"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{1, LineCol{Line: 1, Col: 2}},
		{3, LineCol{Line: 2, Col: 1}},
		{5, LineCol{Line: 2, Col: 3}},
		{7, LineCol{Line: 3, Col: 1}},
		{8, LineCol{Line: 4, Col: 1}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Fatalf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestFileOffsetRoundTrip(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("decls.yaml", []byte("name: Point\nfragments:\n  - kind: struct\n"))
	f := fs.Get(id)

	sp := f.SpanAt(3, 5, 4)
	if got := string(f.Content[sp.Start:sp.End]); got != "kind" {
		t.Fatalf("SpanAt text = %q, want %q", got, "kind")
	}
	start, _ := fs.Resolve(sp)
	if start.Line != 3 || start.Col != 5 {
		t.Fatalf("round trip = %+v", start)
	}
	if got := f.GetLine(2); got != "fragments:" {
		t.Fatalf("GetLine(2) = %q", got)
	}
	if got := f.Offset(99, 1); got != uint32(len(f.Content)) {
		t.Fatalf("Offset past end = %d", got)
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	content, bom := removeBOM([]byte("\xEF\xBB\xBFa\r\nb"))
	if !bom {
		t.Fatal("expected BOM to be detected")
	}
	content, crlf := normalizeCRLF(content)
	if !crlf || string(content) != "a\nb" {
		t.Fatalf("normalizeCRLF = %q, %v", content, crlf)
	}
}

func TestSpanCoverAndBefore(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("Cover = %v", got)
	}
	if !b.Before(a) || a.Before(b) {
		t.Fatal("Before ordering broken")
	}
	if got := a.Cover(Span{File: 2}); got != a {
		t.Fatal("Cover across files must not change span")
	}
}

func TestIdentNormalizesToNFC(t *testing.T) {
	decomposed := "Café"
	if Ident(" "+decomposed+" ") != "Café" {
		t.Fatalf("Ident did not normalize %q", decomposed)
	}
}
