package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Bool == NoTypeID || b.TextSink == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if id, ok := in.ByName("string"); !ok || id != b.String {
		t.Fatalf("ByName(string) = %d, %v", id, ok)
	}
	if in.IsValue(b.String) || !in.IsValue(b.Int) {
		t.Fatal("value classification of builtins is wrong")
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	a, err := in.Parse("int?[]")
	if err != nil {
		t.Fatal(err)
	}
	b, err := in.Parse(" int?[] ")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("array types should be deduplicated")
	}
	if got := Label(in, a); got != "int?[]" {
		t.Fatalf("Label = %q", got)
	}
	if _, err := in.Parse("Missing"); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestNominalRegistration(t *testing.T) {
	in := NewInterner()
	point, err := in.RegisterNominal(KindAggregate, NominalInfo{Name: "Point", Value: true})
	if err != nil {
		t.Fatal(err)
	}
	again, err := in.RegisterNominal(KindAggregate, NominalInfo{Name: "Point", Value: true})
	if err != nil || again != point {
		t.Fatalf("re-registration = %d, %v", again, err)
	}
	if _, err := in.RegisterNominal(KindClass, NominalInfo{Name: "Point"}); err == nil {
		t.Fatal("expected kind clash error")
	}
	in.SetFields(point, []Field{{Name: "X", Type: in.Builtins().Int}})
	if len(in.Fields(point)) != 1 {
		t.Fatal("fields were not stored")
	}

	opt, _ := in.Parse("Point?")
	if !in.ContainsByValue(opt) || in.ValueElem(opt) != point {
		t.Fatal("nullable value aggregate must contain its element by value")
	}

	ref, _ := in.RegisterNominal(KindAggregate, NominalInfo{Name: "Person"})
	if in.IsValue(ref) || in.ContainsByValue(ref) {
		t.Fatal("reference aggregate must not be a value type")
	}
}

func TestFrozenInternerRejectsMutation(t *testing.T) {
	in := NewInterner()
	in.Freeze()
	if _, err := in.Parse("int"); err != nil {
		t.Fatal("lookups must keep working after Freeze")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mutation after Freeze")
		}
	}()
	in.Intern(MakeArray(in.Builtins().Int))
}
