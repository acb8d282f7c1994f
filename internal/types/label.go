package types

import (
	"fmt"
	"strings"
)

// Parse resolves a type spelling such as `Point`, `int?`, `Node[]` or `byte*`.
func (in *Interner) Parse(spelling string) (TypeID, error) {
	s := strings.TrimSpace(spelling)
	switch {
	case s == "":
		return NoTypeID, fmt.Errorf("empty type name")
	case strings.HasSuffix(s, "[]"):
		elem, err := in.Parse(strings.TrimSuffix(s, "[]"))
		if err != nil {
			return NoTypeID, err
		}
		return in.Intern(MakeArray(elem)), nil
	case strings.HasSuffix(s, "?"):
		elem, err := in.Parse(strings.TrimSuffix(s, "?"))
		if err != nil {
			return NoTypeID, err
		}
		if in.Kind(elem) == KindNullable {
			return elem, nil
		}
		return in.Intern(MakeNullable(elem)), nil
	case strings.HasSuffix(s, "*"):
		elem, err := in.Parse(strings.TrimSuffix(s, "*"))
		if err != nil {
			return NoTypeID, err
		}
		return in.Intern(MakePointer(elem)), nil
	}
	if id, ok := in.names[s]; ok {
		return id, nil
	}
	return NoTypeID, fmt.Errorf("unknown type %q", s)
}

// Label returns a user-friendly label for a TypeID.
func Label(in *Interner, id TypeID) string {
	return labelDepth(in, id, 0)
}

func labelDepth(in *Interner, id TypeID, depth int) string {
	if id == NoTypeID || in == nil {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindPointer:
		return labelDepth(in, tt.Elem, depth+1) + "*"
	case KindNullable:
		return labelDepth(in, tt.Elem, depth+1) + "?"
	case KindArray:
		return labelDepth(in, tt.Elem, depth+1) + "[]"
	case KindTextSink:
		return "TextSink"
	}
	if tt.Kind.Nominal() {
		if info, ok := in.Nominal(id); ok {
			return info.Name
		}
	}
	return tt.Kind.String()
}
