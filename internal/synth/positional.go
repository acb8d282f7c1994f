package synth

import (
	"fmt"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
	"aggsynth/internal/types"
)

// resolveComponents builds the positional component list and the extra
// backing storage. It returns false when the declaration has a cyclic value
// layout and synthesis must stop.
func (s *synthesizer) resolveComponents() bool {
	if s.agg.Params != nil {
		seen := make(map[string]int, len(s.agg.Params.Params))
		for i := range s.agg.Params.Params {
			p := &s.agg.Params.Params[i]
			s.checkComponentMode(p)
			s.checkComponentType(p)
			if prev, dup := seen[p.Name]; dup {
				diag.ReportError(s.r, diag.SemaComponentDuplicateName, p.Span,
					fmt.Sprintf("the parameter name '%s' is a duplicate", p.Name)).
					WithNote(s.agg.Params.Params[prev].Span, "first declared here").
					WithArgs(p.Name).
					Emit()
				continue
			}
			seen[p.Name] = i
			s.ms.Components = append(s.ms.Components, Component{
				Index:      len(s.ms.Components),
				Name:       p.Name,
				Type:       p.Type,
				Mode:       p.Mode,
				Default:    p.Default,
				HasDefault: p.HasDefault,
				Span:       p.Span,
			})
		}
	}

	for i := range s.agg.Members {
		m := &s.agg.Members[i]
		if !m.Storage || m.Static() || IsReservedName(m.Name) {
			continue
		}
		if _, ok := s.ms.Component(m.Name); ok {
			continue
		}
		s.ms.Storage = append(s.ms.Storage, Storage{Name: m.Name, Type: m.Result, Init: m.Init, Writable: m.Writable(), Span: m.Span})
	}

	return s.checkLayout()
}

func (s *synthesizer) checkComponentMode(p *decl.Param) {
	var code diag.Code
	switch p.Mode {
	case decl.PassOut:
		code = diag.SemaComponentOutParam
	case decl.PassRef:
		code = diag.SemaComponentRefParam
	case decl.PassThis:
		code = diag.SemaComponentThisParam
	default:
		return
	}
	diag.ReportError(s.r, code, p.Span,
		fmt.Sprintf("positional component '%s' cannot be declared '%s'", p.Name, p.Mode)).
		WithArgs(p.Name, p.Mode.String()).
		Emit()
}

func (s *synthesizer) checkComponentType(p *decl.Param) {
	var code diag.Code
	switch s.in.Kind(p.Type) {
	case types.KindPointer:
		code = diag.SemaComponentPointerType
	case types.KindStackOnly:
		code = diag.SemaComponentStackOnlyType
	case types.KindStatic:
		code = diag.SemaComponentStaticType
	default:
		return
	}
	label := s.label(p.Type)
	diag.ReportError(s.r, code, p.Span,
		fmt.Sprintf("positional component '%s' cannot have type '%s'", p.Name, label)).
		WithArgs(p.Name, label).
		Emit()
}

// checkLayout walks the published type graph for a value-containment cycle
// leading back to the declaration.
func (s *synthesizer) checkLayout() bool {
	if !s.agg.IsValue() || s.walker == nil {
		return true
	}
	lerr := s.walker.CycleThrough(s.agg.Type)
	if lerr == nil {
		return true
	}
	span := s.agg.Span
	if len(lerr.Path) > 0 {
		if c, ok := s.ms.Component(lerr.Path[0]); ok {
			span = c.Span
		} else {
			for _, st := range s.ms.Storage {
				if st.Name == lerr.Path[0] {
					span = st.Span
					break
				}
			}
		}
	}
	diag.ReportError(s.r, diag.SemaComponentCyclicLayout, span,
		fmt.Sprintf("struct member '%s' causes a cycle in the struct layout of '%s'", lerr.Describe(s.in), s.ms.TypeName)).
		WithArgs(s.ms.TypeName).
		Emit()
	return false
}

// StorageFields lists the storage slots a merged declaration contributes
// to the type graph: positional components first, then hand-written storage
// in source order. The driver registers them before publishing the
// interner so the layout walk can see them.
func StorageFields(agg *decl.Aggregate) []types.Field {
	var out []types.Field
	seen := make(map[string]struct{})
	if agg.Params != nil {
		for _, p := range agg.Params.Params {
			if _, dup := seen[p.Name]; dup {
				continue
			}
			seen[p.Name] = struct{}{}
			out = append(out, types.Field{Name: p.Name, Type: p.Type})
		}
	}
	for i := range agg.Members {
		m := &agg.Members[i]
		if !m.Storage {
			continue
		}
		if _, dup := seen[m.Name]; dup {
			continue
		}
		seen[m.Name] = struct{}{}
		out = append(out, types.Field{Name: m.Name, Type: m.Result, Static: m.Static()})
	}
	return out
}
