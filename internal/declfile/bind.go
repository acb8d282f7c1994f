package declfile

import (
	"fmt"
	"strings"

	"aggsynth/internal/decl"
	"aggsynth/internal/diag"
	"aggsynth/internal/hir"
	"aggsynth/internal/source"
	"aggsynth/internal/types"
)

// Decl is every fragment of one aggregate, across all files, in file order.
type Decl struct {
	ID        decl.Identity
	Type      types.TypeID
	Fragments []decl.Fragment
}

// Sample is a named instance built by a primary-constructor call.
type Sample struct {
	Name string
	Type types.TypeID
	Expr *hir.Expr
	Span source.Span
}

// Use is a named update expression.
type Use struct {
	Name string
	Expr *hir.Expr
	Span source.Span
}

// Body is the executable result of a hand-written member. Params names the
// parameters visible to Expr besides `this`.
type Body struct {
	Type   types.TypeID
	Name   string
	Kind   decl.MemberKind
	Params []string
	Expr   *hir.Expr
}

// Unit is the bound content of a set of declaration files.
type Unit struct {
	Decls   []Decl
	Samples []Sample
	Uses    []Use
	Bodies  []Body
}

// ThisName is the receiver variable visible inside member bodies.
const ThisName = "this"

type binder struct {
	fs *source.FileSet
	in *types.Interner
	b  types.Builtins
	r  diag.Reporter

	unit  *Unit
	decls map[types.TypeID]int
	// members maps an aggregate to the value types of its components and
	// storage members, for member reads in expressions.
	members map[types.TypeID]map[string]types.TypeID
	bases   map[types.TypeID]types.TypeID
}

// Bind registers every declared type in in and converts the documents into
// declarations and expressions. Binding problems are reported through r;
// offending nodes are skipped.
func Bind(fs *source.FileSet, files []File, in *types.Interner, r diag.Reporter) *Unit {
	if r == nil {
		r = diag.NopReporter{}
	}
	bd := &binder{
		fs:      fs,
		in:      in,
		b:       in.Builtins(),
		r:       r,
		unit:    &Unit{},
		decls:   make(map[types.TypeID]int),
		members: make(map[types.TypeID]map[string]types.TypeID),
		bases:   make(map[types.TypeID]types.TypeID),
	}
	for _, f := range files {
		bd.registerTypes(f)
	}
	for _, f := range files {
		bd.bindTypes(f)
	}
	for _, f := range files {
		bd.bindBodies(f)
	}
	env := make(map[string]types.TypeID)
	for _, f := range files {
		bd.bindSamples(f, env)
	}
	for _, f := range files {
		bd.bindUses(f, env)
	}
	return bd.unit
}

func (bd *binder) span(id source.FileID, p Pos, n int) source.Span {
	return bd.fs.Get(id).SpanAt(p.Line, p.Column, n)
}

func (bd *binder) decodeError(id source.FileID, p Pos, n int, msg string) {
	diag.ReportError(bd.r, diag.IODecodeError, bd.span(id, p, n), msg).Emit()
}

func (bd *binder) unknownType(id source.FileID, p Pos, spelling string, err error) {
	diag.ReportError(bd.r, diag.IOUnknownType, bd.span(id, p, len(spelling)),
		fmt.Sprintf("cannot resolve type '%s': %v", spelling, err)).
		WithArgs(spelling).
		Emit()
}

var plainKinds = map[string]types.Kind{
	"struct":    types.KindStruct,
	"class":     types.KindClass,
	"interface": types.KindInterface,
	"stackonly": types.KindStackOnly,
	"static":    types.KindStatic,
}

// registerTypes is the first pass: every nominal name becomes known before
// any type spelling is resolved.
func (bd *binder) registerTypes(f File) {
	for _, tn := range f.Doc.Types {
		name := source.Ident(tn.Name)
		kind, ok := plainKinds[tn.Kind]
		if !ok {
			bd.decodeError(f.ID, tn.Pos, len(name), fmt.Sprintf("type '%s' has unknown kind %q", name, tn.Kind))
			continue
		}
		value := kind == types.KindStruct || kind == types.KindStackOnly
		if _, err := bd.in.RegisterNominal(kind, types.NominalInfo{Name: name, Value: value, Sealed: value}); err != nil {
			bd.decodeError(f.ID, tn.Pos, len(name), err.Error())
		}
	}
	for _, an := range f.Doc.Aggregates {
		name := source.Ident(an.Name)
		value := len(an.Fragments) > 0 && an.Fragments[0].Kind == "struct"
		id, err := bd.in.RegisterNominal(types.KindAggregate, types.NominalInfo{Name: name, Value: value, Sealed: value})
		if err != nil {
			bd.decodeError(f.ID, an.Pos, len(name), err.Error())
			continue
		}
		if _, seen := bd.decls[id]; !seen {
			bd.decls[id] = len(bd.unit.Decls)
			bd.unit.Decls = append(bd.unit.Decls, Decl{ID: decl.Identity{Name: name, Arity: an.Arity}, Type: id})
			bd.members[id] = make(map[string]types.TypeID)
		}
	}
}

func (bd *binder) resolve(id source.FileID, p Pos, spelling string) (types.TypeID, bool) {
	typ, err := bd.in.Parse(spelling)
	if err != nil {
		bd.unknownType(id, p, spelling, err)
		return types.NoTypeID, false
	}
	return typ, true
}

// bindTypes is the second pass: fields of plain types and the fragments
// of aggregates.
func (bd *binder) bindTypes(f File) {
	for _, tn := range f.Doc.Types {
		typ, ok := bd.in.ByName(source.Ident(tn.Name))
		if !ok {
			continue
		}
		fields := make([]types.Field, 0, len(tn.Fields))
		for _, fn := range tn.Fields {
			ft, ok := bd.resolve(f.ID, fn.Pos, fn.Type)
			if !ok {
				continue
			}
			fields = append(fields, types.Field{Name: source.Ident(fn.Name), Type: ft, Static: fn.Static})
		}
		bd.in.SetFields(typ, fields)
	}
	for _, an := range f.Doc.Aggregates {
		typ, ok := bd.in.ByName(source.Ident(an.Name))
		if !ok {
			continue
		}
		idx, ok := bd.decls[typ]
		if !ok {
			continue
		}
		for i := range an.Fragments {
			frag := bd.fragment(f.ID, typ, &an.Fragments[i])
			bd.unit.Decls[idx].Fragments = append(bd.unit.Decls[idx].Fragments, frag)
		}
	}
}

func (bd *binder) modifiers(id source.FileID, p Pos, words []string) (decl.Modifiers, decl.Accessibility) {
	var mods decl.Modifiers
	access := decl.AccessDefault
	for _, w := range words {
		m, a, ok := decl.ParseModifier(strings.TrimSpace(w))
		if !ok {
			bd.decodeError(id, p, len(w), fmt.Sprintf("unknown modifier %q", w))
			continue
		}
		mods |= m
		if a != decl.AccessDefault {
			access = a
		}
	}
	return mods, access
}

func (bd *binder) fragment(id source.FileID, typ types.TypeID, fn *FragmentNode) decl.Fragment {
	mods, access := bd.modifiers(id, fn.Pos, fn.Modifiers)
	frag := decl.Fragment{
		Mods:   mods,
		Access: access,
		Rep:    decl.RepReference,
		Span:   bd.span(id, fn.Pos, 1),
	}
	switch fn.Kind {
	case "", "class":
	case "struct":
		frag.Rep = decl.RepValue
	default:
		bd.decodeError(id, fn.Pos, 1, fmt.Sprintf("unknown representation %q", fn.Kind))
	}
	if fn.Base != "" {
		if base, ok := bd.resolve(id, fn.BasePos, fn.Base); ok {
			frag.Base = base
			frag.BaseSpan = bd.span(id, fn.BasePos, len(fn.Base))
			if bd.in.Kind(base) == types.KindAggregate {
				if _, set := bd.bases[typ]; !set {
					bd.bases[typ] = base
					bd.in.SetBase(typ, base)
				}
			}
		}
	}
	for _, iface := range fn.Interfaces {
		if it, ok := bd.resolve(id, fn.Pos, iface); ok {
			frag.Interfaces = append(frag.Interfaces, it)
		}
	}
	if fn.Params != nil {
		pl := &decl.ParamList{Params: []decl.Param{}, Span: bd.span(id, fn.ParamsPos, len("params"))}
		for _, pn := range *fn.Params {
			if p, ok := bd.param(id, pn); ok {
				pl.Params = append(pl.Params, p)
				if _, dup := bd.members[typ][p.Name]; !dup {
					bd.members[typ][p.Name] = p.Type
				}
			}
		}
		frag.Params = pl
	}
	for _, mn := range fn.Members {
		m, ok := bd.member(id, mn)
		if !ok {
			continue
		}
		if (m.Kind == decl.MemberField || m.Kind == decl.MemberProperty) && !m.Static() {
			if _, dup := bd.members[typ][m.Name]; !dup {
				bd.members[typ][m.Name] = m.Result
			}
		}
		frag.Members = append(frag.Members, m)
	}
	return frag
}

var passModes = map[string]decl.PassMode{
	"":       decl.PassValue,
	"value":  decl.PassValue,
	"in":     decl.PassIn,
	"ref":    decl.PassRef,
	"out":    decl.PassOut,
	"params": decl.PassParams,
	"this":   decl.PassThis,
}

func (bd *binder) param(id source.FileID, pn ParamNode) (decl.Param, bool) {
	name := source.Ident(pn.Name)
	typ, ok := bd.resolve(id, pn.Pos, pn.Type)
	if !ok {
		return decl.Param{}, false
	}
	mode, ok := passModes[pn.Mode]
	if !ok {
		bd.decodeError(id, pn.Pos, len(name), fmt.Sprintf("parameter '%s' has unknown mode %q", name, pn.Mode))
		return decl.Param{}, false
	}
	p := decl.Param{Name: name, Type: typ, Mode: mode, Span: bd.span(id, pn.Pos, len(name))}
	if pn.Default != nil {
		p.Default, p.HasDefault = *pn.Default, true
	}
	return p, true
}

var memberKinds = map[string]decl.MemberKind{
	"":            decl.MemberMethod,
	"method":      decl.MemberMethod,
	"property":    decl.MemberProperty,
	"field":       decl.MemberField,
	"constructor": decl.MemberConstructor,
	"operator":    decl.MemberOperator,
}

var accessorNames = map[string]decl.Accessors{
	"get":  decl.AccGet,
	"set":  decl.AccSet,
	"init": decl.AccInit,
}

func (bd *binder) member(id source.FileID, mn MemberNode) (decl.Member, bool) {
	name := source.Ident(mn.Name)
	kind, ok := memberKinds[mn.Kind]
	if !ok {
		bd.decodeError(id, mn.Pos, len(name), fmt.Sprintf("member '%s' has unknown kind %q", name, mn.Kind))
		return decl.Member{}, false
	}
	mods, access := bd.modifiers(id, mn.Pos, mn.Modifiers)
	if mn.Access != "" {
		_, a, ok := decl.ParseModifier(mn.Access)
		if !ok || a == decl.AccessDefault {
			bd.decodeError(id, mn.Pos, len(name), fmt.Sprintf("member '%s' has unknown access %q", name, mn.Access))
		} else {
			access = a
		}
	}
	m := decl.Member{
		Name:            name,
		Kind:            kind,
		Access:          access,
		Mods:            mods,
		MutatingGetter:  mn.MutatingGetter,
		Storage:         mn.Storage || kind == decl.MemberField,
		Init:            mn.Init,
		ChainsToPrimary: mn.Chains,
		Span:            bd.span(id, mn.Pos, len(name)),
	}
	if kind == decl.MemberConstructor {
		m.Name = ".ctor"
	}
	switch {
	case mn.Type != "":
		typ, ok := bd.resolve(id, mn.Pos, mn.Type)
		if !ok {
			return decl.Member{}, false
		}
		m.Result = typ
	case kind != decl.MemberConstructor:
		m.Result = bd.b.Void
	}
	for _, pn := range mn.Params {
		p, ok := bd.param(id, pn)
		if !ok {
			return decl.Member{}, false
		}
		m.Params = append(m.Params, p)
	}
	for _, a := range mn.Accessors {
		acc, ok := accessorNames[a]
		if !ok {
			bd.decodeError(id, mn.Pos, len(name), fmt.Sprintf("unknown accessor %q", a))
			continue
		}
		m.Accessors |= acc
	}
	if kind == decl.MemberProperty && m.Accessors == 0 {
		m.Accessors = decl.AccGet
	}
	for _, rd := range mn.Reads {
		m.Reads = append(m.Reads, source.Ident(rd))
	}
	return m, true
}

// memberType finds the value type of name on typ, walking base
// aggregates.
func (bd *binder) memberType(typ types.TypeID, name string) (types.TypeID, bool) {
	for seen := 0; typ != types.NoTypeID && seen < 64; seen++ {
		if members, ok := bd.members[typ]; ok {
			if mt, ok := members[name]; ok {
				return mt, true
			}
			typ = bd.bases[typ]
			continue
		}
		for _, f := range bd.in.Fields(typ) {
			if f.Name == name && !f.Static {
				return f.Type, true
			}
		}
		return types.NoTypeID, false
	}
	return types.NoTypeID, false
}

func (bd *binder) bindBodies(f File) {
	for _, an := range f.Doc.Aggregates {
		typ, ok := bd.in.ByName(source.Ident(an.Name))
		if !ok {
			continue
		}
		for _, fn := range an.Fragments {
			for _, mn := range fn.Members {
				if mn.Body == nil {
					continue
				}
				scope := map[string]types.TypeID{ThisName: typ}
				body := Body{Type: typ, Name: source.Ident(mn.Name), Kind: memberKinds[mn.Kind]}
				if body.Kind == decl.MemberConstructor {
					body.Name = ".ctor"
				}
				for _, pn := range mn.Params {
					pt, err := bd.in.Parse(pn.Type)
					if err != nil {
						continue
					}
					pname := source.Ident(pn.Name)
					scope[pname] = pt
					body.Params = append(body.Params, pname)
				}
				if body.Expr = bd.expr(f.ID, mn.Body, scope); body.Expr != nil {
					bd.unit.Bodies = append(bd.unit.Bodies, body)
				}
			}
		}
	}
}

func (bd *binder) bindSamples(f File, env map[string]types.TypeID) {
	for _, sn := range f.Doc.Samples {
		name := source.Ident(sn.Name)
		typ, ok := bd.resolve(f.ID, sn.Pos, sn.Type)
		if !ok {
			continue
		}
		sp := bd.span(f.ID, sn.Pos, len(name))
		args, ok := bd.exprs(f.ID, sn.Args, env)
		if !ok {
			continue
		}
		bd.unit.Samples = append(bd.unit.Samples, Sample{
			Name: name,
			Type: typ,
			Expr: hir.New(typ, types.Label(bd.in, typ), sp, args...),
			Span: sp,
		})
		env[name] = typ
	}
}

func (bd *binder) bindUses(f File, env map[string]types.TypeID) {
	for i, un := range f.Doc.Uses {
		name := un.Name
		if name == "" {
			name = fmt.Sprintf("use%d", i+1)
		}
		src := bd.expr(f.ID, &un.Source, env)
		if src == nil {
			continue
		}
		patches := make([]hir.Patch, 0, len(un.With))
		ok := true
		for _, pn := range un.With {
			member := source.Ident(pn.Member)
			val := bd.expr(f.ID, &pn.Value, env)
			if val == nil {
				ok = false
				continue
			}
			patches = append(patches, hir.Patch{Member: member, Value: val, Span: bd.span(f.ID, pn.Pos, len(member))})
		}
		if !ok {
			continue
		}
		sp := bd.span(f.ID, un.Pos, len(name))
		bd.unit.Uses = append(bd.unit.Uses, Use{Name: name, Expr: hir.With(src, sp, patches...), Span: sp})
	}
}

func (bd *binder) exprs(id source.FileID, ns []ExprNode, scope map[string]types.TypeID) ([]*hir.Expr, bool) {
	out := make([]*hir.Expr, 0, len(ns))
	for i := range ns {
		e := bd.expr(id, &ns[i], scope)
		if e == nil {
			return nil, false
		}
		out = append(out, e)
	}
	return out, true
}

// expr binds n against scope; nil means a diagnostic was reported.
func (bd *binder) expr(id source.FileID, n *ExprNode, scope map[string]types.TypeID) *hir.Expr {
	sp := bd.span(id, n.Pos, 1)
	switch {
	case n.Int != nil:
		return hir.Int(bd.b.Int, *n.Int, sp)
	case n.Float != nil:
		return &hir.Expr{Kind: hir.ExprLiteral, Type: bd.b.Float, Span: sp,
			Data: hir.LiteralData{Kind: hir.LiteralFloat, FloatValue: *n.Float}}
	case n.Bool != nil:
		return &hir.Expr{Kind: hir.ExprLiteral, Type: bd.b.Bool, Span: sp,
			Data: hir.LiteralData{Kind: hir.LiteralBool, BoolValue: *n.Bool}}
	case n.String != nil:
		return hir.String(bd.b.String, *n.String, sp)
	case n.Null:
		return &hir.Expr{Kind: hir.ExprLiteral, Type: bd.b.Object, Span: sp,
			Data: hir.LiteralData{Kind: hir.LiteralNull}}
	case n.Var != "":
		name := source.Ident(n.Var)
		typ, ok := scope[name]
		if !ok {
			diag.ReportError(bd.r, diag.IOUnknownType, bd.span(id, n.Pos, len(name)),
				fmt.Sprintf("undefined name '%s'", name)).
				WithArgs(name).
				Emit()
			return nil
		}
		return hir.Var(typ, name, bd.span(id, n.Pos, len(name)))
	case n.Field != "":
		if n.Of == nil {
			bd.decodeError(id, n.Pos, len(n.Field), fmt.Sprintf("member read '%s' has no object", n.Field))
			return nil
		}
		obj := bd.expr(id, n.Of, scope)
		if obj == nil {
			return nil
		}
		name := source.Ident(n.Field)
		typ, ok := bd.memberType(obj.Type, name)
		if !ok {
			diag.ReportError(bd.r, diag.IOUnknownType, bd.span(id, n.Pos, len(name)),
				fmt.Sprintf("'%s' has no member '%s'", types.Label(bd.in, obj.Type), name)).
				WithArgs(types.Label(bd.in, obj.Type), name).
				Emit()
			return nil
		}
		return hir.Field(typ, obj, name, bd.span(id, n.Pos, len(name)))
	case n.Call != "":
		args, ok := bd.exprs(id, n.Args, scope)
		if !ok {
			return nil
		}
		typ := bd.b.Object
		switch {
		case n.Type != "":
			if typ, ok = bd.resolve(id, n.Pos, n.Type); !ok {
				return nil
			}
		case len(args) > 0:
			typ = args[0].Type
		}
		return hir.Call(typ, n.Call, bd.span(id, n.Pos, len(n.Call)), args...)
	case n.New != "":
		typ, ok := bd.resolve(id, n.Pos, n.New)
		if !ok {
			return nil
		}
		args, ok := bd.exprs(id, n.Args, scope)
		if !ok {
			return nil
		}
		return hir.New(typ, types.Label(bd.in, typ), bd.span(id, n.Pos, len(n.New)), args...)
	}
	bd.decodeError(id, n.Pos, 1, errEmptyExpr.Error())
	return nil
}
