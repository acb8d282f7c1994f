package eval

import (
	"errors"
	"fmt"

	"aggsynth/internal/diag"
	"aggsynth/internal/hir"
	"aggsynth/internal/lower"
	"aggsynth/internal/types"
)

// ErrLowering is returned when an update expression fails to lower.
var ErrLowering = errors.New("update expression rejected")

// Env binds variable names to values.
type Env map[string]Value

// Eval evaluates e in env.
func (m *Machine) Eval(e *hir.Expr, env Env) (Value, error) {
	if e == nil {
		return Null(), errors.New("nil expression")
	}
	switch data := e.Data.(type) {
	case hir.LiteralData:
		return m.literal(e.Type, data), nil
	case hir.VarRefData:
		v, ok := env[data.Name]
		if !ok {
			return Null(), fmt.Errorf("undefined variable %q", data.Name)
		}
		return v, nil
	case hir.FieldAccessData:
		obj, err := m.Eval(data.Object, env)
		if err != nil {
			return Null(), err
		}
		return m.Get(obj, data.FieldName)
	case hir.CallData:
		fn, ok := m.funcs[data.Name]
		if !ok {
			return Null(), fmt.Errorf("undefined function %q", data.Name)
		}
		args, err := m.evalArgs(data.Args, env)
		if err != nil {
			return Null(), err
		}
		return fn(args)
	case hir.NewData:
		args, err := m.evalArgs(data.Args, env)
		if err != nil {
			return Null(), err
		}
		return m.Construct(data.TypeID, args...)
	case hir.WithData:
		bag := diag.NewBag(16)
		prog, ok := lower.With(e, lower.Options{Types: m.Types, Table: m.Table, Reporter: &diag.BagReporter{Bag: bag}})
		if !ok {
			return Null(), loweringError(bag)
		}
		return m.Run(prog, env)
	}
	return Null(), fmt.Errorf("unsupported expression %s", e.Kind)
}

func loweringError(bag *diag.Bag) error {
	if bag.Len() == 0 {
		return ErrLowering
	}
	d := bag.Items()[0]
	return fmt.Errorf("%w: %s: %s", ErrLowering, d.Code.ID(), d.Message)
}

func (m *Machine) evalArgs(args []*hir.Expr, env Env) ([]Value, error) {
	out := make([]Value, 0, len(args))
	for _, a := range args {
		v, err := m.Eval(a, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *Machine) literal(typ types.TypeID, lit hir.LiteralData) Value {
	switch lit.Kind {
	case hir.LiteralInt:
		switch m.Types.Kind(typ) {
		case types.KindLong:
			return Long(lit.IntValue)
		case types.KindFloat:
			return Float(float64(lit.IntValue))
		case types.KindChar:
			return Char(rune(lit.IntValue))
		}
		return Int(lit.IntValue)
	case hir.LiteralFloat:
		return Float(lit.FloatValue)
	case hir.LiteralBool:
		return Bool(lit.BoolValue)
	case hir.LiteralString:
		return Str(lit.StringValue)
	}
	return Null()
}

// Run executes a lowered update program. The source is evaluated exactly
// once; patch values are evaluated in env, so they observe the original
// source rather than the partially patched copy.
func (m *Machine) Run(p *lower.Program, env Env) (Value, error) {
	if p == nil {
		return Null(), ErrLowering
	}
	temps := make([]Value, max(p.Temps, 2))
	for _, op := range p.Ops {
		switch op.Kind {
		case lower.OpEvalSource:
			v, err := m.Eval(op.Value, env)
			if err != nil {
				return Null(), err
			}
			temps[op.Dst] = v
		case lower.OpCopy, lower.OpClone:
			v, err := m.Clone(temps[op.Src])
			if err != nil {
				return Null(), err
			}
			temps[op.Dst] = v
		case lower.OpAssign:
			v, err := m.Eval(op.Value, env)
			if err != nil {
				return Null(), err
			}
			if err := m.Set(temps[op.Dst], op.Member, v); err != nil {
				return Null(), err
			}
		case lower.OpResult:
			return temps[op.Src], nil
		}
	}
	return Null(), errors.New("program has no result")
}
