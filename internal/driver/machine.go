package driver

import (
	"fmt"
	"strings"

	"aggsynth/internal/declfile"
	"aggsynth/internal/eval"
)

// Outcome is the evaluated value of one sample or use.
type Outcome struct {
	Name  string
	Use   bool
	Value eval.Value
	Text  string
	Err   error
}

// Machine returns an evaluator over the published table with every
// hand-written body of the documents bound, plus the builtins concat and
// hash.
func (r *Result) Machine() *eval.Machine {
	m := eval.New(r.Types, r.Table)
	for _, b := range r.Unit.Bodies {
		body := b
		fn := func(m *eval.Machine, self eval.Value, args []eval.Value) (eval.Value, error) {
			env := eval.Env{declfile.ThisName: self}
			for i, p := range body.Params {
				if i < len(args) {
					env[p] = args[i]
				}
			}
			v, err := m.Eval(body.Expr, env)
			if err != nil || body.Name != eval.CtorName {
				return v, err
			}
			// a constructor body yields the instance to initialize from
			if v.Obj != nil && self.Obj != nil {
				for k, fv := range v.Obj.Fields {
					self.Obj.Fields[k] = fv
				}
			}
			return eval.Null(), nil
		}
		m.Bind(body.Type, body.Name, len(body.Params), fn)
	}
	m.BindFunc("concat", func(args []eval.Value) (eval.Value, error) {
		var sb strings.Builder
		for _, a := range args {
			s, err := render(m, a)
			if err != nil {
				return eval.Null(), err
			}
			sb.WriteString(s)
		}
		return eval.Str(sb.String()), nil
	})
	m.BindFunc("hash", func(args []eval.Value) (eval.Value, error) {
		if len(args) != 1 {
			return eval.Null(), fmt.Errorf("hash: expected 1 argument, got %d", len(args))
		}
		h, err := m.HashValue(args[0])
		return eval.Int(int64(h)), err
	})
	return m
}

// Evaluate constructs every sample, in document order so later samples
// may refer to earlier ones, then runs every lowered use against them.
func (r *Result) Evaluate() []Outcome {
	m := r.Machine()
	env := eval.Env{}
	out := make([]Outcome, 0, len(r.Unit.Samples)+len(r.Unit.Uses))
	for _, s := range r.Unit.Samples {
		o := Outcome{Name: s.Name}
		o.Value, o.Err = m.Eval(s.Expr, env)
		if o.Err == nil {
			env[s.Name] = o.Value
			o.Text, o.Err = render(m, o.Value)
		}
		out = append(out, o)
	}
	for i, u := range r.Unit.Uses {
		o := Outcome{Name: u.Name, Use: true}
		if i < len(r.Programs) && r.Programs[i] != nil {
			o.Value, o.Err = m.Run(r.Programs[i], env)
		} else {
			o.Err = eval.ErrLowering
		}
		if o.Err == nil {
			o.Text, o.Err = render(m, o.Value)
		}
		out = append(out, o)
	}
	return out
}

func render(m *eval.Machine, v eval.Value) (string, error) {
	if v.Kind != eval.KindObject || v.Obj.Set == nil {
		return v.String(), nil
	}
	return m.ToString(v)
}
