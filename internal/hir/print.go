package hir

import (
	"strconv"
	"strings"
)

// String renders the expression in source-like syntax.
func (e *Expr) String() string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e *Expr) {
	if e == nil {
		sb.WriteString("<nil>")
		return
	}
	switch data := e.Data.(type) {
	case LiteralData:
		writeLiteral(sb, data)
	case VarRefData:
		sb.WriteString(data.Name)
	case FieldAccessData:
		writeExpr(sb, data.Object)
		sb.WriteByte('.')
		sb.WriteString(data.FieldName)
	case CallData:
		sb.WriteString(data.Name)
		writeArgs(sb, data.Args)
	case NewData:
		sb.WriteString("new ")
		sb.WriteString(data.TypeName)
		writeArgs(sb, data.Args)
	case WithData:
		writeExpr(sb, data.Source)
		sb.WriteString(" with {")
		for i, p := range data.Patches {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte(' ')
			sb.WriteString(p.Member)
			sb.WriteString(" = ")
			writeExpr(sb, p.Value)
		}
		if len(data.Patches) > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('}')
	default:
		sb.WriteString(e.Kind.String())
	}
}

func writeArgs(sb *strings.Builder, args []*Expr) {
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeExpr(sb, a)
	}
	sb.WriteByte(')')
}

func writeLiteral(sb *strings.Builder, lit LiteralData) {
	if lit.Text != "" {
		sb.WriteString(lit.Text)
		return
	}
	switch lit.Kind {
	case LiteralInt:
		sb.WriteString(strconv.FormatInt(lit.IntValue, 10))
	case LiteralFloat:
		sb.WriteString(strconv.FormatFloat(lit.FloatValue, 'g', -1, 64))
	case LiteralBool:
		sb.WriteString(strconv.FormatBool(lit.BoolValue))
	case LiteralString:
		sb.WriteString(strconv.Quote(lit.StringValue))
	case LiteralNull:
		sb.WriteString("null")
	}
}
