// Package hir holds the typed expression tree handed over by the type
// checker at update-expression use sites.
package hir

import (
	"aggsynth/internal/source"
	"aggsynth/internal/types"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	// ExprLiteral represents literals (int, float, bool, string, null).
	ExprLiteral ExprKind = iota
	// ExprVarRef represents a variable reference.
	ExprVarRef
	// ExprFieldAccess reads a member through its accessor (expr.member).
	ExprFieldAccess
	// ExprCall calls a host function by name.
	ExprCall
	// ExprNew constructs an aggregate through its primary constructor.
	ExprNew
	// ExprWith is a non-destructive update (expr with { m = v, ... }).
	ExprWith
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVarRef:
		return "VarRef"
	case ExprFieldAccess:
		return "FieldAccess"
	case ExprCall:
		return "Call"
	case ExprNew:
		return "New"
	case ExprWith:
		return "With"
	default:
		return "Unknown"
	}
}

// Expr represents an expression with type information.
type Expr struct {
	Kind ExprKind
	Type types.TypeID // static type
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal value kinds.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralBool
	LiteralString
	LiteralNull
)

// LiteralData holds data for ExprLiteral.
type LiteralData struct {
	Kind        LiteralKind
	Text        string
	IntValue    int64
	FloatValue  float64
	BoolValue   bool
	StringValue string
}

func (LiteralData) exprData() {}

// VarRefData holds data for ExprVarRef.
type VarRefData struct {
	Name string
}

func (VarRefData) exprData() {}

// FieldAccessData holds data for ExprFieldAccess.
type FieldAccessData struct {
	Object    *Expr
	FieldName string
}

func (FieldAccessData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Name string
	Args []*Expr
}

func (CallData) exprData() {}

// NewData holds data for ExprNew.
type NewData struct {
	TypeName string
	TypeID   types.TypeID
	Args     []*Expr
}

func (NewData) exprData() {}

// Patch is one `member = value` entry of an update expression.
type Patch struct {
	Member string
	Value  *Expr
	Span   source.Span
}

// WithData holds data for ExprWith. Patches keep the order written at the
// use site.
type WithData struct {
	Source  *Expr
	Patches []Patch
}

func (WithData) exprData() {}

// Helpers for building expressions.

// Int builds an int literal.
func Int(typ types.TypeID, v int64, sp source.Span) *Expr {
	return &Expr{Kind: ExprLiteral, Type: typ, Span: sp, Data: LiteralData{Kind: LiteralInt, IntValue: v}}
}

// String builds a string literal.
func String(typ types.TypeID, v string, sp source.Span) *Expr {
	return &Expr{Kind: ExprLiteral, Type: typ, Span: sp, Data: LiteralData{Kind: LiteralString, StringValue: v}}
}

// Var builds a variable reference.
func Var(typ types.TypeID, name string, sp source.Span) *Expr {
	return &Expr{Kind: ExprVarRef, Type: typ, Span: sp, Data: VarRefData{Name: name}}
}

// Call builds a host call.
func Call(typ types.TypeID, name string, sp source.Span, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Type: typ, Span: sp, Data: CallData{Name: name, Args: args}}
}

// New builds a primary-constructor call.
func New(typ types.TypeID, name string, sp source.Span, args ...*Expr) *Expr {
	return &Expr{Kind: ExprNew, Type: typ, Span: sp, Data: NewData{TypeName: name, TypeID: typ, Args: args}}
}

// With builds an update expression of the source's static type.
func With(src *Expr, sp source.Span, patches ...Patch) *Expr {
	return &Expr{Kind: ExprWith, Type: src.Type, Span: sp, Data: WithData{Source: src, Patches: patches}}
}

// Field builds a member read.
func Field(typ types.TypeID, obj *Expr, name string, sp source.Span) *Expr {
	return &Expr{Kind: ExprFieldAccess, Type: typ, Span: sp, Data: FieldAccessData{Object: obj, FieldName: name}}
}
