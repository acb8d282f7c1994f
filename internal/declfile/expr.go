package declfile

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ExprNode is an expression written as a one-key mapping:
//
//	{int: 1}  {float: 2.5}  {bool: true}  {string: "a"}  {null: ~}
//	{var: p}  {field: X, of: {var: p}}
//	{call: probe, args: [...], type: int}  {new: Point, args: [...]}
//
// A bare scalar is shorthand for a variable reference. A call without a
// type has the type of its first argument.
type ExprNode struct {
	Int    *int64     `yaml:"int"`
	Float  *float64   `yaml:"float"`
	Bool   *bool      `yaml:"bool"`
	String *string    `yaml:"string"`
	Null   bool       `yaml:"-"`
	Var    string     `yaml:"var"`
	Field  string     `yaml:"field"`
	Of     *ExprNode  `yaml:"of"`
	Call   string     `yaml:"call"`
	New    string     `yaml:"new"`
	Type   string     `yaml:"type"`
	Args   []ExprNode `yaml:"args"`
	Pos    Pos        `yaml:"-"`
}

var errEmptyExpr = errors.New("expression has no form")

func (n *ExprNode) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*n = ExprNode{Var: node.Value, Pos: posOf(node)}
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expression must be a mapping", node.Line)
	}
	type plain ExprNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = ExprNode(p)
	n.Pos = posOf(node)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "null" {
			n.Null = true
		}
	}
	if n.forms() != 1 {
		return fmt.Errorf("line %d: %w (or more than one)", node.Line, errEmptyExpr)
	}
	return nil
}

func (n *ExprNode) forms() int {
	count := 0
	for _, set := range []bool{
		n.Int != nil, n.Float != nil, n.Bool != nil, n.String != nil, n.Null,
		n.Var != "", n.Field != "", n.Call != "", n.New != "",
	} {
		if set {
			count++
		}
	}
	return count
}
