// Package declfile reads declaration documents: YAML files describing
// nominal types, aggregate fragments, sample instances and update
// expressions. Every node keeps its line and column so diagnostics point
// back into the document.
package declfile

import (
	"gopkg.in/yaml.v3"
)

// Pos is the 1-based position of a YAML node.
type Pos struct {
	Line   int
	Column int
}

func posOf(node *yaml.Node) Pos {
	return Pos{Line: node.Line, Column: node.Column}
}

// Document is one decoded declaration file.
type Document struct {
	Types      []TypeNode      `yaml:"types"`
	Aggregates []AggregateNode `yaml:"aggregates"`
	Samples    []SampleNode    `yaml:"samples"`
	Uses       []UseNode       `yaml:"uses"`
}

// TypeNode declares a plain nominal type.
type TypeNode struct {
	Name   string      `yaml:"name"`
	Kind   string      `yaml:"kind"` // struct, class, interface, stackonly, static
	Fields []FieldNode `yaml:"fields"`
	Pos    Pos         `yaml:"-"`
}

func (n *TypeNode) UnmarshalYAML(node *yaml.Node) error {
	type plain TypeNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = TypeNode(p)
	n.Pos = posOf(node)
	return nil
}

// FieldNode is one storage slot of a plain type.
type FieldNode struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Static bool   `yaml:"static"`
	Pos    Pos    `yaml:"-"`
}

func (n *FieldNode) UnmarshalYAML(node *yaml.Node) error {
	type plain FieldNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = FieldNode(p)
	n.Pos = posOf(node)
	return nil
}

// AggregateNode groups the fragments of one aggregate written in a file.
// Fragments of the same name in other files are merged with these.
type AggregateNode struct {
	Name      string         `yaml:"name"`
	Arity     int            `yaml:"arity"`
	Fragments []FragmentNode `yaml:"fragments"`
	Pos       Pos            `yaml:"-"`
}

func (n *AggregateNode) UnmarshalYAML(node *yaml.Node) error {
	type plain AggregateNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = AggregateNode(p)
	n.Pos = posOf(node)
	return nil
}

// FragmentNode is one partial declaration.
type FragmentNode struct {
	Kind       string       `yaml:"kind"` // class (default) or struct
	Modifiers  []string     `yaml:"modifiers"`
	Base       string       `yaml:"base"`
	Interfaces []string     `yaml:"interfaces"`
	Params     *[]ParamNode `yaml:"params"`
	Members    []MemberNode `yaml:"members"`
	Pos        Pos          `yaml:"-"`
	BasePos    Pos          `yaml:"-"`
	ParamsPos  Pos          `yaml:"-"`
}

func (n *FragmentNode) UnmarshalYAML(node *yaml.Node) error {
	type plain FragmentNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = FragmentNode(p)
	n.Pos = posOf(node)
	n.BasePos, n.ParamsPos = n.Pos, n.Pos
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "base":
			n.BasePos = posOf(node.Content[i+1])
		case "params":
			n.ParamsPos = posOf(node.Content[i])
		}
	}
	return nil
}

// ParamNode is a positional or member parameter.
type ParamNode struct {
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
	Mode    string  `yaml:"mode"`
	Default *string `yaml:"default"`
	Pos     Pos     `yaml:"-"`
}

func (n *ParamNode) UnmarshalYAML(node *yaml.Node) error {
	type plain ParamNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = ParamNode(p)
	n.Pos = posOf(node)
	return nil
}

// MemberNode is a hand-written member candidate.
type MemberNode struct {
	Name           string      `yaml:"name"`
	Kind           string      `yaml:"kind"` // method, property, field, constructor, operator
	Params         []ParamNode `yaml:"params"`
	Type           string      `yaml:"type"` // result or value type
	Access         string      `yaml:"access"`
	Modifiers      []string    `yaml:"modifiers"`
	Accessors      []string    `yaml:"accessors"`
	MutatingGetter bool        `yaml:"mutating_getter"`
	Storage        bool        `yaml:"storage"`
	Init           string      `yaml:"init"`
	Chains         bool        `yaml:"chains"`
	Reads          []string    `yaml:"reads"`
	// Body is the expression a hand-written member evaluates to when
	// executed by the evaluator. `this` names the receiver.
	Body *ExprNode `yaml:"body"`
	Pos  Pos       `yaml:"-"`
}

func (n *MemberNode) UnmarshalYAML(node *yaml.Node) error {
	type plain MemberNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = MemberNode(p)
	n.Pos = posOf(node)
	return nil
}

// SampleNode constructs a named instance through the primary constructor.
type SampleNode struct {
	Name string     `yaml:"name"`
	Type string     `yaml:"type"`
	Args []ExprNode `yaml:"args"`
	Pos  Pos        `yaml:"-"`
}

func (n *SampleNode) UnmarshalYAML(node *yaml.Node) error {
	type plain SampleNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = SampleNode(p)
	n.Pos = posOf(node)
	return nil
}

// UseNode is an update expression `source with { patches }`.
type UseNode struct {
	Name   string      `yaml:"name"`
	Source ExprNode    `yaml:"source"`
	With   []PatchNode `yaml:"with"`
	Pos    Pos         `yaml:"-"`
}

func (n *UseNode) UnmarshalYAML(node *yaml.Node) error {
	type plain UseNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = UseNode(p)
	n.Pos = posOf(node)
	return nil
}

// PatchNode is one `member = value` entry.
type PatchNode struct {
	Member string   `yaml:"member"`
	Value  ExprNode `yaml:"value"`
	Pos    Pos      `yaml:"-"`
}

func (n *PatchNode) UnmarshalYAML(node *yaml.Node) error {
	type plain PatchNode
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = PatchNode(p)
	n.Pos = posOf(node)
	return nil
}
