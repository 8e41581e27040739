package liquid

import (
	"bytes"

	"github.com/jg-rp/liquid-extra/pkg/expression"
)

// Node is any AST node in a parsed Liquid template. Nodes are immutable
// after parsing; all render state lives in the Context.
type Node interface {
	Render(ctx *Context, buf *bytes.Buffer) error
	Line() int
}

// Parent is implemented by nodes that contain blocks of other nodes.
type Parent interface {
	Children() [][]Node
}

// Pos is the line a node starts on. Nodes embed it.
type Pos int

// Line implements Node.
func (p Pos) Line() int { return int(p) }

// Document is the root node produced by parsing.
type Document struct {
	Nodes []Node
}

// TextNode is literal text between delimiters.
type TextNode struct {
	Pos
	Text string
}

// OutputNode is an output statement: {{ expr }}.
type OutputNode struct {
	Pos
	Expr expression.Expression
}

// RawNode is the body of {% raw %}...{% endraw %}.
type RawNode struct {
	Pos
	Text string
}

// AssignNode is {% assign name = expr %}.
type AssignNode struct {
	Pos
	Name string
	Expr expression.Expression
}

// EchoNode is {% echo expr %}.
type EchoNode struct {
	Pos
	Expr expression.Expression
}

// CaptureNode is {% capture name %}...{% endcapture %}.
type CaptureNode struct {
	Pos
	Name string
	Body []Node
}

// ConditionalBranch is one guarded block of an if or unless tag.
type ConditionalBranch struct {
	Condition expression.Expression
	Body      []Node
}

// IfNode is if/elsif/else/endif, or unless when Negate is set. Negate
// applies to the first branch only.
type IfNode struct {
	Pos
	Negate   bool
	Branches []ConditionalBranch
	Else     []Node
}

// ForNode is {% for target in collection %}...{% else %}...{% endfor %}.
type ForNode struct {
	Pos
	Target     string
	Collection expression.Expression
	Limit      expression.Expression
	Offset     expression.Expression
	Reversed   bool
	Body       []Node
	Else       []Node
}

// BreakNode is {% break %}.
type BreakNode struct{ Pos }

// ContinueNode is {% continue %}.
type ContinueNode struct{ Pos }

// IncludeNode renders another template in the current context.
type IncludeNode struct {
	Pos
	Template  expression.Expression
	Arguments *expression.Arguments
}

// Children implements Parent.
func (n *CaptureNode) Children() [][]Node { return [][]Node{n.Body} }

// Children implements Parent.
func (n *IfNode) Children() [][]Node {
	out := make([][]Node, 0, len(n.Branches)+1)
	for _, b := range n.Branches {
		out = append(out, b.Body)
	}
	return append(out, n.Else)
}

// Children implements Parent.
func (n *ForNode) Children() [][]Node { return [][]Node{n.Body, n.Else} }
