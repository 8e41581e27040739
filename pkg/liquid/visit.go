package liquid

import (
	"bytes"
	"fmt"
	"strings"
)

// Visitor is called for every node by Walk.
type Visitor interface {
	Visit(n Node) error
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(n Node) error

// Visit implements Visitor.
func (f VisitorFunc) Visit(n Node) error { return f(n) }

// Walk visits n and then, depth first, every node in its blocks.
func Walk(v Visitor, n Node) error {
	if err := v.Visit(n); err != nil {
		return err
	}
	p, ok := n.(Parent)
	if !ok {
		return nil
	}
	for _, block := range p.Children() {
		for _, c := range block {
			if err := Walk(v, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pretty returns a line-oriented string representation of the tree.
func Pretty(doc *Document) string {
	var buf bytes.Buffer
	buf.WriteString("Document\n")
	for _, n := range doc.Nodes {
		ppNode(&buf, 2, n)
	}
	return buf.String()
}

func ppNode(buf *bytes.Buffer, indent int, n Node) {
	buf.WriteString(strings.Repeat(" ", indent))
	switch t := n.(type) {
	case *TextNode:
		fmt.Fprintf(buf, "Text(%q)\n", t.Text)
	case *RawNode:
		fmt.Fprintf(buf, "Raw(%q)\n", t.Text)
	case *OutputNode:
		fmt.Fprintf(buf, "Output(%s)\n", t.Expr)
	case *EchoNode:
		fmt.Fprintf(buf, "Echo(%s)\n", t.Expr)
	case *AssignNode:
		fmt.Fprintf(buf, "Assign(%s = %s)\n", t.Name, t.Expr)
	case *CaptureNode:
		fmt.Fprintf(buf, "Capture(%s)\n", t.Name)
	case *IfNode:
		kw := "If"
		if t.Negate {
			kw = "Unless"
		}
		for i, b := range t.Branches {
			if i > 0 {
				buf.WriteString(strings.Repeat(" ", indent))
				kw = "Elsif"
			}
			fmt.Fprintf(buf, "%s(%s)\n", kw, b.Condition)
			for _, c := range b.Body {
				ppNode(buf, indent+2, c)
			}
		}
		ppElse(buf, indent, t.Else)
		return
	case *ForNode:
		fmt.Fprintf(buf, "For(%s in %s)\n", t.Target, t.Collection)
		for _, c := range t.Body {
			ppNode(buf, indent+2, c)
		}
		ppElse(buf, indent, t.Else)
		return
	case *IncludeNode:
		fmt.Fprintf(buf, "Include(%s)\n", t.Template)
	case *BreakNode:
		buf.WriteString("Break\n")
	case *ContinueNode:
		buf.WriteString("Continue\n")
	case fmt.Stringer:
		fmt.Fprintf(buf, "%s\n", t)
	default:
		fmt.Fprintf(buf, "%T\n", n)
	}
	if p, ok := n.(Parent); ok {
		for _, block := range p.Children() {
			for _, c := range block {
				ppNode(buf, indent+2, c)
			}
		}
	}
}

func ppElse(buf *bytes.Buffer, indent int, nodes []Node) {
	if len(nodes) == 0 {
		return
	}
	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("Else\n")
	for _, c := range nodes {
		ppNode(buf, indent+2, c)
	}
}
