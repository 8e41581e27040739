package liquid

import (
	"fmt"
	"strings"

	"github.com/jg-rp/liquid-extra/pkg/expression"
)

// ExpressionParser parses tag markup into an expression.
type ExpressionParser func(src string) (expression.Expression, error)

// BooleanCondition parses a plain if or unless condition.
func BooleanCondition(src string) (expression.Expression, error) {
	b, err := expression.ParseBooleanCondition(src)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type tagFunc struct {
	name  string
	parse func(p *Parser, m Markup) (Node, error)
}

func (t tagFunc) Name() string                            { return t.name }
func (t tagFunc) Parse(p *Parser, m Markup) (Node, error) { return t.parse(p, m) }

// NewTag makes a Tag from a parse function.
func NewTag(name string, parse func(p *Parser, m Markup) (Node, error)) Tag {
	return tagFunc{name: name, parse: parse}
}

func builtinTags() []Tag {
	return []Tag{
		&IfTag{TagName: "if", Condition: BooleanCondition},
		&IfTag{TagName: "unless", Condition: BooleanCondition},
		&AssignTag{Expression: FilteredOutput},
		&EchoTag{Expression: FilteredOutput},
		NewTag("for", parseFor),
		NewTag("capture", parseCapture),
		NewTag("raw", parseRaw),
		NewTag("comment", parseComment),
		NewTag("include", parseInclude),
		NewTag("break", func(_ *Parser, m Markup) (Node, error) { return &BreakNode{Pos: Pos(m.Line)}, nil }),
		NewTag("continue", func(_ *Parser, m Markup) (Node, error) { return &ContinueNode{Pos: Pos(m.Line)}, nil }),
	}
}

// IfTag parses if/elsif/else blocks, or unless blocks when TagName is
// "unless". Condition parses the markup of the tag and of every elsif.
type IfTag struct {
	TagName   string
	Condition ExpressionParser
}

// Name implements Tag.
func (t *IfTag) Name() string { return t.TagName }

// Parse implements Tag.
func (t *IfTag) Parse(p *Parser, m Markup) (Node, error) {
	end := "end" + t.TagName
	cond, err := t.Condition(m.Args)
	if err != nil {
		return nil, err
	}
	n := &IfNode{Pos: Pos(m.Line), Negate: t.TagName == "unless"}
	for {
		body, next, err := p.ParseBlock("elsif", "else", end)
		if err != nil {
			return nil, err
		}
		n.Branches = append(n.Branches, ConditionalBranch{Condition: cond, Body: body})
		switch next.Name {
		case "elsif":
			if cond, err = t.Condition(next.Args); err != nil {
				return nil, p.wrap(err, next.Line)
			}
		case "else":
			if n.Else, _, err = p.ParseBlock(end); err != nil {
				return nil, err
			}
			return n, nil
		default:
			return n, nil
		}
	}
}

// AssignTag parses {% assign name = expression %}.
type AssignTag struct {
	Expression ExpressionParser
}

// Name implements Tag.
func (t *AssignTag) Name() string { return "assign" }

// Parse implements Tag.
func (t *AssignTag) Parse(_ *Parser, m Markup) (Node, error) {
	name, src, ok := strings.Cut(m.Args, "=")
	name = strings.TrimSpace(name)
	if !ok || !isName(name) {
		return nil, fmt.Errorf("invalid assign, expected 'name = expression': %q", m.Args)
	}
	expr, err := t.Expression(strings.TrimSpace(src))
	if err != nil {
		return nil, err
	}
	return &AssignNode{Pos: Pos(m.Line), Name: name, Expr: expr}, nil
}

// EchoTag parses {% echo expression %}.
type EchoTag struct {
	Expression ExpressionParser
}

// Name implements Tag.
func (t *EchoTag) Name() string { return "echo" }

// Parse implements Tag.
func (t *EchoTag) Parse(_ *Parser, m Markup) (Node, error) {
	expr, err := t.Expression(m.Args)
	if err != nil {
		return nil, err
	}
	return &EchoNode{Pos: Pos(m.Line), Expr: expr}, nil
}

func isName(s string) bool {
	toks := expression.ArgumentsLexer.Tokens(s)
	return len(toks) == 1 && toks[0].Kind == expression.KindIdentifier
}

// parseFor parses "target in collection" followed by any of reversed,
// limit: n and offset: n.
func parseFor(p *Parser, m Markup) (Node, error) {
	target, rest, ok := strings.Cut(m.Args, " in ")
	target = strings.TrimSpace(target)
	if !ok || !isName(target) {
		return nil, fmt.Errorf("invalid for, expected 'target in collection': %q", m.Args)
	}

	s := expression.NewTokenStream(expression.FilteredLexer.Scan(rest))
	coll, err := expression.DefaultParser.ParseExpression(s, expression.PrecedenceLowest)
	if err != nil {
		return nil, err
	}
	n := &ForNode{Pos: Pos(m.Line), Target: target, Collection: coll}
	for s.Current().Kind != expression.KindEOF {
		tok, err := s.Consume(expression.KindIdentifier)
		if err != nil {
			return nil, err
		}
		switch tok.Value {
		case "reversed":
			n.Reversed = true
		case "limit", "offset":
			if _, err := s.Consume(expression.KindColon); err != nil {
				return nil, err
			}
			arg, err := expression.DefaultParser.ParseExpression(s, expression.PrecedenceLowest)
			if err != nil {
				return nil, err
			}
			if tok.Value == "limit" {
				n.Limit = arg
			} else {
				n.Offset = arg
			}
		default:
			return nil, expression.NewUnexpectedTokenError(tok)
		}
		if s.Current().Kind == expression.KindComma {
			s.Next()
		}
	}

	body, end, err := p.ParseBlock("else", "endfor")
	if err != nil {
		return nil, err
	}
	n.Body = body
	if end.Name == "else" {
		if n.Else, _, err = p.ParseBlock("endfor"); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func parseCapture(p *Parser, m Markup) (Node, error) {
	if !isName(m.Args) {
		return nil, fmt.Errorf("invalid capture, expected a variable name: %q", m.Args)
	}
	body, _, err := p.ParseBlock("endcapture")
	if err != nil {
		return nil, err
	}
	return &CaptureNode{Pos: Pos(m.Line), Name: m.Args, Body: body}, nil
}

func parseRaw(p *Parser, m Markup) (Node, error) {
	text, err := p.ReadRaw("endraw", m.Line)
	if err != nil {
		return nil, err
	}
	return &RawNode{Pos: Pos(m.Line), Text: text}, nil
}

func parseComment(p *Parser, m Markup) (Node, error) {
	_, err := p.ReadRaw("endcomment", m.Line)
	return nil, err
}

// parseInclude parses a template name followed by optional keyword
// arguments: {% include 'name', key: value %}.
func parseInclude(_ *Parser, m Markup) (Node, error) {
	s := expression.NewTokenStream(expression.ArgumentsLexer.Scan(m.Args))
	name, err := expression.DefaultParser.ParseExpression(s, expression.PrecedenceLowest)
	if err != nil {
		return nil, err
	}
	n := &IncludeNode{Pos: Pos(m.Line), Template: name}
	if s.Current().Kind == expression.KindComma {
		s.Next()
		if n.Arguments, err = expression.ReadArguments(s); err != nil {
			return nil, err
		}
		return n, nil
	}
	if err := s.ExpectEOF(); err != nil {
		return nil, err
	}
	return n, nil
}
