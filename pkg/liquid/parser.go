package liquid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/jg-rp/liquid-extra/pkg/expression"
)

// Markup is a tag as written in the source: {% name args %}.
type Markup struct {
	Name string
	Args string
	Line int
}

// Tag parses one kind of {% %} statement. Block tags read their bodies with
// Parser.ParseBlock.
type Tag interface {
	Name() string
	Parse(p *Parser, m Markup) (Node, error)
}

// Parser turns template source into a Document. It is used once per
// template and is not safe for concurrent use.
type Parser struct {
	env  *Environment
	name string
	l    *lexer
	// set by a closing delimiter written with a hyphen
	trimNext bool
}

func newParser(env *Environment, name, src string) *Parser {
	return &Parser{env: env, name: name, l: newLexer([]byte(src))}
}

// Env returns the environment the template is parsed for.
func (p *Parser) Env() *Environment { return p.env }

func (p *Parser) parseDocument() (*Document, error) {
	nodes, _, err := p.parseNodes(nil)
	if err != nil {
		return nil, err
	}
	return &Document{Nodes: nodes}, nil
}

// ParseBlock parses nodes up to the first tag named in until and returns
// them along with that tag's markup. Reaching the end of the template first
// is an error.
func (p *Parser) ParseBlock(until ...string) ([]Node, Markup, error) {
	set := make(map[string]bool, len(until))
	for _, name := range until {
		set[name] = true
	}
	nodes, end, err := p.parseNodes(set)
	if err != nil {
		return nil, Markup{}, err
	}
	if end.Name == "" {
		return nil, Markup{}, p.errorf(p.l.lineAt(p.l.i), "expected %s, found end of template", strings.Join(until, " or "))
	}
	return nodes, end, nil
}

// parseNodes parses until a tag with a name in until is encountered, or to
// EOF. The returned Markup is empty at EOF.
func (p *Parser) parseNodes(until map[string]bool) (nodes []Node, end Markup, err error) {
	for {
		tok := p.l.nextTokenOutside()
		switch tok.kind {
		case tokEOF:
			return nodes, Markup{}, nil
		case tokText:
			text := tok.val
			if p.trimNext {
				text = trimLeftSpace(text)
				p.trimNext = false
			}
			if text != "" {
				nodes = append(nodes, &TextNode{Pos: Pos(tok.line), Text: text})
			}
		case tokCommStart:
			p.trimNext = false
			if _, err := p.readUntil(tokCommEnd, tok.line); err != nil {
				return nil, Markup{}, err
			}
		case tokOutputStart:
			nodes = p.trimPrevious(nodes, tok)
			src, err := p.readUntil(tokOutputEnd, tok.line)
			if err != nil {
				return nil, Markup{}, err
			}
			expr, err := p.env.parseOutput(src)
			if err != nil {
				return nil, Markup{}, p.wrap(err, tok.line)
			}
			nodes = append(nodes, &OutputNode{Pos: Pos(tok.line), Expr: expr})
		case tokTagStart:
			nodes = p.trimPrevious(nodes, tok)
			stmt, err := p.readUntil(tokTagEnd, tok.line)
			if err != nil {
				return nil, Markup{}, err
			}
			name, args := splitNameArgs(stmt)
			m := Markup{Name: name, Args: args, Line: tok.line}
			if until[name] {
				return nodes, m, nil
			}
			tag, ok := p.env.tag(name)
			if !ok {
				return nil, Markup{}, p.errorf(tok.line, "unknown tag %q", name)
			}
			node, err := tag.Parse(p, m)
			if err != nil {
				return nil, Markup{}, p.wrap(err, tok.line)
			}
			if node != nil {
				nodes = append(nodes, node)
			}
		default:
			return nil, Markup{}, p.errorf(tok.line, "unexpected %s", tok.kind)
		}
	}
}

// trimPrevious applies a {{- or {%- marker to the text before it.
func (p *Parser) trimPrevious(nodes []Node, tok token) []Node {
	if !tok.trim || len(nodes) == 0 {
		return nodes
	}
	text, ok := nodes[len(nodes)-1].(*TextNode)
	if !ok {
		return nodes
	}
	text.Text = trimRightSpace(text.Text)
	if text.Text == "" {
		return nodes[:len(nodes)-1]
	}
	return nodes
}

func (p *Parser) readUntil(close tokenKind, line int) (string, error) {
	var b strings.Builder
	for {
		t := p.l.nextTokenInside(close)
		switch t.kind {
		case tokContent:
			b.WriteString(t.val)
		case close:
			p.trimNext = t.trim
			return strings.TrimSpace(b.String()), nil
		default:
			return "", p.errorf(line, "unterminated tag, expected %s", close)
		}
	}
}

// ReadRaw returns the source up to the {% end %} tag and moves past it.
// Nothing in between is parsed.
func (p *Parser) ReadRaw(end string, line int) (string, error) {
	re := regexp2.MustCompile(`\{%(-?)\s*`+regexp2.Escape(end)+`\s*(-?)%\}`, regexp2.None)
	rest := p.l.rest()
	m, err := re.FindStringMatch(rest)
	if err != nil {
		return "", p.errorf(line, "%v", err)
	}
	if m == nil {
		return "", p.errorf(line, "expected %s, found end of template", end)
	}
	runes := []rune(rest)
	body := string(runes[:m.Index])
	p.l.skip(len(string(runes[:m.Index+m.Length])))

	if p.trimNext {
		body = trimLeftSpace(body)
	}
	if m.GroupByNumber(1).String() == "-" {
		body = trimRightSpace(body)
	}
	p.trimNext = m.GroupByNumber(2).String() == "-"
	return body, nil
}

func (p *Parser) errorf(line int, format string, args ...any) *TemplateError {
	return &TemplateError{Name: p.name, Line: line, Err: fmt.Errorf(format, args...)}
}

// wrap attaches the template name and line to an error raised while parsing
// markup that starts on line.
func (p *Parser) wrap(err error, line int) error {
	var te *TemplateError
	if errors.As(err, &te) {
		return err
	}
	var se *expression.SyntaxError
	if errors.As(err, &se) && se.Line > 1 {
		line += se.Line - 1
	}
	return &TemplateError{Name: p.name, Line: line, Err: err}
}

func splitNameArgs(stmt string) (name, args string) {
	s := strings.TrimSpace(stmt)
	i := 0
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
