package expression

import (
	"fmt"
	"strconv"
)

// Precedence is the binding power of an infix operator.
type Precedence int

const (
	PrecedenceLowest     Precedence = 1
	PrecedenceLogical    Precedence = 3
	PrecedenceRelational Precedence = 6
	PrecedenceMembership Precedence = 7
	PrecedencePrefix     Precedence = 8
)

type (
	prefixFunc func(*TokenStream) (Expression, error)
	infixFunc  func(*TokenStream, Expression) (Expression, error)
)

// Parser is a precedence climbing expression parser. Its dispatch tables are
// filled once by the constructor and never change afterwards, so a Parser
// can be shared between goroutines.
type Parser struct {
	prefix      map[Kind]prefixFunc
	infix       map[Kind]infixFunc
	precedences map[Kind]Precedence
}

// NewParser returns a parser for literals, identifier paths, range literals,
// unary minus and the comparison, membership and logical operators.
func NewParser() *Parser {
	p := &Parser{
		prefix:      map[Kind]prefixFunc{},
		infix:       map[Kind]infixFunc{},
		precedences: map[Kind]Precedence{},
	}

	p.prefix[KindIdentifier] = p.parseIdentifier
	p.prefix[KindString] = parseString
	p.prefix[KindInteger] = parseInteger
	p.prefix[KindFloat] = parseFloat
	p.prefix[KindNegative] = p.parseNegative
	p.prefix[KindRangeLParen] = p.parseRange
	p.prefix[KindTrue] = parseKeywordLiteral
	p.prefix[KindFalse] = parseKeywordLiteral
	p.prefix[KindNil] = parseKeywordLiteral
	p.prefix[KindNull] = parseKeywordLiteral
	p.prefix[KindEmpty] = parseKeywordLiteral
	p.prefix[KindBlank] = parseKeywordLiteral

	for _, k := range []Kind{KindEq, KindNe, KindLg, KindLt, KindGt, KindLe, KindGe} {
		p.registerInfix(k, PrecedenceRelational)
	}
	p.registerInfix(KindContains, PrecedenceMembership)
	p.registerInfix(KindAnd, PrecedenceLogical)
	p.registerInfix(KindOr, PrecedenceLogical)
	return p
}

func (p *Parser) registerInfix(k Kind, prec Precedence) {
	p.precedences[k] = prec
	p.infix[k] = p.parseInfix
}

// ParseExpression parses one expression starting at the current token and
// leaves the stream on the first token after it. Infix operators bind while
// their precedence is at least min.
func (p *Parser) ParseExpression(s *TokenStream, min Precedence) (Expression, error) {
	tok := s.Current()
	prefix, ok := p.prefix[tok.Kind]
	if !ok {
		return nil, NewUnexpectedTokenError(tok)
	}
	left, err := prefix(s)
	if err != nil {
		return nil, err
	}
	for {
		kind := s.Current().Kind
		prec, ok := p.precedences[kind]
		if !ok || prec < min {
			return left, nil
		}
		left, err = p.infix[kind](s, left)
		if err != nil {
			return nil, err
		}
	}
}

// Parse parses the whole of src as a single expression.
func (p *Parser) Parse(lexer *Lexer, src string) (Expression, error) {
	s := NewTokenStream(lexer.Scan(src))
	expr, err := p.ParseExpression(s, PrecedenceLowest)
	if err != nil {
		return nil, err
	}
	if err := s.ExpectEOF(); err != nil {
		return nil, err
	}
	return expr, nil
}

// The right operand binds at the operator's own level, which makes every
// operator right associative: a and b or c is a and (b or c).
func (p *Parser) parseInfix(s *TokenStream, left Expression) (Expression, error) {
	tok := s.Next()
	right, err := p.ParseExpression(s, p.precedences[tok.Kind])
	if err != nil {
		return nil, err
	}
	return &Infix{Left: left, Operator: tok.Value, Right: right}, nil
}

func (p *Parser) parseIdentifier(s *TokenStream) (Expression, error) {
	tok := s.Next()
	id := &Identifier{Path: []PathElement{PathName(tok.Value)}}
	for {
		switch s.Current().Kind {
		case KindDot:
			s.Next()
			name, err := s.Consume(KindIdentifier)
			if err != nil {
				return nil, err
			}
			id.Path = append(id.Path, PathName(name.Value))
		case KindLBracket:
			s.Next()
			el, err := p.parseBracketKey(s)
			if err != nil {
				return nil, err
			}
			if _, err := s.Consume(KindRBracket); err != nil {
				return nil, err
			}
			id.Path = append(id.Path, el)
		default:
			return id, nil
		}
	}
}

func (p *Parser) parseBracketKey(s *TokenStream) (PathElement, error) {
	tok := s.Current()
	switch tok.Kind {
	case KindString:
		s.Next()
		return PathName(tok.Value), nil
	case KindInteger:
		s.Next()
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, &SyntaxError{Line: tok.Line, Found: tok, Message: fmt.Sprintf("invalid index %q", tok.Value)}
		}
		return PathIndex(n), nil
	case KindNegative:
		if s.Peek().Kind == KindInteger {
			s.Next()
			n, err := strconv.ParseInt("-"+s.Next().Value, 10, 64)
			if err != nil {
				return nil, &SyntaxError{Line: tok.Line, Found: tok, Message: "invalid index"}
			}
			return PathIndex(n), nil
		}
	case KindIdentifier:
		nested, err := p.parseIdentifier(s)
		if err != nil {
			return nil, err
		}
		return nested.(*Identifier), nil
	}
	return nil, NewSyntaxError(tok.Line, "string, integer or identifier", tok)
}

func parseString(s *TokenStream) (Expression, error) {
	return &StringLiteral{Value: s.Next().Value}, nil
}

func parseInteger(s *TokenStream) (Expression, error) {
	tok := s.Next()
	n, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		return nil, &SyntaxError{Line: tok.Line, Found: tok, Message: fmt.Sprintf("invalid integer %q", tok.Value)}
	}
	return &IntegerLiteral{Value: n}, nil
}

func parseFloat(s *TokenStream) (Expression, error) {
	tok := s.Next()
	f, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return nil, &SyntaxError{Line: tok.Line, Found: tok, Message: fmt.Sprintf("invalid float %q", tok.Value)}
	}
	return &FloatLiteral{Value: f}, nil
}

func parseKeywordLiteral(s *TokenStream) (Expression, error) {
	switch tok := s.Next(); tok.Kind {
	case KindTrue:
		return &BooleanLiteral{Value: true}, nil
	case KindFalse:
		return &BooleanLiteral{Value: false}, nil
	case KindEmpty:
		return Empty{}, nil
	case KindBlank:
		return Blank{}, nil
	}
	return Nil{}, nil
}

// A minus sign directly before a number literal is folded into the literal.
func (p *Parser) parseNegative(s *TokenStream) (Expression, error) {
	tok := s.Next()
	switch s.Current().Kind {
	case KindInteger:
		lit := s.Next()
		n, err := strconv.ParseInt("-"+lit.Value, 10, 64)
		if err != nil {
			return nil, &SyntaxError{Line: lit.Line, Found: lit, Message: fmt.Sprintf("invalid integer %q", lit.Value)}
		}
		return &IntegerLiteral{Value: n}, nil
	case KindFloat:
		lit := s.Next()
		f, err := strconv.ParseFloat("-"+lit.Value, 64)
		if err != nil {
			return nil, &SyntaxError{Line: lit.Line, Found: lit, Message: fmt.Sprintf("invalid float %q", lit.Value)}
		}
		return &FloatLiteral{Value: f}, nil
	}
	right, err := p.ParseExpression(s, PrecedencePrefix)
	if err != nil {
		return nil, err
	}
	return &Prefix{Operator: tok.Value, Right: right}, nil
}

func (p *Parser) parseRange(s *TokenStream) (Expression, error) {
	s.Next()
	start, err := p.parseRangeBound(s)
	if err != nil {
		return nil, err
	}
	if _, err := s.Consume(KindRange); err != nil {
		return nil, err
	}
	stop, err := p.parseRangeBound(s)
	if err != nil {
		return nil, err
	}
	if _, err := s.Consume(KindRParen); err != nil {
		return nil, err
	}
	return &RangeLiteral{Start: start, Stop: stop}, nil
}

func (p *Parser) parseRangeBound(s *TokenStream) (Expression, error) {
	switch tok := s.Current(); tok.Kind {
	case KindIdentifier:
		return p.parseIdentifier(s)
	case KindInteger:
		return parseInteger(s)
	case KindFloat:
		return parseFloat(s)
	case KindNegative:
		return p.parseNegative(s)
	default:
		return nil, NewSyntaxError(tok.Line, "identifier or number", tok)
	}
}

// Boolean parsers. DefaultParser handles everything except "not" and
// grouping parentheses; NotParser adds both.
var (
	DefaultParser = NewParser()
	NotParser     = NewNotParser()
)
