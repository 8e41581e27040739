package expression

// NewNotParser returns a parser that also understands the not prefix
// operator and parenthesised grouping.
func NewNotParser() *Parser {
	p := NewParser()
	p.prefix[KindNot] = p.parseNot
	p.prefix[KindLParen] = p.parseGroup
	return p
}

// not binds looser than comparisons: not a == b is not (a == b), and
// not a and b is not (a and b).
func (p *Parser) parseNot(s *TokenStream) (Expression, error) {
	tok := s.Next()
	right, err := p.ParseExpression(s, PrecedenceLogical)
	if err != nil {
		return nil, err
	}
	return &Prefix{Operator: tok.Value, Right: right}, nil
}

// parseGroup returns the inner expression itself; grouping leaves no node
// behind. Extra closing parentheses after the outermost group are dropped.
func (p *Parser) parseGroup(s *TokenStream) (Expression, error) {
	s.Next()
	s.depth++
	inner, err := p.ParseExpression(s, PrecedenceLowest)
	s.depth--
	if err != nil {
		return nil, err
	}
	if _, err := s.Consume(KindRParen); err != nil {
		return nil, err
	}
	if s.depth == 0 {
		for s.Current().Kind == KindRParen {
			s.Next()
		}
	}
	return inner, nil
}

// ParseCondition parses an if tag condition that may use not, grouping and
// range literals.
func ParseCondition(src string) (*Boolean, error) {
	expr, err := NotParser.Parse(NotLexer, src)
	if err != nil {
		return nil, err
	}
	return &Boolean{Expression: expr}, nil
}

// ParseBooleanCondition parses a plain if tag condition.
func ParseBooleanCondition(src string) (*Boolean, error) {
	expr, err := DefaultParser.Parse(BooleanLexer, src)
	if err != nil {
		return nil, err
	}
	return &Boolean{Expression: expr}, nil
}
