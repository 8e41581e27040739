package expression

import "strings"

// FilteredIf is an output expression with an optional inline condition:
//
//	expression | filters if condition else alternative | tail filters
//
// Filters bind to the primary expression only. Tail filters apply to
// whichever value the condition selected.
type FilteredIf struct {
	Expression  Expression
	Filters     []*FilterCall
	Condition   *Boolean
	Alternative Expression
	TailFilters []*FilterCall
}

func (e *FilteredIf) String() string {
	var b strings.Builder
	b.WriteString(e.Expression.String())
	if len(e.Filters) > 0 {
		b.WriteString(" | ")
		b.WriteString(joinFilters(e.Filters))
	}
	if e.Condition != nil {
		b.WriteString(" if ")
		b.WriteString(e.Condition.String())
		if e.Alternative != nil {
			b.WriteString(" else ")
			b.WriteString(e.Alternative.String())
		}
	}
	if len(e.TailFilters) > 0 {
		b.WriteString(" | ")
		b.WriteString(joinFilters(e.TailFilters))
	}
	return b.String()
}

// Evaluate picks a branch and applies the filters. A false condition with
// no alternative gives Undefined.
func (e *FilteredIf) Evaluate(ctx Context) (Value, error) {
	var (
		v   Value
		err error
	)
	switch {
	case e.Condition == nil:
		v, err = e.primary(ctx)
	default:
		var cond Value
		cond, err = eval(ctx, e.Condition)
		if err != nil {
			return nil, err
		}
		switch {
		case ctx.Truthy(cond):
			v, err = e.primary(ctx)
		case e.Alternative != nil:
			v, err = eval(ctx, e.Alternative)
		default:
			v = Undefined{}
		}
	}
	if err != nil {
		return nil, err
	}
	if len(e.TailFilters) == 0 {
		return v, nil
	}
	return ApplyFilters(ctx, v, e.TailFilters)
}

func (e *FilteredIf) primary(ctx Context) (Value, error) {
	v, err := eval(ctx, e.Expression)
	if err != nil {
		return nil, err
	}
	if len(e.Filters) == 0 {
		return v, nil
	}
	return ApplyFilters(ctx, v, e.Filters)
}

// ParseFilteredIf parses an inline conditional expression. Empty source is
// nil.
func ParseFilteredIf(src string) (*FilteredIf, error) {
	s := NewTokenStream(InlineIfLexer.Scan(src))
	if s.Current().Kind == KindEOF {
		return &FilteredIf{Expression: Nil{}}, nil
	}
	return parseFilteredIf(NotParser, s)
}

func parseFilteredIf(p *Parser, s *TokenStream) (*FilteredIf, error) {
	expr, err := p.ParseExpression(s, PrecedenceLowest)
	if err != nil {
		return nil, err
	}
	node := &FilteredIf{Expression: expr}
	if node.Filters, err = p.parseFilters(s); err != nil {
		return nil, err
	}

	if s.Current().Kind == KindIf {
		s.Next()
		cond, err := p.ParseExpression(s, PrecedenceLowest)
		if err != nil {
			return nil, err
		}
		node.Condition = &Boolean{Expression: cond}

		if s.Current().Kind == KindElse {
			s.Next()
			if node.Alternative, err = p.ParseExpression(s, PrecedenceLowest); err != nil {
				return nil, err
			}
		}
		if node.TailFilters, err = p.parseFilters(s); err != nil {
			return nil, err
		}
	}

	if err := s.ExpectEOF(); err != nil {
		return nil, err
	}
	return node, nil
}
