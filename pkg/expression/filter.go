package expression

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jg-rp/liquid-extra/pkg/logger"
)

// Filter transforms a value. Implementations signal the three possible
// outcomes with their return values: a result, an error matching
// ErrValueRejected, or any other error.
type Filter interface {
	Call(ctx Context, value Value, args []Value, kwargs map[string]Value) (Value, error)
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc func(value Value, args []Value, kwargs map[string]Value) (Value, error)

// Call implements Filter.
func (f FilterFunc) Call(_ Context, value Value, args []Value, kwargs map[string]Value) (Value, error) {
	return f(value, args, kwargs)
}

// ContextFilterFunc adapts a function that needs the render context.
type ContextFilterFunc func(ctx Context, value Value, args []Value, kwargs map[string]Value) (Value, error)

// Call implements Filter.
func (f ContextFilterFunc) Call(ctx Context, value Value, args []Value, kwargs map[string]Value) (Value, error) {
	return f(ctx, value, args, kwargs)
}

// KeywordArgument is a name: value filter argument.
type KeywordArgument struct {
	Name  string
	Value Expression
}

// FilterCall is one step of a filter chain as written in a template.
// Arguments are evaluated each time the filter is applied.
type FilterCall struct {
	Name   string
	Args   []Expression
	Kwargs []KeywordArgument
	Line   int
}

func (f *FilterCall) String() string {
	args := make([]string, 0, len(f.Args)+len(f.Kwargs))
	for _, a := range f.Args {
		args = append(args, a.String())
	}
	for _, kw := range f.Kwargs {
		args = append(args, kw.Name+": "+kw.Value.String())
	}
	if len(args) == 0 {
		return f.Name
	}
	return f.Name + ": " + strings.Join(args, ", ")
}

func (f *FilterCall) arguments(ctx Context) ([]Value, map[string]Value, error) {
	args := make([]Value, 0, len(f.Args))
	for _, a := range f.Args {
		v, err := eval(ctx, a)
		if err != nil {
			return nil, nil, err
		}
		args = append(args, v)
	}
	kwargs := make(map[string]Value, len(f.Kwargs))
	for _, kw := range f.Kwargs {
		v, err := eval(ctx, kw.Value)
		if err != nil {
			return nil, nil, err
		}
		kwargs[kw.Name] = v
	}
	return args, kwargs, nil
}

func joinFilters(filters []*FilterCall) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, " | ")
}

// ApplyFilters threads value through filters in order.
//
// An unknown filter is an error in strict mode and is skipped otherwise. A
// filter rejecting its value stops the chain and the returned error matches
// ErrValueRejected; callers suppress output for the expression. Every other
// filter failure, panics included, is returned as a *FilterError.
func ApplyFilters(ctx Context, value Value, filters []*FilterCall) (Value, error) {
	for _, fc := range filters {
		f, ok := ctx.Filter(fc.Name)
		if !ok {
			if ctx.StrictFilters() {
				return nil, NewNoSuchFilterError(fc.Name, fc.Line)
			}
			logger.L().Debug("skipping unknown filter", zap.String("filter", fc.Name), zap.Int("line", fc.Line))
			continue
		}

		args, kwargs, err := fc.arguments(ctx)
		if err != nil {
			return nil, err
		}
		if err := ctx.Suspend(); err != nil {
			return nil, err
		}

		result, err := callFilter(ctx, f, value, args, kwargs)
		if err != nil {
			var rejected *FilterValueError
			if errors.As(err, &rejected) {
				return nil, &FilterValueError{Filter: fc.Name, Message: rejected.Message}
			}
			return nil, NewFilterError(fc.Name, fc.Line, err)
		}
		value = result
	}
	return value, nil
}

func callFilter(ctx Context, f Filter, value Value, args []Value, kwargs map[string]Value) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	result, err = f.Call(ctx, value, args, kwargs)
	if err == nil && result == nil {
		result = NilValue{}
	}
	return result, err
}

// parseFilters reads "| name: args" groups until the current token is not a
// pipe.
func (p *Parser) parseFilters(s *TokenStream) ([]*FilterCall, error) {
	var filters []*FilterCall
	for s.Current().Kind == KindPipe {
		s.Next()
		fc, err := p.parseFilter(s)
		if err != nil {
			return nil, err
		}
		filters = append(filters, fc)
	}
	return filters, nil
}

func (p *Parser) parseFilter(s *TokenStream) (*FilterCall, error) {
	name, err := s.Consume(KindIdentifier)
	if err != nil {
		return nil, err
	}
	fc := &FilterCall{Name: name.Value, Line: name.Line}
	if s.Current().Kind != KindColon {
		return fc, nil
	}
	s.Next()
	for {
		if s.Current().Kind == KindIdentifier && s.Peek().Kind == KindColon {
			key := s.Next()
			s.Next()
			v, err := p.ParseExpression(s, PrecedencePrefix)
			if err != nil {
				return nil, err
			}
			fc.Kwargs = append(fc.Kwargs, KeywordArgument{Name: key.Value, Value: v})
		} else {
			v, err := p.ParseExpression(s, PrecedencePrefix)
			if err != nil {
				return nil, err
			}
			fc.Args = append(fc.Args, v)
		}
		if s.Current().Kind != KindComma {
			return fc, nil
		}
		s.Next()
	}
}

// Filtered is a primary expression followed by a filter chain, the plain
// form of an output statement.
type Filtered struct {
	Expression Expression
	Filters    []*FilterCall
}

func (f *Filtered) String() string {
	if len(f.Filters) == 0 {
		return f.Expression.String()
	}
	return f.Expression.String() + " | " + joinFilters(f.Filters)
}

// Evaluate evaluates the expression and applies the filters.
func (f *Filtered) Evaluate(ctx Context) (Value, error) {
	v, err := eval(ctx, f.Expression)
	if err != nil {
		return nil, err
	}
	return ApplyFilters(ctx, v, f.Filters)
}

// ParseFiltered parses an output statement. Empty source is nil.
func ParseFiltered(src string) (*Filtered, error) {
	s := NewTokenStream(FilteredLexer.Scan(src))
	if s.Current().Kind == KindEOF {
		return &Filtered{Expression: Nil{}}, nil
	}
	expr, err := DefaultParser.ParseExpression(s, PrecedenceLowest)
	if err != nil {
		return nil, err
	}
	filters, err := DefaultParser.parseFilters(s)
	if err != nil {
		return nil, err
	}
	if err := s.ExpectEOF(); err != nil {
		return nil, err
	}
	return &Filtered{Expression: expr, Filters: filters}, nil
}

// ParsePrimary parses a single expression without filters, for example a
// loop collection.
func ParsePrimary(src string) (Expression, error) {
	return DefaultParser.Parse(FilteredLexer, src)
}
