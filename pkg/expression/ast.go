package expression

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/spf13/cast"
)

// Expression is a node of a parsed expression. Nodes are read-only after
// parsing and can be evaluated any number of times, concurrently, against
// independent contexts. String returns the canonical source form.
type Expression interface {
	fmt.Stringer
	Evaluate(ctx Context) (Value, error)
}

// EqualExpressions reports whether two expressions have the same structure.
func EqualExpressions(a, b Expression) bool {
	return reflect.DeepEqual(a, b)
}

// Nil is the nil and null literal.
type Nil struct{}

func (Nil) String() string                  { return "nil" }
func (Nil) Evaluate(Context) (Value, error) { return NilValue{}, nil }

// Empty is the empty literal.
type Empty struct{}

func (Empty) String() string                  { return "empty" }
func (Empty) Evaluate(Context) (Value, error) { return EmptyValue{}, nil }

// Blank is the blank literal.
type Blank struct{}

func (Blank) String() string                  { return "blank" }
func (Blank) Evaluate(Context) (Value, error) { return BlankValue{}, nil }

// BooleanLiteral is true or false.
type BooleanLiteral struct{ Value bool }

func (b *BooleanLiteral) String() string                  { return strconv.FormatBool(b.Value) }
func (b *BooleanLiteral) Evaluate(Context) (Value, error) { return BoolValue(b.Value), nil }

// IntegerLiteral is an integer constant.
type IntegerLiteral struct{ Value int64 }

func (i *IntegerLiteral) String() string                  { return strconv.FormatInt(i.Value, 10) }
func (i *IntegerLiteral) Evaluate(Context) (Value, error) { return IntValue(i.Value), nil }

// FloatLiteral is a float constant.
type FloatLiteral struct{ Value float64 }

func (f *FloatLiteral) String() string                  { return formatFloat(f.Value) }
func (f *FloatLiteral) Evaluate(Context) (Value, error) { return FloatValue(f.Value), nil }

// StringLiteral is a quoted string constant.
type StringLiteral struct{ Value string }

func (s *StringLiteral) String() string {
	if strings.ContainsRune(s.Value, '\'') {
		return `"` + s.Value + `"`
	}
	return "'" + s.Value + "'"
}
func (s *StringLiteral) Evaluate(Context) (Value, error) { return StringValue(s.Value), nil }

// PathElement is one step of an identifier path: a PathName, a PathIndex or
// a nested *Identifier whose value is used as the key.
type PathElement interface {
	pathElement()
}

// PathName selects a key or property by name.
type PathName string

// PathIndex selects a sequence item by position. Negative indexes count from
// the end.
type PathIndex int64

func (PathName) pathElement()    {}
func (PathIndex) pathElement()   {}
func (*Identifier) pathElement() {}

var plainName = regexp2.MustCompile(`^`+identifierPattern+`$`, regexp2.None)

func isPlainName(s string) bool {
	ok, err := plainName.MatchString(s)
	return ok && err == nil
}

// Identifier is a variable path such as products[0].title.
type Identifier struct {
	Path []PathElement
}

func (id *Identifier) String() string {
	var b strings.Builder
	for i, el := range id.Path {
		switch e := el.(type) {
		case PathName:
			switch {
			case i == 0:
				b.WriteString(string(e))
			case isPlainName(string(e)):
				b.WriteByte('.')
				b.WriteString(string(e))
			default:
				b.WriteString("[" + (&StringLiteral{Value: string(e)}).String() + "]")
			}
		case PathIndex:
			fmt.Fprintf(&b, "[%d]", e)
		case *Identifier:
			b.WriteString("[" + e.String() + "]")
		}
	}
	return b.String()
}

// Evaluate resolves the path. Nested identifiers are evaluated first and
// their values become keys.
func (id *Identifier) Evaluate(ctx Context) (Value, error) {
	path := make(Path, len(id.Path))
	for i, el := range id.Path {
		switch e := el.(type) {
		case PathName:
			path[i] = StringValue(e)
		case PathIndex:
			path[i] = IntValue(e)
		case *Identifier:
			v, err := eval(ctx, e)
			if err != nil {
				return nil, err
			}
			path[i] = v
		}
	}
	return ctx.Resolve(path)
}

// Prefix is a unary operator: "-" or "not".
type Prefix struct {
	Operator string
	Right    Expression
}

func (p *Prefix) String() string {
	if p.Operator == "not" {
		return "(not " + p.Right.String() + ")"
	}
	return p.Operator + p.Right.String()
}

// Evaluate applies the operator. "not" accepts any value; "-" only numbers.
func (p *Prefix) Evaluate(ctx Context) (Value, error) {
	right, err := eval(ctx, p.Right)
	if err != nil {
		return nil, err
	}
	switch p.Operator {
	case "not":
		return BoolValue(!ctx.Truthy(right)), nil
	case "-":
		switch v := right.(type) {
		case IntValue:
			return -v, nil
		case FloatValue:
			return -v, nil
		}
		return nil, NewTypeError(p.Operator, right)
	}
	return nil, fmt.Errorf("unknown prefix operator %q", p.Operator)
}

// Infix is a binary operator: comparison, membership or logic.
type Infix struct {
	Left     Expression
	Operator string
	Right    Expression
}

func (in *Infix) String() string {
	return "(" + in.Left.String() + " " + in.Operator + " " + in.Right.String() + ")"
}

// Evaluate evaluates the left operand before the right. The logical
// operators short-circuit and always produce a boolean.
func (in *Infix) Evaluate(ctx Context) (Value, error) {
	left, err := eval(ctx, in.Left)
	if err != nil {
		return nil, err
	}
	switch in.Operator {
	case "and":
		if !ctx.Truthy(left) {
			return BoolValue(false), nil
		}
		right, err := eval(ctx, in.Right)
		if err != nil {
			return nil, err
		}
		return BoolValue(ctx.Truthy(right)), nil
	case "or":
		if ctx.Truthy(left) {
			return BoolValue(true), nil
		}
		right, err := eval(ctx, in.Right)
		if err != nil {
			return nil, err
		}
		return BoolValue(ctx.Truthy(right)), nil
	}

	right, err := eval(ctx, in.Right)
	if err != nil {
		return nil, err
	}
	switch in.Operator {
	case "==":
		return BoolValue(Equal(left, right)), nil
	case "!=", "<>":
		return BoolValue(!Equal(left, right)), nil
	case "<", ">", "<=", ">=":
		ok, err := Compare(in.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return BoolValue(ok), nil
	case "contains":
		return BoolValue(Contains(left, right)), nil
	}
	return nil, fmt.Errorf("unknown infix operator %q", in.Operator)
}

// RangeLiteral is (start..stop).
type RangeLiteral struct {
	Start, Stop Expression
}

func (r *RangeLiteral) String() string {
	return "(" + r.Start.String() + ".." + r.Stop.String() + ")"
}

// Evaluate converts both bounds to integers.
func (r *RangeLiteral) Evaluate(ctx Context) (Value, error) {
	start, err := rangeBound(ctx, r.Start)
	if err != nil {
		return nil, err
	}
	stop, err := rangeBound(ctx, r.Stop)
	if err != nil {
		return nil, err
	}
	return RangeValue{Start: start, Stop: stop}, nil
}

func rangeBound(ctx Context, e Expression) (int64, error) {
	v, err := eval(ctx, e)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case IntValue, FloatValue:
		if n, err := cast.ToInt64E(ToGo(v)); err == nil {
			return n, nil
		}
	case StringValue:
		// decimal only, so "010" is ten
		s := strings.TrimSpace(string(t))
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		if f, err := cast.ToFloat64E(s); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return cast.ToInt64E(f)
		}
	}
	return 0, NewTypeError("..", v)
}

// Boolean wraps a condition. It always evaluates to a BoolValue.
type Boolean struct {
	Expression Expression
}

func (b *Boolean) String() string { return "(" + b.Expression.String() + ")" }

// Evaluate applies the context's truthiness to the wrapped expression.
func (b *Boolean) Evaluate(ctx Context) (Value, error) {
	v, err := eval(ctx, b.Expression)
	if err != nil {
		return nil, err
	}
	return BoolValue(ctx.Truthy(v)), nil
}
