package liquid

import (
	"math"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/jg-rp/liquid-extra/pkg/expression"
)

type (
	value  = expression.Value
	values = []expression.Value
	kwargs = map[string]expression.Value
)

// builtinFilters returns the standard filters. Filters that need a
// sequence reject anything else.
func builtinFilters() map[string]expression.Filter {
	return map[string]expression.Filter{
		"upcase":     stringFilter(strings.ToUpper),
		"downcase":   stringFilter(strings.ToLower),
		"strip":      stringFilter(strings.TrimSpace),
		"capitalize": stringFilter(capitalize),
		"append": expression.FilterFunc(func(v value, args values, _ kwargs) (value, error) {
			if err := arity("append", args, 1); err != nil {
				return nil, err
			}
			return expression.StringValue(v.String() + args[0].String()), nil
		}),
		"prepend": expression.FilterFunc(func(v value, args values, _ kwargs) (value, error) {
			if err := arity("prepend", args, 1); err != nil {
				return nil, err
			}
			return expression.StringValue(args[0].String() + v.String()), nil
		}),
		"default": expression.FilterFunc(defaultFilter),
		"first": expression.FilterFunc(func(v value, _ values, _ kwargs) (value, error) {
			if r, ok := v.(expression.RangeValue); ok {
				return rangeItem(r, 0), nil
			}
			items, err := sequence(v)
			if err != nil || len(items) == 0 {
				return expression.NilValue{}, err
			}
			return items[0], nil
		}),
		"last": expression.FilterFunc(func(v value, _ values, _ kwargs) (value, error) {
			if r, ok := v.(expression.RangeValue); ok {
				return rangeItem(r, -1), nil
			}
			items, err := sequence(v)
			if err != nil || len(items) == 0 {
				return expression.NilValue{}, err
			}
			return items[len(items)-1], nil
		}),
		"size": expression.FilterFunc(func(v value, _ values, _ kwargs) (value, error) {
			switch t := v.(type) {
			case expression.StringValue:
				return expression.IntValue(len([]rune(string(t)))), nil
			case expression.ListValue:
				return expression.IntValue(len(t)), nil
			case expression.DictValue:
				return expression.IntValue(len(t)), nil
			case expression.RangeValue:
				return expression.IntValue(t.Len()), nil
			}
			return expression.IntValue(0), nil
		}),
		"join": expression.FilterFunc(func(v value, args values, _ kwargs) (value, error) {
			sep := " "
			if len(args) > 0 {
				sep = args[0].String()
			}
			items, err := sequence(v)
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(items))
			for i, it := range items {
				parts[i] = it.String()
			}
			return expression.StringValue(strings.Join(parts, sep)), nil
		}),
		"split": expression.FilterFunc(func(v value, args values, _ kwargs) (value, error) {
			if err := arity("split", args, 1); err != nil {
				return nil, err
			}
			parts := strings.Split(v.String(), args[0].String())
			out := make(expression.ListValue, 0, len(parts))
			for _, p := range parts {
				out = append(out, expression.StringValue(p))
			}
			return out, nil
		}),
		"reverse": expression.FilterFunc(func(v value, _ values, _ kwargs) (value, error) {
			items, err := sequence(v)
			if err != nil {
				return nil, err
			}
			out := slices.Clone(items)
			slices.Reverse(out)
			return out, nil
		}),
		"plus":       arithmetic("plus", func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }),
		"minus":      arithmetic("minus", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }),
		"times":      arithmetic("times", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }),
		"divided_by": expression.FilterFunc(dividedBy),
		"modulo":     expression.FilterFunc(modulo),
	}
}

func stringFilter(fn func(string) string) expression.Filter {
	return expression.FilterFunc(func(v value, _ values, _ kwargs) (value, error) {
		return expression.StringValue(fn(v.String())), nil
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
}

func arity(name string, args values, n int) error {
	if len(args) != n {
		return expression.NewFilterArgumentError("%s expects %d argument(s), found %d", name, n, len(args))
	}
	return nil
}

func defaultFilter(v value, args values, kw kwargs) (value, error) {
	var fallback value = expression.StringValue("")
	if len(args) > 0 {
		fallback = args[0]
	}
	if b, ok := v.(expression.BoolValue); ok && !bool(b) {
		if af, ok := kw["allow_false"]; ok && expression.Truthy(af) {
			return v, nil
		}
	}
	if !expression.Truthy(v) || expression.Equal(v, expression.EmptyValue{}) {
		return fallback, nil
	}
	return v, nil
}

func rangeItem(r expression.RangeValue, i int64) value {
	if v, ok := r.At(i); ok {
		return v
	}
	return expression.NilValue{}
}

// sequence returns the items of a list or range. Strings are not sequences
// here and give no items; everything else is rejected. Ranges too large to
// expand are an argument error.
func sequence(v value) (expression.ListValue, error) {
	switch t := v.(type) {
	case expression.ListValue:
		return t, nil
	case expression.RangeValue:
		items, err := t.Items()
		if err != nil {
			return nil, expression.NewFilterArgumentError("%v", err)
		}
		return items, nil
	case expression.StringValue:
		return nil, nil
	}
	return nil, expression.RejectValue("expected an array, found %s", expression.TypeName(v))
}

// toNumber coerces a value to an IntValue or a FloatValue. Values that do
// not look like numbers are zero.
func toNumber(v value) value {
	switch t := v.(type) {
	case expression.IntValue, expression.FloatValue:
		return t
	case expression.StringValue:
		if n, err := cast.ToInt64E(string(t)); err == nil {
			return expression.IntValue(n)
		}
		if f, err := cast.ToFloat64E(string(t)); err == nil {
			return expression.FloatValue(f)
		}
	case expression.BoolValue:
		return expression.IntValue(cast.ToInt64(bool(t)))
	}
	return expression.IntValue(0)
}

func arithmetic(name string, ints func(a, b int64) int64, floats func(a, b float64) float64) expression.Filter {
	return expression.FilterFunc(func(v value, args values, _ kwargs) (value, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		a, b := toNumber(v), toNumber(args[0])
		x, xInt := a.(expression.IntValue)
		y, yInt := b.(expression.IntValue)
		if xInt && yInt {
			return expression.IntValue(ints(int64(x), int64(y))), nil
		}
		return expression.FloatValue(floats(cast.ToFloat64(expression.ToGo(a)), cast.ToFloat64(expression.ToGo(b)))), nil
	})
}

func dividedBy(v value, args values, _ kwargs) (value, error) {
	if err := arity("divided_by", args, 1); err != nil {
		return nil, err
	}
	a, b := toNumber(v), toNumber(args[0])
	if cast.ToFloat64(expression.ToGo(b)) == 0 {
		return nil, expression.NewFilterArgumentError("divided_by: division by zero")
	}
	x, xInt := a.(expression.IntValue)
	y, yInt := b.(expression.IntValue)
	if xInt && yInt {
		return expression.IntValue(int64(math.Floor(float64(x) / float64(y)))), nil
	}
	return expression.FloatValue(cast.ToFloat64(expression.ToGo(a)) / cast.ToFloat64(expression.ToGo(b))), nil
}

func modulo(v value, args values, _ kwargs) (value, error) {
	if err := arity("modulo", args, 1); err != nil {
		return nil, err
	}
	a, b := toNumber(v), toNumber(args[0])
	if cast.ToFloat64(expression.ToGo(b)) == 0 {
		return nil, expression.NewFilterArgumentError("modulo: division by zero")
	}
	x, xInt := a.(expression.IntValue)
	y, yInt := b.(expression.IntValue)
	if xInt && yInt {
		return expression.IntValue(int64(x) % int64(y)), nil
	}
	return expression.FloatValue(math.Mod(cast.ToFloat64(expression.ToGo(a)), cast.ToFloat64(expression.ToGo(b)))), nil
}
