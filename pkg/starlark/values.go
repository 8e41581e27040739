package starlark

import (
	"sort"

	"go.starlark.net/starlark"

	"github.com/jg-rp/liquid-extra/pkg/expression"
)

// ConvertToStarlark converts a template value to a Starlark value. Ranges
// become lists, or their "start..stop" string when too large to expand;
// nil and undefined become None.
func ConvertToStarlark(val expression.Value) starlark.Value {
	switch v := val.(type) {
	case nil, expression.NilValue, expression.Undefined:
		return starlark.None
	case expression.StringValue:
		return starlark.String(string(v))
	case expression.IntValue:
		return starlark.MakeInt64(int64(v))
	case expression.FloatValue:
		return starlark.Float(float64(v))
	case expression.BoolValue:
		return starlark.Bool(bool(v))
	case expression.ListValue:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			items[i] = ConvertToStarlark(item)
		}
		return starlark.NewList(items)
	case expression.RangeValue:
		items, err := v.Items()
		if err != nil {
			return starlark.String(v.String())
		}
		return ConvertToStarlark(items)
	case expression.DictValue:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dict := starlark.NewDict(len(v))
		for _, k := range keys {
			_ = dict.SetKey(starlark.String(k), ConvertToStarlark(v[k]))
		}
		return dict
	default:
		return starlark.String(val.String())
	}
}

// ConvertFromStarlark converts a Starlark value to a template value.
func ConvertFromStarlark(val starlark.Value) expression.Value {
	if val == nil || val == starlark.None {
		return expression.NilValue{}
	}

	switch v := val.(type) {
	case starlark.String:
		return expression.StringValue(string(v))
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return expression.IntValue(i)
		}
		// too big for int64
		return expression.StringValue(v.String())
	case starlark.Float:
		return expression.FloatValue(float64(v))
	case starlark.Bool:
		return expression.BoolValue(bool(v))
	case starlark.Indexable:
		items := make(expression.ListValue, v.Len())
		for i := range items {
			items[i] = ConvertFromStarlark(v.Index(i))
		}
		return items
	case *starlark.Dict:
		dict := make(expression.DictValue, v.Len())
		for _, item := range v.Items() {
			if key, ok := item[0].(starlark.String); ok {
				dict[string(key)] = ConvertFromStarlark(item[1])
			} else {
				dict[item[0].String()] = ConvertFromStarlark(item[1])
			}
		}
		return dict
	default:
		return expression.StringValue(val.String())
	}
}
