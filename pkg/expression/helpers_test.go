package expression

import (
	"strings"
)

// testContext is a minimal Context over a stack of namespaces.
type testContext struct {
	scopes   []DictValue
	filters  map[string]Filter
	strict   bool
	suspends int
	resolved []string
}

func newTestContext(globals map[string]any) *testContext {
	return &testContext{
		scopes:  []DictValue{FromGo(globals).(DictValue)},
		filters: testFilters(),
		strict:  true,
	}
}

func (c *testContext) Resolve(path Path) (Value, error) {
	name := path[0].String()
	c.resolved = append(c.resolved, path.String())
	var v Value = Undefined{Name: name}
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if found, ok := c.scopes[i][name]; ok {
			v = found
			break
		}
	}
	for _, key := range path[1:] {
		v = GetItem(v, key)
	}
	return v, nil
}

func (c *testContext) Truthy(v Value) bool { return Truthy(v) }

func (c *testContext) Filter(name string) (Filter, bool) {
	f, ok := c.filters[name]
	return f, ok
}

func (c *testContext) StrictFilters() bool { return c.strict }

func (c *testContext) PushScope(ns DictValue) { c.scopes = append(c.scopes, ns) }

func (c *testContext) PopScope() { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *testContext) Suspend() error {
	c.suspends++
	return nil
}

func testFilters() map[string]Filter {
	return map[string]Filter{
		"upcase": FilterFunc(func(v Value, _ []Value, _ map[string]Value) (Value, error) {
			return StringValue(strings.ToUpper(v.String())), nil
		}),
		"downcase": FilterFunc(func(v Value, _ []Value, _ map[string]Value) (Value, error) {
			return StringValue(strings.ToLower(v.String())), nil
		}),
		"append": FilterFunc(func(v Value, args []Value, _ map[string]Value) (Value, error) {
			if len(args) != 1 {
				return nil, NewFilterArgumentError("append expects one argument")
			}
			return StringValue(v.String() + args[0].String()), nil
		}),
		"first": FilterFunc(func(v Value, _ []Value, _ map[string]Value) (Value, error) {
			l, ok := v.(ListValue)
			if !ok {
				return nil, RejectValue("expected an array, found %s", TypeName(v))
			}
			if len(l) == 0 {
				return NilValue{}, nil
			}
			return l[0], nil
		}),
		"default": FilterFunc(func(v Value, args []Value, kwargs map[string]Value) (Value, error) {
			allowFalse := false
			if af, ok := kwargs["allow_false"]; ok {
				allowFalse = Truthy(af)
			}
			if b, ok := v.(BoolValue); ok && allowFalse && !bool(b) {
				return v, nil
			}
			if !Truthy(v) || Equal(v, EmptyValue{}) {
				return args[0], nil
			}
			return v, nil
		}),
		"boom": FilterFunc(func(Value, []Value, map[string]Value) (Value, error) {
			panic("kaboom")
		}),
	}
}
