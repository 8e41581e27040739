package liquid

import (
	"context"

	"github.com/jg-rp/liquid-extra/pkg/coop"
	"github.com/jg-rp/liquid-extra/pkg/expression"
)

const maxIncludeDepth = 30

// Context is the render state of one template render. Names resolve through
// the scope stack from the top down, then template locals, then globals.
// A Context belongs to a single render and must not be shared.
type Context struct {
	env      *Environment
	template string
	globals  expression.DictValue
	locals   expression.DictValue
	scopes   []expression.DictValue
	depth    int

	// nil for immediate rendering
	task context.Context
}

var _ expression.Context = (*Context)(nil)

// NewContext returns a context for rendering with env. globals is not
// modified.
func NewContext(env *Environment, globals expression.DictValue) *Context {
	if globals == nil {
		globals = expression.DictValue{}
	}
	return &Context{env: env, globals: globals, locals: expression.DictValue{}}
}

// Env returns the environment being rendered with.
func (c *Context) Env() *Environment { return c.env }

// Resolve implements expression.Context.
func (c *Context) Resolve(path expression.Path) (expression.Value, error) {
	name := path[0].String()
	v, ok := c.Get(name)
	if !ok {
		if c.env.strictVariables {
			return nil, &expression.UndefinedError{Name: name}
		}
		return expression.Undefined{Name: path.String()}, nil
	}
	for _, key := range path[1:] {
		v = expression.GetItem(v, key)
		if _, undefined := v.(expression.Undefined); undefined {
			if c.env.strictVariables {
				return nil, &expression.UndefinedError{Name: path.String()}
			}
			return expression.Undefined{Name: path.String()}, nil
		}
	}
	return v, nil
}

// Get looks up a single name.
func (c *Context) Get(name string) (expression.Value, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	if v, ok := c.locals[name]; ok {
		return v, true
	}
	v, ok := c.globals[name]
	return v, ok
}

// Assign sets a template local. Locals outlive every scope layer.
func (c *Context) Assign(name string, v expression.Value) {
	c.locals[name] = v
}

// Truthy implements expression.Context.
func (c *Context) Truthy(v expression.Value) bool { return expression.Truthy(v) }

// Filter implements expression.Context.
func (c *Context) Filter(name string) (expression.Filter, bool) { return c.env.Filter(name) }

// StrictFilters implements expression.Context.
func (c *Context) StrictFilters() bool { return c.env.strictFilters }

// PushScope implements expression.Context.
func (c *Context) PushScope(ns expression.DictValue) {
	c.scopes = append(c.scopes, ns)
}

// PopScope implements expression.Context.
func (c *Context) PopScope() {
	if len(c.scopes) > 0 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

// ScopeDepth returns the number of pushed scope layers.
func (c *Context) ScopeDepth() int { return len(c.scopes) }

// Suspend implements expression.Context. Cooperative renders hand control to
// other tasks here; immediate renders return straight away.
func (c *Context) Suspend() error {
	if c.task == nil {
		return nil
	}
	return coop.Yield(c.task)
}

// copy returns a context for rendering another template with the same
// variables. Assignments made by the included template stay visible.
func (c *Context) copy(name string) (*Context, error) {
	if c.depth >= maxIncludeDepth {
		return nil, &TemplateError{Name: name, Err: errMaxDepth}
	}
	return &Context{
		env:      c.env,
		template: name,
		globals:  c.globals,
		locals:   c.locals,
		scopes:   append([]expression.DictValue(nil), c.scopes...),
		depth:    c.depth + 1,
		task:     c.task,
	}, nil
}
