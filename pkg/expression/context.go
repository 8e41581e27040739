package expression

// Context is the rendering state expressions are evaluated against. The
// template engine implements it.
type Context interface {
	// Resolve looks up a variable path. Missing names resolve to Undefined
	// rather than failing, unless the engine is configured otherwise.
	Resolve(path Path) (Value, error)
	// Truthy is the engine's truthiness predicate.
	Truthy(v Value) bool
	// Filter finds a registered filter by name.
	Filter(name string) (Filter, bool)
	// StrictFilters reports whether unknown filters are errors.
	StrictFilters() bool
	PushScope(namespace DictValue)
	PopScope()
	// Suspend is called before every sub-evaluation. Immediate evaluation
	// returns nil straight away; cooperative evaluation may hand control to
	// other tasks first.
	Suspend() error
}

// eval evaluates a sub-expression at a suspension point.
func eval(ctx Context, e Expression) (Value, error) {
	if err := ctx.Suspend(); err != nil {
		return nil, err
	}
	return e.Evaluate(ctx)
}
