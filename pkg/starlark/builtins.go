package starlark

import (
	"go.starlark.net/starlark"

	"github.com/jg-rp/liquid-extra/pkg/expression"
)

// Builtins returns the names predeclared in filter scripts.
//
//	reject(msg)   rejects the filtered value: output is suppressed
//	is_defined(v) reports whether v is not None
func Builtins() starlark.StringDict {
	return starlark.StringDict{
		"reject": starlark.NewBuiltin("reject", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var msg string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0, &msg); err != nil {
				return nil, err
			}
			if msg == "" {
				msg = "rejected by script"
			}
			return nil, expression.RejectValue("%s", msg)
		}),
		"is_defined": starlark.NewBuiltin("is_defined", func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var v starlark.Value
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &v); err != nil {
				return nil, err
			}
			return starlark.Bool(v != starlark.None), nil
		}),
	}
}
