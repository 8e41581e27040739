// Package starlark loads template filters written in Starlark. Every public
// top-level function of a script becomes a filter whose first parameter is
// the value being filtered.
package starlark

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.uber.org/zap"

	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/liquid"
	"github.com/jg-rp/liquid-extra/pkg/logger"
)

// MaxSteps bounds the work a single filter call may do.
const MaxSteps = 1_000_000

// Script is an executed filter script. Its functions are frozen and may be
// called from concurrent renders.
type Script struct {
	name    string
	globals starlark.StringDict
}

// LoadFile executes the script at path.
func LoadFile(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading filter script: %w", err)
	}
	return Load(path, src)
}

// Load executes a script. src may be a string or []byte.
func Load(filename string, src any) (*Script, error) {
	thread := newThread(filename)
	globals, err := starlark.ExecFile(thread, filename, src, Builtins())
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}
	globals.Freeze()
	return &Script{name: filename, globals: globals}, nil
}

func newThread(name string) *starlark.Thread {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			logger.L().Debug("starlark print", zap.String("script", name), zap.String("msg", msg))
		},
	}
	thread.SetMaxExecutionSteps(MaxSteps)
	return thread
}

// FilterNames returns the names of the script's filters in sorted order.
func (s *Script) FilterNames() []string {
	var names []string
	for name, v := range s.globals {
		if _, ok := v.(*starlark.Function); ok && !strings.HasPrefix(name, "_") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Filters returns the script's functions as filters.
func (s *Script) Filters() map[string]expression.Filter {
	out := map[string]expression.Filter{}
	for _, name := range s.FilterNames() {
		out[name] = &Filter{fn: s.globals[name].(*starlark.Function), script: s.name}
	}
	return out
}

// Register adds the script's filters to env, replacing filters with the
// same names.
func (s *Script) Register(env *liquid.Environment) {
	for name, f := range s.Filters() {
		env.AddFilter(name, f)
	}
	logger.L().Debug("registered starlark filters",
		zap.String("script", s.name),
		zap.Strings("filters", s.FilterNames()))
}

// Filter calls a Starlark function with the filtered value followed by the
// filter's arguments.
type Filter struct {
	fn     *starlark.Function
	script string
}

// Call implements expression.Filter.
func (f *Filter) Call(_ expression.Context, v expression.Value, args []expression.Value, kwargs map[string]expression.Value) (expression.Value, error) {
	posargs := make(starlark.Tuple, 0, len(args)+1)
	posargs = append(posargs, ConvertToStarlark(v))
	for _, a := range args {
		posargs = append(posargs, ConvertToStarlark(a))
	}

	names := make([]string, 0, len(kwargs))
	for k := range kwargs {
		names = append(names, k)
	}
	sort.Strings(names)
	kw := make([]starlark.Tuple, len(names))
	for i, k := range names {
		kw[i] = starlark.Tuple{starlark.String(k), ConvertToStarlark(kwargs[k])}
	}

	result, err := starlark.Call(newThread(f.script), f.fn, posargs, kw)
	if err != nil {
		var rejected *expression.FilterValueError
		if errors.As(err, &rejected) {
			return nil, rejected
		}
		return nil, err
	}
	return ConvertFromStarlark(result), nil
}
