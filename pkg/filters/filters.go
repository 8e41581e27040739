// Package filters provides the json, t, index, stylesheet_tag and
// script_tag filters.
package filters

import (
	"fmt"
	"html"

	"github.com/bytedance/sonic"
	"github.com/spf13/cast"

	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/liquid"
)

// Register adds every filter in this package to env. locales may be nil, in
// which case t returns its keys unchanged.
func Register(env *liquid.Environment, locales map[string]any) {
	env.AddFilter("json", expression.FilterFunc(JSON))
	env.AddFilter("t", NewTranslate(locales))
	env.AddFilter("index", expression.FilterFunc(Index))
	env.AddFilter("stylesheet_tag", expression.FilterFunc(StylesheetTag))
	env.AddFilter("script_tag", expression.FilterFunc(ScriptTag))
}

var jsonAPI = sonic.Config{SortMapKeys: true}.Froze()

// JSON serializes the value as compact JSON with sorted object keys.
func JSON(v expression.Value, _ []expression.Value, _ map[string]expression.Value) (expression.Value, error) {
	s, err := jsonAPI.MarshalToString(expression.ToGo(v))
	if err != nil {
		return nil, expression.NewFilterArgumentError("json: %v", err)
	}
	return expression.StringValue(s), nil
}

// Index returns the zero-based position of the first item equal to the
// argument, or nil when there is none.
func Index(v expression.Value, args []expression.Value, _ map[string]expression.Value) (expression.Value, error) {
	if len(args) != 1 {
		return nil, expression.NewFilterArgumentError("index expects 1 argument, found %d", len(args))
	}
	var items expression.ListValue
	switch t := v.(type) {
	case expression.ListValue:
		items = t
	case expression.RangeValue:
		if i, ok := t.IndexOf(args[0]); ok {
			return expression.IntValue(i), nil
		}
		return expression.NilValue{}, nil
	default:
		return nil, expression.RejectValue("expected an array, found %s", expression.TypeName(v))
	}
	for i, it := range items {
		if expression.Equal(it, args[0]) {
			return expression.IntValue(i), nil
		}
	}
	return expression.NilValue{}, nil
}

// StylesheetTag wraps a URL in an HTML link tag.
func StylesheetTag(v expression.Value, _ []expression.Value, _ map[string]expression.Value) (expression.Value, error) {
	return htmlTag(`<link href="%s" rel="stylesheet" type="text/css" media="all" />`, v)
}

// ScriptTag wraps a URL in an HTML script tag.
func ScriptTag(v expression.Value, _ []expression.Value, _ map[string]expression.Value) (expression.Value, error) {
	return htmlTag(`<script src="%s" type="text/javascript"></script>`, v)
}

func htmlTag(format string, v expression.Value) (expression.Value, error) {
	url, err := cast.ToStringE(expression.ToGo(v))
	if err != nil {
		return nil, expression.RejectValue("expected a string, found %s", expression.TypeName(v))
	}
	return expression.StringValue(fmt.Sprintf(format, html.EscapeString(url))), nil
}
