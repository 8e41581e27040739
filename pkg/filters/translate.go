package filters

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/liquid"
)

// DefaultLocale is used when the render context has no locale variable.
const DefaultLocale = "default"

// Translate is the t filter. It looks a dotted key up in the translations
// of the current locale and renders the result as a template, with the
// filter's keyword arguments as variables. Unknown keys translate to
// themselves.
type Translate struct {
	locales expression.DictValue
}

// NewTranslate returns a t filter for locales, a mapping of locale name to
// nested translation keys.
func NewTranslate(locales map[string]any) *Translate {
	t := &Translate{locales: expression.DictValue{}}
	if d, ok := expression.FromGo(locales).(expression.DictValue); ok {
		t.locales = d
	}
	return t
}

// LoadLocales reads a YAML file of locales.
func LoadLocales(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading locales: %w", err)
	}
	var locales map[string]any
	if err := yaml.Unmarshal(b, &locales); err != nil {
		return nil, fmt.Errorf("parsing locales %s: %w", path, err)
	}
	return locales, nil
}

// Call implements expression.Filter.
func (t *Translate) Call(ctx expression.Context, v expression.Value, _ []expression.Value, kwargs map[string]expression.Value) (expression.Value, error) {
	lc, ok := ctx.(*liquid.Context)
	if !ok {
		return nil, errors.New("t: needs a template render context")
	}
	locale := DefaultLocale
	if l, err := ctx.Resolve(expression.Path{expression.StringValue("locale")}); err == nil && expression.Truthy(l) {
		locale = l.String()
	}

	key := v.String()
	text := key
	var found expression.Value = t.locales[locale]
	if found != nil {
		for _, part := range strings.Split(key, ".") {
			found = expression.GetItem(found, expression.StringValue(part))
		}
		if _, undefined := found.(expression.Undefined); !undefined {
			text = found.String()
		}
	}

	tpl, err := lc.Env().FromString(text)
	if err != nil {
		return nil, err
	}
	data, _ := expression.ToGo(expression.DictValue(kwargs)).(map[string]any)
	out, err := tpl.Render(data)
	if err != nil {
		return nil, err
	}
	return expression.StringValue(out), nil
}
