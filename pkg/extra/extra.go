// Package extra adds inline conditional expressions, a not operator for if
// tags and a block scoped with tag to a liquid.Environment.
package extra

import (
	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/liquid"
)

// InlineIf parses output, echo and assign markup of the form
// "expr | filters if condition else alternative | filters".
func InlineIf(src string) (expression.Expression, error) {
	e, err := expression.ParseFilteredIf(src)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// NotCondition parses if and elsif conditions that may use not, parentheses
// and range literals.
func NotCondition(src string) (expression.Expression, error) {
	b, err := expression.ParseCondition(src)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Register installs every extension into env, replacing the standard output
// statement and the echo, assign and if tags.
func Register(env *liquid.Environment) {
	RegisterInlineIf(env)
	env.AddTag(&liquid.IfTag{TagName: "if", Condition: NotCondition})
	env.AddTag(WithTag{})
}

// RegisterInlineIf installs inline conditional expressions for output
// statements and the echo and assign tags.
func RegisterInlineIf(env *liquid.Environment) {
	env.SetOutputParser(InlineIf)
	env.AddTag(&liquid.EchoTag{Expression: InlineIf})
	env.AddTag(&liquid.AssignTag{Expression: InlineIf})
}
