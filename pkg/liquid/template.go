package liquid

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/logger"
)

// Template is a parsed template. It can be rendered any number of times,
// concurrently, each render with its own Context.
type Template struct {
	Name string
	env  *Environment
	doc  *Document
}

// Document returns the parsed node tree.
func (t *Template) Document() *Document { return t.doc }

// Render renders the template to completion on the calling goroutine.
func (t *Template) Render(data map[string]any) (string, error) {
	return t.RenderContext(t.newContext(data))
}

// RenderAsync renders the template inside a task started by coop.Run,
// yielding to the other tasks at every evaluation step. The output is the
// same as Render's. Outside a task it behaves like Render but stops when ctx
// is cancelled.
func (t *Template) RenderAsync(ctx context.Context, data map[string]any) (string, error) {
	c := t.newContext(data)
	c.task = ctx
	return t.RenderContext(c)
}

// RenderContext renders the template with an existing context.
func (t *Template) RenderContext(ctx *Context) (string, error) {
	start := time.Now()
	if ctx.template == "" {
		ctx.template = t.Name
	}
	var buf bytes.Buffer
	err := RenderBlock(ctx, &buf, t.doc.Nodes)
	if err != nil && !isControlFlow(err) {
		return "", err
	}
	logger.L().Debug("rendered template",
		zap.String("template", t.Name),
		zap.Bool("async", ctx.task != nil),
		zap.Duration("elapsed", time.Since(start)))
	return buf.String(), nil
}

func (t *Template) newContext(data map[string]any) *Context {
	globals, _ := expression.FromGo(data).(expression.DictValue)
	c := NewContext(t.env, globals)
	c.template = t.Name
	return c
}

// Validate reports whether src parses in env.
func Validate(env *Environment, src string) error {
	_, err := env.FromString(src)
	return err
}
