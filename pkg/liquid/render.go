package liquid

import (
	"bytes"
	"errors"
	"slices"
	"sort"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/logger"
)

// RenderBlock renders nodes in order. Every node is a suspension point.
// Errors are located at the failing node; break and continue pass through
// unchanged.
func RenderBlock(ctx *Context, buf *bytes.Buffer, nodes []Node) error {
	for _, n := range nodes {
		if err := ctx.Suspend(); err != nil {
			return err
		}
		if err := n.Render(ctx, buf); err != nil {
			return ctx.locate(n, err)
		}
	}
	return nil
}

func (c *Context) locate(n Node, err error) error {
	if isControlFlow(err) {
		return err
	}
	var te *TemplateError
	if errors.As(err, &te) {
		return err
	}
	return &TemplateError{Name: c.template, Line: n.Line(), Err: err}
}

// Evaluate evaluates an expression whose filters may reject its value. ok
// is false when the value was rejected and nothing should be written.
func Evaluate(ctx *Context, expr expression.Expression, line int) (v expression.Value, ok bool, err error) {
	v, err = expr.Evaluate(ctx)
	if errors.Is(err, expression.ErrValueRejected) {
		logger.L().Debug("value rejected",
			zap.String("template", ctx.template),
			zap.Int("line", line),
			zap.Error(err))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Render implements Node.
func (n *TextNode) Render(_ *Context, buf *bytes.Buffer) error {
	buf.WriteString(n.Text)
	return nil
}

// Render implements Node.
func (n *RawNode) Render(_ *Context, buf *bytes.Buffer) error {
	buf.WriteString(n.Text)
	return nil
}

// Render implements Node.
func (n *OutputNode) Render(ctx *Context, buf *bytes.Buffer) error {
	v, ok, err := Evaluate(ctx, n.Expr, n.Line())
	if ok {
		buf.WriteString(v.String())
	}
	return err
}

// Render implements Node.
func (n *EchoNode) Render(ctx *Context, buf *bytes.Buffer) error {
	v, ok, err := Evaluate(ctx, n.Expr, n.Line())
	if ok {
		buf.WriteString(v.String())
	}
	return err
}

// Render implements Node. A rejected value leaves the name unassigned.
func (n *AssignNode) Render(ctx *Context, _ *bytes.Buffer) error {
	v, ok, err := Evaluate(ctx, n.Expr, n.Line())
	if ok {
		ctx.Assign(n.Name, v)
	}
	return err
}

// Render implements Node.
func (n *CaptureNode) Render(ctx *Context, _ *bytes.Buffer) error {
	var b bytes.Buffer
	if err := RenderBlock(ctx, &b, n.Body); err != nil {
		return err
	}
	ctx.Assign(n.Name, expression.StringValue(b.String()))
	return nil
}

// Render implements Node.
func (n *IfNode) Render(ctx *Context, buf *bytes.Buffer) error {
	for i, branch := range n.Branches {
		if err := ctx.Suspend(); err != nil {
			return err
		}
		v, err := branch.Condition.Evaluate(ctx)
		if err != nil {
			return err
		}
		ok := ctx.Truthy(v)
		if i == 0 && n.Negate {
			ok = !ok
		}
		if ok {
			return RenderBlock(ctx, buf, branch.Body)
		}
	}
	return RenderBlock(ctx, buf, n.Else)
}

// Render implements Node. The loop variable and forloop live in a scope
// layer that is popped however the loop ends.
func (n *ForNode) Render(ctx *Context, buf *bytes.Buffer) error {
	if err := ctx.Suspend(); err != nil {
		return err
	}
	coll, err := n.Collection.Evaluate(ctx)
	if err != nil {
		return err
	}
	items, err := n.items(ctx, coll)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return RenderBlock(ctx, buf, n.Else)
	}

	ns := expression.DictValue{}
	ctx.PushScope(ns)
	defer ctx.PopScope()

	for i, item := range items {
		ns[n.Target] = item
		ns["forloop"] = forloop(i, len(items))
		err := RenderBlock(ctx, buf, n.Body)
		switch {
		case err == ErrBreak:
			return nil
		case err == ErrContinue:
			continue
		case err != nil:
			return err
		}
	}
	return nil
}

// items lists what the loop visits after offset, limit and reversed.
// Ranges are cut down before they are expanded.
func (n *ForNode) items(ctx *Context, coll expression.Value) (expression.ListValue, error) {
	offset, err := intArgument(ctx, n.Offset, 0)
	if err != nil {
		return nil, err
	}
	limit, err := intArgument(ctx, n.Limit, -1)
	if err != nil {
		return nil, err
	}
	if n.Limit != nil {
		limit = max(0, limit)
	}

	var items expression.ListValue
	if r, ok := coll.(expression.RangeValue); ok {
		if items, err = r.Slice(int64(offset), int64(limit)).Items(); err != nil {
			return nil, err
		}
	} else {
		if items, err = iterate(coll); err != nil {
			return nil, err
		}
		offset = max(0, min(offset, len(items)))
		if limit < 0 || limit > len(items)-offset {
			limit = len(items) - offset
		}
		items = items[offset : offset+limit]
	}
	if n.Reversed {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	return items, nil
}

func intArgument(ctx *Context, e expression.Expression, fallback int) (int, error) {
	if e == nil {
		return fallback, nil
	}
	v, err := e.Evaluate(ctx)
	if err != nil {
		return 0, err
	}
	n, err := cast.ToIntE(expression.ToGo(v))
	if err != nil {
		return 0, expression.NewTypeError("for", v)
	}
	return n, nil
}

func forloop(i, length int) expression.DictValue {
	return expression.DictValue{
		"index":   expression.IntValue(i + 1),
		"index0":  expression.IntValue(i),
		"rindex":  expression.IntValue(length - i),
		"rindex0": expression.IntValue(length - i - 1),
		"first":   expression.BoolValue(i == 0),
		"last":    expression.BoolValue(i == length-1),
		"length":  expression.IntValue(length),
	}
}

// iterate lists the items a for loop visits over anything but a range.
// Hashes yield [key, value] pairs in key order.
func iterate(v expression.Value) (expression.ListValue, error) {
	switch t := v.(type) {
	case expression.ListValue:
		return t, nil
	case expression.DictValue:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(expression.ListValue, len(keys))
		for i, k := range keys {
			out[i] = expression.ListValue{expression.StringValue(k), t[k]}
		}
		return out, nil
	case expression.StringValue:
		if t == "" {
			return nil, nil
		}
		return expression.ListValue{t}, nil
	case nil, expression.NilValue, expression.Undefined:
		return nil, nil
	}
	return nil, expression.NewTypeError("for", v)
}

// Render implements Node.
func (n *BreakNode) Render(*Context, *bytes.Buffer) error { return ErrBreak }

// Render implements Node.
func (n *ContinueNode) Render(*Context, *bytes.Buffer) error { return ErrContinue }

// Render implements Node. Keyword arguments are bound in a scope layer of
// the included template only.
func (n *IncludeNode) Render(ctx *Context, buf *bytes.Buffer) error {
	if err := ctx.Suspend(); err != nil {
		return err
	}
	name, err := n.Template.Evaluate(ctx)
	if err != nil {
		return err
	}
	t, err := ctx.env.GetTemplate(name.String())
	if err != nil {
		return err
	}
	sub, err := ctx.copy(t.Name)
	if err != nil {
		return err
	}
	if n.Arguments != nil {
		ns, err := expression.EvaluateArguments(ctx, n.Arguments)
		if err != nil {
			return err
		}
		sub.PushScope(ns)
	}
	return RenderBlock(sub, buf, t.doc.Nodes)
}
