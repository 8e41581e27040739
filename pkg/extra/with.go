package extra

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/liquid"
	"github.com/jg-rp/liquid-extra/pkg/logger"
)

// WithTag parses {% with name: expr, ... %}...{% endwith %}.
type WithTag struct{}

// Name implements liquid.Tag.
func (WithTag) Name() string { return "with" }

// Parse implements liquid.Tag.
func (WithTag) Parse(p *liquid.Parser, m liquid.Markup) (liquid.Node, error) {
	args, err := expression.ParseArguments(m.Args)
	if err != nil {
		return nil, err
	}
	body, _, err := p.ParseBlock("endwith")
	if err != nil {
		return nil, err
	}
	return &WithNode{Pos: liquid.Pos(m.Line), Args: args, Body: body}, nil
}

// WithNode binds its arguments in a scope layer that exists only while its
// body renders.
type WithNode struct {
	liquid.Pos
	Args *expression.Arguments
	Body []liquid.Node
}

// Children implements liquid.Parent.
func (n *WithNode) Children() [][]liquid.Node { return [][]liquid.Node{n.Body} }

// String returns the markup of the opening tag.
func (n *WithNode) String() string { return "with " + expression.FormatArguments(n.Args) }

// Render implements liquid.Node. Arguments are evaluated against the
// enclosing scope, so "x: x | upcase" sees the outer x. The layer is popped
// on every exit path, break and continue included.
func (n *WithNode) Render(ctx *liquid.Context, buf *bytes.Buffer) error {
	ns, err := expression.EvaluateArguments(ctx, n.Args)
	if err != nil {
		return err
	}
	ctx.PushScope(ns)
	logger.L().Debug("push scope", zap.String("tag", "with"), zap.Int("depth", ctx.ScopeDepth()), zap.Int("line", n.Line()))
	defer func() {
		ctx.PopScope()
		logger.L().Debug("pop scope", zap.String("tag", "with"), zap.Int("depth", ctx.ScopeDepth()))
	}()
	return liquid.RenderBlock(ctx, buf, n.Body)
}
