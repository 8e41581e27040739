package liquid

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jg-rp/liquid-extra/pkg/coop"
)

const asyncSource = `{% for x in items %}{% if forloop.first %}[{% endif %}{{ x | upcase }}{% unless forloop.last %}, {% endunless %}{% endfor %}] {{ name | default: 'anon' }}`

func TestRenderAsyncMatchesRender(t *testing.T) {
	env := NewEnvironment()
	tpl, err := env.FromString(asyncSource)
	require.NoError(t, err)
	data := map[string]any{"items": []string{"a", "b", "c"}}

	want, err := tpl.Render(data)
	require.NoError(t, err)
	assert.Equal(t, "[A, B, C] anon", want)

	// Outside a task RenderAsync never yields.
	got, err := tpl.RenderAsync(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	s := coop.New()
	outs := make([]string, 3)
	tasks := make([]coop.Task, len(outs))
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			out, err := tpl.RenderAsync(ctx, data)
			outs[i] = out
			return err
		}
	}
	require.NoError(t, s.Run(context.Background(), tasks...))
	for _, out := range outs {
		assert.Equal(t, want, out)
	}
	assert.Positive(t, s.Yields())
}

func TestRenderAsyncCancelled(t *testing.T) {
	tpl, err := NewEnvironment().FromString("{{ a }}{{ b }}")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tpl.RenderAsync(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderAsyncFailureCancelsSiblings(t *testing.T) {
	env := NewEnvironment()
	bad, err := env.FromString("{{ 1 | divided_by: 0 }}")
	require.NoError(t, err)
	slow, err := env.FromString("{% for i in (1..1000) %}{{ i }}{% endfor %}")
	require.NoError(t, err)

	err = coop.New().Run(context.Background(),
		func(ctx context.Context) error {
			_, err := slow.RenderAsync(ctx, nil)
			return err
		},
		func(ctx context.Context) error {
			_, err := bad.RenderAsync(ctx, nil)
			return err
		},
	)
	var te *TemplateError
	assert.ErrorAs(t, err, &te)
}

func TestConcurrentRenders(t *testing.T) {
	tpl, err := NewEnvironment().FromString("{% for i in (1..n) %}{{ i }}{% endfor %}")
	require.NoError(t, err)

	var g errgroup.Group
	outs := make([]string, 16)
	for i := range outs {
		g.Go(func() error {
			out, err := tpl.Render(map[string]any{"n": i})
			outs[i] = out
			return err
		})
	}
	require.NoError(t, g.Wait())
	for i, out := range outs {
		var want string
		for j := 1; j <= i; j++ {
			want += fmt.Sprint(j)
		}
		assert.Equal(t, want, out)
	}
}
