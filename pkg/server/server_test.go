package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/extra"
	"github.com/jg-rp/liquid-extra/pkg/liquid"
)

type reply struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func newApp(t *testing.T) *liquidApp {
	t.Helper()
	env := liquid.NewEnvironment()
	extra.Register(env)
	return &liquidApp{t: t, env: env}
}

type liquidApp struct {
	t   *testing.T
	env *liquid.Environment
}

func (a *liquidApp) do(method, path, body string) (int, reply) {
	a.t.Helper()
	app := New(a.env, Config{})
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	var r reply
	require.NoError(a.t, sonic.Unmarshal(b, &r), string(b))
	return resp.StatusCode, r
}

func TestHealth(t *testing.T) {
	status, r := newApp(t).do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, CodeSuccess, r.Code)
	assert.NotZero(t, r.Data["filters"])
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "inline if",
			body: `{"template": "{{ 'hi' if user else 'anon' | upcase }}", "data": {"user": true}}`,
			want: "HI",
		},
		{
			name: "with block",
			body: `{"template": "{% with p: product.title %}{{ p }}{% endwith %}{{ p }}", "data": {"product": {"title": "Shoe"}}}`,
			want: "Shoe",
		},
		{
			name: "not",
			body: `{"template": "{% if not (a or b) %}none{% endif %}"}`,
			want: "none",
		},
		{
			name: "rejected value",
			body: `{"template": "[{{ 5 | first }}]"}`,
			want: "[]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, r := newApp(t).do(http.MethodPost, "/render", tt.body)
			require.Equal(t, http.StatusOK, status, r.Message)
			assert.Equal(t, tt.want, r.Data["output"])
		})
	}
}

func TestRenderErrors(t *testing.T) {
	app := newApp(t)

	status, r := app.do(http.MethodPost, "/render", `{"template": "\n{{ 1 | divided_by: 0 }}"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, CodeRenderError, r.Code)
	assert.Contains(t, r.Message, "division by zero")
	assert.EqualValues(t, 2, r.Data["line"])

	status, r = app.do(http.MethodPost, "/render", `{"template": "{{ a if }}"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.EqualValues(t, 1, r.Data["line"])

	status, r = app.do(http.MethodPost, "/render", `{"template": `)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeBadRequest, r.Code)
	assert.Nil(t, r.Data)
}

func TestParse(t *testing.T) {
	app := newApp(t)

	status, r := app.do(http.MethodPost, "/parse", `{"expression": "a if b else 'c' | upcase"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a if (b) else 'c' | upcase", r.Data["canonical"])

	status, r = app.do(http.MethodPost, "/parse", `{"expression": "a if b else"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.NotEmpty(t, r.Message)
}

type explodingLoader struct{}

func (explodingLoader) Load(string) (string, error) { panic("loader blew up") }

func TestPanicsBecomeErrorEnvelopes(t *testing.T) {
	app := &liquidApp{t: t, env: liquid.NewEnvironment(liquid.WithLoader(explodingLoader{}))}

	status, r := app.do(http.MethodPost, "/render", `{"template": "{% include 'partial' %}"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodeInternal, r.Code)
	assert.Equal(t, "internal server error", r.Message)
	assert.Nil(t, r.Data)

	status, r = app.do(http.MethodPost, "/render", `{"template": "{{ 'ok' }}"}`)
	require.Equal(t, http.StatusOK, status, r.Message)
	assert.Equal(t, "ok", r.Data["output"])
}

func TestFilterPanicsAreRenderErrors(t *testing.T) {
	app := newApp(t)
	app.env.AddFilter("explode", expression.FilterFunc(func(expression.Value, []expression.Value, map[string]expression.Value) (expression.Value, error) {
		panic("filter blew up")
	}))

	status, r := app.do(http.MethodPost, "/render", `{"template": "{{ 1 | explode }}"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, CodeRenderError, r.Code)
	assert.Contains(t, r.Message, "filter blew up")
}

func TestUnknownRoute(t *testing.T) {
	status, r := newApp(t).do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.NotEmpty(t, r.Message)
}
