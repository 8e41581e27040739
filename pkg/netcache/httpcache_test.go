package netcache

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jg-rp/liquid-extra/pkg/liquid"
)

type origin struct {
	hits     atomic.Int32
	fullHits atomic.Int32
	failures atomic.Int32
	down     atomic.Bool
}

func (o *origin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.hits.Add(1)
	if o.failures.Load() > 0 {
		o.failures.Add(-1)
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	if o.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if r.URL.Path != "/partials/greeting.liquid" {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("If-None-Match") == `"v1"` {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	o.fullHits.Add(1)
	w.Header().Set("ETag", `"v1"`)
	_, _ = w.Write([]byte("Hello {{ name | upcase }}"))
}

func newLoader(t *testing.T, o *origin) *Loader {
	t.Helper()
	srv := httptest.NewServer(o)
	t.Cleanup(srv.Close)
	l := New(srv.URL+"/partials", t.TempDir())
	l.Ext = ".liquid"
	l.Backoff = 0
	return l
}

func TestLoadRevalidates(t *testing.T) {
	o := &origin{}
	l := newLoader(t, o)

	src, err := l.Load("greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{ name | upcase }}", src)

	src, err = l.Load("greeting.liquid")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{ name | upcase }}", src)
	assert.EqualValues(t, 2, o.hits.Load())
	assert.EqualValues(t, 1, o.fullHits.Load(), "second load is a 304")
}

func TestLoadServesCachedCopyWhenOriginFails(t *testing.T) {
	o := &origin{}
	l := newLoader(t, o)

	_, err := l.Load("greeting")
	require.NoError(t, err)

	o.down.Store(true)
	src, err := l.Load("greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{ name | upcase }}", src)
}

func TestLoadRetries(t *testing.T) {
	o := &origin{}
	o.failures.Store(2)
	l := newLoader(t, o)

	_, err := l.Load("greeting")
	require.NoError(t, err)
	assert.EqualValues(t, 3, o.hits.Load())

	o2 := &origin{}
	o2.down.Store(true)
	_, err = newLoader(t, o2).Load("greeting")
	assert.ErrorContains(t, err, "HTTP 503")
}

func TestLoadNotFound(t *testing.T) {
	_, err := newLoader(t, &origin{}).Load("missing")
	var nf liquid.ErrTemplateNotFound
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "missing.liquid", nf.Name)
}

func TestIncludeThroughLoader(t *testing.T) {
	env := liquid.NewEnvironment(liquid.WithLoader(newLoader(t, &origin{})))
	tpl, err := env.FromString("{% include 'greeting', name: 'ada' %}!")
	require.NoError(t, err)
	out, err := tpl.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello ADA!", out)
}
