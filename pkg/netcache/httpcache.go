// Package netcache loads templates over HTTP and keeps them in a persistent
// on-disk cache revalidated with ETag and Last-Modified.
package netcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/jg-rp/liquid-extra/pkg/liquid"
	"github.com/jg-rp/liquid-extra/pkg/logger"
)

// Loader fetches template sources from BaseURL + name + Ext.
type Loader struct {
	BaseURL string
	Ext     string
	Dir     string
	Client  *http.Client
	// Attempts bounds full fetches on network errors and 5xx replies.
	Attempts int
	Backoff  time.Duration
}

// New returns a Loader caching under dir.
func New(baseURL, dir string) *Loader {
	return &Loader{
		BaseURL:  baseURL,
		Dir:      dir,
		Client:   &http.Client{Timeout: 30 * time.Second},
		Attempts: 3,
		Backoff:  500 * time.Millisecond,
	}
}

type meta struct {
	URL          string `json:"url"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	DataFile     string `json:"data_file"`
}

// Load implements liquid.Loader.
func (l *Loader) Load(name string) (string, error) {
	if filepath.Ext(name) == "" {
		name += l.Ext
	}
	u, err := url.JoinPath(l.BaseURL, name)
	if err != nil {
		return "", fmt.Errorf("template url: %w", err)
	}
	b, fromCache, err := l.Get(context.Background(), u)
	if errors.Is(err, errNotFound) {
		return "", liquid.ErrTemplateNotFound{Name: name}
	}
	if err != nil {
		return "", err
	}
	logger.L().Debug("loaded remote template", zap.String("url", u), zap.Bool("cached", fromCache))
	return string(b), nil
}

var errNotFound = errors.New("not found")

// Get returns the body of rawURL, revalidating a cached copy when one
// exists. A cached copy is also served when revalidation fails.
func (l *Loader) Get(ctx context.Context, rawURL string) (body []byte, fromCache bool, err error) {
	key := hash(rawURL)
	mpath := filepath.Join(l.Dir, key+".json")

	var m meta
	cached := false
	if b, err := os.ReadFile(mpath); err == nil && sonic.Unmarshal(b, &m) == nil && m.URL == rawURL {
		_, err := os.Stat(filepath.Join(l.Dir, m.DataFile))
		cached = err == nil
	}

	if cached {
		resp, err := l.do(ctx, rawURL, m)
		if err == nil {
			defer resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusNotModified:
				b, err := os.ReadFile(filepath.Join(l.Dir, m.DataFile))
				return b, true, err
			case resp.StatusCode == http.StatusNotFound:
				return nil, false, errNotFound
			case ok(resp.StatusCode):
				b, err := l.store(key, mpath, rawURL, resp)
				return b, false, err
			}
		}
		logger.L().Warn("revalidation failed, serving cached copy", zap.String("url", rawURL), zap.Error(err))
		b, err := os.ReadFile(filepath.Join(l.Dir, m.DataFile))
		return b, true, err
	}

	attempts := max(1, l.Attempts)
	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, false, ctx.Err()
			case <-time.After(l.Backoff << (attempt - 1)):
			}
		}
		resp, err := l.do(ctx, rawURL, meta{})
		if err != nil {
			lastErr = err
			continue
		}
		b, err := func() ([]byte, error) {
			defer resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusNotFound:
				return nil, errNotFound
			case ok(resp.StatusCode):
				return l.store(key, mpath, rawURL, resp)
			}
			return nil, fmt.Errorf("GET %s: HTTP %d", rawURL, resp.StatusCode)
		}()
		if err == nil || errors.Is(err, errNotFound) || resp.StatusCode < 500 {
			return b, false, err
		}
		lastErr = err
	}
	return nil, false, lastErr
}

func (l *Loader) do(ctx context.Context, rawURL string, m meta) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if m.ETag != "" {
		req.Header.Set("If-None-Match", m.ETag)
	}
	if m.LastModified != "" {
		req.Header.Set("If-Modified-Since", m.LastModified)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}

func (l *Loader) store(key, mpath, rawURL string, resp *http.Response) ([]byte, error) {
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return nil, err
	}
	dataFile := key + ".data"
	if err := writeFile(filepath.Join(l.Dir, dataFile), b); err != nil {
		return nil, err
	}
	mb, err := sonic.Marshal(meta{
		URL:          rawURL,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		DataFile:     dataFile,
	})
	if err != nil {
		return nil, err
	}
	return b, writeFile(mpath, mb)
}

// writeFile replaces dst atomically.
func writeFile(dst string, b []byte) error {
	tmp := dst + ".part"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

func ok(status int) bool { return status >= 200 && status < 300 }

func hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
