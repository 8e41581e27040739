package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.liquid")
	b := filepath.Join(dir, "b.liquid")
	data := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(a, []byte("{{ name if name else 'anon' | upcase }};"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("{% with n: name %}{% if not n == 'x' %}{{ n | json }}{% endif %}{% endwith %}"), 0o644))
	require.NoError(t, os.WriteFile(data, []byte(`{"name": "ada"}`), 0o644))

	out, err := execute(t, "render", "--data", data, a, b)
	require.NoError(t, err)
	assert.Equal(t, `ADA;"ada"`, out)
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "d.yml")
	require.NoError(t, os.WriteFile(yml, []byte("items: [1, 2]\n"), 0o644))

	data, err := loadData(yml)
	require.NoError(t, err)
	assert.Len(t, data["items"], 2)

	_, err = loadData(filepath.Join(dir, "d.toml"))
	assert.ErrorContains(t, err, "unsupported extension")

	data, err = loadData("")
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestParseCommand(t *testing.T) {
	out, err := execute(t, "parse", "'a' | upcase if b")
	require.NoError(t, err)
	assert.Equal(t, "'a' | upcase if (b)\n", out)

	_, err = execute(t, "parse", "a if")
	assert.Error(t, err)
}

func TestTokensCommand(t *testing.T) {
	out, err := execute(t, "tokens", "--dialect", "inline-if", "a if b")
	require.NoError(t, err)

	var toks []tokenJSON
	require.NoError(t, sonic.UnmarshalString(out, &toks))
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].Value)
	assert.Equal(t, "identifier", toks[0].Kind)
	assert.Equal(t, "if", toks[1].Value)

	_, err = execute(t, "tokens", "--dialect", "nope", "a")
	assert.ErrorContains(t, err, "unknown dialect")
}
