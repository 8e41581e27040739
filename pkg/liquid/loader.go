package liquid

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Loader finds template source by name.
type Loader interface {
	Load(name string) (string, error)
}

// MemoryLoader serves templates from a map.
type MemoryLoader map[string]string

// Load implements Loader.
func (m MemoryLoader) Load(name string) (string, error) {
	if s, ok := m[name]; ok {
		return s, nil
	}
	return "", ErrTemplateNotFound{Name: name}
}

// FileLoader reads templates below Root. Names without an extension get Ext
// appended. Names that would leave Root are not found.
type FileLoader struct {
	Root string
	Ext  string
}

// Load implements Loader.
func (l FileLoader) Load(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", ErrTemplateNotFound{Name: name}
	}
	if filepath.Ext(rel) == "" {
		rel += l.Ext
	}
	b, err := os.ReadFile(filepath.Join(l.Root, rel))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrTemplateNotFound{Name: name}
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}
