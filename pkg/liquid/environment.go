package liquid

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jg-rp/liquid-extra/pkg/expression"
	"github.com/jg-rp/liquid-extra/pkg/logger"
)

// OutputParser parses the markup of an output statement.
type OutputParser func(src string) (expression.Expression, error)

// Environment holds the filters, tags and policies shared by the templates
// parsed from it. Configure it before rendering; registries are read without
// locking while templates render.
type Environment struct {
	filters         map[string]expression.Filter
	tags            map[string]Tag
	loader          Loader
	output          OutputParser
	strictFilters   bool
	strictVariables bool

	mu    sync.Mutex
	cache map[string]*Template
}

// Option configures an Environment.
type Option func(*Environment)

// WithStrictFilters makes unknown filters an error. It is on by default.
func WithStrictFilters(strict bool) Option {
	return func(e *Environment) { e.strictFilters = strict }
}

// WithStrictVariables makes resolving an undefined name an error.
func WithStrictVariables(strict bool) Option {
	return func(e *Environment) { e.strictVariables = strict }
}

// WithLoader sets the loader used by include and GetTemplate.
func WithLoader(l Loader) Option {
	return func(e *Environment) { e.loader = l }
}

// WithFilter registers a filter.
func WithFilter(name string, f expression.Filter) Option {
	return func(e *Environment) { e.filters[name] = f }
}

// WithTag registers a tag, replacing any tag with the same name.
func WithTag(t Tag) Option {
	return func(e *Environment) { e.tags[t.Name()] = t }
}

// WithOutputParser replaces the parser for {{ }} statements.
func WithOutputParser(p OutputParser) Option {
	return func(e *Environment) { e.output = p }
}

// NewEnvironment returns an environment with the standard tags and filters.
func NewEnvironment(opts ...Option) *Environment {
	e := &Environment{
		filters:       builtinFilters(),
		tags:          map[string]Tag{},
		output:        FilteredOutput,
		strictFilters: true,
		cache:         map[string]*Template{},
	}
	for _, t := range builtinTags() {
		e.tags[t.Name()] = t
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddFilter registers a filter.
func (e *Environment) AddFilter(name string, f expression.Filter) { e.filters[name] = f }

// AddTag registers a tag, replacing any tag with the same name.
func (e *Environment) AddTag(t Tag) { e.tags[t.Name()] = t }

// SetOutputParser replaces the parser for {{ }} statements.
func (e *Environment) SetOutputParser(p OutputParser) { e.output = p }

// SetStrictFilters changes the unknown filter policy.
func (e *Environment) SetStrictFilters(strict bool) { e.strictFilters = strict }

// Filter looks up a registered filter.
func (e *Environment) Filter(name string) (expression.Filter, bool) {
	f, ok := e.filters[name]
	return f, ok
}

// FilterNames returns the registered filter names in sorted order.
func (e *Environment) FilterNames() []string {
	names := make([]string, 0, len(e.filters))
	for name := range e.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Environment) tag(name string) (Tag, bool) {
	t, ok := e.tags[name]
	return t, ok
}

func (e *Environment) parseOutput(src string) (expression.Expression, error) {
	return e.output(src)
}

// FromString parses an anonymous template.
func (e *Environment) FromString(src string) (*Template, error) {
	return e.Parse("", src)
}

// Parse parses src as the template called name.
func (e *Environment) Parse(name, src string) (*Template, error) {
	start := time.Now()
	doc, err := newParser(e, name, src).parseDocument()
	if err != nil {
		return nil, err
	}
	logger.L().Debug("parsed template",
		zap.String("template", name),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Duration("elapsed", time.Since(start)))
	return &Template{Name: name, env: e, doc: doc}, nil
}

// GetTemplate loads, parses and caches a template by name.
func (e *Environment) GetTemplate(name string) (*Template, error) {
	e.mu.Lock()
	t, ok := e.cache[name]
	e.mu.Unlock()
	if ok {
		return t, nil
	}
	if e.loader == nil {
		return nil, ErrTemplateNotFound{Name: name}
	}
	src, err := e.loader.Load(name)
	if err != nil {
		return nil, err
	}
	t, err = e.Parse(name, src)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.cache[name] = t
	e.mu.Unlock()
	return t, nil
}

// FilteredOutput parses an output statement as an expression followed by
// filters.
func FilteredOutput(src string) (expression.Expression, error) {
	f, err := expression.ParseFiltered(src)
	if err != nil {
		return nil, err
	}
	return f, nil
}
