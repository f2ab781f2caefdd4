package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
)

//go:embed all:default
var embedded embed.FS

// ErrTemplateDoesNotExist is returned when none of the requested names can be found.
var ErrTemplateDoesNotExist = errors.New("template does not exist")

const (
	// BaseLayout is the page layout every default page template extends.
	BaseLayout = "crudview/base.html"
	partialDir = "crudview/partial"
)

// Engine renders html/template pages looked up in override directories first and
// in the embedded defaults last. It implements fiber.Views.
type Engine struct {
	dirs    []string
	sources []fs.FS
	funcs   template.FuncMap
	reload  bool

	mu       sync.RWMutex
	loaded   bool
	common   *template.Template
	partials *template.Template
	pages    map[string]*template.Template
}

// Option configures an Engine.
type Option func(*Engine)

// WithDirs adds template directories searched before the embedded defaults, in order.
func WithDirs(dirs ...string) Option {
	return func(e *Engine) {
		e.dirs = append(e.dirs, dirs...)
	}
}

// WithFS adds a filesystem searched after the directories and before the defaults.
func WithFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.sources = append(e.sources, fsys)
	}
}

// WithFuncs registers template functions. Functions must be registered before Load.
func WithFuncs(fm template.FuncMap) Option {
	return func(e *Engine) {
		for k, v := range fm {
			e.funcs[k] = v
		}
	}
}

// WithReload disables the page cache so edited files are picked up on the next render.
func WithReload(reload bool) Option {
	return func(e *Engine) { e.reload = reload }
}

func New(opts ...Option) *Engine {
	e := &Engine{funcs: template.FuncMap{
		"capfirst": capfirst,
	}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddFunc registers a single template function.
func (e *Engine) AddFunc(name string, fn any) *Engine {
	e.mu.Lock()
	e.funcs[name] = fn
	e.loaded = false
	e.mu.Unlock()
	return e
}

// Dirs returns the configured override directories.
func (e *Engine) Dirs() []string { return append([]string(nil), e.dirs...) }

func (e *Engine) filesystems() []fs.FS {
	out := make([]fs.FS, 0, len(e.dirs)+len(e.sources)+1)
	for _, d := range e.dirs {
		out = append(out, os.DirFS(d))
	}
	out = append(out, e.sources...)
	def, _ := fs.Sub(embedded, "default")
	return append(out, def)
}

func (e *Engine) read(name string) ([]byte, error) {
	name = strings.TrimPrefix(path.Clean(name), "/")
	for _, fsys := range e.filesystems() {
		b, err := fs.ReadFile(fsys, name)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrTemplateDoesNotExist)
}

// Source returns the raw text of the named template as the engine would load it.
func (e *Engine) Source(name string) ([]byte, error) {
	return e.read(name)
}

// Exists reports whether a template with the given name can be loaded.
func (e *Engine) Exists(name string) bool {
	_, err := e.read(name)
	return err == nil
}

// Resolve returns the first name in names that exists.
func (e *Engine) Resolve(names ...string) (string, error) {
	for _, n := range names {
		if e.Exists(n) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%s: %w", strings.Join(names, ", "), ErrTemplateDoesNotExist)
}

// Load parses the layout and the partials and drops cached pages.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load()
}

func (e *Engine) load() error {
	common := template.New("").Funcs(e.funcs)
	src, err := e.read(BaseLayout)
	if err != nil {
		return err
	}
	if _, err := common.New(BaseLayout).Parse(string(src)); err != nil {
		return fmt.Errorf("parse %s: %w", BaseLayout, err)
	}

	partials := template.New("").Funcs(e.funcs)
	for _, name := range e.partialNames() {
		src, err := e.read(name)
		if err != nil {
			return err
		}
		if _, err := partials.New(name).Parse(string(src)); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
	}

	e.common = common
	e.partials = partials
	e.pages = make(map[string]*template.Template)
	e.loaded = true
	return nil
}

// partialNames lists every partial present in any source; overrides shadow defaults.
func (e *Engine) partialNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, fsys := range e.filesystems() {
		matches, _ := fs.Glob(fsys, partialDir+"/*.html")
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func (e *Engine) page(name string) (*template.Template, error) {
	e.mu.RLock()
	if e.loaded && !e.reload {
		if t, ok := e.pages[name]; ok {
			e.mu.RUnlock()
			return t, nil
		}
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || e.reload {
		if err := e.load(); err != nil {
			return nil, err
		}
	}
	if t, ok := e.pages[name]; ok {
		return t, nil
	}
	src, err := e.read(name)
	if err != nil {
		return nil, err
	}
	t, err := e.common.Clone()
	if err != nil {
		return nil, err
	}
	if _, err := t.New(name).Parse(string(src)); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	e.pages[name] = t
	return t, nil
}

// Render executes the named page. The layout argument of fiber.Views is ignored:
// pages choose their layout with {{template}}.
func (e *Engine) Render(w io.Writer, name string, binding any, _ ...string) error {
	t, err := e.page(name)
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(w, name, binding)
}

// Partial renders one of the crudview/partial templates, for use by template functions.
func (e *Engine) Partial(name string, data any) (template.HTML, error) {
	e.mu.Lock()
	if !e.loaded || e.reload {
		if err := e.load(); err != nil {
			e.mu.Unlock()
			return "", err
		}
	}
	partials := e.partials
	e.mu.Unlock()

	full := path.Join(partialDir, name)
	if partials.Lookup(full) == nil {
		return "", fmt.Errorf("%s: %w", full, ErrTemplateDoesNotExist)
	}
	var buf bytes.Buffer
	if err := partials.ExecuteTemplate(&buf, full, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func capfirst(v any) string {
	if v == nil {
		return ""
	}
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
