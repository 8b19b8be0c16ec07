// Package render turns page view models into HTML with pongo2 templates
// embedded in the binary.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the bundled page templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

const templateExtension = ".tpl"

// Option configures an Engine.
type Option func(*config)

type config struct {
	templates  fs.FS
	globalData map[string]any
}

// WithFS replaces the bundled templates.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templates = files
		}
	}
}

// WithGlobalData seeds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// Engine renders named templates from a pongo2 template set. Compiled
// templates are cached.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	tplExt      string
}

// New constructs an Engine over the bundled templates unless WithFS says
// otherwise.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		templates: TemplatesFS(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	engine := &Engine{
		templateSet: pongo2.NewSet("murmurations", pongo2.NewFSLoader(cfg.templates)),
		templates:   make(map[string]*pongo2.Template),
		tplExt:      templateExtension,
	}
	registerDefaultFilters()

	if len(cfg.globalData) > 0 {
		globals, err := convertToContext(cfg.globalData)
		if err != nil {
			return nil, fmt.Errorf("render: apply global data: %w", err)
		}
		if engine.templateSet.Globals == nil {
			engine.templateSet.Globals = make(pongo2.Context)
		}
		engine.templateSet.Globals.Update(globals)
	}
	return engine, nil
}

// Render executes the named template with data and writes the result to w.
// Data is flattened through JSON so struct tags decide template field names.
func (e *Engine) Render(w io.Writer, name string, data any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("render: engine is nil")
	}
	templatePath := name
	if !strings.HasSuffix(templatePath, e.tplExt) {
		templatePath += e.tplExt
	}

	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return err
	}
	viewContext, err := convertToContext(data)
	if err != nil {
		return fmt.Errorf("render: convert data: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(viewContext, &buf); err != nil {
		return fmt.Errorf("render: execute template %q: %w", templatePath, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func (e *Engine) getTemplate(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: load template %q: %w", path, err)
	}
	e.templates[path] = tmpl
	return tmpl, nil
}

func convertToContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	out := pongo2.Context{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("view data must encode as an object: %w", err)
	}
	return out, nil
}

func registerDefaultFilters() {
	if !pongo2.FilterExists("trim") {
		_ = pongo2.RegisterFilter("trim", filterTrim)
	}
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}
