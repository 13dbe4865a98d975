// Copyright (C) 2025 Joshua Goldstein

// Package template provides template rendering utilities
package template

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/SergeyMarcum/crm-app/pkg/auth"
	"github.com/SergeyMarcum/crm-app/pkg/logger"
)

//go:embed templates/*.html
var embedded embed.FS

// BaseTemplate is the layout every page is rendered into.
const BaseTemplate = "base.html"

var log = logger.NewLogger("template")

// Renderer handles template parsing and rendering. Parsed templates are
// cached per page.
type Renderer struct {
	fsys         fs.FS
	baseTemplate string
	funcs        template.FuncMap

	mu    sync.RWMutex
	pages map[string]*template.Template
}

// NewRenderer creates a renderer over fsys with the default func map.
func NewRenderer(fsys fs.FS, baseTemplate string) *Renderer {
	return &Renderer{
		fsys:         fsys,
		baseTemplate: baseTemplate,
		funcs:        Funcs(),
		pages:        make(map[string]*template.Template),
	}
}

// New returns a renderer over the embedded console templates.
func New() (*Renderer, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	return NewRenderer(sub, BaseTemplate), nil
}

// Preload parses the named pages so template errors surface at startup.
func (r *Renderer) Preload(withBase []string, standalone []string) error {
	for _, name := range withBase {
		if _, err := r.lookup(name, true); err != nil {
			return err
		}
	}
	for _, name := range standalone {
		if _, err := r.lookup(name, false); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) lookup(name string, withBase bool) (*template.Template, error) {
	key := name
	if withBase {
		key = r.baseTemplate + "+" + name
	}

	r.mu.RLock()
	tmpl, ok := r.pages[key]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	files := []string{name}
	if withBase {
		files = []string{r.baseTemplate, name}
	}
	tmpl, err := template.New(files[0]).Funcs(r.funcs).ParseFS(r.fsys, files...)
	if err != nil {
		log.Error("Error parsing template", err, "template", name)
		return nil, err
	}

	r.mu.Lock()
	r.pages[key] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}

// Render executes a page into a buffer and writes it with status, so a
// failing template never produces a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, withBase bool, data interface{}) error {
	tmpl, err := r.lookup(name, withBase)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	entry := name
	if withBase {
		entry = r.baseTemplate
	}
	if err := tmpl.ExecuteTemplate(&buf, entry, data); err != nil {
		log.Error("Error rendering template", err, "template", name)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// RenderWithBase renders a template with the base layout
func (r *Renderer) RenderWithBase(w http.ResponseWriter, name string, data interface{}) error {
	return r.Render(w, http.StatusOK, name, true, data)
}

// RenderStandalone renders a standalone template without base layout
func (r *Renderer) RenderStandalone(w http.ResponseWriter, name string, data interface{}) error {
	return r.Render(w, http.StatusOK, name, false, data)
}

// Funcs is the func map available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"roleName": func(id int) string { return auth.Role(id).String() },
		"label":    Label,
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"dash": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return "—"
			}
			return s
		},
	}
}

// Label turns a backend code such as "in_progress" into "In Progress".
func Label(code string) string {
	if code == "" {
		return ""
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(code, "_", " "))
}
