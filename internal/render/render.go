// Package render provides HTML template rendering for the candy counter
// pages. It supports full-page and HTMX partial rendering, automatically
// detecting the request type via the HX-Request header.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData holds all data passed to page templates.
type PageData struct {
	Title   string         // Page title for <title> tag
	Section string         // Active nav section ("dashboard", "catalog")
	Year    int            // Year the page is scoped to
	Error   string         // Validation or conflict message, if any
	Data    map[string]any // Page-specific data
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
}

// New creates a Renderer by parsing all page templates from the embedded
// filesystem. Each page template is paired with the base layout.
func New() (*Renderer, error) {
	funcMap := template.FuncMap{
		"activeClass": func(current, target string) string {
			if current == target {
				return "bg-amber-600 text-white"
			}
			return "text-amber-100 hover:bg-amber-700"
		},
		// trendSymbol maps a trend direction to its display arrow.
		"trendSymbol": func(trend string) string {
			switch trend {
			case "up":
				return "▲"
			case "down":
				return "▼"
			default:
				return "—"
			}
		},
	}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" {
			continue
		}
		tmplName := name[:len(name)-len(".html")]

		tmpl, err := template.New("base.html").Funcs(funcMap).ParseFS(
			templateFS, "templates/base.html", "templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Page renders a full page or an HTMX partial, depending on the request
// headers. For HTMX requests, only the "content" block is sent.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	rn.write(w, r, name, data, http.StatusOK)
}

// PageStatus renders like Page but with an explicit HTTP status code,
// used for validation and conflict responses.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, name string, data *PageData, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	rn.write(w, r, name, data, status)
}

// Render executes a page template into an arbitrary writer. Used to
// produce cacheable page bodies outside of a live request.
func (rn *Renderer) Render(w io.Writer, name string, data *PageData) error {
	tmpl, ok := rn.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base.html", data)
}

func (rn *Renderer) write(w http.ResponseWriter, r *http.Request, name string, data *PageData, status int) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	execName := "base.html"
	if isHTMX(r) {
		execName = "content"
	}

	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, execName, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
