package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/recipe"
	"github.com/hpungsan/recipevault/internal/view"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title    string
	Version  string
	Nav      string // active nav item: "gallery", "admin", "login"
	Operator bool
	Notice   string
}

// GalleryPageData is the template data for the public gallery and the
// operator console; the cards carry the mode-specific controls.
type GalleryPageData struct {
	PageData
	Action     string // form target for the filter bar
	Projection view.Projection
	Categories []string
	Search     string
	Category   string
	Empty      string
}

// DetailPageData is the template data for the recipe detail page.
type DetailPageData struct {
	PageData
	Detail view.Detail
	Steps  []template.HTML
}

// FormPageData is the template data for the create/edit form.
type FormPageData struct {
	PageData
	ID          string
	RecipeTitle string
	Category    string
	Ingredients string
	Steps       string
	Images      string
	Categories  []recipe.Category
	Error       string
}

// ConfirmPageData is the template data for the delete confirmation.
type ConfirmPageData struct {
	PageData
	ID          int64
	RecipeTitle string
	Message     string
}

// LoginPageData is the template data for the login page.
type LoginPageData struct {
	PageData
	Enabled bool
	Error   string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"formatCreatedAt": formatCreatedAt,
		"lower":           strings.ToLower,
		"imageURL":        imageURL,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"gallery": "gallery.html",
		"detail":  "detail.html",
		"form":    "form.html",
		"confirm": "confirm.html",
		"login":   "login.html",
		"error":   "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// page fills the common page fields.
func (r *Renderer) page(title, nav string, operator bool) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav, Operator: operator}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
// For htmx requests, only the "content" block is rendered to avoid duplicating the layout.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	block := "layout"
	if req != nil && req.Header.Get("HX-Request") == "true" {
		block = "content"
	}
	r.renderBlock(w, status, name, block, data)
}

// renderBlock renders a specific named block from a page template.
// Used for htmx partial swaps such as a single card after a toggle.
func (r *Renderer) renderBlock(w http.ResponseWriter, status int, page, block string, data any) {
	t, ok := r.templates[page]
	if !ok {
		log.Printf("template %q not found", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		log.Printf("template %s/%s execution error: %v", page, block, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var vErr *errors.VaultError
	if !stderrors.As(err, &vErr) {
		vErr = errors.NewInternal(err)
	}

	status := vErr.Status
	message := vErr.Message
	if vErr.Code == errors.ErrInternal {
		log.Printf("internal error: %v", err)
		message = "an internal error occurred"
	}

	if req.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	if wantsJSON(req) {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(vErr.Code),
				"message": message,
				"status":  status,
			},
		})
		return
	}

	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", status), "", false),
		StatusCode: status,
		Message:    message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderStep converts one step line (inline markdown allowed) to HTML.
func renderStep(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	html := strings.TrimSpace(buf.String())
	html = strings.TrimPrefix(html, "<p>")
	html = strings.TrimSuffix(html, "</p>")
	return template.HTML(html)
}

// formatCreatedAt shows a stored createdAt as "2006-01-02 15:04" UTC, or
// the raw value when it does not parse.
func formatCreatedAt(s string) string {
	t, err := time.Parse(recipe.CreatedAtLayout, s)
	if err != nil {
		return s
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// imageURL admits http(s) URLs, site-relative paths and data:image URLs for
// use in src attributes; anything else becomes the empty string.
func imageURL(ref string) template.URL {
	switch {
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"),
		strings.HasPrefix(ref, "data:image/"),
		strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//"):
		return template.URL(ref)
	}
	return ""
}
