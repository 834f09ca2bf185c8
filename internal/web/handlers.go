package web

import (
	stderrors "errors"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/recipevault/internal/config"
	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/gate"
	"github.com/hpungsan/recipevault/internal/recipe"
	"github.com/hpungsan/recipevault/internal/store"
	"github.com/hpungsan/recipevault/internal/view"
)

// SessionCookie holds the operator session token.
const SessionCookie = "recipevault_session"

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	store    *store.Store
	sessions *gate.Sessions
	cfg      *config.Config
	renderer *Renderer
}

// gateFor resolves the request's session cookie to a gate.
func (h *Handlers) gateFor(r *http.Request) gate.Gate {
	c, err := r.Cookie(SessionCookie)
	if err != nil || h.sessions == nil {
		return gate.Visitor
	}
	return h.sessions.Gate(c.Value)
}

// requireOperator sends visitors to the login page (or 401 for API callers).
func (h *Handlers) requireOperator(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.gateFor(r).IsOperatorSession() {
			if r.Method == http.MethodGet && !wantsJSON(r) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			h.renderer.renderError(w, r, errors.NewOperatorRequired("use the operator console"))
			return
		}
		next(w, r)
	}
}

// HandleGallery handles GET /: the public gallery.
func (h *Handlers) HandleGallery(w http.ResponseWriter, r *http.Request) {
	h.renderGallery(w, r, view.ModePublic, "/", "gallery", "Recipe Vault")
}

// HandleAdmin handles GET /admin: the operator console.
func (h *Handlers) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	h.renderGallery(w, r, view.ModeOperator, "/admin", "admin", "Operator Console")
}

// renderGallery projects the list with a filter taken from ?q= and
// ?category=. The filter lives in the request, so visitors never see each
// other's searches.
func (h *Handlers) renderGallery(w http.ResponseWriter, r *http.Request, mode view.Mode, action, nav, title string) {
	f := filterFromQuery(r.URL.Query())
	projection := view.Project(h.store.Recipes(), f, mode)

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, projection)
		return
	}

	data := GalleryPageData{
		PageData:   h.renderer.page(title, nav, h.gateFor(r).IsOperatorSession()),
		Action:     action,
		Projection: projection,
		Categories: categoryOptions(),
		Search:     f.Search,
		Category:   f.Category,
		Empty:      view.EmptyMessage,
	}
	data.Notice = r.URL.Query().Get("notice")

	if r.Header.Get("HX-Target") == "cards" {
		h.renderer.renderBlock(w, http.StatusOK, "gallery", "cards", data)
		return
	}
	h.renderer.renderPage(w, r, "gallery", data)
}

// HandleDetail handles GET /recipes/{id}. Hidden recipes are not found for visitors.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	operator := h.gateFor(r).IsOperatorSession()
	rec, ok := h.store.Get(id)
	if !ok || (!rec.IsVisible && !operator) {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	detail := view.ProjectDetail(rec)
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, detail)
		return
	}

	steps := make([]template.HTML, len(detail.Steps))
	for i, s := range detail.Steps {
		steps[i] = renderStep(s.Text)
	}
	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: h.renderer.page(rec.Title, "gallery", operator),
		Detail:   detail,
		Steps:    steps,
	})
}

// HandleFavorite handles POST /recipes/{id}/favorite: a visitor action.
func (h *Handlers) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// visitors may only favorite what they can see
	result, err := h.store.ToggleFavoriteFor(r.Context(), h.gateFor(r), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.redirectBack(w, r, "/", "")
}

// HandleVisibility handles POST /admin/recipes/{id}/visibility.
func (h *Handlers) HandleVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := h.store.ToggleVisibility(r.Context(), h.gateFor(r), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.redirectBack(w, r, "/admin", result.Message)
}

// HandleNew handles GET /admin/new: an empty create form.
func (h *Handlers) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, FormPageData{Category: string(recipe.Breakfast)})
}

// HandleSuggest handles GET /admin/suggest: a create form prefilled with
// a random draft. Nothing is saved until the form is submitted.
func (h *Handlers) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	d := recipe.Suggest()
	h.renderForm(w, r, http.StatusOK, FormPageData{
		RecipeTitle: d.Title,
		Category:    string(d.Category),
		Ingredients: recipe.JoinLines(d.Ingredients),
		Steps:       recipe.JoinLines(d.Steps),
		Images:      recipe.JoinLines(d.Images),
	})
}

// HandleEdit handles GET /admin/recipes/{id}/edit: the form prefilled
// with the stored values.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	rec, ok := h.store.Get(id)
	if !ok {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	h.renderForm(w, r, http.StatusOK, FormPageData{
		ID:          strconv.FormatInt(rec.ID, 10),
		RecipeTitle: rec.Title,
		Category:    string(rec.Category),
		Ingredients: recipe.JoinLines(rec.Ingredients),
		Steps:       recipe.JoinLines(rec.Steps),
		Images:      recipe.JoinLines(rec.Images),
	})
}

// HandleSave handles POST /admin/recipes: create or update from the form.
// Validation failures re-render the form with the submitted values.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	form := FormPageData{
		ID:          strings.TrimSpace(r.FormValue("id")),
		RecipeTitle: r.FormValue("title"),
		Category:    r.FormValue("category"),
		Ingredients: r.FormValue("ingredients"),
		Steps:       r.FormValue("steps"),
		Images:      r.FormValue("images"),
	}

	input := store.UpsertInput{
		Title:       form.RecipeTitle,
		Category:    form.Category,
		Ingredients: form.Ingredients,
		Steps:       form.Steps,
		Images:      recipe.SplitLines(form.Images),
	}
	if form.ID != "" {
		id, err := strconv.ParseInt(form.ID, 10, 64)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("id must be an integer"))
			return
		}
		input.ID = &id
	}

	result, err := h.store.Upsert(r.Context(), h.gateFor(r), input)
	if err != nil {
		if errors.Is(err, errors.ErrValidation) && !wantsJSON(r) {
			var vErr *errors.VaultError
			if stderrors.As(err, &vErr) {
				form.Error = vErr.Message
			}
			h.renderForm(w, r, http.StatusUnprocessableEntity, form)
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		renderJSON(w, status, result)
		return
	}
	http.Redirect(w, r, "/admin?notice="+url.QueryEscape(result.Message), http.StatusSeeOther)
}

// HandleConfirmDelete handles GET /admin/recipes/{id}/delete: the
// confirmation prompt.
func (h *Handlers) HandleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	rec, ok := h.store.Get(id)
	if !ok {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	h.renderer.renderPage(w, r, "confirm", ConfirmPageData{
		PageData:    h.renderer.page("Delete "+rec.Title, "admin", true),
		ID:          rec.ID,
		RecipeTitle: rec.Title,
		Message:     store.ConfirmDeleteMessage,
	})
}

// HandleDelete handles POST /admin/recipes/{id}/delete. The confirm form
// field answers the confirmation prompt; anything but "true" cancels.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	confirmed := r.FormValue("confirm") == "true"
	result, err := h.store.Remove(r.Context(), h.gateFor(r), store.ConfirmFunc(func(string) bool { return confirmed }), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/admin")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/admin?notice="+url.QueryEscape(result.Message), http.StatusSeeOther)
}

// HandleLoginPage handles GET /login.
func (h *Handlers) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.gateFor(r).IsOperatorSession() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, "")
}

// HandleLogin handles POST /login.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	token, err := h.sessions.Login(clientKey(r), r.FormValue("password"))
	if err != nil {
		status := http.StatusUnauthorized
		msg := "Invalid credentials"
		if errors.Is(err, errors.ErrRateLimited) {
			status = http.StatusTooManyRequests
			msg = "Too many attempts. Try again in a minute."
		}
		h.renderLogin(w, r, status, msg)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
		MaxAge:   h.cfg.SessionTTLMinutes * 60,
	})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// HandleLogout handles POST /logout.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		h.sessions.Logout(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, data FormPageData) {
	title := "New Recipe"
	if data.ID != "" {
		title = "Edit Recipe"
	}
	data.PageData = h.renderer.page(title, "admin", true)
	data.Categories = recipe.Categories
	h.renderer.renderPageStatus(w, r, status, "form", data)
}

func (h *Handlers) renderLogin(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.renderer.renderPageStatus(w, r, status, "login", LoginPageData{
		PageData: h.renderer.page("Operator Login", "login", false),
		Enabled:  h.sessions.Enabled(),
		Error:    msg,
	})
}

// redirectBack returns the browser to the page the form was posted from,
// falling back to def. Only same-site paths are honored.
func (h *Handlers) redirectBack(w http.ResponseWriter, r *http.Request, def, notice string) {
	target := def
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" && ref.Host == r.Host {
		target = ref.Path
	}
	if notice != "" {
		target += "?notice=" + url.QueryEscape(notice)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// filterFromQuery reads ?q= and ?category=; an absent category means all.
func filterFromQuery(q url.Values) view.Filter {
	f := view.DefaultFilter()
	f.Search = q.Get("q")
	if c := q.Get("category"); c != "" {
		f.Category = c
	}
	return f
}

func categoryOptions() []string {
	opts := []string{view.CategoryAll}
	for _, c := range recipe.Categories {
		opts = append(opts, string(c))
	}
	return opts
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, errors.NewInvalidRequest("recipe id must be an integer")
	}
	return id, nil
}

// clientKey identifies the caller for login throttling.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
