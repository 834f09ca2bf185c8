package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/recipevault/internal/config"
	"github.com/hpungsan/recipevault/internal/gate"
	"github.com/hpungsan/recipevault/internal/persist"
	"github.com/hpungsan/recipevault/internal/store"
	"github.com/hpungsan/recipevault/internal/view"
)

const testPassword = "saffron-and-salt"

var (
	hashOnce sync.Once
	testHash string
)

func passwordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		h, err := gate.NewPasswordHasher().Hash(testPassword)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		testHash = h
	})
	return testHash
}

type testApp struct {
	store   *store.Store
	handler http.Handler
}

func setupTest(t *testing.T) *testApp {
	t.Helper()

	cfg := config.DefaultConfig()
	s, err := store.Open(context.Background(), persist.NewGateway(persist.NewMemorySlot(), cfg.StorageKey), store.Options{
		Notifier: store.NotifyFunc(func(string) {}),
	})
	require.NoError(t, err)

	sessions := gate.NewSessions(gate.SessionsConfig{PasswordHash: passwordHash(t), RatePerMinute: 1, Burst: 3})
	return &testApp{store: s, handler: NewHandler(s, sessions, cfg, "test")}
}

func (a *testApp) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// login returns an operator session cookie.
func (a *testApp) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := a.do(postForm("/login", url.Values{"password": {testPassword}}), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin", rec.Header().Get("Location"))

	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			require.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (a *testApp) hide(t *testing.T, id int64) {
	t.Helper()
	_, err := a.store.ToggleVisibility(context.Background(), gate.Operator, id)
	require.NoError(t, err)
}

// --- Gallery ---

func TestGallery_ShowsVisibleRecipes(t *testing.T) {
	app := setupTest(t)
	app.hide(t, 2)

	rec := app.do(httptest.NewRequest("GET", "/", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "Sunset Berry Galette")
	require.NotContains(t, body, "Truffle Mushroom Risotto")
	require.Contains(t, body, `action="/recipes/1/favorite"`)
	require.NotContains(t, body, "/admin/recipes/1/edit")
}

func TestGallery_FilterFromQuery(t *testing.T) {
	app := setupTest(t)

	rec := app.do(httptest.NewRequest("GET", "/?q=truffle", nil), nil)
	body := rec.Body.String()
	require.Contains(t, body, "Truffle Mushroom Risotto")
	require.NotContains(t, body, "Sunset Berry Galette")

	rec = app.do(httptest.NewRequest("GET", "/?category=Brunch", nil), nil)
	require.Contains(t, rec.Body.String(), view.EmptyMessage)

	// the store's own filter is untouched
	require.Equal(t, view.DefaultFilter(), app.store.Filter())
}

func TestGallery_JSON(t *testing.T) {
	app := setupTest(t)

	req := httptest.NewRequest("GET", "/?category=Dessert", nil)
	req.Header.Set("Accept", "application/json")
	rec := app.do(req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var p view.Projection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.Equal(t, "public", p.Mode)
	require.Len(t, p.Cards, 1)
	require.Equal(t, int64(1), p.Cards[0].ID)
	require.True(t, p.Cards[0].ShowFavorite)
}

func TestGallery_HtmxReturnsContentOnly(t *testing.T) {
	app := setupTest(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("HX-Request", "true")
	rec := app.do(req, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "<!DOCTYPE html>")
	require.Contains(t, rec.Body.String(), "Sunset Berry Galette")
}

func TestSecurityHeaders(t *testing.T) {
	app := setupTest(t)

	rec := app.do(httptest.NewRequest("GET", "/", nil), nil)
	require.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestStaticAssets(t *testing.T) {
	app := setupTest(t)

	rec := app.do(httptest.NewRequest("GET", "/static/style.css", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

// --- Detail and favorite ---

func TestDetail(t *testing.T) {
	app := setupTest(t)
	_, err := app.store.Upsert(context.Background(), gate.Operator, store.UpsertInput{
		Title:    "Charred Leeks",
		Category: "Healthy",
		Steps:    "Grill until **blackened**\n<script>alert(1)</script>",
	})
	require.NoError(t, err)
	id := app.store.Recipes()[0].ID

	rec := app.do(httptest.NewRequest("GET", "/recipes/"+itoa(id), nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "<strong>blackened</strong>")
	require.NotContains(t, body, "<script>alert(1)</script>")
}

func TestDetail_HiddenIsNotFoundForVisitors(t *testing.T) {
	app := setupTest(t)
	app.hide(t, 2)

	rec := app.do(httptest.NewRequest("GET", "/recipes/2", nil), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(httptest.NewRequest("GET", "/recipes/2", nil), app.login(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "HIDDEN")
}

func TestDetail_BadID(t *testing.T) {
	app := setupTest(t)

	rec := app.do(httptest.NewRequest("GET", "/recipes/abc", nil), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(httptest.NewRequest("GET", "/recipes/999", nil), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFavorite_VisitorToggles(t *testing.T) {
	app := setupTest(t)

	req := postForm("/recipes/2/favorite", nil)
	req.Header.Set("Referer", "http://example.com/?q=risotto")
	rec := app.do(req, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	r, _ := app.store.Get(2)
	require.True(t, r.Favorite)
}

func TestFavorite_HiddenRecipeNotFoundForVisitors(t *testing.T) {
	app := setupTest(t)
	app.hide(t, 2)

	rec := app.do(postForm("/recipes/2/favorite", nil), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	r, _ := app.store.Get(2)
	require.False(t, r.Favorite)
}

// --- Login ---

func TestAdmin_RequiresLogin(t *testing.T) {
	app := setupTest(t)

	rec := app.do(httptest.NewRequest("GET", "/admin", nil), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	rec = app.do(postForm("/admin/recipes", url.Values{"title": {"X"}, "category": {"Lunch"}}), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, app.store.Recipes(), 2)

	rec = app.do(httptest.NewRequest("GET", "/admin", nil), &http.Cookie{Name: SessionCookie, Value: "forged"})
	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	app := setupTest(t)

	rec := app.do(postForm("/login", url.Values{"password": {"nope"}}), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid credentials")
	require.Empty(t, rec.Result().Cookies())
}

func TestLogin_RateLimited(t *testing.T) {
	app := setupTest(t)

	var last int
	for range 4 {
		last = app.do(postForm("/login", url.Values{"password": {"nope"}}), nil).Code
	}
	require.Equal(t, http.StatusTooManyRequests, last)
}

func TestLogout(t *testing.T) {
	app := setupTest(t)
	cookie := app.login(t)

	rec := app.do(postForm("/logout", nil), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = app.do(httptest.NewRequest("GET", "/admin", nil), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

// --- Operator console ---

func TestAdmin_ShowsStatusAndControls(t *testing.T) {
	app := setupTest(t)
	app.hide(t, 2)
	cookie := app.login(t)

	rec := app.do(httptest.NewRequest("GET", "/admin", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "Truffle Mushroom Risotto")
	require.Contains(t, body, "HIDDEN")
	require.Contains(t, body, "LIVE")
	require.Contains(t, body, "/admin/recipes/2/edit")
	require.Contains(t, body, `action="/admin/recipes/2/visibility"`)
	require.NotContains(t, body, `action="/recipes/2/favorite"`)
}

func TestSave_CreateAndEdit(t *testing.T) {
	app := setupTest(t)
	cookie := app.login(t)

	rec := app.do(postForm("/admin/recipes", url.Values{
		"title":       {"Lemon Tart"},
		"category":    {"Dessert"},
		"ingredients": {"Lemons\n\nButter"},
		"steps":       {"Bake"},
		"images":      {""},
	}), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), url.QueryEscape(store.MsgCreated))

	created := app.store.Recipes()[0]
	require.Equal(t, "Lemon Tart", created.Title)
	require.Equal(t, []string{"Lemons", "Butter"}, created.Ingredients)
	require.Len(t, created.Images, 1)

	rec = app.do(httptest.NewRequest("GET", "/admin/recipes/"+itoa(created.ID)+"/edit", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="Lemon Tart"`)

	rec = app.do(postForm("/admin/recipes", url.Values{
		"id":       {itoa(created.ID)},
		"title":    {"Meyer Lemon Tart"},
		"category": {"Dessert"},
	}), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	recipes := app.store.Recipes()
	require.Len(t, recipes, 3)
	require.Equal(t, "Meyer Lemon Tart", recipes[0].Title)
	require.Equal(t, created.CreatedAt, recipes[0].CreatedAt)
}

func TestSave_ValidationRerendersForm(t *testing.T) {
	app := setupTest(t)
	cookie := app.login(t)

	rec := app.do(postForm("/admin/recipes", url.Values{
		"title":       {"Mystery"},
		"category":    {"Snack"},
		"ingredients": {"Something"},
	}), cookie)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "category must be one of")
	require.Contains(t, body, `value="Mystery"`)
	require.Len(t, app.store.Recipes(), 2)
}

func TestSuggestPrefillsForm(t *testing.T) {
	app := setupTest(t)
	cookie := app.login(t)

	rec := app.do(httptest.NewRequest("GET", "/admin/suggest", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "Neon Glazed Salmon") || strings.Contains(body, "Cyberpunk Smoothie Bowl"))
	require.NotContains(t, body, `name="id"`)
	require.Len(t, app.store.Recipes(), 2)
}

func TestVisibilityToggle(t *testing.T) {
	app := setupTest(t)
	cookie := app.login(t)

	rec := app.do(postForm("/admin/recipes/1/visibility", nil), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin?notice="+url.QueryEscape(store.MsgNowHidden), rec.Header().Get("Location"))

	r, _ := app.store.Get(1)
	require.False(t, r.IsVisible)
}

func TestDelete(t *testing.T) {
	app := setupTest(t)
	cookie := app.login(t)

	rec := app.do(httptest.NewRequest("GET", "/admin/recipes/1/delete", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), store.ConfirmDeleteMessage)

	// no confirm: nothing happens
	rec = app.do(postForm("/admin/recipes/1/delete", nil), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, app.store.Recipes(), 2)

	rec = app.do(postForm("/admin/recipes/1/delete", url.Values{"confirm": {"true"}}), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	recipes := app.store.Recipes()
	require.Len(t, recipes, 1)
	require.Equal(t, int64(2), recipes[0].ID)
}

func TestDelete_JSON(t *testing.T) {
	app := setupTest(t)
	cookie := app.login(t)

	req := postForm("/admin/recipes/2/delete", url.Values{"confirm": {"true"}})
	req.Header.Set("Accept", "application/json")
	rec := app.do(req, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var out store.RemoveOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 1, out.Removed)
}

// --- Helpers ---

func TestImageURL(t *testing.T) {
	require.Equal(t, "https://img/a.jpg", string(imageURL("https://img/a.jpg")))
	require.Equal(t, "data:image/png;base64,AA", string(imageURL("data:image/png;base64,AA")))
	require.Empty(t, string(imageURL("javascript:alert(1)")))
	require.Empty(t, string(imageURL("//evil.example/x.png")))
}

func TestFormatCreatedAt(t *testing.T) {
	require.Equal(t, "2025-01-01 00:00", formatCreatedAt("2025-01-01T00:00:00.123Z"))
	require.Equal(t, "yesterday", formatCreatedAt("yesterday"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
