package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/recipevault/internal/config"
	"github.com/hpungsan/recipevault/internal/db"
	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/persist"
	"github.com/hpungsan/recipevault/internal/store"
)

// testSetup opens a store backed by a temporary database.
func testSetup(t *testing.T) (*store.Store, *config.Config, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	gw := persist.NewGateway(persist.NewSQLiteSlot(database), cfg.StorageKey)
	s, err := store.Open(context.Background(), gw, store.Options{Notifier: store.NotifyFunc(func(string) {})})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	cleanup := func() {
		database.Close()
	}
	return s, cfg, cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleList(t *testing.T) {
	s, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(s, cfg)
	ctx := context.Background()

	if _, err := h.HandleToggleVisibility(ctx, makeRequest(map[string]any{"id": 2})); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	tests := []struct {
		name      string
		args      map[string]any
		wantCards int
	}{
		{"operator default", map[string]any{}, 2},
		{"public hides hidden", map[string]any{"mode": "public"}, 1},
		{"search", map[string]any{"search": "BERRY"}, 1},
		{"category", map[string]any{"category": "Dinner"}, 1},
		{"unknown category", map[string]any{"category": "Brunch"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleList(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			output := parseOutput(t, result)
			cards := output["cards"].([]any)
			if len(cards) != tt.wantCards {
				t.Errorf("cards = %d, want %d", len(cards), tt.wantCards)
			}
			if output["empty"] != (tt.wantCards == 0) {
				t.Errorf("empty = %v, want %v", output["empty"], tt.wantCards == 0)
			}
		})
	}

	// listing never changes the store's own filter
	if f := s.Filter(); f.Search != "" || f.Category != "all" {
		t.Errorf("store filter changed: %+v", f)
	}
}

func TestHandleGet(t *testing.T) {
	s, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(s, cfg)
	ctx := context.Background()

	result, err := h.HandleGet(ctx, makeRequest(map[string]any{"id": 1}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	detail := output["detail"].(map[string]any)
	if detail["title"] != "Sunset Berry Galette" {
		t.Errorf("title = %v", detail["title"])
	}
	steps := detail["steps"].([]any)
	if first := steps[0].(map[string]any); first["number"] != float64(1) {
		t.Errorf("first step number = %v, want 1", first["number"])
	}

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{"id": 404}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{"id": "one"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleUpsert(t *testing.T) {
	s, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(s, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "create",
			args: map[string]any{
				"title":       "Green Curry",
				"category":    "Dinner",
				"ingredients": "Coconut milk\nCurry paste",
				"steps":       "Simmer",
				"images":      []any{"https://img/curry.jpg"},
			},
		},
		{
			name: "edit existing",
			args: map[string]any{"id": 2, "title": "Risotto Bianco", "category": "Dinner"},
		},
		{
			name:      "missing title",
			args:      map[string]any{"category": "Dinner"},
			wantError: true,
			errorCode: "VALIDATION_FAILED",
		},
		{
			name:      "bad category",
			args:      map[string]any{"title": "Toast", "category": "Snack"},
			wantError: true,
			errorCode: "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleUpsert(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}

	recipes := s.Recipes()
	if len(recipes) != 3 {
		t.Fatalf("recipes = %d, want 3", len(recipes))
	}
	if recipes[0].Title != "Green Curry" {
		t.Errorf("newest recipe = %q, want Green Curry", recipes[0].Title)
	}
	if recipes[2].Title != "Risotto Bianco" {
		t.Errorf("edited recipe = %q, want Risotto Bianco", recipes[2].Title)
	}
}

func TestHandleToggles(t *testing.T) {
	s, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(s, cfg)
	ctx := context.Background()

	result, _ := h.HandleToggleVisibility(ctx, makeRequest(map[string]any{"id": 1}))
	output := parseOutput(t, result)
	if output["value"] != false || output["message"] != store.MsgNowHidden {
		t.Errorf("unexpected visibility output: %v", output)
	}

	result, _ = h.HandleToggleFavorite(ctx, makeRequest(map[string]any{"id": 2}))
	output = parseOutput(t, result)
	if output["value"] != true {
		t.Errorf("favorite = %v, want true", output["value"])
	}

	result, _ = h.HandleToggleFavorite(ctx, makeRequest(map[string]any{"id": 99}))
	output = parseOutput(t, result)
	if output["found"] != false {
		t.Errorf("found = %v, want false", output["found"])
	}
}

func TestHandleDelete(t *testing.T) {
	s, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(s, cfg)
	ctx := context.Background()

	result, _ := h.HandleDelete(ctx, makeRequest(map[string]any{"id": 1}))
	output := parseOutput(t, result)
	if output["cancelled"] != true {
		t.Errorf("expected delete without confirm to be cancelled, got %v", output)
	}
	if len(s.Recipes()) != 2 {
		t.Fatalf("recipe removed without confirmation")
	}

	result, _ = h.HandleDelete(ctx, makeRequest(map[string]any{"id": 1, "confirm": true}))
	output = parseOutput(t, result)
	if output["removed"] != float64(1) {
		t.Errorf("removed = %v, want 1", output["removed"])
	}
	if len(s.Recipes()) != 1 {
		t.Errorf("recipes = %d, want 1", len(s.Recipes()))
	}

	result, _ = h.HandleDelete(ctx, makeRequest(map[string]any{"confirm": true}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	// a misspelled confirm must not be read as false
	result, _ = h.HandleDelete(ctx, makeRequest(map[string]any{"id": 2, "confrim": true}))
	assertErrorCode(t, result, "INVALID_REQUEST")
	if len(s.Recipes()) != 1 {
		t.Errorf("recipes = %d, want 1", len(s.Recipes()))
	}
}

func TestHandleSuggest(t *testing.T) {
	s, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(s, cfg)
	result, err := h.HandleSuggest(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["title"] == "" {
		t.Error("expected a suggestion title")
	}
	if len(s.Recipes()) != 2 {
		t.Error("suggest must not save anything")
	}
}

func TestHandleExportImport(t *testing.T) {
	s, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(s, cfg)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.json")

	result, err := h.HandleExport(ctx, makeRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["count"] != float64(2) {
		t.Errorf("count = %v, want 2", output["count"])
	}

	confirm := map[string]any{"id": 1, "confirm": true}
	if r, _ := h.HandleDelete(ctx, makeRequest(confirm)); r.IsError {
		t.Fatalf("delete failed: %s", extractErrorMessage(r))
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": path, "mode": "merge"}))
	output = parseOutput(t, result)
	if output["imported"] != float64(1) || output["skipped"] != float64(1) {
		t.Errorf("unexpected import output: %v", output)
	}
	if len(s.Recipes()) != 2 {
		t.Errorf("recipes = %d, want 2", len(s.Recipes()))
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": filepath.Join(t.TempDir(), "x.txt")}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	s, cfg, cleanup := testSetup(t)
	defer cleanup()

	tools := NewServer(s, cfg, "test").ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"recipe_list",
		"recipe_get",
		"recipe_upsert",
		"recipe_toggle_visibility",
		"recipe_toggle_favorite",
		"recipe_delete",
		"recipe_suggest",
		"recipe_export",
		"recipe_import",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	s, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = []string{"recipe_delete", "recipe_import", "recipe_import"}
	tools := NewServer(s, cfg, "test").ListTools()

	if len(tools) != 7 {
		t.Errorf("registered tool count = %d, want 7", len(tools))
	}
	for _, name := range []string{"recipe_delete", "recipe_import"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_DisabledType(t *testing.T) {
	s, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTypes = []string{"recipe"}
	if tools := NewServer(s, cfg, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0", len(tools))
	}
}

func TestValidateDisabled(t *testing.T) {
	if unknown := ValidateDisabledTools([]string{"recipe_delete", "recipe_publish"}); len(unknown) != 1 {
		t.Errorf("ValidateDisabledTools() unknown = %v, want [recipe_publish]", unknown)
	}
	if unknown := ValidateDisabledTypes([]string{"recipe", "note"}); len(unknown) != 1 {
		t.Errorf("ValidateDisabledTypes() unknown = %v, want [note]", unknown)
	}
	if unknown := ValidateDisabledTools(AllToolNames()); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	errObj := errorObject(t, r)

	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if strings.Contains(errObj["message"].(string), "secret.db") {
		t.Fatal("expected INTERNAL errors to hide the cause")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	r := errorResult(fmt.Errorf("items[2]: %w", errors.NewNotFound(7)))
	errObj := errorObject(t, r)

	if errObj["code"] != string(errors.ErrNotFound) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if msg := errObj["message"].(string); !strings.Contains(msg, "items[2]") {
		t.Errorf("message should contain wrapper context 'items[2]', got: %s", msg)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewNotFound(7)))
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

func errorObject(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}
	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}
	if code, _ := errorObj["code"].(string); code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
