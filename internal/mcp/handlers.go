package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/recipevault/internal/backup"
	"github.com/hpungsan/recipevault/internal/config"
	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/gate"
	"github.com/hpungsan/recipevault/internal/recipe"
	"github.com/hpungsan/recipevault/internal/store"
	"github.com/hpungsan/recipevault/internal/view"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store *store.Store
	cfg   *config.Config
	gate  gate.Gate
}

// NewHandlers creates a new Handlers instance. A stdio client is the local
// operator, so handlers act with operator rights.
func NewHandlers(s *store.Store, cfg *config.Config) *Handlers {
	return &Handlers{store: s, cfg: cfg, gate: gate.Operator}
}

// ListRequest represents the arguments for recipe_list.
type ListRequest struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

// IDRequest represents the arguments for tools addressing one recipe.
type IDRequest struct {
	ID *int64 `json:"id"`
}

// UpsertRequest represents the arguments for recipe_upsert.
type UpsertRequest struct {
	ID          *int64   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Ingredients string   `json:"ingredients,omitempty"`
	Steps       string   `json:"steps,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// DeleteRequest represents the arguments for recipe_delete.
type DeleteRequest struct {
	ID      *int64 `json:"id"`
	Confirm bool   `json:"confirm"`
}

// ExportRequest represents the arguments for recipe_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for recipe_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// GetOutput is the recipe_get payload.
type GetOutput struct {
	Recipe recipe.Recipe `json:"recipe"`
	Detail view.Detail   `json:"detail"`
}

// HandleList handles the recipe_list tool call. The filter here is local to
// the call and does not change the Store's own filter.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	f := view.DefaultFilter()
	f.Search = input.Search
	if input.Category != "" {
		f.Category = input.Category
	}
	mode := view.ModeOperator
	if input.Mode != "" {
		mode = view.ParseMode(input.Mode)
	}

	return successResult(view.Project(h.store.Recipes(), f, mode))
}

// HandleGet handles the recipe_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := decodeID(req)
	if err != nil {
		return errorResult(err), nil
	}

	r, ok := h.store.Get(id)
	if !ok {
		return errorResult(errors.NewNotFound(id)), nil
	}
	return successResult(GetOutput{Recipe: r, Detail: view.ProjectDetail(r)})
}

// HandleUpsert handles the recipe_upsert tool call.
func (h *Handlers) HandleUpsert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpsertRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.store.Upsert(ctx, h.gate, store.UpsertInput{
		ID:          input.ID,
		Title:       input.Title,
		Category:    input.Category,
		Ingredients: input.Ingredients,
		Steps:       input.Steps,
		Images:      input.Images,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleToggleVisibility handles the recipe_toggle_visibility tool call.
func (h *Handlers) HandleToggleVisibility(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := decodeID(req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.store.ToggleVisibility(ctx, h.gate, id)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleToggleFavorite handles the recipe_toggle_favorite tool call.
func (h *Handlers) HandleToggleFavorite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := decodeID(req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.store.ToggleFavorite(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the recipe_delete tool call. The confirm argument
// answers the confirmation prompt.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.ID == nil {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	confirm := store.ConfirmFunc(func(string) bool { return input.Confirm })
	result, err := h.store.Remove(ctx, h.gate, confirm, *input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSuggest handles the recipe_suggest tool call.
func (h *Handlers) HandleSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(recipe.Suggest())
}

// HandleExport handles the recipe_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := backup.Export(ctx, h.store, h.cfg, backup.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the recipe_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := backup.Import(ctx, h.store, h.gate, h.cfg, backup.ImportInput{
		Path: input.Path,
		Mode: backup.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

func decodeID(req mcp.CallToolRequest) (int64, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return 0, err
	}
	if input.ID == nil {
		return 0, errors.NewInvalidRequest("id is required")
	}
	return *input.ID, nil
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var vaultErr *errors.VaultError
	if stderrors.As(err, &vaultErr) {
		msg := vaultErr.Message
		switch {
		case vaultErr.Code == errors.ErrInternal:
			msg = "an internal error occurred"
		case error(vaultErr) != err:
			// keep wrapper context such as "items[2]: ..."
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    vaultErr.Code,
			"message": msg,
			"status":  vaultErr.Status,
		}
		if vaultErr.Code != errors.ErrInternal && vaultErr.Details != nil {
			errorObj["details"] = vaultErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
