package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/recipevault/internal/config"
	"github.com/hpungsan/recipevault/internal/store"
)

type handlerFunc func(*Handlers, context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// tools is every tool the server can expose, in registration order. Tool
// names follow "type_action"; the type is what disabled_types matches.
var tools = []struct {
	def    mcp.Tool
	handle handlerFunc
}{
	{listToolDef, (*Handlers).HandleList},
	{getToolDef, (*Handlers).HandleGet},
	{upsertToolDef, (*Handlers).HandleUpsert},
	{toggleVisibilityToolDef, (*Handlers).HandleToggleVisibility},
	{toggleFavoriteToolDef, (*Handlers).HandleToggleFavorite},
	{deleteToolDef, (*Handlers).HandleDelete},
	{suggestToolDef, (*Handlers).HandleSuggest},
	{exportToolDef, (*Handlers).HandleExport},
	{importToolDef, (*Handlers).HandleImport},
}

// AllToolNames returns the name of every tool, in registration order.
func AllToolNames() []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.def.Name
	}
	return names
}

// ValidateDisabledTools returns the names that match no tool.
func ValidateDisabledTools(names []string) []string {
	return unknownNames(names, AllToolNames())
}

// ValidateDisabledTypes returns the names that match no tool type.
func ValidateDisabledTypes(names []string) []string {
	types := make([]string, 0, len(tools))
	for _, name := range AllToolNames() {
		types = append(types, toolType(name))
	}
	return unknownNames(names, types)
}

func unknownNames(names, known []string) []string {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	unknown := make([]string, 0)
	for _, name := range names {
		if !set[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// toolType returns the part of a tool name before the first underscore.
func toolType(name string) string {
	typ, _, _ := strings.Cut(name, "_")
	return typ
}

// NewServer creates a new MCP server with the recipe tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(s *store.Store, cfg *config.Config, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"recipevault",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(s, cfg)

	disabledTools := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabledTools[name] = true
	}
	disabledTypes := make(map[string]bool, len(cfg.DisabledTypes))
	for _, typ := range cfg.DisabledTypes {
		disabledTypes[typ] = true
	}

	for _, t := range tools {
		if disabledTools[t.def.Name] || disabledTypes[toolType(t.def.Name)] {
			continue
		}
		handle := t.handle
		srv.AddTool(t.def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handle(h, ctx, req)
		})
	}

	return srv
}

// Run starts the MCP server using stdio transport.
func Run(s *store.Store, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(s, cfg, version))
}
