package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listToolDef = mcp.NewTool("recipe_list",
	mcp.WithDescription("List recipe cards in gallery order (newest first). Public mode hides recipes that are not visible."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("search", mcp.Description("Case-insensitive text matched against titles and ingredients")),
	mcp.WithString("category", mcp.Description("Category to show, or \"all\" (default)")),
	mcp.WithString("mode", mcp.Description("Audience to project for"), mcp.Enum("operator", "public")),
)

var getToolDef = mcp.NewTool("recipe_get",
	mcp.WithDescription("Fetch one recipe with its numbered steps."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Recipe id")),
)

var upsertToolDef = mcp.NewTool("recipe_upsert",
	mcp.WithDescription("Create a recipe, or replace the content of an existing one when id matches. Editing keeps favorite, visibility and creation time."),
	mcp.WithNumber("id", mcp.Description("Id of the recipe to edit; omit to create")),
	mcp.WithString("title", mcp.Required(), mcp.Description("Recipe title")),
	mcp.WithString("category", mcp.Required(), mcp.Description("Recipe category"),
		mcp.Enum("Breakfast", "Lunch", "Dinner", "Dessert", "Healthy")),
	mcp.WithString("ingredients", mcp.Description("One ingredient per line; blank lines are dropped")),
	mcp.WithString("steps", mcp.Description("One step per line; blank lines are dropped")),
	mcp.WithArray("images", mcp.Description("Image URLs or data URLs; the first is the thumbnail"),
		mcp.Items(map[string]any{"type": "string"})),
)

var toggleVisibilityToolDef = mcp.NewTool("recipe_toggle_visibility",
	mcp.WithDescription("Show or hide a recipe in the public gallery."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Recipe id")),
)

var toggleFavoriteToolDef = mcp.NewTool("recipe_toggle_favorite",
	mcp.WithDescription("Flip a recipe's favorite flag."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Recipe id")),
)

var deleteToolDef = mcp.NewTool("recipe_delete",
	mcp.WithDescription("Permanently delete a recipe. Nothing happens unless confirm is true."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Recipe id")),
	mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true to delete")),
)

var suggestToolDef = mcp.NewTool("recipe_suggest",
	mcp.WithDescription("Return a random draft recipe for prefilling a new entry. Nothing is saved."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("recipe_export",
	mcp.WithDescription("Write all recipes to a .json backup file."),
	mcp.WithString("path", mcp.Description("Destination; defaults to ~/.recipevault/exports/recipes-<timestamp>.json")),
)

var importToolDef = mcp.NewTool("recipe_import",
	mcp.WithDescription("Load recipes from a .json backup file."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("path", mcp.Required(), mcp.Description("Backup file to read")),
	mcp.WithString("mode", mcp.Description("replace swaps the list (default); merge adds recipes with new ids"),
		mcp.Enum("replace", "merge")),
)
