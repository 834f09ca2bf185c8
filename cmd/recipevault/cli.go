package main

import (
	"bufio"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/recipevault/internal/backup"
	"github.com/hpungsan/recipevault/internal/config"
	"github.com/hpungsan/recipevault/internal/errors"
	"github.com/hpungsan/recipevault/internal/gate"
	"github.com/hpungsan/recipevault/internal/persist"
	"github.com/hpungsan/recipevault/internal/recipe"
	"github.com/hpungsan/recipevault/internal/store"
	"github.com/hpungsan/recipevault/internal/view"
	"github.com/hpungsan/recipevault/internal/web"
)

// vault bundles what the recipe commands operate on.
type vault struct {
	store   *store.Store
	gateway *persist.Gateway
	cfg     *config.Config
}

// newCLIApp creates the CLI application with all commands. The local user
// is the operator.
func newCLIApp(v *vault) *cli.App {
	app := &cli.App{
		Name:    "recipevault",
		Usage:   "A small catalog of culinary wonders",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(v),
			showCmd(v),
			addCmd(v),
			editCmd(v),
			toggleVisibilityCmd(v),
			favoriteCmd(v),
			deleteCmd(v),
			suggestCmd(),
			exportCmd(v),
			importCmd(v),
			resetCmd(v),
			serveCmd(v),
			hashPasswordCmd(),
		},
		// ingredients routinely contain commas
		DisableSliceFlagSeparator: true,
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listCmd creates the list command.
func listCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List recipe cards, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Match titles and ingredients (case-insensitive)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Value: view.CategoryAll, Usage: "Category or \"all\""},
			&cli.BoolFlag{Name: "public", Usage: "Show the public gallery instead of the operator view"},
		},
		Action: func(c *cli.Context) error {
			v.store.SetSearch(c.String("search"))
			v.store.SetCategory(c.String("category"))
			return outputJSON(c, v.store.Query(view.ModeFor(!c.Bool("public"))))
		},
	}
}

// showCmd creates the show command.
func showCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one recipe with numbered steps",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}
			r, ok := v.store.Get(id)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(c, view.ProjectDetail(r))
		},
	}
}

func recipeFlags(requireCore bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: requireCore, Usage: "Recipe title"},
		&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Required: requireCore, Usage: "Breakfast|Lunch|Dinner|Dessert|Healthy"},
		&cli.StringSliceFlag{Name: "ingredient", Aliases: []string{"i"}, Usage: "Ingredient (repeatable)"},
		&cli.StringSliceFlag{Name: "step", Usage: "Step (repeatable, in order)"},
		&cli.StringSliceFlag{Name: "image", Usage: "Image URL (repeatable; first is the thumbnail)"},
	}
}

// addCmd creates the add command.
func addCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a new recipe",
		Flags: recipeFlags(true),
		Action: func(c *cli.Context) error {
			out, err := v.store.Upsert(c.Context, gate.Operator, store.UpsertInput{
				Title:       c.String("title"),
				Category:    c.String("category"),
				Ingredients: recipe.JoinLines(c.StringSlice("ingredient")),
				Steps:       recipe.JoinLines(c.StringSlice("step")),
				Images:      c.StringSlice("image"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// editCmd creates the edit command. Flags that are not given keep the
// stored value, the same way the edit form is prefilled.
func editCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit an existing recipe",
		ArgsUsage: "<id>",
		Flags:     recipeFlags(false),
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}
			r, ok := v.store.Get(id)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}

			input := store.UpsertInput{
				ID:          &id,
				Title:       r.Title,
				Category:    string(r.Category),
				Ingredients: recipe.JoinLines(r.Ingredients),
				Steps:       recipe.JoinLines(r.Steps),
				Images:      r.Images,
			}
			if c.IsSet("title") {
				input.Title = c.String("title")
			}
			if c.IsSet("category") {
				input.Category = c.String("category")
			}
			if c.IsSet("ingredient") {
				input.Ingredients = recipe.JoinLines(c.StringSlice("ingredient"))
			}
			if c.IsSet("step") {
				input.Steps = recipe.JoinLines(c.StringSlice("step"))
			}
			if c.IsSet("image") {
				input.Images = c.StringSlice("image")
			}

			out, err := v.store.Upsert(c.Context, gate.Operator, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// toggleVisibilityCmd creates the toggle-visibility command.
func toggleVisibilityCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:      "toggle-visibility",
		Usage:     "Show or hide a recipe in the public gallery",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}
			out, err := v.store.ToggleVisibility(c.Context, gate.Operator, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// favoriteCmd creates the favorite command.
func favoriteCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:      "favorite",
		Usage:     "Flip a recipe's favorite flag",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}
			out, err := v.store.ToggleFavorite(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete a recipe (asks for confirmation)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}
			out, err := v.store.Remove(c.Context, gate.Operator, confirmer(c), id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// suggestCmd creates the suggest command.
func suggestCmd() *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Print a random draft recipe (nothing is saved)",
		Action: func(c *cli.Context) error {
			return outputJSON(c, recipe.Suggest())
		},
	}
}

// exportCmd creates the export command.
func exportCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write all recipes to a .json backup",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export path (default: ~/.recipevault/exports/recipes-<timestamp>.json)"},
		},
		Action: func(c *cli.Context) error {
			out, err := backup.Export(c.Context, v.store, v.cfg, backup.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// importCmd creates the import command.
func importCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Load recipes from a .json backup",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(backup.ImportModeReplace), Usage: "replace|merge"},
		},
		Action: func(c *cli.Context) error {
			out, err := backup.Import(c.Context, v.store, gate.Operator, v.cfg, backup.ImportInput{
				Path: c.String("path"),
				Mode: backup.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Erase the stored recipes; the next start shows the seed recipes",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			if !confirmer(c).Confirm("Erase every stored recipe?") {
				return outputJSON(c, map[string]any{"reset": false})
			}
			if err := v.gateway.Clear(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(c, map[string]any{"reset": true, "key": v.gateway.Key()})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(v *vault) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the public gallery and operator console",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			sessions := gate.NewSessions(gate.SessionsConfig{
				PasswordHash:  v.cfg.OperatorPasswordHash,
				TTL:           time.Duration(v.cfg.SessionTTLMinutes) * time.Minute,
				RatePerMinute: v.cfg.LoginRatePerMinute,
				Burst:         v.cfg.LoginBurst,
			})
			if !sessions.Enabled() {
				fmt.Fprintln(c.App.ErrWriter, "warning: operator_password_hash is not set; the operator console is locked")
			}
			srv := web.NewServer(v.store, sessions, v.cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// hashPasswordCmd creates the hash-password command.
func hashPasswordCmd() *cli.Command {
	return &cli.Command{
		Name:  "hash-password",
		Usage: "Hash an operator password read from stdin",
		Action: func(c *cli.Context) error {
			password, err := readLine(c.App.Reader)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if password == "" {
				return outputError(errors.NewInvalidRequest("password must be piped via stdin"))
			}
			hash, err := gate.NewPasswordHasher().Hash(password)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(c, map[string]string{"operator_password_hash": hash})
		},
	}
}

// Helper functions

// outputJSON writes result to the app's stdout as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var vErr *errors.VaultError
	if stderrors.As(err, &vErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// argID parses the first positional argument as a recipe id.
func argID(c *cli.Context) (int64, error) {
	if c.NArg() < 1 {
		return 0, errors.NewInvalidRequest("recipe id is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid recipe id %q", c.Args().First()))
	}
	return id, nil
}

// confirmer answers yes when --yes is set, otherwise asks on stdin.
func confirmer(c *cli.Context) store.Confirmer {
	if c.Bool("yes") {
		return store.ConfirmFunc(func(string) bool { return true })
	}
	return store.ConfirmFunc(func(message string) bool {
		fmt.Fprintf(c.App.ErrWriter, "%s [y/N]: ", message)
		answer, err := readLine(c.App.Reader)
		if err != nil {
			return false
		}
		answer = strings.ToLower(answer)
		return answer == "y" || answer == "yes"
	})
}

// readLine reads one trimmed line; EOF without input yields "".
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !stderrors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

