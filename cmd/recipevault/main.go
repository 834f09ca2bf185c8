package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hpungsan/recipevault/internal/config"
	"github.com/hpungsan/recipevault/internal/db"
	"github.com/hpungsan/recipevault/internal/mcp"
	"github.com/hpungsan/recipevault/internal/persist"
	"github.com/hpungsan/recipevault/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"list": true, "show": true, "add": true, "edit": true,
	"toggle-visibility": true, "favorite": true, "delete": true,
	"suggest": true, "export": true, "import": true, "reset": true,
	"serve": true, "hash-password": true,
	"help": true,
}

// noVaultCommands run without opening the database.
var noVaultCommands = map[string]bool{
	"--help": true, "-h": true, "--version": true, "-v": true, "help": true,
	"hash-password": true, "suggest": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// needsVault reports whether the command touches stored recipes.
func needsVault(arg string) bool {
	return !noVaultCommands[arg]
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___         _            _   __         ____
  / _ \___ ___(_)__  ___   | | / /__ ___ _/ / /_
 / , _/ -_) __/ / _ \/ -_)  | |/ / _ ` + "`" + `/ // / / __/
/_/|_|\__/\__/_/ .__/\__/   |___/\_,_/\_,_/_/\__/
              /_/

  A small catalog of culinary wonders

  Usage: recipevault <command> [options]
         recipevault serve        (web gallery and operator console)
         recipevault --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	if len(os.Args) >= 2 && !needsVault(os.Args[1]) {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".recipevault")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Printf("WARNING: unknown disabled_tools entries ignored: %v", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.Printf("WARNING: unknown disabled_types entries ignored: %v", unknown)
	}

	gateway := persist.NewGateway(persist.NewSQLiteSlot(database), cfg.StorageKey)
	s, err := store.Open(context.Background(), gateway, store.Options{
		Notifier:     store.LogNotifier{},
		DefaultImage: cfg.DefaultImage,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load recipes: %v\n", err)
		os.Exit(1)
	}

	v := &vault{store: s, gateway: gateway, cfg: cfg}

	// CLI mode: known subcommand
	if isCLIMode() {
		if err := newCLIApp(v).Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'recipevault --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(s, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
