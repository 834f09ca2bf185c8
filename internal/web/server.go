package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/recipevault/internal/config"
	"github.com/hpungsan/recipevault/internal/gate"
	"github.com/hpungsan/recipevault/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the recipe gallery
// and operator console.
func NewServer(s *store.Store, sessions *gate.Sessions, cfg *config.Config, version, bind string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           NewHandler(s, sessions, cfg, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed, header-wrapped handler.
func NewHandler(s *store.Store, sessions *gate.Sessions, cfg *config.Config, version string) http.Handler {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	h := &Handlers{
		store:    s,
		sessions: sessions,
		cfg:      cfg,
		renderer: NewRenderer(templateSub, version),
	}

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /{$}", h.HandleGallery)
	mux.HandleFunc("GET /recipes/{id}", h.HandleDetail)
	mux.HandleFunc("POST /recipes/{id}/favorite", h.HandleFavorite)
	mux.HandleFunc("GET /login", h.HandleLoginPage)
	mux.HandleFunc("POST /login", h.HandleLogin)
	mux.HandleFunc("POST /logout", h.HandleLogout)

	// Operator
	mux.HandleFunc("GET /admin", h.requireOperator(h.HandleAdmin))
	mux.HandleFunc("GET /admin/new", h.requireOperator(h.HandleNew))
	mux.HandleFunc("GET /admin/suggest", h.requireOperator(h.HandleSuggest))
	mux.HandleFunc("GET /admin/recipes/{id}/edit", h.requireOperator(h.HandleEdit))
	mux.HandleFunc("POST /admin/recipes", h.requireOperator(h.HandleSave))
	mux.HandleFunc("POST /admin/recipes/{id}/visibility", h.requireOperator(h.HandleVisibility))
	mux.HandleFunc("GET /admin/recipes/{id}/delete", h.requireOperator(h.HandleConfirmDelete))
	mux.HandleFunc("POST /admin/recipes/{id}/delete", h.requireOperator(h.HandleDelete))

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return securityHeaders(mux)
}

// securityHeaders adds security-related HTTP headers to all responses.
// Recipe images may be remote URLs or data URLs.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' https: data:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("RecipeVault running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
