package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rigkit/rigkit/internal/auth"
	"github.com/rigkit/rigkit/internal/blueprint"
	"github.com/rigkit/rigkit/internal/collab"
	"github.com/rigkit/rigkit/internal/config"
	"github.com/rigkit/rigkit/internal/db"
	mw "github.com/rigkit/rigkit/internal/middleware"
)

// Scene that accepts anonymous connections.
const playgroundSceneID = "scene_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	editorCfg, err := config.LoadEditor(cfg.EditorConfig)
	if err != nil {
		slog.Error("load editor config", "path", cfg.EditorConfig, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	queries := db.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	blueprintService := blueprint.NewService(queries)
	blueprintHandler := blueprint.NewHandler(blueprintService)

	hub := collab.NewHub(editorCfg.Room(), editorCfg.Options(), blueprintService)
	go hub.Run()

	if cfg.EditorConfig != "" {
		err := config.WatchEditor(ctx, cfg.EditorConfig, func(e *config.Editor) {
			hub.SetDefaults(e.Room(), e.Options())
		})
		if err != nil {
			slog.Warn("editor config will not hot reload", "error", err)
		}
	}

	origins := mw.SplitOrigins(cfg.AllowedOrigins)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, `{"status":"degraded"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/blueprints", blueprintHandler.List).Methods("GET")
	api.HandleFunc("/blueprints", blueprintHandler.Create).Methods("POST")
	api.HandleFunc("/blueprints/{blueprintId}", blueprintHandler.Get).Methods("GET")
	api.HandleFunc("/blueprints/{blueprintId}", blueprintHandler.Delete).Methods("DELETE")
	api.HandleFunc("/blueprints/{blueprintId}/snapshot", blueprintHandler.GetSnapshot).Methods("GET")

	// WebSocket endpoint
	patterns := originPatterns(origins)
	r.HandleFunc("/ws/scene/{sceneId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, patterns)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, patterns []string) {
	sceneID := mux.Vars(r)["sceneId"]

	var userID, displayName string
	anonymous := false

	token := r.URL.Query().Get("token")
	switch {
	case token != "":
		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		}
		displayName = user.DisplayName
	case sceneID == playgroundSceneID:
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
		anonymous = true
	default:
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: patterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(hub, conn, userID, displayName, sceneID, uuid.New().String())
	client.Anonymous = anonymous

	hub.Register(client)
	client.Serve(r.Context())
}

// originPatterns turns allowed origins into websocket host patterns.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
