package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"requestarr/config"
	"requestarr/database"
	"requestarr/handlers"
	"requestarr/logger"
	appmw "requestarr/middleware"
	"requestarr/providers"
	"requestarr/services"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Environment, cfg.Debug)

	slog.Info("Initializing requestarr components...")

	services.InitSessionStore(cfg)

	if err := database.Connect(cfg); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	if err := database.SeedAdminUser(cfg); err != nil {
		slog.Error("Failed to seed admin user", "error", err)
		os.Exit(1)
	}

	// Provider clients
	tmdb := providers.NewTMDBClient(cfg.TMDBAPIKey, cfg.TMDBBaseURL)
	openLibrary := providers.NewOpenLibraryClient(cfg.OpenLibraryURL)
	mediaServer := providers.NewMediaServerClient(cfg.MediaServerURL, cfg.MediaServerKey)

	// Services
	searchService := services.NewSearchService(tmdb, openLibrary, mediaServer, services.DBRequestProber{})
	statusService := services.NewStatusService(tmdb, openLibrary, mediaServer, database.DB)
	tunnelService := services.NewTunnelService(
		services.NewNgrokRunner(cfg.NgrokAPIURL), cfg.NgrokAuthtoken, cfg.ServerPort)
	defer tunnelService.Shutdown()

	// Background auto-fulfill of open requests found in the library
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fulfiller := services.NewFulfillChecker(mediaServer, cfg.FulfillCheckInterval)
	go fulfiller.Run(ctx)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(cfg)
	requestHandlers := handlers.NewRequestHandlers(mediaServer)
	adminHandlers := handlers.NewAdminHandlers(statusService, tunnelService)
	backlogHandlers := handlers.NewBacklogHandlers()
	searchHandlers := handlers.NewSearchHandlers(searchService, tmdb, openLibrary)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(appmw.Logging)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Post("/auth/register", authHandlers.Register)
		r.Post("/auth/login", authHandlers.Login)
		r.Post("/auth/logout", authHandlers.Logout)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(appmw.RequireAuth(cfg.JWTSecret))

			r.Get("/auth/me", authHandlers.Me)

			r.Post("/requests", requestHandlers.Create)
			r.Get("/requests", requestHandlers.List)
			r.Delete("/requests/{id}", requestHandlers.Delete)

			r.Post("/backlog", backlogHandlers.Create)

			r.Get("/search", searchHandlers.Search)
			r.Get("/search/movie/{id}", searchHandlers.MovieDetail)
			r.Get("/search/tv/{id}", searchHandlers.TVDetail)
			r.Get("/books/search", searchHandlers.SearchBooks)
			r.Get("/books/work/{id}", searchHandlers.BookDetail)

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(appmw.RequireAdmin)

				r.Get("/requests", adminHandlers.ListRequests)
				r.Patch("/requests/{id}", adminHandlers.UpdateRequest)
				r.Get("/stats", adminHandlers.Stats)

				r.Get("/backlog", backlogHandlers.List)
				r.Patch("/backlog/{id}", backlogHandlers.Update)
				r.Delete("/backlog/{id}", backlogHandlers.Delete)
				r.Get("/backlog/stats", backlogHandlers.Stats)

				r.Get("/users", adminHandlers.ListUsers)
				r.Patch("/users/{id}", adminHandlers.UpdateUserRole)

				r.Get("/health", adminHandlers.Health)

				r.Get("/tunnel", adminHandlers.TunnelStatus)
				r.Post("/tunnel", adminHandlers.StartTunnel)
				r.Delete("/tunnel", adminHandlers.StopTunnel)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.ServerPort
	slog.Info("requestarr is starting",
		"addr", addr, "env", cfg.Environment, "debug", cfg.Debug)

	server := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		slog.Info("Shutting down server...")
		server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
