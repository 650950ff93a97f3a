// Package api assembles the HTTP surface: chat webhooks, the web upload
// flow, the receipt history API, and the health check.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marchford/receipt-relay/internal/api/handlers"
	"github.com/marchford/receipt-relay/internal/api/middleware"
	"github.com/marchford/receipt-relay/internal/storage"
	"github.com/marchford/receipt-relay/internal/web"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           3000,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Webhooks are the transport endpoints mounted on the server. Either may be
// nil when that transport is not configured.
type Webhooks struct {
	Telegram http.Handler
	Twilio   http.Handler
}

// Server is the HTTP server for webhooks, web upload, and the history API.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	webhooks   Webhooks
	upload     *web.Handler
}

// NewServer creates the server. repo may be nil to disable the history API;
// upload may be nil to disable the web upload path.
func NewServer(cfg Config, repo storage.Repository, webhooks Webhooks, upload *web.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		repo:     repo,
		webhooks: webhooks,
		upload:   upload,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// Chat transports
	if s.webhooks.Telegram != nil {
		s.router.Post("/webhook/telegram", s.webhooks.Telegram.ServeHTTP)
	}
	if s.webhooks.Twilio != nil {
		s.router.Post("/webhook/sms", s.webhooks.Twilio.ServeHTTP)
	}

	// Web upload flow
	if s.upload != nil {
		s.router.Get("/upload", s.upload.GetUploadPage)
		s.router.Post("/auth", s.upload.PostAuth)
		s.router.Post("/upload", s.upload.PostUpload)
		s.router.Post("/upload/reprocess", s.upload.PostReprocess)
		s.router.Post("/upload/confirm", s.upload.PostConfirm)
	}

	// History API
	if s.repo != nil {
		s.router.Route("/api", func(r chi.Router) {
			receiptsHandler := handlers.NewReceiptsHandler(s.repo)
			r.Get("/receipts", receiptsHandler.List)
			r.Get("/receipts/{id}", receiptsHandler.Get)
			r.Get("/stats", receiptsHandler.Stats)
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
