// Package api provides the HTTP surface: the streamable MCP endpoint, a
// read-only libraries API, and a health probe.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/docvecdev/docvec/application/service"
	apimiddleware "github.com/docvecdev/docvec/infrastructure/api/middleware"
	mcpinternal "github.com/docvecdev/docvec/internal/mcp"
)

// Server serves the HTTP API.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	addr       string
}

// NewServer creates a Server wired to the given services.
func NewServer(
	addr string,
	retrieval *service.Retrieval,
	libraries *service.Libraries,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	// Timeout middleware is deliberately absent at the top level: the MCP
	// endpoint streams responses and manages its own session state, which is
	// incompatible with chi's Timeout wrapping the ResponseWriter.
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(apimiddleware.Logging(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	}))

	s := &Server{
		router: router,
		addr:   addr,
		logger: logger,
	}
	s.mountRoutes(retrieval, libraries)
	return s
}

func (s *Server) mountRoutes(retrieval *service.Retrieval, libraries *service.Libraries) {
	s.router.Get("/healthz", s.handleHealth(libraries))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Get("/libraries", s.handleListLibraries(libraries))
		r.Get("/libraries/{owner}/{repo}", s.handleGetLibrary(libraries))
		r.Get("/libraries/{owner}/{repo}/stats", s.handleLibraryStats(libraries))
	})

	mcpSrv := mcpinternal.NewServer(retrieval, libraries, s.logger)
	s.router.Mount("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

type libraryPayload struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	SourceRef    string   `json:"source_ref,omitempty"`
	CommitSHA    string   `json:"commit_sha"`
	Folders      []string `json:"folders,omitempty"`
	FileCount    int      `json:"file_count"`
	SnippetCount int      `json:"snippet_count"`
	CreatedAt    string   `json:"created_at"`
}

func (s *Server) handleHealth(libraries *service.Libraries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := libraries.Health(r.Context())

		status := http.StatusOK
		if health.State() == "error" {
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, map[string]string{
			"status": string(health.State()),
			"detail": health.Detail(),
		})
	}
}

func (s *Server) handleListLibraries(libraries *service.Libraries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		libs, err := libraries.List(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}

		payload := make([]libraryPayload, len(libs))
		for i, lib := range libs {
			payload[i] = libraryPayload{
				Name:         lib.Name(),
				Description:  lib.Description(),
				SourceRef:    lib.SourceRef(),
				CommitSHA:    lib.CommitSHA(),
				Folders:      lib.Folders(),
				FileCount:    lib.FileCount(),
				SnippetCount: lib.SnippetCount(),
				CreatedAt:    lib.CreatedAt().UTC().Format(time.RFC3339),
			}
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func (s *Server) handleGetLibrary(libraries *service.Libraries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "repo")

		lib, err := libraries.Get(r.Context(), name)
		if err != nil {
			if errors.Is(err, service.ErrLibraryNotFound) {
				s.writeError(w, http.StatusNotFound, err)
				return
			}
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, libraryPayload{
			Name:         lib.Name(),
			Description:  lib.Description(),
			SourceRef:    lib.SourceRef(),
			CommitSHA:    lib.CommitSHA(),
			Folders:      lib.Folders(),
			FileCount:    lib.FileCount(),
			SnippetCount: lib.SnippetCount(),
			CreatedAt:    lib.CreatedAt().UTC().Format(time.RFC3339),
		})
	}
}

func (s *Server) handleLibraryStats(libraries *service.Libraries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "repo")

		stats, err := libraries.Stats(r.Context(), name)
		if err != nil {
			if errors.Is(err, service.ErrLibraryNotFound) {
				s.writeError(w, http.StatusNotFound, err)
				return
			}
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}

		byProvider := make(map[string]int64, len(stats.CountByProvider()))
		for provider, count := range stats.CountByProvider() {
			byProvider[provider.String()] = count
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"snippet_count":     stats.SnippetCount(),
			"count_by_provider": byProvider,
			"mean_dimension":    stats.MeanDimension(),
			"vector_count":      stats.VectorCount(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Router returns the chi router, for tests and custom servers.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.addr
}
