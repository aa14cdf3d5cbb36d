// ABOUTME: HTTP server wiring: routes, middleware, lifecycle
// ABOUTME: Serves the chat API, the SSE event stream and the dashboard widget data

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/krishimitra/krishimitra/internal/assistant"
	"github.com/krishimitra/krishimitra/internal/auth"
	"github.com/krishimitra/krishimitra/internal/conversation"
	"github.com/krishimitra/krishimitra/internal/dashboard"
	"github.com/krishimitra/krishimitra/internal/weather"
)

// Forecaster is what the weather handler needs.
type Forecaster interface {
	Current(ctx context.Context) (*weather.Forecast, error)
}

// Recommender is what the crop recommendation handler needs.
type Recommender interface {
	RecommendCrops(ctx context.Context, season, soilType string, altitude int) ([]assistant.CropRecommendation, error)
}

// Server hosts the dashboard HTTP API.
type Server struct {
	conv        *conversation.Service
	store       *conversation.Store
	events      *conversation.Broadcaster
	dash        *dashboard.SQLiteStore
	forecaster  Forecaster
	recommender Recommender
	verifier    *auth.JWTVerifier
	tokenTTL    time.Duration
	logger      *slog.Logger

	httpServer *http.Server
}

// Options bundles the collaborators the server needs.
type Options struct {
	Addr        string
	Service     *conversation.Service
	Store       *conversation.Store
	Events      *conversation.Broadcaster
	Dashboard   *dashboard.SQLiteStore
	Forecaster  Forecaster
	Recommender Recommender
	Verifier    *auth.JWTVerifier
	TokenTTL    time.Duration
	Logger      *slog.Logger
}

// New creates a server with all routes registered.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		conv:        opts.Service,
		store:       opts.Store,
		events:      opts.Events,
		dash:        opts.Dashboard,
		forecaster:  opts.Forecaster,
		recommender: opts.Recommender,
		verifier:    opts.Verifier,
		tokenTTL:    opts.TokenTTL,
		logger:      logger.With("component", "server"),
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the fully assembled route handler (exposed for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	authed := http.NewServeMux()
	authed.HandleFunc("GET /api/conversations", s.handleListConversations)
	authed.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	authed.HandleFunc("POST /api/conversations/{id}/messages", s.handleSend)
	authed.HandleFunc("GET /api/conversations/{id}/composing", s.handleComposing)
	authed.HandleFunc("GET /api/conversations/{id}/events", s.handleEvents)
	authed.HandleFunc("POST /api/groups", s.handleCreateGroup)
	authed.HandleFunc("PUT /api/active", s.handleSetActive)
	authed.HandleFunc("GET /api/active", s.handleGetActive)
	authed.HandleFunc("POST /api/locale", s.handleSetLocale)
	authed.HandleFunc("GET /api/users", s.handleListUsers)

	authed.HandleFunc("GET /api/dashboard/weather", s.handleWeather)
	authed.HandleFunc("GET /api/dashboard/market", s.handleMarket)
	authed.HandleFunc("GET /api/dashboard/schemes", s.handleSchemes)
	authed.HandleFunc("GET /api/dashboard/ads", s.handleAds)
	authed.HandleFunc("GET /api/dashboard/forum", s.handleForum)
	authed.HandleFunc("GET /api/dashboard/soil", s.handleSoil)
	authed.HandleFunc("GET /api/dashboard/water", s.handleWater)
	authed.HandleFunc("POST /api/dashboard/recommendations", s.handleRecommendations)

	middleware := auth.Middleware(s.verifier, s.logger)
	mux.Handle("/api/", middleware(authed))

	return s.logRequests(mux)
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logRequests wraps the handler with slog request logging.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
