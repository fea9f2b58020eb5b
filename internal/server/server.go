// Package server exposes the read path: cache-first news reads,
// scenario reads, on-demand scenario generation and a live news stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/finsights/internal/adapters/config"
	"github.com/selivandex/finsights/internal/cache"
	"github.com/selivandex/finsights/internal/scenario"
	"github.com/selivandex/finsights/pkg/logger"
	"github.com/selivandex/finsights/pkg/models"
)

// NewsReader loads news for the read path
type NewsReader interface {
	LoadNewsItems(ctx context.Context, category string, since time.Time, limit int) ([]models.NewsItem, error)
}

// HealthChecker reports a dependency's health
type HealthChecker interface {
	Health() error
}

// Server is the public HTTP API
type Server struct {
	server *http.Server

	engine    *scenario.Engine
	newsStore NewsReader
	cache     *cache.Store
	hub       *Hub

	checks map[string]HealthChecker

	waitTimeout  time.Duration
	defaultCount int
	maxCount     int

	startTime time.Time
}

// New creates the API server
func New(cfg *config.Config, engine *scenario.Engine, newsStore NewsReader, cacheStore *cache.Store, hub *Hub) *Server {
	s := &Server{
		engine:       engine,
		newsStore:    newsStore,
		cache:        cacheStore,
		hub:          hub,
		checks:       make(map[string]HealthChecker),
		waitTimeout:  cfg.Scenario.WaitTimeout,
		defaultCount: cfg.Scenario.DefaultCount,
		maxCount:     cfg.Scenario.MaxCount,
		startTime:    time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /news", s.handleListNews)
	mux.HandleFunc("GET /news/{id}/scenarios", s.handleGetScenarios)
	mux.HandleFunc("POST /news/{id}/scenarios", s.handleGenerateScenarios)
	if hub != nil {
		mux.HandleFunc("GET /ws/news", hub.handleWS)
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// AddHealthCheck registers a named dependency check
func (s *Server) AddHealthCheck(name string, c HealthChecker) {
	s.checks[name] = c
}

// Start runs the server until it is shut down
func (s *Server) Start() error {
	logger.Info("api server starting", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("api server shutting down")
	if s.hub != nil {
		s.hub.Close()
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the server's handler, for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	for name, c := range s.checks {
		if err := c.Health(); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"uptime": time.Since(s.startTime).String(),
		"checks": checks,
	})
}
