package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/finsights/internal/adapters/ai"
	newsadapter "github.com/selivandex/finsights/internal/adapters/news"
	"github.com/selivandex/finsights/internal/cache"
	"github.com/selivandex/finsights/internal/scenario"
	"github.com/selivandex/finsights/pkg/logger"
	"github.com/selivandex/finsights/pkg/models"
)

const (
	defaultNewsLimit = 20
	maxNewsLimit     = 100
	newsReadWindow   = 48 * time.Hour
)

type scenariosResponse struct {
	Scenarios []models.Scenario `json:"scenarios"`
}

type generateRequest struct {
	NumScenarios int `json:"num_scenarios"`
}

type newsResponse struct {
	News  []models.NewsItem `json:"news"`
	Stale bool              `json:"stale"`
}

// handleGetScenarios serves previously generated scenarios. It never
// triggers generation.
func (s *Server) handleGetScenarios(w http.ResponseWriter, r *http.Request) {
	newsID, ok := parseID(w, r)
	if !ok {
		return
	}

	scenarios, err := s.engine.GetExisting(r.Context(), newsID)
	if err != nil {
		logger.Error("failed to load scenarios",
			zap.Int64("news_id", newsID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to load scenarios")
		return
	}

	if scenarios == nil {
		scenarios = []models.Scenario{}
	}
	writeJSON(w, http.StatusOK, scenariosResponse{Scenarios: scenarios})
}

// handleGenerateScenarios triggers get-or-generate for a news item.
// Raw provider error text is never exposed; the status distinguishes
// "try later" from "failed".
func (s *Server) handleGenerateScenarios(w http.ResponseWriter, r *http.Request) {
	newsID, ok := parseID(w, r)
	if !ok {
		return
	}

	req := generateRequest{NumScenarios: s.defaultCount}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.NumScenarios == 0 {
		req.NumScenarios = s.defaultCount
	}
	if req.NumScenarios < 1 || req.NumScenarios > s.maxCount {
		writeError(w, http.StatusBadRequest, "num_scenarios out of range")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.waitTimeout)
	defer cancel()

	scenarios, err := s.engine.GetOrGenerate(ctx, newsID, req.NumScenarios)
	if err != nil {
		switch {
		case errors.Is(err, scenario.ErrGenerationInProgress):
			writeError(w, http.StatusAccepted, "generation in progress, try again shortly")
		case errors.Is(err, newsadapter.ErrNotFound):
			writeError(w, http.StatusNotFound, "news item not found")
		case ai.IsTransient(err):
			writeError(w, http.StatusServiceUnavailable, "provider temporarily unavailable, try again later")
		default:
			writeError(w, http.StatusBadGateway, "scenario generation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, scenariosResponse{Scenarios: scenarios})
}

// handleListNews serves the category view cache-first: fresh cache,
// then the store, then the stale cache entry as a degradation fallback
func (s *Server) handleListNews(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = models.CategoryMarket
	}

	limit := defaultNewsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxNewsLimit {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	key := cache.NewsKey(category)

	if cached, ok := s.cache.Get(key); ok {
		if items, ok := cached.([]models.NewsItem); ok {
			writeJSON(w, http.StatusOK, newsResponse{News: clip(items, limit), Stale: false})
			return
		}
	}

	items, err := s.newsStore.LoadNewsItems(r.Context(), category, time.Now().Add(-newsReadWindow), limit)
	if err != nil {
		if stale, ok := s.cache.GetStale(key); ok {
			if staleItems, ok := stale.([]models.NewsItem); ok {
				logger.Warn("serving stale news, store unavailable",
					zap.String("category", category),
					zap.Error(err),
				)
				writeJSON(w, http.StatusOK, newsResponse{News: clip(staleItems, limit), Stale: true})
				return
			}
		}
		logger.Error("failed to load news",
			zap.String("category", category),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to load news")
		return
	}

	writeJSON(w, http.StatusOK, newsResponse{News: items, Stale: false})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid news id")
		return 0, false
	}
	return id, true
}

func clip(items []models.NewsItem, limit int) []models.NewsItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
