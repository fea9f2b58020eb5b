// Package scenario implements on-demand what-if scenario generation.
// Scenarios are generated exactly once per news item: concurrent
// requests for the same item share a single in-flight provider call,
// and once a set exists it is returned unconditionally.
package scenario

import (
	"context"
	"errors"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/selivandex/finsights/internal/adapters/ai"
	"github.com/selivandex/finsights/internal/cache"
	"github.com/selivandex/finsights/pkg/logger"
	"github.com/selivandex/finsights/pkg/models"
)

// ErrGenerationInProgress is returned when the caller stopped waiting
// for an in-flight generation. The underlying call keeps running and
// releases the flight on its own completion.
var ErrGenerationInProgress = errors.New("scenario generation in progress")

// NewsStore is the persistence collaborator
type NewsStore interface {
	GetNewsItem(ctx context.Context, id int64) (*models.NewsItem, error)
	SaveScenarios(ctx context.Context, newsID int64, scenarios []models.Scenario) ([]models.Scenario, error)
	LoadScenarios(ctx context.Context, newsID int64) ([]models.Scenario, error)
	LogAPICall(ctx context.Context, entry models.APILog)
}

// Alerter pushes permanent failures to ops tooling. May be nil.
type Alerter interface {
	NotifyGenerationFailure(newsID int64, err error)
}

// Engine generates and serves scenarios for news items
type Engine struct {
	gen     ai.Generator
	store   NewsStore
	cache   *cache.Store
	alerter Alerter

	group       singleflight.Group
	scenarioTTL time.Duration
	genTimeout  time.Duration
}

// NewEngine creates a scenario engine
func NewEngine(gen ai.Generator, store NewsStore, cacheStore *cache.Store) *Engine {
	return &Engine{
		gen:         gen,
		store:       store,
		cache:       cacheStore,
		scenarioTTL: cache.TTLScenario,
		genTimeout:  2 * time.Minute,
	}
}

// WithAlerter attaches an ops alerter
func (e *Engine) WithAlerter(a Alerter) *Engine {
	e.alerter = a
	return e
}

// WithScenarioTTL overrides the scenario cache TTL
func (e *Engine) WithScenarioTTL(ttl time.Duration) *Engine {
	if ttl > 0 {
		e.scenarioTTL = ttl
	}
	return e
}

// GetExisting returns previously generated scenarios without ever
// triggering generation. The returned slice is empty when none exist.
func (e *Engine) GetExisting(ctx context.Context, newsID int64) ([]models.Scenario, error) {
	key := cache.ScenarioKey(newsID)

	if cached, ok := e.cache.Get(key); ok {
		if scenarios, ok := cached.([]models.Scenario); ok {
			return scenarios, nil
		}
	}

	scenarios, err := e.store.LoadScenarios(ctx, newsID)
	if err != nil {
		// Degrade to a stale cache entry rather than failing the read
		if stale, ok := e.cache.GetStale(key); ok {
			if scenarios, ok := stale.([]models.Scenario); ok {
				logger.Warn("serving stale scenarios, store unavailable",
					zap.Int64("news_id", newsID),
					zap.Error(err),
				)
				return scenarios, nil
			}
		}
		return nil, err
	}

	if len(scenarios) > 0 {
		e.cache.Put(key, scenarios, e.scenarioTTL)
	}
	return scenarios, nil
}

// GetOrGenerate returns the scenario set for a news item, generating it
// if none exists. Concurrent calls for the same id produce exactly one
// provider call; a caller whose ctx expires while the flight is running
// gets ErrGenerationInProgress.
func (e *Engine) GetOrGenerate(ctx context.Context, newsID int64, numScenarios int) ([]models.Scenario, error) {
	existing, err := e.GetExisting(ctx, newsID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	item, err := e.store.GetNewsItem(ctx, newsID)
	if err != nil {
		return nil, err
	}

	flightKey := strconv.FormatInt(newsID, 10)
	ch := e.group.DoChan(flightKey, func() (interface{}, error) {
		// The flight owns its own deadline: an abandoning caller must
		// not kill the provider call mid-generation
		genCtx, cancel := context.WithTimeout(context.Background(), e.genTimeout)
		defer cancel()
		return e.generate(genCtx, item, numScenarios)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.Scenario), nil
	case <-ctx.Done():
		return nil, ErrGenerationInProgress
	}
}

// generate runs inside the single flight for one news item
func (e *Engine) generate(ctx context.Context, item *models.NewsItem, numScenarios int) ([]models.Scenario, error) {
	// Re-check under the flight: a racing request may have persisted
	// a set between our fast-path check and flight start
	existing, err := e.store.LoadScenarios(ctx, item.ID)
	if err == nil && len(existing) > 0 {
		e.cache.Put(cache.ScenarioKey(item.ID), existing, e.scenarioTTL)
		return existing, nil
	}

	startTime := time.Now()
	prompt := ai.BuildScenarioPrompt(item, numScenarios)

	raw, err := e.gen.Complete(ctx, prompt)
	if err != nil {
		return nil, e.fail(ctx, item.ID, prompt, startTime, err)
	}

	drafts, err := ai.ParseScenarioSet(raw)
	if err != nil {
		return nil, e.fail(ctx, item.ID, prompt, startTime, err)
	}

	// Atomic accept: one malformed entry rejects the whole batch
	if err := validateDrafts(drafts); err != nil {
		return nil, e.fail(ctx, item.ID, prompt, startTime, err)
	}

	now := time.Now()
	scenarios := make([]models.Scenario, 0, len(drafts))
	for _, d := range drafts {
		scenarios = append(scenarios, models.Scenario{
			NewsID:            item.ID,
			Title:             d.Title,
			Description:       d.Description,
			Probability:       d.Probability,
			ImpactAnalysis:    d.ImpactAnalysis,
			HistoricalContext: d.HistoricalContext,
			CreatedAt:         now,
		})
	}

	saved, err := e.store.SaveScenarios(ctx, item.ID, scenarios)
	if err != nil {
		return nil, e.fail(ctx, item.ID, prompt, startTime, err)
	}

	e.cache.Put(cache.ScenarioKey(item.ID), saved, e.scenarioTTL)

	e.store.LogAPICall(ctx, models.APILog{
		Timestamp:      startTime,
		EventType:      models.EventScenarioGeneration,
		JobName:        "scenarios_" + strconv.FormatInt(item.ID, 10),
		Query:          promptSnippet(prompt),
		Status:         models.StatusSuccess,
		ResponseTimeMS: time.Since(startTime).Milliseconds(),
		NewsCount:      len(saved),
		TriggeredBy:    "user",
	})

	logger.Info("scenarios generated",
		zap.Int64("news_id", item.ID),
		zap.Int("count", len(saved)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return saved, nil
}

func (e *Engine) fail(ctx context.Context, newsID int64, prompt string, startTime time.Time, err error) error {
	logger.Error("scenario generation failed",
		zap.Int64("news_id", newsID),
		zap.Bool("transient", ai.IsTransient(err)),
		zap.Error(err),
	)

	e.store.LogAPICall(ctx, models.APILog{
		Timestamp:      startTime,
		EventType:      models.EventScenarioGeneration,
		JobName:        "scenarios_" + strconv.FormatInt(newsID, 10),
		Query:          promptSnippet(prompt),
		Status:         models.StatusFailed,
		ResponseTimeMS: time.Since(startTime).Milliseconds(),
		ErrorMessage:   err.Error(),
		TriggeredBy:    "user",
	})

	if e.alerter != nil && !ai.IsTransient(err) {
		e.alerter.NotifyGenerationFailure(newsID, err)
	}

	return err
}

const querySnippetLen = 200

// promptSnippet clips the prompt for the api log without splitting a
// rune; Postgres rejects invalid UTF-8
func promptSnippet(prompt string) string {
	if len(prompt) <= querySnippetLen {
		return prompt
	}
	cut := querySnippetLen
	for cut > 0 && !utf8.RuneStart(prompt[cut]) {
		cut--
	}
	return prompt[:cut]
}
