// Package pipeline implements fetch-and-summarize: build a prompt for
// a job, call the generation provider, persist the resulting news and
// rewrite the affected cache keys with the fresh aggregate view.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/selivandex/finsights/internal/adapters/ai"
	"github.com/selivandex/finsights/internal/cache"
	"github.com/selivandex/finsights/pkg/logger"
	"github.com/selivandex/finsights/pkg/models"
)

const (
	maxDigestArticles = 5
	querySnippetLen   = 200
	summarySnippetLen = 500
	aggregateWindow   = 48 * time.Hour
	aggregateLimit    = 50
)

// NewsStore is the persistence collaborator
type NewsStore interface {
	SaveNewsItem(ctx context.Context, item *models.NewsItem) (int64, error)
	SaveNewsItems(ctx context.Context, items []*models.NewsItem) (int, error)
	TitleExists(ctx context.Context, title string) (bool, error)
	LoadNewsItems(ctx context.Context, category string, since time.Time, limit int) ([]models.NewsItem, error)
	LogAPICall(ctx context.Context, entry models.APILog)
}

// Alerter pushes failures to ops tooling. May be nil.
type Alerter interface {
	NotifyJobFailure(jobName, classification string, err error)
}

// Broadcaster pushes freshly persisted news to live subscribers.
// May be nil.
type Broadcaster interface {
	BroadcastNews(items []models.NewsItem)
}

// Outcome reports one pipeline execution
type Outcome struct {
	JobName     string
	NewsCreated int
	Duration    time.Duration
}

// Pipeline executes fetch-and-summarize for job definitions
type Pipeline struct {
	gen         ai.Generator
	store       NewsStore
	cache       *cache.Store
	alerter     Alerter
	broadcaster Broadcaster
	loc         *time.Location
	summaryTTL  time.Duration
	digestTTL   time.Duration
}

// New creates a pipeline
func New(gen ai.Generator, store NewsStore, cacheStore *cache.Store, loc *time.Location) *Pipeline {
	return &Pipeline{
		gen:        gen,
		store:      store,
		cache:      cacheStore,
		loc:        loc,
		summaryTTL: cache.TTLMarketSummary,
		digestTTL:  cache.TTLNewsDigest,
	}
}

// WithAlerter attaches an ops alerter
func (p *Pipeline) WithAlerter(a Alerter) *Pipeline {
	p.alerter = a
	return p
}

// WithBroadcaster attaches a live news broadcaster
func (p *Pipeline) WithBroadcaster(b Broadcaster) *Pipeline {
	p.broadcaster = b
	return p
}

// WithTTLs overrides the cache TTLs
func (p *Pipeline) WithTTLs(summaryTTL, digestTTL time.Duration) *Pipeline {
	if summaryTTL > 0 {
		p.summaryTTL = summaryTTL
	}
	if digestTTL > 0 {
		p.digestTTL = digestTTL
	}
	return p
}

// Execute satisfies scheduler.Executor
func (p *Pipeline) Execute(ctx context.Context, job models.JobDefinition) error {
	_, err := p.Run(ctx, job, "scheduler")
	return err
}

// Run executes the pipeline for one job. On provider or validation
// failure nothing is persisted and existing cache entries stay
// untouched, so stale-but-valid data keeps serving.
func (p *Pipeline) Run(ctx context.Context, job models.JobDefinition, triggeredBy string) (Outcome, error) {
	startTime := time.Now()
	now := startTime.In(p.loc)

	var prompt string
	var items []*models.NewsItem
	var err error

	if job.Category == models.CategoryMarket {
		prompt = ai.BuildSummaryPrompt(job, now)
		items, err = p.fetchSummary(ctx, job, prompt, now, triggeredBy)
	} else {
		prompt = ai.BuildDigestPrompt(job, now, maxDigestArticles)
		items, err = p.fetchDigest(ctx, job, prompt, now, triggeredBy)
	}

	if err != nil {
		p.reportFailure(ctx, job, prompt, startTime, triggeredBy, err)
		return Outcome{JobName: job.Name, Duration: time.Since(startTime)}, err
	}

	p.refreshCache(ctx, job, now)

	p.store.LogAPICall(ctx, models.APILog{
		Timestamp:      now,
		EventType:      models.EventAPICall,
		JobName:        job.Name,
		Query:          truncate(prompt, querySnippetLen),
		Status:         models.StatusSuccess,
		ResponseTimeMS: time.Since(startTime).Milliseconds(),
		NewsCount:      len(items),
		TriggeredBy:    triggeredBy,
	})

	if p.broadcaster != nil && len(items) > 0 {
		created := make([]models.NewsItem, 0, len(items))
		for _, item := range items {
			created = append(created, *item)
		}
		p.broadcaster.BroadcastNews(created)
	}

	logger.Info("pipeline run completed",
		zap.String("job", job.Name),
		zap.Int("news_created", len(items)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return Outcome{
		JobName:     job.Name,
		NewsCreated: len(items),
		Duration:    time.Since(startTime),
	}, nil
}

// fetchSummary produces one market summary item from free-text output
func (p *Pipeline) fetchSummary(ctx context.Context, job models.JobDefinition, prompt string, now time.Time, triggeredBy string) ([]*models.NewsItem, error) {
	content, err := p.gen.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty summary content")
	}

	item := &models.NewsItem{
		Title:       ai.SummaryTitle(job.Subcategory, now),
		Summary:     truncate(content, summarySnippetLen),
		Content:     content,
		Category:    job.Category,
		Subcategory: job.Subcategory,
		NewsType:    models.NewsTypeSummary,
		JobName:     job.Name,
		TriggeredBy: triggeredBy,
		IsPublished: true,
		FetchedAt:   now,
	}

	if _, err := p.store.SaveNewsItem(ctx, item); err != nil {
		return nil, err
	}

	return []*models.NewsItem{item}, nil
}

// fetchDigest produces article items from a structured digest response,
// deduplicated by title against the store
func (p *Pipeline) fetchDigest(ctx context.Context, job models.JobDefinition, prompt string, now time.Time, triggeredBy string) ([]*models.NewsItem, error) {
	raw, err := p.gen.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	drafts, err := ai.ParseNewsDigest(raw)
	if err != nil {
		return nil, err
	}

	items := make([]*models.NewsItem, 0, len(drafts))
	for _, draft := range drafts {
		exists, err := p.store.TitleExists(ctx, draft.Title)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		items = append(items, &models.NewsItem{
			Title:        draft.Title,
			Summary:      draft.Summary,
			Category:     job.Category,
			Subcategory:  job.Subcategory,
			NewsType:     models.NewsTypeArticle,
			SourceURL:    draft.SourceURL,
			SourceName:   draft.SourceName,
			SourceDomain: extractDomain(draft.SourceURL),
			JobName:      job.Name,
			TriggeredBy:  triggeredBy,
			IsPublished:  true,
			FetchedAt:    now,
		})
	}

	if len(items) > 0 {
		if _, err := p.store.SaveNewsItems(ctx, items); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// refreshCache rewrites the job's target keys with the fresh aggregate
// view, so the next read is served without a provider call
func (p *Pipeline) refreshCache(ctx context.Context, job models.JobDefinition, now time.Time) {
	aggregate, err := p.store.LoadNewsItems(ctx, job.Category, now.Add(-aggregateWindow), aggregateLimit)
	if err != nil {
		// Persisted data is intact; the read path will fall through to
		// the store on the next miss
		logger.Warn("failed to load aggregate for cache refresh",
			zap.String("job", job.Name),
			zap.Error(err),
		)
		return
	}

	ttl := p.digestTTL
	if job.Category == models.CategoryMarket {
		ttl = p.summaryTTL
	}

	for _, key := range job.CacheKeys {
		p.cache.Put(key, aggregate, ttl)
	}
}

func (p *Pipeline) reportFailure(ctx context.Context, job models.JobDefinition, prompt string, startTime time.Time, triggeredBy string, err error) {
	classification := "permanent"
	if ai.IsTransient(err) {
		classification = "transient"
	}

	logger.Error("pipeline run failed",
		zap.String("job", job.Name),
		zap.String("classification", classification),
		zap.Error(err),
	)

	p.store.LogAPICall(ctx, models.APILog{
		Timestamp:      startTime,
		EventType:      models.EventAPICall,
		JobName:        job.Name,
		Query:          truncate(prompt, querySnippetLen),
		Status:         models.StatusFailed,
		ResponseTimeMS: time.Since(startTime).Milliseconds(),
		ErrorMessage:   err.Error(),
		TriggeredBy:    triggeredBy,
	})

	if p.alerter != nil {
		p.alerter.NotifyJobFailure(job.Name, classification, err)
	}
}

func extractDomain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

// truncate clips s to at most max bytes without splitting a rune;
// Postgres rejects invalid UTF-8
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
