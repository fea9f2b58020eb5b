package news

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/selivandex/finsights/pkg/models"
)

// ErrNotFound is returned when a news item does not exist
var ErrNotFound = errors.New("news item not found")

// Repository handles database operations for news and scenarios
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new news repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SaveNewsItem inserts one news item and returns its id
func (r *Repository) SaveNewsItem(ctx context.Context, item *models.NewsItem) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO news_items (
			title, summary, content, category, subcategory, news_type,
			source_url, source_name, source_domain, symbols,
			job_name, triggered_by, is_published, published_at, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		item.Title,
		item.Summary,
		item.Content,
		item.Category,
		item.Subcategory,
		item.NewsType,
		item.SourceURL,
		item.SourceName,
		item.SourceDomain,
		item.Symbols,
		item.JobName,
		item.TriggeredBy,
		item.IsPublished,
		item.PublishedAt,
		item.FetchedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert news item: %w", err)
	}

	item.ID = id
	return id, nil
}

// SaveNewsItems inserts a batch of news items in one transaction
func (r *Repository) SaveNewsItems(ctx context.Context, items []*models.NewsItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := 0
	for _, item := range items {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO news_items (
				title, summary, content, category, subcategory, news_type,
				source_url, source_name, source_domain, symbols,
				job_name, triggered_by, is_published, published_at, fetched_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id
		`,
			item.Title, item.Summary, item.Content, item.Category,
			item.Subcategory, item.NewsType, item.SourceURL, item.SourceName,
			item.SourceDomain, item.Symbols, item.JobName, item.TriggeredBy,
			item.IsPublished, item.PublishedAt, item.FetchedAt,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to insert news item: %w", err)
		}
		item.ID = id
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return saved, nil
}

// GetNewsItem loads one news item by id
func (r *Repository) GetNewsItem(ctx context.Context, id int64) (*models.NewsItem, error) {
	var item models.NewsItem
	err := r.db.GetContext(ctx, &item, `
		SELECT id, title, summary, content, category, subcategory, news_type,
		       source_url, source_name, source_domain, symbols,
		       job_name, triggered_by, is_published, published_at, fetched_at
		FROM news_items
		WHERE id = $1 AND is_published = TRUE
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load news item: %w", err)
	}
	return &item, nil
}

// TitleExists reports whether a published item with this title exists.
// Used to dedupe digest articles.
func (r *Repository) TitleExists(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM news_items WHERE title = $1)`, title)
	if err != nil {
		return false, fmt.Errorf("failed to check title: %w", err)
	}
	return exists, nil
}

// LoadNewsItems loads recent published news for a category
func (r *Repository) LoadNewsItems(ctx context.Context, category string, since time.Time, limit int) ([]models.NewsItem, error) {
	items := make([]models.NewsItem, 0)
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, title, summary, content, category, subcategory, news_type,
		       source_url, source_name, source_domain, symbols,
		       job_name, triggered_by, is_published, published_at, fetched_at
		FROM news_items
		WHERE category = $1 AND fetched_at > $2 AND is_published = TRUE
		ORDER BY fetched_at DESC
		LIMIT $3
	`, category, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load news items: %w", err)
	}
	return items, nil
}

// SaveScenarios persists the full scenario set for a news item in one
// transaction. The write is all-or-nothing.
func (r *Repository) SaveScenarios(ctx context.Context, newsID int64, scenarios []models.Scenario) ([]models.Scenario, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := make([]models.Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		s.NewsID = newsID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO scenarios (
				news_id, title, description, probability,
				impact_analysis, historical_context, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`,
			s.NewsID,
			s.Title,
			s.Description,
			s.Probability,
			s.ImpactAnalysis,
			s.HistoricalContext,
			s.CreatedAt,
		).Scan(&s.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert scenario: %w", err)
		}
		saved = append(saved, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return saved, nil
}

// LoadScenarios loads all scenarios for a news item
func (r *Repository) LoadScenarios(ctx context.Context, newsID int64) ([]models.Scenario, error) {
	scenarios := make([]models.Scenario, 0)
	err := r.db.SelectContext(ctx, &scenarios, `
		SELECT id, news_id, title, description, probability,
		       impact_analysis, historical_context, created_at
		FROM scenarios
		WHERE news_id = $1
		ORDER BY id
	`, newsID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}
	return scenarios, nil
}
