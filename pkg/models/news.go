package models

import "time"

// News types
const (
	NewsTypeSummary = "summary"
	NewsTypeArticle = "article"
)

// News categories
const (
	CategoryMarket  = "market"
	CategorySector  = "sector"
	CategoryEconomy = "economy"
	CategoryGlobal  = "global"
	CategoryStock   = "stock"
)

// NewsItem represents a single AI-generated news item
type NewsItem struct {
	PublishedAt  *time.Time `json:"published_at,omitempty" db:"published_at"`
	FetchedAt    time.Time  `json:"fetched_at" db:"fetched_at"`
	Title        string     `json:"title" db:"title"`
	Summary      string     `json:"summary" db:"summary"`
	Content      string     `json:"content,omitempty" db:"content"`
	Category     string     `json:"category" db:"category"`
	Subcategory  string     `json:"subcategory" db:"subcategory"`
	NewsType     string     `json:"news_type" db:"news_type"`
	SourceURL    string     `json:"source_url,omitempty" db:"source_url"`
	SourceName   string     `json:"source_name,omitempty" db:"source_name"`
	SourceDomain string     `json:"source_domain,omitempty" db:"source_domain"`
	Symbols      string     `json:"symbols,omitempty" db:"symbols"`
	JobName      string     `json:"-" db:"job_name"`
	TriggeredBy  string     `json:"-" db:"triggered_by"`
	ID           int64      `json:"id" db:"id"`
	IsPublished  bool       `json:"is_published" db:"is_published"`
}
