package cache

import (
	"strconv"
	"time"
)

// TTL constants per data kind. These are the writer-side defaults;
// config can override summary and scenario TTLs.
const (
	// Market summaries outlive a trading session
	TTLMarketSummary = 12 * time.Hour

	// Sector/economy/global digests refresh with their jobs
	TTLNewsDigest = 6 * time.Hour

	// Scenarios are generated once per news item and never recomputed
	// automatically, so they are effectively permanent
	TTLScenario = 30 * 24 * time.Hour
)

// NewsKey is the cache key for a category's aggregate view
func NewsKey(category string) string {
	return "news:" + category
}

// ScenarioKey is the cache key for one news item's scenario set
func ScenarioKey(newsID int64) string {
	return "scenario:" + strconv.FormatInt(newsID, 10)
}
