package scheduler

import (
	"time"

	"github.com/selivandex/finsights/internal/cache"
	"github.com/selivandex/finsights/pkg/models"
)

// DefaultJobs is the built-in recurring job set, anchored to the
// scheduler's timezone (IST in production)
func DefaultJobs() []models.JobDefinition {
	return []models.JobDefinition{
		{
			Name:          "pre_market",
			Category:      models.CategoryMarket,
			Subcategory:   "pre_market",
			QueryTemplate: "Summarize everything an Indian equity investor needs before today's market open: overnight global market moves, SGX/GIFT Nifty indication, key corporate announcements, FII/DII flows, and events scheduled for today.",
			Trigger:       models.DailyTrigger{Hour: 8, Minute: 0},
			CacheKeys:     []string{cache.NewsKey(models.CategoryMarket)},
		},
		{
			Name:          "post_market",
			Category:      models.CategoryMarket,
			Subcategory:   "post_market",
			QueryTemplate: "Summarize today's Indian stock market session after the close: Nifty and Sensex performance, top gainers and losers, sector moves, notable volumes, and drivers behind the moves.",
			Trigger:       models.DailyTrigger{Hour: 16, Minute: 0},
			CacheKeys:     []string{cache.NewsKey(models.CategoryMarket)},
		},
		{
			Name:          "sector_rotation",
			Category:      models.CategorySector,
			Subcategory:   "rotation",
			QueryTemplate: "Latest Indian stock market sector news: banking, IT, pharma, auto, energy, FMCG. Which sectors are seeing buying or selling interest and why.",
			Trigger: models.IntervalTrigger{
				Every:       2 * time.Hour,
				WindowStart: models.ClockTime{Hour: 9, Minute: 0},
				WindowEnd:   models.ClockTime{Hour: 18, Minute: 0},
			},
			CacheKeys: []string{cache.NewsKey(models.CategorySector)},
		},
		{
			Name:          "economy",
			Category:      models.CategoryEconomy,
			Subcategory:   "general",
			QueryTemplate: "Latest Indian economy news: RBI policy, inflation, GDP, government policy, rupee, bond yields, and fiscal developments relevant to equity markets.",
			Trigger: models.IntervalTrigger{
				Every:       3 * time.Hour,
				WindowStart: models.ClockTime{Hour: 8, Minute: 0},
				WindowEnd:   models.ClockTime{Hour: 20, Minute: 0},
			},
			CacheKeys: []string{cache.NewsKey(models.CategoryEconomy)},
		},
		{
			Name:          "global",
			Category:      models.CategoryGlobal,
			Subcategory:   "general",
			QueryTemplate: "Latest global market news relevant to Indian equities: US markets, Fed policy, crude oil, dollar index, China, and geopolitical developments.",
			Trigger: models.IntervalTrigger{
				Every:       6 * time.Hour,
				WindowStart: models.ClockTime{Hour: 6, Minute: 0},
				WindowEnd:   models.ClockTime{Hour: 22, Minute: 0},
			},
			CacheKeys: []string{cache.NewsKey(models.CategoryGlobal)},
		},
	}
}
