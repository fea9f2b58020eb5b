package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/selivandex/finsights/pkg/models"
)

// BuildSummaryPrompt builds the market-summary prompt for a scheduled
// job. The response is free text used as the news body.
func BuildSummaryPrompt(job models.JobDefinition, now time.Time) string {
	var b strings.Builder

	b.WriteString(job.QueryTemplate)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Today is %s (IST).\n", now.Format("Monday, 02 January 2006"))
	b.WriteString("Focus on the Indian stock market (NSE, BSE, Nifty, Sensex).\n")
	b.WriteString("Write a concise, factual summary suitable for a news page. Plain text, no markdown headers.")

	return b.String()
}

// BuildDigestPrompt builds the prompt for sector, economy and global
// jobs. The response must be a JSON array of articles.
func BuildDigestPrompt(job models.JobDefinition, now time.Time, maxArticles int) string {
	var b strings.Builder

	b.WriteString(job.QueryTemplate)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Today is %s (IST).\n", now.Format("Monday, 02 January 2006"))
	fmt.Fprintf(&b, "Return up to %d distinct news items from the last few hours.\n\n", maxArticles)
	b.WriteString(`Respond with ONLY a JSON object in this exact format:
{
  "articles": [
    {
      "title": "headline, max 150 characters",
      "summary": "2-3 sentence summary",
      "source_name": "publication name",
      "source_url": "link if known, else empty string"
    }
  ]
}`)

	return b.String()
}

// BuildScenarioPrompt builds the what-if scenario prompt for one news
// item. The response must match the scenario JSON schema.
func BuildScenarioPrompt(news *models.NewsItem, numScenarios int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze this Indian stock market news and generate %d alternative \"what-if\" scenarios:\n\n", numScenarios)
	b.WriteString("**Original News:**\n")
	fmt.Fprintf(&b, "Title: %s\n", news.Title)
	fmt.Fprintf(&b, "Summary: %s\n", news.Summary)
	sub := news.Subcategory
	if sub == "" {
		sub = "general"
	}
	fmt.Fprintf(&b, "Category: %s - %s\n", news.Category, sub)
	if news.Symbols != "" {
		fmt.Fprintf(&b, "Stocks Mentioned: %s\n", news.Symbols)
	}

	fmt.Fprintf(&b, `
**Task:**
Generate %d plausible alternative scenarios exploring different outcomes or variations of this event.

For each scenario provide:
1. A clear title describing the scenario (max 80 characters)
2. Detailed description of what could happen (2-3 sentences)
3. Estimated probability (0.0 to 1.0) based on historical data and current context
4. Impact analysis on:
   - Key sectors (Banking, IT, Pharma, Auto, Energy, etc.) - show percentage impact
   - Major indices (Nifty, Sensex, Bank Nifty) - show percentage impact
   - Specific stocks if mentioned in the news
5. Historical context: When has something similar happened before? (1-2 sentences)

**Guidelines:**
- Scenarios should be realistic and data-driven
- Include both optimistic and pessimistic scenarios
- Consider macroeconomic factors, global impact, policy implications
- Use signed percentage estimates for market impacts (e.g., "+2.5%%", "-1.8%%")
- Reference specific historical events when applicable

Respond with ONLY a JSON object in this exact format:
{
  "scenarios": [
    {
      "title": "...",
      "description": "...",
      "probability": 0.4,
      "impact_analysis": {
        "sectors": {"banking": "+2.0%%"},
        "indices": {"nifty": "+0.5%%"},
        "stocks": {}
      },
      "historical_context": "..."
    }
  ]
}`, numScenarios)

	return b.String()
}

// SummaryTitle generates the market summary title for a subcategory,
// e.g. "Pre-Market Analysis - 02 Jan 2026"
func SummaryTitle(subcategory string, now time.Time) string {
	dateStr := now.Format("02 Jan 2006")
	switch subcategory {
	case "pre_market":
		return "Pre-Market Analysis - " + dateStr
	case "morning":
		return "Morning Market Update - " + dateStr
	case "midday":
		return "Mid-Day Market Summary - " + dateStr
	case "post_market":
		return "Post-Market Summary - " + dateStr
	case "evening":
		return "Evening Market Wrap - " + dateStr
	default:
		return "Market Update - " + dateStr
	}
}
