package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/finsights/pkg/models"
)

func TestParseNewsDigest(t *testing.T) {
	raw := `{
		"articles": [
			{"title": "RBI holds rates", "summary": "Repo unchanged at 6.5%.", "source_name": "Mint", "source_url": "https://example.com/rbi"},
			{"title": "IT stocks rally", "summary": "Large caps led gains.", "source_name": "ET", "source_url": ""}
		]
	}`

	articles, err := ParseNewsDigest(raw)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "RBI holds rates", articles[0].Title)
	assert.Equal(t, "Mint", articles[0].SourceName)
}

func TestParseNewsDigestStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"articles\":[{\"title\":\"T\",\"summary\":\"S\",\"source_name\":\"N\",\"source_url\":\"\"}]}\n```"

	articles, err := ParseNewsDigest(raw)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "T", articles[0].Title)
}

func TestParseNewsDigestRejectsMissingTitle(t *testing.T) {
	raw := `{"articles":[{"title":"  ","summary":"S","source_name":"N","source_url":""}]}`

	_, err := ParseNewsDigest(raw)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestParseNewsDigestRejectsMalformedJSON(t *testing.T) {
	_, err := ParseNewsDigest("here are the articles you asked for:")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestParseNewsDigestEmptyListIsValid(t *testing.T) {
	articles, err := ParseNewsDigest(`{"articles":[]}`)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestParseScenarioSet(t *testing.T) {
	raw := `{
		"scenarios": [
			{
				"title": "Rate cut accelerates",
				"description": "A surprise cut lifts rate-sensitive sectors.",
				"probability": 0.35,
				"impact_analysis": {
					"sectors": {"banking": "+2.0%"},
					"indices": {"nifty": "+0.8%"},
					"stocks": {}
				},
				"historical_context": "Similar to the 2019 surprise cut."
			}
		]
	}`

	drafts, err := ParseScenarioSet(raw)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Rate cut accelerates", drafts[0].Title)
	assert.InDelta(t, 0.35, drafts[0].Probability, 1e-9)
	assert.Equal(t, "+2.0%", drafts[0].ImpactAnalysis.Sectors["banking"])
}

func TestParseScenarioSetRejectsEmptySet(t *testing.T) {
	_, err := ParseScenarioSet(`{"scenarios":[]}`)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestParseScenarioSetRejectsMissingDescription(t *testing.T) {
	raw := `{"scenarios":[{"title":"T","description":"","probability":0.4,"impact_analysis":{"sectors":{},"indices":{},"stocks":{}},"historical_context":""}]}`

	_, err := ParseScenarioSet(raw)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
}

func TestSummaryTitle(t *testing.T) {
	now := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "Pre-Market Analysis - 02 Jan 2026", SummaryTitle("pre_market", now))
	assert.Equal(t, "Post-Market Summary - 02 Jan 2026", SummaryTitle("post_market", now))
	assert.Equal(t, "Market Update - 02 Jan 2026", SummaryTitle("rotation", now))
}

func TestBuildScenarioPromptIncludesNewsFields(t *testing.T) {
	news := &models.NewsItem{
		Title:    "RBI holds rates",
		Summary:  "Repo unchanged.",
		Category: models.CategoryEconomy,
		Symbols:  "HDFCBANK,ICICIBANK",
	}

	prompt := BuildScenarioPrompt(news, 3)
	assert.Contains(t, prompt, "generate 3 alternative")
	assert.Contains(t, prompt, "RBI holds rates")
	assert.Contains(t, prompt, "HDFCBANK,ICICIBANK")
	assert.Contains(t, prompt, `"scenarios"`)
}
