package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/selivandex/finsights/pkg/models"
)

// ArticleDraft is one article parsed from a digest response, before it
// becomes a persisted news item
type ArticleDraft struct {
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	SourceName string `json:"source_name"`
	SourceURL  string `json:"source_url"`
}

// ScenarioDraft is one scenario parsed from a generation response.
// Domain validation (probability range, impact format) happens in the
// scenario engine; here only the shape is checked.
type ScenarioDraft struct {
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	HistoricalContext string                `json:"historical_context"`
	ImpactAnalysis    models.ImpactAnalysis `json:"impact_analysis"`
	Probability       float64               `json:"probability"`
}

// ParseNewsDigest parses a digest completion into article drafts.
// A shape mismatch is a permanent failure for this call.
func ParseNewsDigest(raw string) ([]ArticleDraft, error) {
	var payload struct {
		Articles []ArticleDraft `json:"articles"`
	}

	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return nil, permanentErr(0, fmt.Errorf("malformed digest response: %w", err))
	}

	articles := make([]ArticleDraft, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Summary) == "" {
			return nil, permanentErr(0, fmt.Errorf("digest article missing title or summary"))
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// ParseScenarioSet parses a scenario completion into drafts
func ParseScenarioSet(raw string) ([]ScenarioDraft, error) {
	var payload struct {
		Scenarios []ScenarioDraft `json:"scenarios"`
	}

	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return nil, permanentErr(0, fmt.Errorf("malformed scenario response: %w", err))
	}

	if len(payload.Scenarios) == 0 {
		return nil, permanentErr(0, fmt.Errorf("scenario response contains no scenarios"))
	}

	for _, s := range payload.Scenarios {
		if strings.TrimSpace(s.Title) == "" || strings.TrimSpace(s.Description) == "" {
			return nil, permanentErr(0, fmt.Errorf("scenario missing title or description"))
		}
	}

	return payload.Scenarios, nil
}

// stripCodeFence removes a surrounding markdown code fence that some
// models wrap around JSON payloads
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
