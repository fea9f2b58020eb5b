package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ImpactAnalysis maps market segments to signed percentage estimates,
// e.g. {"banking": "+2.0%"}. Stored as a JSONB column.
type ImpactAnalysis struct {
	Sectors map[string]string `json:"sectors,omitempty"`
	Indices map[string]string `json:"indices,omitempty"`
	Stocks  map[string]string `json:"stocks,omitempty"`
}

// Value implements driver.Valuer for JSONB storage
func (ia ImpactAnalysis) Value() (driver.Value, error) {
	return json.Marshal(ia)
}

// Scan implements sql.Scanner for JSONB storage
func (ia *ImpactAnalysis) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*ia = ImpactAnalysis{}
		return nil
	case []byte:
		return json.Unmarshal(v, ia)
	case string:
		return json.Unmarshal([]byte(v), ia)
	default:
		return fmt.Errorf("unsupported impact_analysis type %T", src)
	}
}

// Scenario is an AI-generated what-if projection attached to one news item.
// Probability is an independent estimate in [0,1]; the set for one news item
// does not need to sum to 1.
type Scenario struct {
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	Title             string         `json:"title" db:"title"`
	Description       string         `json:"description" db:"description"`
	HistoricalContext string         `json:"historical_context,omitempty" db:"historical_context"`
	ImpactAnalysis    ImpactAnalysis `json:"impact_analysis" db:"impact_analysis"`
	Probability       float64        `json:"probability" db:"probability"`
	ID                int64          `json:"id" db:"id"`
	NewsID            int64          `json:"news_id" db:"news_id"`
}
