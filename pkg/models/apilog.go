package models

import "time"

// API log event types
const (
	EventAPICall            = "api_call"
	EventScheduler          = "scheduler"
	EventScenarioGeneration = "scenario_generation"
	EventManualTrigger      = "manual_trigger"
)

// API log statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// APILog records one provider call or scheduler event for the
// admin-visible call log
type APILog struct {
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	EventType      string    `json:"event_type" db:"event_type"`
	JobName        string    `json:"job_name" db:"job_name"`
	Query          string    `json:"query" db:"query"`
	Status         string    `json:"status" db:"status"`
	ErrorMessage   string    `json:"error_message,omitempty" db:"error_message"`
	TriggeredBy    string    `json:"triggered_by" db:"triggered_by"`
	ID             int64     `json:"id" db:"id"`
	ResponseTimeMS int64     `json:"response_time_ms" db:"response_time_ms"`
	NewsCount      int       `json:"news_count" db:"news_count"`
}
