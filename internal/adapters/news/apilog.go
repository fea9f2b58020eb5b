package news

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/finsights/pkg/logger"
	"github.com/selivandex/finsights/pkg/models"
)

// LogAPICall records one provider call or scheduler event. Logging is
// best-effort: a failed insert is reported to the app log but never
// propagated into the pipeline's outcome.
func (r *Repository) LogAPICall(ctx context.Context, entry models.APILog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_logs (
			timestamp, event_type, job_name, query, status,
			response_time_ms, news_count, error_message, triggered_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.Timestamp,
		entry.EventType,
		entry.JobName,
		entry.Query,
		entry.Status,
		entry.ResponseTimeMS,
		entry.NewsCount,
		entry.ErrorMessage,
		entry.TriggeredBy,
	)
	if err != nil {
		logger.Warn("failed to write api log",
			zap.String("event_type", entry.EventType),
			zap.String("job_name", entry.JobName),
			zap.Error(err),
		)
	}
}

// RecentAPILogs loads the latest api log rows for admin tooling
func (r *Repository) RecentAPILogs(ctx context.Context, limit int) ([]models.APILog, error) {
	logs := make([]models.APILog, 0)
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, timestamp, event_type, job_name, query, status,
		       response_time_ms, news_count, error_message, triggered_by
		FROM api_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load api logs: %w", err)
	}
	return logs, nil
}
