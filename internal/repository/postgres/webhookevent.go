package postgres

import (
	"context"
	"fmt"
	"time"
)

type WebhookEventRepo struct {
	DB DBTX
}

const recordEvent = `-- name: RecordEvent
INSERT INTO webhook_events (provider_event_id, received_at)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

func (r *WebhookEventRepo) RecordEvent(ctx context.Context, providerEventID string, receivedAt time.Time) (bool, error) {
	tag, err := r.DB.Exec(ctx, recordEvent, providerEventID, receivedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
