package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"agentportal/internal/common"
	"agentportal/internal/domain/outbox"
)

type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]outbox.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, agent_id, event, recipient, payload,
		status, attempts, created_at, sent_at
		FROM notification_outbox WHERE status = 'pending'
		ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list pending notifications", err)
	}
	defer rows.Close()

	var items []outbox.Notification
	for rows.Next() {
		var note outbox.Notification
		var payload []byte
		var sentAt sql.NullTime
		if err := rows.Scan(&note.ID, &note.AgentID, &note.Event, &note.Recipient,
			&payload, &note.Status, &note.Attempts, &note.CreatedAt, &sentAt); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan notification", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &note.Payload); err != nil {
				return nil, common.NewError(common.CodeInternal, "failed to decode notification payload", err)
			}
		}
		if sentAt.Valid {
			t := sentAt.Time
			note.SentAt = &t
		}
		items = append(items, note)
	}
	return items, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notification_outbox SET status = 'sent', sent_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to mark notification sent", err)
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, maxAttempts int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notification_outbox
		SET attempts = attempts + 1,
			status = CASE WHEN attempts + 1 >= $1 THEN 'failed' ELSE 'pending' END
		WHERE id = $2`, maxAttempts, id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to record notification failure", err)
	}
	return nil
}

func insertNotifications(ctx context.Context, tx *sql.Tx, notes []outbox.Notification) error {
	for _, note := range notes {
		payload, err := json.Marshal(note.Payload)
		if err != nil {
			return common.NewError(common.CodeInternal, "failed to encode notification payload", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO notification_outbox (
				agent_id, event, recipient, payload, status, attempts, created_at
			) VALUES ($1, $2, $3, $4, 'pending', 0, $5)`,
			note.AgentID, note.Event, note.Recipient, payload, time.Now().UTC()); err != nil {
			return common.NewError(common.CodeInternal, "failed to queue notification", err)
		}
	}
	return nil
}
