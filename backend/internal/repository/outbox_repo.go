package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"plantao/backend/internal/model"
)

// OutboxRepository data access for outbox messages
type OutboxRepository interface {
	Create(ctx context.Context, msg *model.OutboxMessage) error
	ListPending(ctx context.Context, limit int) ([]model.OutboxMessage, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	// MarkAttempt records a failed delivery; status is PENDING to retry or FAILED to give up.
	MarkAttempt(ctx context.Context, id string, attempts int, status model.OutboxStatus, lastErr string) error
	// PurgeSent deletes delivered messages sent before the cutoff. FAILED rows are kept for inspection.
	PurgeSent(ctx context.Context, before time.Time) (int64, error)
}

type outboxRepo struct {
	db *gorm.DB
}

// NewOutboxRepo creates an OutboxRepository
func NewOutboxRepo(db *gorm.DB) OutboxRepository {
	return &outboxRepo{db: db}
}

func (r *outboxRepo) Create(ctx context.Context, msg *model.OutboxMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *outboxRepo) ListPending(ctx context.Context, limit int) ([]model.OutboxMessage, error) {
	var msgs []model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (r *outboxRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("message_id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.OutboxSent,
			"sent_at":    at,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": "",
			"body":       redactedBody,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *outboxRepo) MarkAttempt(ctx context.Context, id string, attempts int, status model.OutboxStatus, lastErr string) error {
	if len(lastErr) > 1000 {
		lastErr = lastErr[:1000]
	}
	updates := map[string]interface{}{
		"status":     status,
		"attempts":   attempts,
		"last_error": lastErr,
		"updated_at": gorm.Expr("NOW()"),
	}
	if status == model.OutboxFailed {
		updates["body"] = redactedBody
	}
	return r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("message_id = ?", id).
		Updates(updates).Error
}

// redactedBody drops the body of sensitive rows that will not be sent again.
var redactedBody = gorm.Expr("CASE WHEN sensitive THEN '' ELSE body END")

func (r *outboxRepo) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND sent_at < ?", model.OutboxSent, before).
		Delete(&model.OutboxMessage{})
	return res.RowsAffected, res.Error
}
