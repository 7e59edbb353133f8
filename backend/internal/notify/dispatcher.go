package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"plantao/backend/internal/model"
	"plantao/backend/internal/repository"
)

// DispatchStats result of one dispatcher pass
type DispatchStats struct {
	Sent    int
	Retried int
	Failed  int
}

// Dispatcher drains the outbox through a Sink.
type Dispatcher struct {
	repo        repository.OutboxRepository
	sink        Sink
	batchSize   int
	maxAttempts int
	logger      *zap.Logger
	now         func() time.Time
}

// NewDispatcher creates a dispatcher
func NewDispatcher(repo repository.OutboxRepository, sink Sink, batchSize, maxAttempts int, logger *zap.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Dispatcher{
		repo:        repo,
		sink:        sink,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      logger,
		now:         time.Now,
	}
}

// RunOnce sends one batch of pending messages. A failed send keeps the message
// PENDING until maxAttempts, then marks it FAILED.
func (d *Dispatcher) RunOnce(ctx context.Context) (DispatchStats, error) {
	var stats DispatchStats

	msgs, err := d.repo.ListPending(ctx, d.batchSize)
	if err != nil {
		return stats, err
	}

	for _, m := range msgs {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		payload := Payload{Subject: m.Subject, Body: m.Body, Metadata: m.Metadata}
		sendErr := d.sink.Send(ctx, m.Channel, m.Recipient, payload)
		if sendErr == nil {
			if err := d.repo.MarkSent(ctx, m.MessageID, d.now()); err != nil {
				d.logger.Error("falha ao marcar notificação como enviada", zap.String("message_id", m.MessageID), zap.Error(err))
			}
			stats.Sent++
			continue
		}

		attempts := m.Attempts + 1
		status := model.OutboxPending
		if attempts >= d.maxAttempts {
			status = model.OutboxFailed
			stats.Failed++
		} else {
			stats.Retried++
		}
		d.logger.Warn("falha ao entregar notificação",
			zap.String("message_id", m.MessageID),
			zap.String("event", m.Event),
			zap.Int("attempts", attempts),
			zap.Error(sendErr),
		)
		if err := d.repo.MarkAttempt(ctx, m.MessageID, attempts, status, sendErr.Error()); err != nil {
			d.logger.Error("falha ao registrar tentativa de envio", zap.String("message_id", m.MessageID), zap.Error(err))
		}
	}

	return stats, nil
}

// Purge removes delivered messages older than retention.
func (d *Dispatcher) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	n, err := d.repo.PurgeSent(ctx, d.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		d.logger.Info("notificações antigas removidas", zap.Int64("count", n), zap.Duration("retention", retention))
	}
	return n, nil
}
