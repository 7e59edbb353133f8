package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantao/backend/internal/model"
	"plantao/backend/internal/repository"
)

var (
	ErrNoRecipient = errors.New("notificação sem destinatário")
	ErrNoChannel   = errors.New("notificação sem canal")
)

// Publisher writes messages to the outbox for the dispatcher.
type Publisher struct {
	repo   repository.OutboxRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewPublisher creates an outbox publisher
func NewPublisher(repo repository.OutboxRepository, logger *zap.Logger) *Publisher {
	return &Publisher{repo: repo, logger: logger, now: time.Now}
}

// Publish persists msg as PENDING.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	if msg.Channel == "" {
		return ErrNoChannel
	}
	if msg.Recipient == "" {
		return ErrNoRecipient
	}

	now := p.now()
	row := &model.OutboxMessage{
		MessageID: uuid.NewString(),
		Channel:   msg.Channel,
		Recipient: msg.Recipient,
		Event:     msg.Event,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Sensitive: msg.Sensitive,
		Status:    model.OutboxPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if msg.RelatedID != "" {
		row.RelatedID = model.StrPtr(msg.RelatedID)
	}
	if len(msg.Metadata) > 0 {
		row.Metadata = msg.Metadata
	}

	if err := p.repo.Create(ctx, row); err != nil {
		return err
	}
	p.logger.Debug("notificação enfileirada",
		zap.String("message_id", row.MessageID),
		zap.String("event", msg.Event),
		zap.String("channel", msg.Channel),
	)
	return nil
}
