package service

import (
	"context"

	"go.uber.org/zap"

	"plantao/backend/internal/notify"
)

// Notifier enqueues out-of-band messages; *notify.Publisher implements it.
type Notifier interface {
	Publish(ctx context.Context, msg notify.Message) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, notify.Message) error { return nil }

// publishAll runs after the authoritative write. A failed enqueue is logged and dropped.
func publishAll(ctx context.Context, n Notifier, logger *zap.Logger, msgs ...notify.Message) {
	for _, msg := range msgs {
		if err := n.Publish(ctx, msg); err != nil {
			logger.Warn("falha ao enfileirar notificação",
				zap.String("event", msg.Event),
				zap.String("related_id", msg.RelatedID),
				zap.Error(err),
			)
		}
	}
}

// pushMessage an in-app message addressed to a user id.
func pushMessage(userID, event, subject, body, relatedID string) notify.Message {
	return notify.Message{
		Channel:   notify.ChannelPush,
		Recipient: userID,
		Event:     event,
		Subject:   subject,
		Body:      body,
		RelatedID: relatedID,
	}
}

// whatsAppMessage a WhatsApp message addressed to a phone number.
func whatsAppMessage(phone, event, subject, body, relatedID string) notify.Message {
	return notify.Message{
		Channel:   notify.ChannelWhatsApp,
		Recipient: phone,
		Event:     event,
		Subject:   subject,
		Body:      body,
		RelatedID: relatedID,
	}
}
