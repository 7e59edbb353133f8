package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes messages to the log instead of delivering them.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send logs the message
func (s *LogSink) Send(_ context.Context, channel, recipient string, payload Payload) error {
	s.logger.Info("notificação",
		zap.String("channel", channel),
		zap.String("recipient", recipient),
		zap.String("subject", payload.Subject),
		zap.String("body", payload.Body),
	)
	return nil
}
