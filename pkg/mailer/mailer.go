// Package mailer delivers transactional email.
package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Message is a single outbound email
type Message struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Sender delivers a message or reports why it could not
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
// It is used when no provider key is configured.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender returns a Sender that only logs
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the message metadata
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("Email delivery disabled, message logged only",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)))
	return nil
}
