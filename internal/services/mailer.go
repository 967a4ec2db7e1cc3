package services

import (
	"context"

	"github.com/yukikurage/workforce-management-api/pkg/logger"
)

// Mail is an outgoing message.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers outgoing mail.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// LogMailer writes messages to the request logger instead of delivering them.
type LogMailer struct {
	From string
}

func NewLogMailer(from string) *LogMailer {
	return &LogMailer{From: from}
}

func (m *LogMailer) Send(ctx context.Context, mail Mail) error {
	logger.From(ctx).Info("outgoing mail",
		"from", m.From,
		"to", mail.To,
		"subject", mail.Subject,
		"body", mail.Body,
	)
	return nil
}
