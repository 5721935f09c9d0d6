package workflow

import (
	"context"
	"log/slog"
)

// Mailer delivers outbound messages to the client. Optional in dev: the
// log mailer records the send and delivers nothing.
type Mailer interface {
	Send(ctx context.Context, to, subject, bodyText, bodyHTML string) error
}

// LogMailer is the dev simulation mailer.
type LogMailer struct{}

// Send logs the outbound message instead of delivering it.
func (LogMailer) Send(_ context.Context, to, subject, bodyText, _ string) error {
	slog.Info("Simulated outbound email",
		"to", to, "subject", subject, "body_len", len(bodyText))
	return nil
}
