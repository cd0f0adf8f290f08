package mailer

import (
	"context"
	"log/slog"
)

// LogMailer writes invite notifications to the log instead of sending
// real email. It stands in until an SMTP or provider-backed sender is
// wired up; the service layer only sees the SendInvite contract.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendInvite(_ context.Context, email, teamName, token string) error {
	m.logger.Info("invite email",
		slog.String("to", email),
		slog.String("team", teamName),
		slog.String("token", token))
	return nil
}
