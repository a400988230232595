package mail

import (
	"context"
	"log/slog"
)

// Mailer delivers account emails. Delivery itself is an external concern;
// this interface is the whole boundary the server depends on.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, code string) error
}

// LogMailer is the development delivery backend: it records that a message
// would have been sent and surfaces the reset code at debug level only.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, code string) error {
	slog.Info("mail.password_reset.sent", "to", to)
	slog.Debug("mail.password_reset.code", "to", to, "code", code)
	return nil
}
