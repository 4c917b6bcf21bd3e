package workers

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier delivers a message to a user. The platform currently ships with a
// log-backed notifier; email/SMS channels plug in behind the same interface.
type Notifier interface {
	// Notify delivers a message and returns the channel name it went out on.
	Notify(ctx context.Context, email, subject, body string) (channel string, err error)
}

// LogNotifier writes notifications to the application log. Used in
// development and as the fallback delivery channel.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, email, subject, body string) (string, error) {
	n.Log.Info().
		Str("to", email).
		Str("subject", subject).
		Str("body", body).
		Msg("Notification sent")
	return "log", nil
}
