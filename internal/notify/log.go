package notify

import (
	"context"
	"log/slog"
)

// LogProvider writes messages to the logger instead of sending them.
// Used in local development when no email service is configured.
type LogProvider struct {
	Log *slog.Logger
}

func (p LogProvider) Send(ctx context.Context, msg Message) error {
	p.Log.InfoContext(ctx, "email not sent (log provider)",
		"template", msg.Template,
		"to", msg.To,
		"params", msg.Params,
	)
	return nil
}
