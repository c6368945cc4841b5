package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier delivers a message to a user's notification destination.
// chatID is the per-user channel address (Telegram chat, etc.); senders
// bound to a fixed channel may ignore it.
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// Multi fans one message out to several channels and reports every
// delivery failure, not just the first.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, chatID, text string) error {
	var errs error
	for _, n := range m {
		if n == nil {
			continue
		}
		errs = multierr.Append(errs, n.Send(ctx, chatID, text))
	}
	return errs
}
