// Package worker runs the mailer that drains the auth-email queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"cashtrackr/internal/mail"
)

// MailWorker renders queued messages and hands them to a Sender.
type MailWorker struct {
	renderer *mail.Renderer
	sender   mail.Sender
}

func NewMailWorker(renderer *mail.Renderer, sender mail.Sender) *MailWorker {
	return &MailWorker{renderer: renderer, sender: sender}
}

// HandleMessage processes a single delivery. Render failures (unknown
// kind, broken template data) are permanent and dropped by returning nil
// after logging; send failures are returned so the delivery is requeued.
func (w *MailWorker) HandleMessage(ctx context.Context, msg *mail.Message) error {
	subject, body, err := w.renderer.Render(msg)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping unrenderable mail message",
			"error", err, "mail_kind", msg.Kind, "to", msg.To)
		return nil
	}

	if err := w.sender.Send(ctx, msg.To, subject, body); err != nil {
		return fmt.Errorf("deliver %s mail: %w", msg.Kind, err)
	}

	slog.InfoContext(ctx, "Auth email delivered", "mail_kind", msg.Kind, "to", msg.To)
	return nil
}
