package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/mq"
)

// Subscriber is the consuming side of the message broker.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Worker drains the email queue and delivers each message through the SMTP
// client.
type Worker struct {
	sender  Sender
	queue   Subscriber
	channel string
	logger  *slog.Logger
}

func NewWorker(sender Sender, queue Subscriber, channel string, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sender: sender, queue: queue, channel: channel, logger: logger}
}

// Run blocks consuming the queue until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	err := w.queue.Subscribe(ctx, w.channel, w.handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *Worker) handle(ctx context.Context, msg mq.Message) error {
	var m Message
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		// Malformed payloads would redeliver forever; drop them.
		w.logger.Error("dropping malformed email job", "message_id", msg.ID, "error", err)
		return nil
	}
	if err := w.sender.Send(ctx, m); err != nil {
		w.logger.Error("email delivery failed", "message_id", msg.ID, "to", m.To, "error", err)
		return err
	}
	w.logger.Info("email delivered", "message_id", msg.ID, "to", m.To)
	return nil
}
