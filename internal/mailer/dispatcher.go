package mailer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Queue is the publishing side of the message broker.
type Queue interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Dispatcher queues recovery-code emails when a broker is configured and
// falls back to sending them inline otherwise, so the reset flow keeps
// working on minimal deployments.
type Dispatcher struct {
	sender  Sender
	queue   Queue
	channel string
	logger  *slog.Logger
}

// NewDispatcher builds a dispatcher. A nil queue selects the inline path.
func NewDispatcher(sender Sender, queue Queue, channel string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sender: sender, queue: queue, channel: channel, logger: logger}
}

// SendResetCode builds the recovery message and hands it to the queue, or
// sends it directly when no queue is configured. A failed publish degrades
// to an inline send rather than losing the code.
func (d *Dispatcher) SendResetCode(ctx context.Context, to, name, code string, validity time.Duration) error {
	msg := BuildResetCodeEmail(name, code, validity)
	msg.To = to
	if d.queue == nil {
		return d.sender.Send(ctx, msg)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	id, err := d.queue.Publish(ctx, d.channel, data, map[string]string{"kind": "reset_code"})
	if err != nil {
		d.logger.Warn("email queue publish failed, sending inline", "to", to, "error", err)
		return d.sender.Send(ctx, msg)
	}
	d.logger.Debug("queued recovery email", "message_id", id, "to", to)
	return nil
}
