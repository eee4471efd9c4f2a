package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/internal/mq"
)

// scriptedQueue replays the given messages through the handler and then
// returns retErr, standing in for a broker subscription.
type scriptedQueue struct {
	msgs    []mq.Message
	retErr  error
	handled []error
}

func (q *scriptedQueue) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	for _, m := range q.msgs {
		q.handled = append(q.handled, handler(ctx, m))
	}
	return q.retErr
}

func queuedEmail(t *testing.T, id string) mq.Message {
	t.Helper()
	data, err := json.Marshal(Message{
		To:      "maria@example.com",
		Subject: "Codi de recuperació de contrasenya",
		Text:    "El teu codi és A1B2C3D4",
	})
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	return mq.Message{ID: id, Data: data}
}

func TestWorkerDeliversQueuedEmail(t *testing.T) {
	sender := &fakeSender{}
	queue := &scriptedQueue{msgs: []mq.Message{queuedEmail(t, "1")}, retErr: context.Canceled}
	w := NewWorker(sender, queue, "emails", discardLogger())

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sender.msgs) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(sender.msgs))
	}
	if sender.msgs[0].To != "maria@example.com" {
		t.Errorf("recipient = %q", sender.msgs[0].To)
	}
	if queue.handled[0] != nil {
		t.Errorf("handler returned %v, want ack", queue.handled[0])
	}
}

func TestWorkerDropsMalformedPayload(t *testing.T) {
	sender := &fakeSender{}
	queue := &scriptedQueue{msgs: []mq.Message{{ID: "1", Data: []byte("not json")}}}
	w := NewWorker(sender, queue, "emails", discardLogger())

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sender.msgs) != 0 {
		t.Fatalf("malformed payload must not reach the sender, got %d sends", len(sender.msgs))
	}
	if queue.handled[0] != nil {
		t.Errorf("malformed payload must be acked to stop redelivery, got %v", queue.handled[0])
	}
}

func TestWorkerNacksFailedDelivery(t *testing.T) {
	sendErr := errors.New("smtp down")
	sender := &fakeSender{err: sendErr}
	queue := &scriptedQueue{msgs: []mq.Message{queuedEmail(t, "1")}}
	w := NewWorker(sender, queue, "emails", discardLogger())

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.Is(queue.handled[0], sendErr) {
		t.Errorf("handler returned %v, want the delivery error for redelivery", queue.handled[0])
	}
}

func TestWorkerRunErrors(t *testing.T) {
	w := NewWorker(&fakeSender{}, &scriptedQueue{retErr: context.Canceled}, "emails", discardLogger())
	if err := w.Run(context.Background()); err != nil {
		t.Errorf("cancellation should end the run cleanly, got %v", err)
	}

	subErr := errors.New("connection reset")
	w = NewWorker(&fakeSender{}, &scriptedQueue{retErr: subErr}, "emails", discardLogger())
	if err := w.Run(context.Background()); !errors.Is(err, subErr) {
		t.Errorf("Run = %v, want %v", err, subErr)
	}
}
