// Package mq abstracts the message brokers that carry the app's background
// jobs. The only queue today is the recovery-email queue: the password-reset
// flow publishes jobs and the mailer worker drains them.
package mq

import (
	"context"
	"errors"
	"strings"
)

// Message is one delivered job.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a delivered job. A nil return acks the message; an
// error nacks it for redelivery.
type Handler func(ctx context.Context, msg Message) error

// Backend is implemented by each broker. Channel names are validated by
// the MQ wrapper, so implementations may assume they are non-empty.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ fronts the configured backend. All broker traffic in the app goes
// through this type.
type MQ struct {
	backend Backend
}

func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Publish enqueues one job on the named channel and returns its broker id.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return "", errors.New("mq: channel name is required")
	}
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe blocks delivering the channel's jobs to the handler until the
// context is canceled.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return errors.New("mq: channel name is required")
	}
	return m.backend.Subscribe(ctx, channel, handler)
}

func (m *MQ) Close() error {
	return m.backend.Close()
}
