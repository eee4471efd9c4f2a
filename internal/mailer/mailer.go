// Package mailer delivers transactional email. Recovery-code messages are
// normally queued on the message broker and drained by a Worker; without a
// broker the Dispatcher falls back to sending inline.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/config"
)

// Message is a single outbound email, JSON-encodable so it can travel
// through the queue.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Sender delivers a single message. Client is the SMTP implementation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client sends mail through the configured SMTP relay.
type Client struct {
	dialer *gomail.Dialer
	from   string
}

func NewClient(cfg config.SMTPConfig) *Client {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.UseSSL
	if cfg.UseTLS {
		dialer.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}
	return &Client{dialer: dialer, from: cfg.From}
}

// Send delivers the message. gomail has no context support of its own, so
// delivery runs in a goroutine that is abandoned on cancellation.
func (c *Client) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	done := make(chan error, 1)
	go func() { done <- c.dialer.DialAndSend(m) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BuildResetCodeEmail renders the recovery-code message in both plain text
// and HTML.
func BuildResetCodeEmail(name, code string, validity time.Duration) Message {
	minutes := int(validity.Minutes())
	text := fmt.Sprintf(
		"Hola %s,\n\nEl teu codi de recuperació de contrasenya és: %s\n\nEl codi caduca d'aquí a %d minuts. Si no has demanat aquest canvi, pots ignorar aquest correu.\n",
		name, code, minutes,
	)
	htmlBody := fmt.Sprintf(
		`<p>Hola %s,</p><p>El teu codi de recuperació de contrasenya és:</p><p style="font-size:24px;font-weight:bold;letter-spacing:4px">%s</p><p>El codi caduca d'aquí a %d minuts. Si no has demanat aquest canvi, pots ignorar aquest correu.</p>`,
		html.EscapeString(name), code, minutes,
	)
	return Message{
		Subject: "Codi de recuperació de contrasenya",
		Text:    text,
		HTML:    htmlBody,
	}
}
