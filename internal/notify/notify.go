// Package notify sends transactional mail.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
)

// Message is a single outgoing email.
type Message struct {
	ToName  string
	ToEmail string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer delivers through the SendGrid v3 API.
type SendGridMailer struct {
	client     *sendgrid.Client
	sender     string
	senderName string
}

// NewSendGridMailer returns a mailer sending from sender.
func NewSendGridMailer(apiKey, sender, senderName string) *SendGridMailer {
	return &SendGridMailer{
		client:     sendgrid.NewSendClient(apiKey),
		sender:     sender,
		senderName: senderName,
	}
}

// Send implements Mailer.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(m.senderName, m.sender)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	if msg.ReplyTo != "" {
		email.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		log.ErrorErr(log.CatMail, "sendgrid request failed", err, "to", msg.ToEmail)
		return fmt.Errorf("send mail: %w", err)
	}
	if resp.StatusCode >= 300 {
		log.Error(log.CatMail, "sendgrid rejected message", "to", msg.ToEmail, "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("send mail: sendgrid status %d", resp.StatusCode)
	}
	log.Info(log.CatMail, "mail sent", "to", msg.ToEmail, "status", resp.StatusCode)
	return nil
}

// LogMailer writes messages to the log instead of sending them. It keeps
// what it was given so tests can inspect it.
type LogMailer struct {
	mu   sync.Mutex
	sent []Message
}

// NewLogMailer returns an empty LogMailer.
func NewLogMailer() *LogMailer { return &LogMailer{} }

// Send implements Mailer.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	log.Info(log.CatMail, "mail not sent, no provider configured", "to", msg.ToEmail, "subject", msg.Subject)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns the messages received so far.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
