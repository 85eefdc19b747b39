// Package email sends transactional notifications. Bodies are written in
// markdown and rendered to HTML before delivery.
package email

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
)

type Message struct {
	To       string
	ToName   string
	Subject  string
	Markdown string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// HTML renders the markdown body of msg.
func (m Message) HTML() (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(m.Markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering email body: %w", err)
	}
	return buf.String(), nil
}

// New picks the mailer for provider: sendgrid, resend or log.
func New(provider, apiKey, from string, log logrus.FieldLogger) (Mailer, error) {
	switch provider {
	case "sendgrid":
		return NewSendgrid(apiKey, from)
	case "resend":
		return NewResend(apiKey, from), nil
	case "log", "":
		return NewLog(log), nil
	}
	return nil, fmt.Errorf("unknown email provider %q", provider)
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log logrus.FieldLogger
}

func NewLog(log logrus.FieldLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (l *LogMailer) Send(_ context.Context, msg Message) error {
	l.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("email not delivered, log provider\n" + msg.Markdown)
	return nil
}
